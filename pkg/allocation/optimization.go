package allocation

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"fairalloc/pkg/solve"
	"fairalloc/pkg/types"
)

// logFloor keeps the log-utility objective finite: variables in the
// proportional program are bounded below by this value instead of zero.
const logFloor = 1e-12

// Proportional computes the proportionally fair allocation:
//
//	max  Σ log(x_i)
//	s.t. Σx ≤ resource, 0 ≤ x_i ≤ cap_i
//
// This is the unique allocation satisfying the proportional-fairness axiom:
// for any feasible alternative y, Σ (y_i−x_i)/x_i ≤ 0. Agents with zero
// capacity are fixed at zero and excluded from the log-sum, which would
// otherwise be undefined.
func Proportional(ctx context.Context, solver solve.Solver, resource float64, capacity types.Capacity) (types.Allocation, error) {
	return solveProgram(ctx, solver, resource, capacity, solve.SumLessEqual, negLogSum{})
}

// GiniMinimizing computes the allocation with the smallest Gini dispersion
// subject to full resource use:
//
//	min  Σ_i Σ_j |x_i − x_j|
//	s.t. Σx = resource, 0 ≤ x_i ≤ cap_i
//
// The pairwise absolute values make the objective convex but nonsmooth; the
// solver receives a subgradient. Infeasible when resource > Σcap.
func GiniMinimizing(ctx context.Context, solver solve.Solver, resource float64, capacity types.Capacity) (types.Allocation, error) {
	return solveProgram(ctx, solver, resource, capacity, solve.SumEqual, pairwiseSpread{})
}

// JainMaximizing computes the allocation maximizing Jain's fairness index at
// full resource use. At fixed Σx the index is maximal exactly when Σx² is
// minimal, so the program is:
//
//	min  Σ x_i²
//	s.t. Σx = resource, 0 ≤ x_i ≤ cap_i
//
// Infeasible when resource > Σcap.
func JainMaximizing(ctx context.Context, solver solve.Solver, resource float64, capacity types.Capacity) (types.Allocation, error) {
	return solveProgram(ctx, solver, resource, capacity, solve.SumEqual, sumOfSquares{})
}

// solveProgram builds the convex program over the positive-capacity agents,
// delegates to the solver, and maps the optimum back onto the agent set.
func solveProgram(
	ctx context.Context,
	solver solve.Solver,
	resource float64,
	capacity types.Capacity,
	sense solve.Sense,
	objective solve.Objective,
) (types.Allocation, error) {
	if err := validateInputs(resource, capacity); err != nil {
		return nil, err
	}
	if solver == nil {
		return nil, errors.Wrap(types.ErrInvalidInput, "nil solver")
	}

	alloc := capacity.Zero()

	// Zero-capacity agents are fixed at zero and stay out of the program.
	vars := make([]types.Agent, 0, len(capacity))
	for _, agent := range capacity.Agents() {
		if capacity[agent] > 0 {
			vars = append(vars, agent)
		}
	}

	if len(vars) == 0 || resource == 0 {
		// The only candidate is the zero allocation. It is feasible for the
		// equality-constrained programs only when resource is zero too.
		if sense == solve.SumEqual && resource > 0 {
			return nil, errors.Wrap(types.ErrOptimization, "infeasible: no capacity to absorb the resource")
		}
		return alloc, nil
	}

	prog := &solve.Program{
		Lower:     make([]float64, len(vars)),
		Upper:     make([]float64, len(vars)),
		Budget:    resource,
		Sense:     sense,
		Objective: objective,
	}
	for i, agent := range vars {
		prog.Lower[i] = logFloor
		prog.Upper[i] = capacity[agent]
	}

	solution, err := solver.Solve(ctx, prog)
	if err != nil {
		return nil, errors.Wrap(types.ErrOptimization, err.Error())
	}

	for i, agent := range vars {
		alloc[agent] = solution.X[i]
	}
	return alloc, nil
}

// negLogSum is −Σ log x_i, the minimization form of the log-utility
// objective. Gradient: −1/x_i.
type negLogSum struct{}

func (negLogSum) Value(x []float64) float64 {
	v := 0.0
	for _, xi := range x {
		v -= math.Log(xi)
	}
	return v
}

func (negLogSum) Gradient(grad, x []float64) {
	for i, xi := range x {
		grad[i] = -1 / xi
	}
}

// pairwiseSpread is Σ_i Σ_j |x_i − x_j| with subgradient
// g_i = 2·Σ_j sign(x_i − x_j).
type pairwiseSpread struct{}

func (pairwiseSpread) Value(x []float64) float64 {
	v := 0.0
	for i := range x {
		for j := range x {
			v += math.Abs(x[i] - x[j])
		}
	}
	return v
}

func (pairwiseSpread) Gradient(grad, x []float64) {
	for i := range x {
		g := 0.0
		for j := range x {
			switch {
			case x[i] > x[j]:
				g += 2
			case x[i] < x[j]:
				g -= 2
			}
		}
		grad[i] = g
	}
}

// sumOfSquares is Σ x_i² with gradient 2x.
type sumOfSquares struct{}

func (sumOfSquares) Value(x []float64) float64 {
	v := 0.0
	for _, xi := range x {
		v += xi * xi
	}
	return v
}

func (sumOfSquares) Gradient(grad, x []float64) {
	for i, xi := range x {
		grad[i] = 2 * xi
	}
}
