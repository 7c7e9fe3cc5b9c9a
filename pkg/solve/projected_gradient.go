package solve

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"k8s.io/klog/v2"
)

// Default tuning for the projected gradient solver.
const (
	DefaultMaxIterations = 5000
	DefaultTolerance     = 1e-9
	DefaultInitialStep   = 0.05

	// feasibilityTolerance absorbs floating-point residue when checking the
	// budget constraint against the bound sums.
	feasibilityTolerance = 1e-9

	// divergenceLimit flags an unbounded program: iterates escaping past this
	// magnitude cannot happen on a compact feasible set.
	divergenceLimit = 1e30
)

// ProjectedGradient minimizes a convex objective over the box/budget feasible
// set by projected (sub)gradient descent.
//
// Algorithm per iteration:
//  1. x' = Π(x − η·∇f(x)), with the step η = η₀·(1+‖x₀‖)/(1+‖∇f(x₀)‖)
//     fixed at a scale-relative value
//  2. Π projects onto {Lower ≤ x ≤ Upper, Σx ≤ Budget (or = Budget)} by
//     bisection on the dual variable of the budget constraint
//
// Every iterate is feasible and x is optimal exactly when it is a fixed point
// of step 1, so Solve stops once the iterates stop moving. Nonsmooth
// objectives get a subgradient in step 1; they terminate through the same
// fixed-point condition because the projection absorbs subgradient components
// pointing out of the feasible set.
type ProjectedGradient struct {
	MaxIterations int
	Tolerance     float64
	InitialStep   float64
}

// NewProjectedGradient returns a solver with default tuning.
func NewProjectedGradient() *ProjectedGradient {
	return &ProjectedGradient{
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
		InitialStep:   DefaultInitialStep,
	}
}

// Solve implements Solver.
func (s *ProjectedGradient) Solve(ctx context.Context, prog *Program) (*Solution, error) {
	if err := validateProgram(prog); err != nil {
		return nil, err
	}
	if err := checkFeasible(prog); err != nil {
		return nil, err
	}

	n := prog.Vars()

	// Start from the equal split projected onto the feasible set. For the
	// symmetric programs the allocators build, this sits close to (often
	// exactly at) the optimum.
	x := make([]float64, n)
	for i := range x {
		x[i] = clamp(prog.Budget/float64(n), prog.Lower[i], prog.Upper[i])
	}
	projectBudget(x, prog.Lower, prog.Upper, prog.Budget, prog.Sense)

	best := make([]float64, n)
	copy(best, x)
	bestValue := prog.Objective.Value(x)

	grad := make([]float64, n)
	next := make([]float64, n)

	prog.Objective.Gradient(grad, x)
	step := s.InitialStep * (1 + floats.Norm(x, 2)) / (1 + floats.Norm(grad, 2))

	for t := 0; t < s.MaxIterations; t++ {
		select {
		case <-ctx.Done():
			return nil, &Failure{Reason: ReasonDeadline, Message: ctx.Err().Error()}
		default:
		}

		prog.Objective.Gradient(grad, x)
		if floats.Norm(grad, 2) == 0 {
			// Unconstrained stationary point inside the feasible set.
			return &Solution{X: best, Objective: bestValue, Iterations: t}, nil
		}

		copy(next, x)
		floats.AddScaled(next, -step, grad)
		projectBudget(next, prog.Lower, prog.Upper, prog.Budget, prog.Sense)

		if floats.Norm(next, math.Inf(1)) > divergenceLimit {
			return nil, &Failure{Reason: ReasonUnbounded, Message: "iterates diverged"}
		}

		if value := prog.Objective.Value(next); value < bestValue {
			bestValue = value
			copy(best, next)
		}

		moved := floats.Distance(next, x, 2)
		copy(x, next)

		if moved <= s.Tolerance*(1+floats.Norm(x, 2)) {
			klog.V(5).Infof("projected gradient converged after %d iterations (objective %.6g)", t+1, bestValue)
			return &Solution{X: best, Objective: bestValue, Iterations: t + 1}, nil
		}
	}

	return nil, &Failure{Reason: ReasonNotConverged, Message: "iteration limit reached before the iterates settled"}
}

func validateProgram(prog *Program) error {
	if prog == nil || prog.Objective == nil {
		return errors.New("solve: program and objective must be non-nil")
	}
	if len(prog.Lower) != len(prog.Upper) {
		return errors.Errorf("solve: bound length mismatch (%d lower, %d upper)", len(prog.Lower), len(prog.Upper))
	}
	if prog.Vars() == 0 {
		return errors.New("solve: program has no variables")
	}
	return nil
}

func checkFeasible(prog *Program) error {
	sumLower := 0.0
	sumUpper := 0.0
	for i := range prog.Lower {
		if prog.Lower[i] > prog.Upper[i] {
			return &Failure{Reason: ReasonInfeasible, Message: "crossed variable bounds"}
		}
		sumLower += prog.Lower[i]
		sumUpper += prog.Upper[i]
	}
	if sumLower > prog.Budget+feasibilityTolerance {
		return &Failure{Reason: ReasonInfeasible, Message: "lower bounds exceed the budget"}
	}
	if prog.Sense == SumEqual && sumUpper < prog.Budget-feasibilityTolerance {
		return &Failure{Reason: ReasonInfeasible, Message: "upper bounds cannot reach the budget"}
	}
	return nil
}

// projectBudget projects x in place onto {lower ≤ x ≤ upper} intersected with
// the budget constraint. The projection is clamp(x−τ) for a scalar τ found by
// bisection: Σ clamp(x−τ) is non-increasing in τ, so the root is bracketed by
// doubling and then bisected to floating-point resolution. The shift and the
// clamp apply to the incoming values together; a variable pushed past a bound
// stays on that bound for as long as x[i]−τ is beyond it. Shifting the
// pre-clamped values instead would drag saturated variables off their bounds
// and the result would no longer be the nearest feasible point.
func projectBudget(x, lower, upper []float64, budget float64, sense Sense) {
	sumAt := func(tau float64) float64 {
		s := 0.0
		for i := range x {
			s += clamp(x[i]-tau, lower[i], upper[i])
		}
		return s
	}

	total := sumAt(0)
	if (sense == SumLessEqual && total <= budget) || total == budget {
		clampAll(x, lower, upper)
		return
	}

	// Bracket the root.
	lo, hi := -1.0, 1.0
	for i := 0; i < 200 && sumAt(lo) < budget; i++ {
		lo *= 2
	}
	for i := 0; i < 200 && sumAt(hi) > budget; i++ {
		hi *= 2
	}

	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		if sumAt(mid) > budget {
			lo = mid
		} else {
			hi = mid
		}
	}

	tau := (lo + hi) / 2
	for i := range x {
		x[i] = clamp(x[i]-tau, lower[i], upper[i])
	}
}

func clampAll(x, lower, upper []float64) {
	for i := range x {
		x[i] = clamp(x[i], lower[i], upper[i])
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
