// Package solve provides a small convex-programming facade used by the
// optimization-based allocators. A Program describes box-bounded decision
// variables, a convex objective (possibly nonsmooth), and a single linear
// budget constraint over the variable sum; a Solver returns an optimal
// assignment or a Failure naming the reason.
package solve

import (
	"context"
	"fmt"
)

// Sense selects the form of the budget constraint.
type Sense int

const (
	// SumLessEqual constrains Σx ≤ Budget.
	SumLessEqual Sense = iota
	// SumEqual constrains Σx = Budget.
	SumEqual
)

// Objective evaluates a convex function and its (sub)gradient.
// Gradient writes into grad, which has the same length as x.
type Objective interface {
	Value(x []float64) float64
	Gradient(grad, x []float64)
}

// Program is a convex minimization problem:
//
//	min  f(x)
//	s.t. Σx ≤ Budget  (or Σx = Budget)
//	     Lower[i] ≤ x[i] ≤ Upper[i]
type Program struct {
	Lower     []float64
	Upper     []float64
	Budget    float64
	Sense     Sense
	Objective Objective
}

// Vars returns the number of decision variables.
func (p *Program) Vars() int { return len(p.Lower) }

// Solution is an optimal (to tolerance) assignment of the variables.
type Solution struct {
	X          []float64
	Objective  float64
	Iterations int
}

// Reason classifies why a solver could not produce a solution.
type Reason string

const (
	ReasonInfeasible   Reason = "infeasible"
	ReasonUnbounded    Reason = "unbounded"
	ReasonNotConverged Reason = "not-converged"
	ReasonDeadline     Reason = "deadline-exceeded"
)

// Failure is the error returned when the program itself defeats the solver.
// Malformed programs (mismatched slice lengths, nil objective) are reported
// as plain errors instead.
type Failure struct {
	Reason  Reason
	Message string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("solver failure (%s): %s", f.Reason, f.Message)
}

// Solver solves convex programs. Solve blocks until an optimum is found, the
// program is rejected, or ctx expires; ctx expiry surfaces as a Failure with
// ReasonDeadline.
type Solver interface {
	Solve(ctx context.Context, prog *Program) (*Solution, error)
}
