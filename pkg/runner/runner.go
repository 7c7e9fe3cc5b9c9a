// Package runner orchestrates allocation scenarios: it invokes every
// registered strategy on a (resource, capacity) pair, scores the results with
// the equality indices, and forwards finished allocations to a chart sink.
package runner

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"k8s.io/klog/v2"

	"fairalloc/pkg/allocation"
	"fairalloc/pkg/chart"
	"fairalloc/pkg/equality"
	"fairalloc/pkg/solve"
	"fairalloc/pkg/types"
)

// Mode labels the scarcity regime of a scenario.
type Mode string

const (
	// ModeAbundant means resource ≥ Σcap: capacity is the binding constraint.
	ModeAbundant Mode = "abundant"
	// ModeContended means resource < Σcap: the resource is the binding
	// constraint and strategies genuinely compete.
	ModeContended Mode = "contended"
)

// AllocateFunc is the strategy signature the runner drives. Combinatorial
// strategies ignore ctx; optimization-backed ones pass it to the solver.
type AllocateFunc func(ctx context.Context, resource float64, capacity types.Capacity) (types.Allocation, error)

// Strategy is a named allocator registered with the runner.
type Strategy struct {
	Name     string
	Allocate AllocateFunc

	// Unclamped marks strategies that over-allocate past capacity by design
	// (ratio-based allocation); the runner skips the feasibility check for
	// them instead of reporting a violation.
	Unclamped bool
}

// ShareSummary are descriptive statistics over one allocation's values.
type ShareSummary struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Result is the outcome of one strategy on one scenario. When Err is set the
// other fields are zero; an equality index that is undefined for the
// allocation (all-zero shares) is reported as NaN rather than an error.
type Result struct {
	Strategy   string
	Mode       Mode
	Allocation types.Allocation
	Jain       float64
	Gini       float64
	Waste      float64
	Summary    ShareSummary
	Err        error
}

// Runner drives a fixed strategy set over scenarios.
type Runner struct {
	solver        solve.Solver
	sink          chart.Sink
	solverTimeout time.Duration
	strategies    []Strategy
}

// New builds a runner with the default strategy set. A nil sink discards
// charts; solverTimeout ≤ 0 leaves solver calls bounded only by the caller's
// context.
func New(solver solve.Solver, sink chart.Sink, solverTimeout time.Duration) *Runner {
	if sink == nil {
		sink = chart.Discard{}
	}
	return &Runner{
		solver:        solver,
		sink:          sink,
		solverTimeout: solverTimeout,
		strategies:    DefaultStrategies(solver),
	}
}

// Register appends an additional strategy.
func (r *Runner) Register(s Strategy) {
	r.strategies = append(r.strategies, s)
}

// Strategy looks up a registered strategy by name.
func (r *Runner) Strategy(name string) (Strategy, bool) {
	return lo.Find(r.strategies, func(s Strategy) bool { return s.Name == name })
}

// Run executes every strategy on the scenario. Strategy failures land in the
// per-strategy Result and do not stop the remaining strategies; Run itself
// only fails on malformed scenario input.
func (r *Runner) Run(ctx context.Context, resource float64, capacity types.Capacity) ([]Result, error) {
	if resource < 0 {
		return nil, errors.Wrapf(types.ErrInvalidInput, "negative resource %v", resource)
	}
	if err := capacity.Validate(); err != nil {
		return nil, err
	}

	mode := ModeContended
	if resource >= capacity.Total() {
		mode = ModeAbundant
	}

	results := make([]Result, 0, len(r.strategies))
	for _, strategy := range r.strategies {
		results = append(results, r.runOne(ctx, strategy, mode, resource, capacity))
	}

	klog.V(2).Infof("scenario done (%s): %v", mode,
		lo.Map(results, func(res Result, _ int) string { return res.Strategy }))
	return results, nil
}

func (r *Runner) runOne(ctx context.Context, strategy Strategy, mode Mode, resource float64, capacity types.Capacity) Result {
	result := Result{Strategy: strategy.Name, Mode: mode}

	runCtx := ctx
	if r.solverTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.solverTimeout)
		defer cancel()
	}

	alloc, err := strategy.Allocate(runCtx, resource, capacity)
	if err != nil {
		klog.Warningf("strategy %s failed: %v", strategy.Name, err)
		result.Err = err
		return result
	}

	if !strategy.Unclamped {
		if err := allocation.VerifyFeasibility(alloc, capacity); err != nil {
			result.Err = fmt.Errorf("strategy %s broke feasibility: %w", strategy.Name, err)
			return result
		}
		if err := allocation.VerifyConservation(alloc, resource); err != nil {
			result.Err = fmt.Errorf("strategy %s broke conservation: %w", strategy.Name, err)
			return result
		}
	}

	result.Allocation = alloc
	result.Waste = resource - alloc.Total()
	result.Jain = indexOrNaN(equality.JainIndex, alloc)
	result.Gini = indexOrNaN(equality.GiniIndex, alloc)
	result.Summary = summarize(alloc)

	label := fmt.Sprintf("%s (%s)", strategy.Name, mode)
	if err := r.sink.Render(label, capacity, alloc); err != nil {
		klog.Warningf("chart sink rejected %s: %v", strategy.Name, err)
	}
	return result
}

// indexOrNaN maps the InvalidInput case (all-zero allocations) to NaN: the
// null baseline always produces it and it is not a strategy failure.
func indexOrNaN(index func(types.Allocation) (float64, error), alloc types.Allocation) float64 {
	v, err := index(alloc)
	if err != nil {
		klog.V(4).Infof("equality index undefined: %v", err)
		return math.NaN()
	}
	return v
}

func summarize(alloc types.Allocation) ShareSummary {
	values := alloc.Values()
	if len(values) == 0 {
		return ShareSummary{}
	}
	// The stats helpers only fail on empty input, checked above.
	mean, _ := stats.Mean(values)
	stdDev, _ := stats.StandardDeviation(values)
	min, _ := stats.Min(values)
	max, _ := stats.Max(values)
	return ShareSummary{Mean: mean, StdDev: stdDev, Min: min, Max: max}
}

// DefaultStrategies returns every built-in strategy wired to the given
// solver.
func DefaultStrategies(solver solve.Solver) []Strategy {
	return []Strategy{
		{Name: "null", Allocate: ignoreCtx(allocation.Null)},
		{Name: "greedy", Allocate: ignoreCtx(allocation.Greedy)},
		{Name: "maximin", Allocate: ignoreCtx(allocation.Maximin)},
		{Name: "egalitarian", Allocate: ignoreCtx(allocation.Egalitarian)},
		{Name: "concurrent", Allocate: ignoreCtx(allocation.Concurrent), Unclamped: true},
		{Name: "max-min-fair", Allocate: ignoreCtx(allocation.MaxMinFair)},
		{Name: "shapley", Allocate: func(ctx context.Context, resource float64, capacity types.Capacity) (types.Allocation, error) {
			return allocation.Shapley(resource, capacity, 0, rand.New(rand.NewSource(1)))
		}},
		{Name: "proportional", Allocate: func(ctx context.Context, resource float64, capacity types.Capacity) (types.Allocation, error) {
			return allocation.Proportional(ctx, solver, resource, capacity)
		}},
		{Name: "gini-min", Allocate: func(ctx context.Context, resource float64, capacity types.Capacity) (types.Allocation, error) {
			return allocation.GiniMinimizing(ctx, solver, resource, capacity)
		}},
		{Name: "jain-max", Allocate: func(ctx context.Context, resource float64, capacity types.Capacity) (types.Allocation, error) {
			return allocation.JainMaximizing(ctx, solver, resource, capacity)
		}},
	}
}

func ignoreCtx(fn func(float64, types.Capacity) (types.Allocation, error)) AllocateFunc {
	return func(_ context.Context, resource float64, capacity types.Capacity) (types.Allocation, error) {
		return fn(resource, capacity)
	}
}
