package allocation

import (
	"context"
	"errors"
	"math"
	"testing"

	"fairalloc/pkg/solve"
	"fairalloc/pkg/types"
)

// solverTolerance is looser than the combinatorial checks: the solver stops
// on iterate movement, not on exact optimality.
const solverTolerance = 1e-3

func expectNearAllocation(t *testing.T, got types.Allocation, want map[types.Agent]float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d agents, got %d (%v)", len(want), len(got), got)
	}
	for agent, wantValue := range want {
		if math.Abs(got[agent]-wantValue) > solverTolerance {
			t.Errorf("agent %s: expected %v, got %v", agent, wantValue, got[agent])
		}
	}
}

func TestProportional_ConcreteScenario(t *testing.T) {
	// With equal weights the log-utility optimum is the clamped equal split:
	// A pinned at 250, B and C at 375.
	alloc, err := Proportional(context.Background(), solve.NewProjectedGradient(), 1000, referenceCapacity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectNearAllocation(t, alloc, map[types.Agent]float64{"A": 250, "B": 375, "C": 375})
}

func TestProportional_AgreesWithWaterFilling(t *testing.T) {
	// All three convex programs share the clamped-equal-split optimum, which
	// is exactly the water-filling allocation whenever the resource binds.
	capacity := types.Capacity{"a": 50, "b": 200, "c": 400, "d": 800}
	reference, err := MaxMinFair(700, capacity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	alloc, err := Proportional(context.Background(), solve.NewProjectedGradient(), 700, capacity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for agent := range capacity {
		if math.Abs(alloc[agent]-reference[agent]) > solverTolerance {
			t.Errorf("agent %s: proportional %v vs water-filling %v", agent, alloc[agent], reference[agent])
		}
	}
}

func TestProportional_ZeroCapacityAgentExcluded(t *testing.T) {
	// A zero-capacity agent would make the log-sum undefined; it must be
	// fixed at zero instead.
	capacity := types.Capacity{"idle": 0, "x": 100, "y": 100}
	alloc, err := Proportional(context.Background(), solve.NewProjectedGradient(), 150, capacity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectNearAllocation(t, alloc, map[types.Agent]float64{"idle": 0, "x": 75, "y": 75})
}

func TestProportional_AbundantResource(t *testing.T) {
	// Σx ≤ resource never binds: everyone saturates.
	alloc, err := Proportional(context.Background(), solve.NewProjectedGradient(), 5000, referenceCapacity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectNearAllocation(t, alloc, map[types.Agent]float64{"A": 250, "B": 450, "C": 450})
}

func TestProportional_ConservesWithSpreadCapacities(t *testing.T) {
	// Water-filling rounds: everyone +5 (e saturates), +45 (a out at 50),
	// +80 (b out at 130), then c and d split the remaining 255 to 257.5
	// each. The log-utility optimum is the same point; with several agents
	// pinned at capacity the solver must still land on the budget exactly.
	capacity := types.Capacity{"a": 50, "b": 130, "c": 400, "d": 800, "e": 5}
	alloc, err := Proportional(context.Background(), solve.NewProjectedGradient(), 700, capacity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectNearAllocation(t, alloc, map[types.Agent]float64{
		"a": 50, "b": 130, "c": 257.5, "d": 257.5, "e": 5,
	})
	if math.Abs(alloc.Total()-700) > 1e-6 {
		t.Errorf("expected full use of 700, allocated %v", alloc.Total())
	}
}

func TestGiniMinimizing_ConcreteScenario(t *testing.T) {
	alloc, err := GiniMinimizing(context.Background(), solve.NewProjectedGradient(), 1000, referenceCapacity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectNearAllocation(t, alloc, map[types.Agent]float64{"A": 250, "B": 375, "C": 375})
	if !almostEqual(alloc.Total(), 1000) {
		t.Errorf("gini program requires full resource use, allocated %v", alloc.Total())
	}
}

func TestGiniMinimizing_InfeasibleWhenResourceExceedsCapacity(t *testing.T) {
	_, err := GiniMinimizing(context.Background(), solve.NewProjectedGradient(), 2000, referenceCapacity)
	if !errors.Is(err, types.ErrOptimization) {
		t.Errorf("expected ErrOptimization for resource beyond total capacity, got %v", err)
	}
}

func TestJainMaximizing_ConcreteScenario(t *testing.T) {
	alloc, err := JainMaximizing(context.Background(), solve.NewProjectedGradient(), 1000, referenceCapacity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectNearAllocation(t, alloc, map[types.Agent]float64{"A": 250, "B": 375, "C": 375})
}

func TestJainMaximizing_InfeasibleWhenResourceExceedsCapacity(t *testing.T) {
	_, err := JainMaximizing(context.Background(), solve.NewProjectedGradient(), 1200, referenceCapacity)
	if !errors.Is(err, types.ErrOptimization) {
		t.Errorf("expected ErrOptimization, got %v", err)
	}
}

func TestOptimizationAllocators_ZeroResource(t *testing.T) {
	for name, fn := range map[string]func(context.Context, solve.Solver, float64, types.Capacity) (types.Allocation, error){
		"proportional": Proportional,
		"gini-min":     GiniMinimizing,
		"jain-max":     JainMaximizing,
	} {
		alloc, err := fn(context.Background(), solve.NewProjectedGradient(), 0, referenceCapacity)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if !almostEqual(alloc.Total(), 0) {
			t.Errorf("%s: expected zero allocation at zero resource, got %v", name, alloc)
		}
	}
}

func TestOptimizationAllocators_NilSolver(t *testing.T) {
	_, err := Proportional(context.Background(), nil, 100, referenceCapacity)
	if !errors.Is(err, types.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil solver, got %v", err)
	}
}

func TestOptimizationAllocators_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := JainMaximizing(ctx, solve.NewProjectedGradient(), 1000, referenceCapacity)
	if !errors.Is(err, types.ErrOptimization) {
		t.Errorf("expected ErrOptimization for canceled context, got %v", err)
	}
}

func TestOptimizationAllocators_Monotonicity(t *testing.T) {
	// Proportional fairness is resource-monotone: more resource never hurts
	// any agent.
	previous, err := Proportional(context.Background(), solve.NewProjectedGradient(), 100, referenceCapacity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for resource := 300.0; resource <= 1100; resource += 200 {
		alloc, err := Proportional(context.Background(), solve.NewProjectedGradient(), resource, referenceCapacity)
		if err != nil {
			t.Fatalf("unexpected error at resource %v: %v", resource, err)
		}
		for agent := range referenceCapacity {
			if alloc[agent] < previous[agent]-solverTolerance {
				t.Errorf("resource %v: agent %s decreased from %v to %v",
					resource, agent, previous[agent], alloc[agent])
			}
		}
		previous = alloc
	}
}
