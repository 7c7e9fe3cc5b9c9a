package types

import (
	"errors"
	"reflect"
	"testing"
)

func TestCapacityValidate(t *testing.T) {
	if err := (Capacity{"a": 0, "b": 100}).Validate(); err != nil {
		t.Errorf("non-negative capacity should validate, got %v", err)
	}
	if err := (Capacity{}).Validate(); err != nil {
		t.Errorf("empty capacity should validate, got %v", err)
	}
	if err := (Capacity{"a": -1}).Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative capacity, got %v", err)
	}
}

func TestCapacityTotal(t *testing.T) {
	capacity := Capacity{"a": 250, "b": 450, "c": 450}
	if total := capacity.Total(); total != 1150 {
		t.Errorf("expected total 1150, got %v", total)
	}
	if total := (Capacity{}).Total(); total != 0 {
		t.Errorf("expected empty total 0, got %v", total)
	}
}

func TestCapacityCloneIsIndependent(t *testing.T) {
	original := Capacity{"a": 10, "b": 20}
	clone := original.Clone()

	clone["a"] = 99
	delete(clone, "b")

	if original["a"] != 10 || original["b"] != 20 {
		t.Errorf("mutating the clone leaked into the original: %v", original)
	}
}

func TestCapacityAgentsSorted(t *testing.T) {
	capacity := Capacity{"c": 1, "a": 2, "b": 3}
	agents := capacity.Agents()
	expected := []Agent{"a", "b", "c"}
	if !reflect.DeepEqual(agents, expected) {
		t.Errorf("expected %v, got %v", expected, agents)
	}
}

func TestCapacityZero(t *testing.T) {
	capacity := Capacity{"a": 10, "b": 20}
	zero := capacity.Zero()

	if len(zero) != len(capacity) {
		t.Fatalf("zero allocation must cover the agent set, got %v", zero)
	}
	for agent, x := range zero {
		if x != 0 {
			t.Errorf("agent %s: expected 0, got %v", agent, x)
		}
	}
}

func TestAllocationTotalAndValues(t *testing.T) {
	alloc := Allocation{"b": 375, "a": 250, "c": 375}
	if total := alloc.Total(); total != 1000 {
		t.Errorf("expected total 1000, got %v", total)
	}

	values := alloc.Values()
	expected := []float64{250, 375, 375}
	if !reflect.DeepEqual(values, expected) {
		t.Errorf("expected agent-ordered values %v, got %v", expected, values)
	}
}
