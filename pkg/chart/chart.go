// Package chart renders finished allocations. The core engine only depends on
// the Sink interface; rendering technology is interchangeable.
package chart

import (
	"fairalloc/pkg/types"
)

// Sink consumes a (capacity, allocation) pair under a human-readable label
// and renders a per-agent view of used vs. unused capacity.
type Sink interface {
	Render(label string, capacity types.Capacity, alloc types.Allocation) error
}

// Discard is a Sink that drops everything. Useful as a default and in tests.
type Discard struct{}

func (Discard) Render(string, types.Capacity, types.Allocation) error { return nil }
