// Package types provides the shared data model used across fairalloc packages.
// This avoids duplicate type definitions and enables better interoperability.
package types

import (
	"sort"

	"github.com/pkg/errors"
)

// Agent identifies a recipient competing for shares of the resource.
// Agents carry no implied ordering; algorithms that need one sort explicitly.
type Agent string

// Capacity maps each agent to the maximum amount it may receive.
// Built once per scenario and treated as immutable by every allocator;
// algorithms that shrink a residual set must work on a Clone.
type Capacity map[Agent]float64

// Allocation maps each agent to the amount it was given.
// It always carries the same key set as the Capacity it was computed from.
type Allocation map[Agent]float64

// Validate checks the capacity invariant: every value must be >= 0.
func (c Capacity) Validate() error {
	for agent, cap := range c {
		if cap < 0 {
			return errors.Wrapf(ErrInvalidInput, "negative capacity %v for agent %s", cap, agent)
		}
	}
	return nil
}

// Total returns the sum of all capacities.
func (c Capacity) Total() float64 {
	total := 0.0
	for _, cap := range c {
		total += cap
	}
	return total
}

// Clone returns an independent working copy.
func (c Capacity) Clone() Capacity {
	out := make(Capacity, len(c))
	for agent, cap := range c {
		out[agent] = cap
	}
	return out
}

// Agents returns the agent set sorted by identifier ascending.
// Map iteration order is not reproducible, so every algorithm that walks
// agents in sequence starts from this ordering.
func (c Capacity) Agents() []Agent {
	agents := make([]Agent, 0, len(c))
	for agent := range c {
		agents = append(agents, agent)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i] < agents[j] })
	return agents
}

// Zero returns an allocation over the same agent set with every value at 0.
func (c Capacity) Zero() Allocation {
	out := make(Allocation, len(c))
	for agent := range c {
		out[agent] = 0
	}
	return out
}

// Total returns the sum of all allocated amounts.
func (a Allocation) Total() float64 {
	total := 0.0
	for _, x := range a {
		total += x
	}
	return total
}

// Values returns the allocated amounts ordered by agent identifier.
func (a Allocation) Values() []float64 {
	agents := make([]Agent, 0, len(a))
	for agent := range a {
		agents = append(agents, agent)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i] < agents[j] })
	values := make([]float64, len(agents))
	for i, agent := range agents {
		values[i] = a[agent]
	}
	return values
}
