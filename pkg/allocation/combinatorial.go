// Package allocation implements strategies for dividing a single divisible
// resource among capacity-bounded agents.
//
// Every allocator is a pure function of (resource, capacity): it never mutates
// the caller's capacity and keeps no state across calls. Unless documented
// otherwise an allocator establishes:
//   - Feasibility: 0 ≤ x_i ≤ cap_i for every agent
//   - Conservation: Σx ≤ resource, with equality whenever resource ≤ Σcap
package allocation

import (
	"sort"

	"github.com/pkg/errors"

	"fairalloc/pkg/types"
)

// Null returns the zero allocation. It exists as a baseline for comparing
// equality indices and charts against the real strategies.
func Null(resource float64, capacity types.Capacity) (types.Allocation, error) {
	if err := validateInputs(resource, capacity); err != nil {
		return nil, err
	}
	return capacity.Zero(), nil
}

// Greedy assigns the resource in capacity-descending order, giving each agent
// min(remaining, cap_i) until the resource is exhausted. Ties are broken by
// agent identifier ascending so results are reproducible. Greedy favors
// high-capacity agents by construction; it is a contrast baseline, not a
// fairness-seeking strategy.
func Greedy(resource float64, capacity types.Capacity) (types.Allocation, error) {
	if err := validateInputs(resource, capacity); err != nil {
		return nil, err
	}

	alloc := capacity.Zero()
	remaining := resource
	for _, agent := range agentsByCapacityDesc(capacity) {
		if remaining <= 0 {
			break
		}
		grant := capacity[agent]
		if grant > remaining {
			grant = remaining
		}
		alloc[agent] = grant
		remaining -= grant
	}
	return alloc, nil
}

// Maximin gives every agent an equal base share bounded by the tightest
// capacity, then tops agents up greedily from the leftover.
//
// Phase 1: base = min(minCap, resource/n), granted to everyone.
// Phase 2: leftover distributed in capacity-descending order up to each
// agent's capacity.
func Maximin(resource float64, capacity types.Capacity) (types.Allocation, error) {
	if err := validateInputs(resource, capacity); err != nil {
		return nil, err
	}
	if len(capacity) == 0 {
		return nil, errors.Wrap(types.ErrInvalidInput, "maximin: empty agent set")
	}

	n := float64(len(capacity))
	base := minCapacity(capacity)
	if share := resource / n; share < base {
		base = share
	}

	alloc := capacity.Zero()
	remaining := resource
	for agent := range capacity {
		alloc[agent] = base
	}
	remaining -= base * n

	// Top-up pass: same ordering as Greedy.
	for _, agent := range agentsByCapacityDesc(capacity) {
		if remaining <= 0 {
			break
		}
		headroom := capacity[agent] - alloc[agent]
		if headroom <= 0 {
			continue
		}
		if headroom > remaining {
			headroom = remaining
		}
		alloc[agent] += headroom
		remaining -= headroom
	}
	return alloc, nil
}

// Egalitarian gives every agent min(minCap, resource/n) and deliberately
// discards any leftover: under a strict equality policy no agent may ever
// exceed the least-capable agent's share, even if resource is wasted. This is
// the key behavioral contrast with Maximin, which redistributes the leftover.
func Egalitarian(resource float64, capacity types.Capacity) (types.Allocation, error) {
	if err := validateInputs(resource, capacity); err != nil {
		return nil, err
	}
	if len(capacity) == 0 {
		return nil, errors.Wrap(types.ErrInvalidInput, "egalitarian: empty agent set")
	}

	share := minCapacity(capacity)
	if equal := resource / float64(len(capacity)); equal < share {
		share = equal
	}

	alloc := capacity.Zero()
	for agent := range capacity {
		alloc[agent] = share
	}
	return alloc, nil
}

// Concurrent allocates the same fraction α = resource/Σcap of every agent's
// capacity ("ratio-based" allocation).
//
// WARNING: when resource > Σcap the ratio α exceeds 1 and every agent is
// assigned MORE than its capacity. This over-allocation is preserved original
// behavior and is deliberately not clamped; callers that need feasibility
// must check VerifyFeasibility themselves.
func Concurrent(resource float64, capacity types.Capacity) (types.Allocation, error) {
	if err := validateInputs(resource, capacity); err != nil {
		return nil, err
	}

	total := capacity.Total()
	if total == 0 {
		return nil, errors.Wrap(types.ErrInvalidInput, "concurrent: total capacity is zero")
	}

	alpha := resource / total
	alloc := capacity.Zero()
	for agent, cap := range capacity {
		alloc[agent] = alpha * cap
	}
	return alloc, nil
}

// validateInputs rejects malformed arguments before any computation proceeds.
func validateInputs(resource float64, capacity types.Capacity) error {
	if resource < 0 {
		return errors.Wrapf(types.ErrInvalidInput, "negative resource %v", resource)
	}
	return capacity.Validate()
}

// agentsByCapacityDesc orders agents by capacity descending, breaking ties by
// identifier ascending. Unordered map iteration would make Greedy and Maximin
// nondeterministic, so every sequential pass starts from this ordering.
func agentsByCapacityDesc(capacity types.Capacity) []types.Agent {
	agents := capacity.Agents()
	sort.SliceStable(agents, func(i, j int) bool {
		return capacity[agents[i]] > capacity[agents[j]]
	})
	return agents
}

func minCapacity(capacity types.Capacity) float64 {
	first := true
	min := 0.0
	for _, cap := range capacity {
		if first || cap < min {
			min = cap
			first = false
		}
	}
	return min
}
