package allocation

import (
	"fairalloc/pkg/types"
)

// SaturationEpsilon is the relative residual-capacity threshold below which
// an agent counts as saturated. It is multiplied by the scenario magnitude
// (the larger of resource and total capacity), so quantities far below 1.0
// still allocate. Exact equality-to-zero checks on floating-point residue can
// keep an agent in the active set forever; subtract-and-clamp against this
// threshold guarantees the loop terminates.
const SaturationEpsilon = 1e-9

// MaxMinFair computes the lexicographically max-min fair allocation by
// water-filling.
//
// Algorithm: maintain a residual-capacity working copy and an accumulating
// allocation. While unsaturated agents and resource remain:
//  1. Δ = min(smallest residual capacity, remaining/n)
//  2. add Δ to every active agent, subtract Δ from remaining and from each
//     agent's residual capacity
//  3. drop agents whose residual capacity reached zero (saturated)
//
// The result is the unique allocation in which no agent's share can be
// increased without decreasing an equal-or-smaller share of another agent.
// The residual copy is local to the call; the caller's capacity is untouched.
func MaxMinFair(resource float64, capacity types.Capacity) (types.Allocation, error) {
	if err := validateInputs(resource, capacity); err != nil {
		return nil, err
	}

	alloc := capacity.Zero()
	residual := capacity.Clone()
	remaining := resource

	scale := resource
	if total := capacity.Total(); total > scale {
		scale = total
	}
	eps := SaturationEpsilon * scale

	for len(residual) > 0 && remaining > eps {
		n := float64(len(residual))
		delta := remaining / n
		if min := minCapacity(residual); min < delta {
			delta = min
		}

		for agent := range residual {
			alloc[agent] += delta
			residual[agent] -= delta
		}
		remaining -= delta * n

		for agent, left := range residual {
			if left <= eps {
				// Credit the residue so saturated agents land exactly on
				// their capacity instead of epsilon below it.
				if left > 0 && remaining >= left {
					alloc[agent] += left
					remaining -= left
				}
				delete(residual, agent)
			}
		}
	}

	return alloc, nil
}
