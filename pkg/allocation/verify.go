package allocation

import (
	"fmt"

	"fairalloc/pkg/types"
)

// VerifyTolerance absorbs floating-point residue in the invariant checks.
const VerifyTolerance = 1e-6

// VerifyFeasibility checks 0 ≤ alloc_i ≤ cap_i for every agent and that the
// allocation carries the same agent set as the capacity. Returns nil if the
// invariant holds. Note: Concurrent violates feasibility by design when
// resource exceeds total capacity.
func VerifyFeasibility(alloc types.Allocation, capacity types.Capacity) error {
	if len(alloc) != len(capacity) {
		return fmt.Errorf("agent set mismatch: %d allocated, %d in capacity", len(alloc), len(capacity))
	}
	for agent, cap := range capacity {
		x, ok := alloc[agent]
		if !ok {
			return fmt.Errorf("missing allocation for agent %s", agent)
		}
		if x < -VerifyTolerance {
			return fmt.Errorf("negative allocation %v for agent %s", x, agent)
		}
		if x > cap+VerifyTolerance {
			return fmt.Errorf("allocation %v exceeds capacity %v for agent %s", x, cap, agent)
		}
	}
	return nil
}

// VerifyConservation checks Σalloc ≤ resource. Returns nil if the invariant
// holds.
func VerifyConservation(alloc types.Allocation, resource float64) error {
	total := alloc.Total()
	if total > resource+VerifyTolerance {
		return fmt.Errorf("total allocation %v exceeds resource %v", total, resource)
	}
	return nil
}
