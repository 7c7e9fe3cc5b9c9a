// Package equality provides scalar indices summarizing how evenly an
// allocation spreads the resource across agents. Indices are consumed by
// comparison and reporting code and never feed back into the allocators.
package equality

import (
	"github.com/pkg/errors"

	"fairalloc/pkg/types"
)

// JainIndex computes Jain's fairness index:
//
//	J(x) = (Σx)² / (n · Σx²)
//
// Range is (1/n, 1]; 1 means a perfectly equal allocation. The index is
// undefined for an empty or all-zero allocation.
func JainIndex(alloc types.Allocation) (float64, error) {
	n := len(alloc)
	if n == 0 {
		return 0, errors.Wrap(types.ErrInvalidInput, "jain index: empty allocation")
	}

	sum := 0.0
	sumSq := 0.0
	for _, x := range alloc {
		sum += x
		sumSq += x * x
	}
	if sumSq == 0 {
		return 0, errors.Wrap(types.ErrInvalidInput, "jain index: all-zero allocation")
	}

	return sum * sum / (float64(n) * sumSq), nil
}

// GiniIndex computes the Gini dispersion index:
//
//	G(x) = Σ_i Σ_j |x_i - x_j| / (2n · Σx)
//
// Range is [0, 1); 0 means a perfectly equal allocation. The index is
// undefined when the allocation sums to zero.
func GiniIndex(alloc types.Allocation) (float64, error) {
	n := len(alloc)
	if n == 0 {
		return 0, errors.Wrap(types.ErrInvalidInput, "gini index: empty allocation")
	}

	sum := 0.0
	values := alloc.Values()
	for _, x := range values {
		sum += x
	}
	if sum == 0 {
		return 0, errors.Wrap(types.ErrInvalidInput, "gini index: zero-sum allocation")
	}

	pairwise := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			diff := values[i] - values[j]
			if diff < 0 {
				diff = -diff
			}
			pairwise += diff
		}
	}

	return pairwise / (2 * float64(n) * sum), nil
}
