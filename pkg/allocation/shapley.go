package allocation

import (
	"math/rand"

	"github.com/pkg/errors"

	"fairalloc/pkg/types"
)

// DefaultShapleySamples is the Monte Carlo sample count used when the caller
// passes 0.
const DefaultShapleySamples = 2000

// Shapley divides the resource according to each agent's Shapley value in the
// coalition game
//
//	v(S) = min(resource, Σ_{i∈S} cap_i)
//
// i.e. how much of the resource a coalition could absorb on its own. The
// Shapley value
//
//	φ_i(v) = Σ_{S⊆N\{i}} [|S|!(n−|S|−1)!/n!] · [v(S∪{i}) − v(S)]
//
// is the unique attribution satisfying efficiency (Σφ = v(N)), symmetry,
// dummy, and additivity. Marginal contributions never exceed an agent's own
// capacity, so the result is always feasible, and efficiency gives exact
// conservation: Σφ = min(resource, Σcap).
//
// Exact evaluation is exponential in the agent count, so the sum is
// approximated by sampling random arrival permutations (O(samples·n)).
// Pass a seeded rng for reproducible results; nil falls back to a fixed seed.
func Shapley(resource float64, capacity types.Capacity, samples int, rng *rand.Rand) (types.Allocation, error) {
	if err := validateInputs(resource, capacity); err != nil {
		return nil, err
	}
	if samples < 0 {
		return nil, errors.Wrapf(types.ErrInvalidInput, "negative sample count %d", samples)
	}
	if samples == 0 {
		samples = DefaultShapleySamples
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	alloc := capacity.Zero()
	agents := capacity.Agents()
	n := len(agents)
	if n == 0 {
		return alloc, nil
	}

	for s := 0; s < samples; s++ {
		// Random arrival order; each agent is credited its marginal
		// contribution v(S∪{i}) − v(S) as it joins.
		coalitionValue := 0.0
		coalitionCap := 0.0
		for _, idx := range rng.Perm(n) {
			agent := agents[idx]
			coalitionCap += capacity[agent]
			value := coalitionCap
			if value > resource {
				value = resource
			}
			alloc[agent] += value - coalitionValue
			coalitionValue = value
		}
	}

	for agent := range alloc {
		alloc[agent] /= float64(samples)
	}
	return alloc, nil
}
