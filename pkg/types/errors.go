package types

import "errors"

// ErrInvalidInput marks malformed arguments: empty agent sets where a division
// by agent count occurs, negative resource or capacity, zero total capacity
// when a ratio is computed, zero-sum allocations passed to an equality index.
// Detected before any computation proceeds, never after a partial result.
var ErrInvalidInput = errors.New("invalid input")

// ErrOptimization marks a failure reported by the convex solver collaborator
// (infeasible, unbounded, non-convergent, or deadline exceeded). Allocators
// never retry and never substitute a partial result; re-solving a
// deterministic convex program with the same inputs yields the same outcome,
// so retries are a caller policy.
var ErrOptimization = errors.New("optimization failure")
