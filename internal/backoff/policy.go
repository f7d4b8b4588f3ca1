// Package backoff computes the delay between LLM completion retries
// (internal/llm/retry.go): a 429 or 5xx from a model provider is retried
// with exponential backoff rather than the fixed-interval schedule
// internal/retry uses for sandbox RPCs, since provider rate limits respond
// to widening spacing but a wedged sandbox does not (§4.2).
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// BackoffPolicy defines the parameters for exponential backoff calculation.
type BackoffPolicy struct {
	// InitialMs is the initial backoff duration in milliseconds.
	InitialMs float64
	// MaxMs is the maximum backoff duration in milliseconds.
	MaxMs float64
	// Factor is the exponential factor applied to each attempt.
	Factor float64
	// Jitter is the randomization factor (0.0 to 1.0) applied to the backoff.
	Jitter float64
}

// ComputeBackoff calculates the backoff duration for a given attempt number.
// The formula is: base = initialMs * factor^(attempt-1), jitter = base * jitter * random()
// Returns min(maxMs, base + jitter) as a time.Duration.
// Attempt numbers start at 1.
func ComputeBackoff(policy BackoffPolicy, attempt int) time.Duration {
	return ComputeBackoffWithRand(policy, attempt, rand.Float64()) // #nosec G404 -- jitter does not require cryptographic randomness
}

// ComputeBackoffWithRand calculates the backoff duration using a provided random value.
// This is useful for testing to provide deterministic results.
// The randomValue should be in the range [0.0, 1.0).
func ComputeBackoffWithRand(policy BackoffPolicy, attempt int, randomValue float64) time.Duration {
	exp := math.Max(float64(attempt-1), 0)

	base := policy.InitialMs * math.Pow(policy.Factor, exp)
	jitterAmount := base * policy.Jitter * randomValue
	total := math.Min(policy.MaxMs, base+jitterAmount)

	return time.Duration(math.Round(total)) * time.Millisecond
}
