package sandbox

import (
	"context"
	"time"

	"github.com/agentcore/core/internal/retry"
)

// withRetry retries fn up to attempts additional times with the §4.1
// backoff schedule (250ms, 1s, doubling further if more attempts are
// configured), stopping early if ctx is done. Non-transient provider errors
// are expected to be surfaced by fn returning a typed error the caller can
// inspect after retries are exhausted — withRetry itself does not
// distinguish error kinds, matching the teacher's "retry everything
// transport-shaped" policy for sandbox RPCs.
func withRetry(ctx context.Context, attempts int, fn func() error) error {
	result := retry.Do(ctx, retry.Config{
		MaxAttempts:  attempts + 1,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     250 * time.Millisecond << uint(attempts),
		Factor:       2.0,
		Jitter:       false,
	}, fn)
	return result.Err
}
