package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/agentcore/core/internal/backoff"
)

// ProviderError is a structured error a backend adapter returns so Client
// can classify retryability and map to a sentinel without string-matching
// the message, grounded on the teacher's providers.ProviderError shape.
type ProviderError struct {
	Provider string
	Model    string
	Status   int
	Message  string
	Cause    error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return e.Provider + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Provider + ": " + e.Message
}

func (e *ProviderError) Unwrap() error { return e.Cause }

func isRetryable(err error) bool {
	var perr *ProviderError
	if errors.As(err, &perr) {
		switch perr.Status {
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		if perr.Status >= 500 {
			return true
		}
		return false
	}
	// Unclassified errors (e.g. transport failures) are treated as
	// transient, matching the teacher's BaseProvider.Retry default.
	return true
}

func classify(err error) error {
	var perr *ProviderError
	if errors.As(err, &perr) {
		switch {
		case perr.Status == http.StatusTooManyRequests:
			return errors.Join(ErrRateLimited, err)
		case perr.Status == http.StatusRequestEntityTooLarge:
			return errors.Join(ErrContextOverflow, err)
		}
	}
	return errors.Join(ErrProviderError, err)
}

// llmBackoffPolicy is the §4.2 retry schedule: 250ms doubling, no jitter.
var llmBackoffPolicy = backoff.BackoffPolicy{
	InitialMs: 250,
	MaxMs:     16000,
	Factor:    2.0,
	Jitter:    0,
}

func backoffWait(ctx context.Context, attempt int) error {
	return backoff.SleepWithBackoff(ctx, llmBackoffPolicy, attempt+1)
}
