// Package infra's circuit breaker guards the two external calls a Loop
// iteration can block on indefinitely if the backend wedges: sandbox.Create
// / sandbox.Exec and llm.Complete (§4.2, §4.11). Both clients own one
// CircuitBreaker apiece rather than sharing a registry, since a stuck
// sandbox provider and a stuck model provider are independent failures.
package infra

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	CircuitClosed   = "closed"
	CircuitOpen     = "open"
	CircuitHalfOpen = "half-open"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// Name identifies the guarded dependency, e.g. "llm-provider" or
	// "sandbox-provider".
	Name string

	// FailureThreshold is the number of consecutive failures before the
	// breaker opens.
	FailureThreshold int

	// SuccessThreshold is the number of consecutive successes in
	// half-open before the breaker closes again.
	SuccessThreshold int

	// Timeout is how long the breaker stays open before allowing a single
	// half-open probe.
	Timeout time.Duration

	// OnStateChange, if set, is invoked (asynchronously) on every
	// transition.
	OnStateChange func(from, to string)
}

// CircuitBreaker fails calls fast once a dependency has shown sustained
// failures, rather than spending a Loop iteration's whole retry budget on
// every call to a backend that is currently down.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu              sync.RWMutex
	state           string
	failures        int
	successes       int
	lastFailure     time.Time
	lastStateChange time.Time
}

// NewCircuitBreaker builds a breaker in the closed state, applying package
// defaults for any unset threshold or timeout in cfg.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &CircuitBreaker{
		cfg:             cfg,
		state:           CircuitClosed,
		lastStateChange: time.Now(),
	}
}

// Execute runs the given function with circuit breaker protection.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.canExecute(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.recordResult(err)
	return err
}

// ExecuteWithResult runs a function that returns a value with circuit breaker protection.
func ExecuteWithResult[T any](cb *CircuitBreaker, ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := cb.canExecute(); err != nil {
		return zero, err
	}

	result, err := fn(ctx)
	cb.recordResult(err)
	return result, err
}

// canExecute checks if execution is allowed and transitions state if needed.
func (cb *CircuitBreaker) canExecute() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return nil

	case CircuitOpen:
		// Check if timeout has elapsed
		if time.Since(cb.lastStateChange) >= cb.cfg.Timeout {
			cb.transitionTo(CircuitHalfOpen)
			return nil
		}
		return ErrCircuitOpen

	case CircuitHalfOpen:
		return nil

	default:
		return nil
	}
}

// recordResult records the result of an execution.
func (cb *CircuitBreaker) recordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.recordFailure()
	} else {
		cb.recordSuccess()
	}
}

// recordFailure records a failed execution.
func (cb *CircuitBreaker) recordFailure() {
	cb.failures++
	cb.successes = 0
	cb.lastFailure = time.Now()

	switch cb.state {
	case CircuitClosed:
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.transitionTo(CircuitOpen)
		}

	case CircuitHalfOpen:
		cb.transitionTo(CircuitOpen)
	}
}

// recordSuccess records a successful execution.
func (cb *CircuitBreaker) recordSuccess() {
	switch cb.state {
	case CircuitClosed:
		cb.failures = 0

	case CircuitHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.transitionTo(CircuitClosed)
		}
	}
}

// transitionTo changes the circuit breaker state.
func (cb *CircuitBreaker) transitionTo(newState string) {
	oldState := cb.state
	cb.state = newState
	cb.lastStateChange = time.Now()
	cb.failures = 0
	cb.successes = 0

	if cb.cfg.OnStateChange != nil {
		go cb.cfg.OnStateChange(oldState, newState)
	}
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() string {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Stats returns current circuit breaker statistics.
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return CircuitBreakerStats{
		Name:            cb.cfg.Name,
		State:           cb.state,
		Failures:        cb.failures,
		Successes:       cb.successes,
		LastFailure:     cb.lastFailure,
		LastStateChange: cb.lastStateChange,
	}
}

// Reset manually resets the circuit breaker to closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = CircuitClosed
	cb.failures = 0
	cb.successes = 0
	cb.lastStateChange = time.Now()
}

// CircuitBreakerStats contains statistics about a circuit breaker.
type CircuitBreakerStats struct {
	Name            string
	State           string
	Failures        int
	Successes       int
	LastFailure     time.Time
	LastStateChange time.Time
}
