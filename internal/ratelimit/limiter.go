// Package ratelimit throttles outbound LLM completion requests
// (internal/llm/client.go): one token bucket per Client caps how fast a
// Loop can call a model provider, independent of the provider's own
// per-minute limits, so a runaway agent can't burn through quota in a
// tight EXECUTE/OBSERVE loop (§4.2).
package ratelimit

import (
	"sync"
	"time"
)

// Config configures a token bucket.
type Config struct {
	// RequestsPerSecond is the number of requests allowed per second.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	// BurstSize is the maximum number of requests allowed in a burst.
	BurstSize int `yaml:"burst_size"`
	// Enabled controls whether rate limiting is active.
	Enabled bool `yaml:"enabled"`
}

// Bucket implements token bucket rate limiting.
type Bucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	enabled    bool
}

// NewBucket creates a new token bucket.
func NewBucket(config Config) *Bucket {
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 10.0
	}
	if config.BurstSize <= 0 {
		config.BurstSize = int(config.RequestsPerSecond * 2)
	}

	return &Bucket{
		tokens:     float64(config.BurstSize),
		maxTokens:  float64(config.BurstSize),
		refillRate: config.RequestsPerSecond,
		lastRefill: time.Now(),
		enabled:    config.Enabled,
	}
}

// Allow checks if a request should be allowed and consumes a token if so.
func (b *Bucket) Allow() bool {
	return b.AllowN(1)
}

// AllowN checks if n requests should be allowed.
func (b *Bucket) AllowN(n int) bool {
	if n <= 0 {
		return true
	}
	if !b.enabled {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()

	if b.tokens >= float64(n) {
		b.tokens -= float64(n)
		return true
	}
	return false
}

// refill adds tokens based on time elapsed (must be called with lock held).
func (b *Bucket) refill() {
	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.lastRefill = now

	b.tokens += elapsed * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
}

// Tokens returns the current number of available tokens.
func (b *Bucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	return b.tokens
}

// WaitTime returns how long to wait before a request would be allowed.
func (b *Bucket) WaitTime() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()

	if b.tokens >= 1 {
		return 0
	}

	needed := 1 - b.tokens
	seconds := needed / b.refillRate
	return time.Duration(seconds * float64(time.Second))
}
