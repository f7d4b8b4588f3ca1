package sandbox

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/agentcore/core/pkg/models"
)

// ErrPoolClosed is returned by Acquire once Close has run.
var ErrPoolClosed = errors.New("sandbox pool closed")

// Pool pre-warms idle sandboxes so task startup does not pay the full
// Create latency on the hot path, grounded on the teacher's
// internal/tools/sandbox/pool.go languagePool design — a buffered channel
// of ready instances refilled in the background as they're drained.
type Pool struct {
	client  *Client
	maxSize int
	logger  *slog.Logger

	mu        sync.Mutex
	closed    bool
	available chan *models.SandboxHandle
}

// NewPool creates a Pool over client and eagerly fills it to warmSize,
// logging (not failing) any Create error encountered while pre-warming —
// the pool can still grow on demand from Acquire.
func NewPool(ctx context.Context, client *Client, warmSize, maxSize int, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	if maxSize < warmSize {
		maxSize = warmSize
	}
	p := &Pool{
		client:    client,
		maxSize:   maxSize,
		logger:    logger,
		available: make(chan *models.SandboxHandle, maxSize),
	}
	for i := 0; i < warmSize; i++ {
		handle, err := client.Create(ctx)
		if err != nil {
			p.logger.Warn("sandbox pool: pre-warm failed", "error", err)
			continue
		}
		p.available <- handle
	}
	return p
}

// Acquire returns a warm handle if one is available, otherwise creates one
// on demand so callers never block on pool exhaustion.
func (p *Pool) Acquire(ctx context.Context) (*models.SandboxHandle, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.mu.Unlock()

	select {
	case handle := <-p.available:
		return handle, nil
	default:
		return p.client.Create(ctx)
	}
}

// Release returns handle to the pool for reuse if there is room, otherwise
// destroys it immediately.
func (p *Pool) Release(ctx context.Context, handle *models.SandboxHandle) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		_ = p.client.Destroy(ctx, handle)
		return
	}

	select {
	case p.available <- handle:
	default:
		_ = p.client.Destroy(ctx, handle)
	}
}

// Size reports the number of currently warm, unacquired sandboxes.
func (p *Pool) Size() int {
	return len(p.available)
}

// Close drains and destroys every warm sandbox. Safe to call once.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.available)
	var firstErr error
	for handle := range p.available {
		if err := p.client.Destroy(ctx, handle); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
