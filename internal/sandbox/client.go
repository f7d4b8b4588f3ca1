// Package sandbox implements the Sandbox Client (C1, §4.1): a thin,
// provider-pluggable wrapper around a remote execution environment's
// file/exec/git RPCs, with the lifecycle of a per-task sandbox.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentcore/core/internal/infra"
	"github.com/agentcore/core/pkg/models"
)

// Entry is one directory listing entry (§4.1 list_files).
type Entry struct {
	Name        string
	IsDirectory bool
}

// ExecResult is the structured result of one exec RPC (§4.1).
type ExecResult struct {
	ExitCode          int
	Stdout            string
	Stderr            string
	Duration          time.Duration
	StdoutTruncated   bool
	StderrTruncated   bool
}

// MaxCapturedOutput is the per-stream truncation limit applied before a
// result is returned to the caller (§4.1).
const MaxCapturedOutput = 64 << 10 // 64 KiB

// Provider is the black-box remote sandbox backend (§6.2). Concrete
// adapters (docker.go, firecracker.go) implement it; Client adds retry,
// timeout, and truncation policy on top.
type Provider interface {
	Create(ctx context.Context) (providerHandle string, err error)
	Destroy(ctx context.Context, handle string) error
	WriteFile(ctx context.Context, handle, path string, data []byte) error
	ReadFile(ctx context.Context, handle, path string) ([]byte, error)
	ListFiles(ctx context.Context, handle, path string) ([]Entry, error)
	Exec(ctx context.Context, handle, command, workdir string, timeout time.Duration) (*ExecResult, error)
}

// Sentinel errors for the §4.1 failure modes.
var (
	ErrSandboxUnavailable = errors.New("sandbox_unavailable")
	ErrNotFound           = errors.New("not_found")
	ErrFilesystem         = errors.New("fs_error")
)

// Config tunes the Client's timeouts and retry policy (§4.1, §5 Timeouts).
type Config struct {
	CreateTimeout  time.Duration
	RPCTimeout     time.Duration
	DefaultExecTTL time.Duration
	MaxExecTTL     time.Duration
	WorkspaceRoot  string
}

// DefaultConfig returns the §5/§6.5 default timeouts.
func DefaultConfig() Config {
	return Config{
		CreateTimeout:  30 * time.Second,
		RPCTimeout:     30 * time.Second,
		DefaultExecTTL: 300 * time.Second,
		MaxExecTTL:     1800 * time.Second,
		WorkspaceRoot:  "/workspace",
	}
}

// Client wraps a Provider with the per-task lifecycle, retry-with-backoff
// policy, and truncation enforcement named in §4.1.
type Client struct {
	provider Provider
	config   Config
	logger   *slog.Logger
	// breaker trips after repeated Create failures so a provider outage
	// fails fast with sandbox_unavailable instead of every new task paying
	// the full retry-with-backoff cost against a backend known to be down.
	breaker *infra.CircuitBreaker
}

// New creates a Client over the given Provider.
func New(provider Provider, config Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	breaker := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		Name:             "sandbox-create",
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
	})
	return &Client{provider: provider, config: config, logger: logger, breaker: breaker}
}

// Create provisions a fresh sandbox handle, retrying transient transport
// errors twice with exponential backoff (250ms, 1s) before surfacing
// sandbox_unavailable (§4.1). A provider tripping the breaker fails
// immediately without retrying until the breaker's cooldown elapses.
func (c *Client) Create(ctx context.Context) (*models.SandboxHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.CreateTimeout)
	defer cancel()

	providerHandle, err := infra.ExecuteWithResult(c.breaker, ctx, func(ctx context.Context) (string, error) {
		var handle string
		err := withRetry(ctx, 2, func() error {
			var innerErr error
			handle, innerErr = c.provider.Create(ctx)
			return innerErr
		})
		return handle, err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSandboxUnavailable, err)
	}

	return &models.SandboxHandle{
		ID:            providerHandle,
		WorkspaceRoot: c.config.WorkspaceRoot,
		CreatedAt:     time.Now(),
	}, nil
}

// Destroy tears down the sandbox. Idempotent: a provider that reports the
// handle is already gone is treated as success.
func (c *Client) Destroy(ctx context.Context, handle *models.SandboxHandle) error {
	if handle == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.RPCTimeout)
	defer cancel()

	err := withRetry(ctx, 2, func() error {
		return c.provider.Destroy(ctx, handle.ID)
	})
	if err != nil {
		c.logger.Warn("sandbox destroy failed", "handle", handle.ID, "error", err)
		return fmt.Errorf("%w: %v", ErrFilesystem, err)
	}
	return nil
}

// WriteFile overwrites path, creating parent directories as needed.
func (c *Client) WriteFile(ctx context.Context, handle *models.SandboxHandle, path string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.RPCTimeout)
	defer cancel()

	err := withRetry(ctx, 2, func() error {
		return c.provider.WriteFile(ctx, handle.ID, path, data)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFilesystem, err)
	}
	return nil
}

// ReadFile reads path in full; callers needing the §4.11.d 16 KiB event-log
// truncation apply it themselves when recording the action result.
func (c *Client) ReadFile(ctx context.Context, handle *models.SandboxHandle, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RPCTimeout)
	defer cancel()

	var data []byte
	err := withRetry(ctx, 2, func() error {
		var innerErr error
		data, innerErr = c.provider.ReadFile(ctx, handle.ID, path)
		return innerErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return data, nil
}

// ListFiles lists one directory's entries.
func (c *Client) ListFiles(ctx context.Context, handle *models.SandboxHandle, path string) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RPCTimeout)
	defer cancel()

	var entries []Entry
	err := withRetry(ctx, 2, func() error {
		var innerErr error
		entries, innerErr = c.provider.ListFiles(ctx, handle.ID, path)
		return innerErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFilesystem, err)
	}
	return entries, nil
}

// Exec runs command with the given workdir and timeout, clamped to
// MaxExecTTL, truncating stdout/stderr to MaxCapturedOutput and flagging
// truncation in the result (§4.1).
func (c *Client) Exec(ctx context.Context, handle *models.SandboxHandle, command, workdir string, timeout time.Duration) (*ExecResult, error) {
	if timeout <= 0 {
		timeout = c.config.DefaultExecTTL
	}
	if timeout > c.config.MaxExecTTL {
		timeout = c.config.MaxExecTTL
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout+c.config.RPCTimeout)
	defer cancel()

	result, err := c.provider.Exec(execCtx, handle.ID, command, workdir, timeout)
	if err != nil {
		// exec failures are not retried: they may have already had side
		// effects, and retrying a non-idempotent command would be unsound.
		return nil, fmt.Errorf("%w: %v", ErrFilesystem, err)
	}

	truncate(&result.Stdout, &result.StdoutTruncated)
	truncate(&result.Stderr, &result.StderrTruncated)
	return result, nil
}

func truncate(s *string, flagged *bool) {
	if len(*s) > MaxCapturedOutput {
		*s = infra.TruncateBytes(*s, MaxCapturedOutput)
		*flagged = true
	}
}
