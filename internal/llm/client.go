// Package llm implements the LLM Client (C2, §4.2): a provider-agnostic
// streaming completion interface with a per-call token-bias map and a
// cache-affinity hint, so the Agent Loop can bias tool availability and
// preserve prompt-prefix KV-cache reuse without ever mutating the prompt
// text itself (§8 prefix-stability invariant).
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agentcore/core/internal/infra"
	"github.com/agentcore/core/internal/ratelimit"
)

// Role is the speaker of one CompletionMessage.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is an assistant-issued request to execute a named tool with the
// given raw JSON arguments.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult carries a tool's output back into the conversation.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error,omitempty"`
}

// ToolDefinition is one entry of the provider-facing tool catalog, derived
// from the Tool Registry's ToolSpec (§4.3).
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema"`
}

// Message is one turn of conversation history sent to the provider.
type Message struct {
	Role        Role         `json:"role"`
	Content     string       `json:"content,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// CompletionRequest is one LLM call. LogitBias and CacheHint exist
// specifically to satisfy the mask-not-mutate contract of §4.3/§8: the
// Agent Loop holds the system prompt and tool catalog byte-identical
// across phases and instead steers availability through LogitBias, while
// CacheHint lets a provider backend that supports explicit prompt caching
// (e.g. Anthropic cache_control) mark the stable prefix.
type CompletionRequest struct {
	Model                string             `json:"model"`
	System               string             `json:"system,omitempty"`
	Messages             []Message          `json:"messages"`
	Tools                []ToolDefinition   `json:"tools,omitempty"`
	MaxTokens            int                `json:"max_tokens,omitempty"`
	Temperature          float64            `json:"temperature,omitempty"`
	LogitBias            map[string]float64 `json:"logit_bias,omitempty"`
	CacheHint            string             `json:"cache_hint,omitempty"`
	EnableThinking       bool               `json:"enable_thinking,omitempty"`
	ThinkingBudgetTokens int                `json:"thinking_budget_tokens,omitempty"`
}

// CompletionChunk is one streamed unit of a Complete response.
type CompletionChunk struct {
	Text         string    `json:"text,omitempty"`
	ToolCall     *ToolCall `json:"tool_call,omitempty"`
	Done         bool      `json:"done,omitempty"`
	Error        error     `json:"-"`
	InputTokens  int       `json:"input_tokens,omitempty"`
	OutputTokens int       `json:"output_tokens,omitempty"`
}

// ModelInfo describes one model a Provider can serve.
type ModelInfo struct {
	ID             string
	ContextSize    int
	SupportsVision bool
	SupportsBias   bool
}

// Provider is the pluggable LLM backend (§6.2). Complete streams a
// response over the returned channel, closing it when the response (or an
// error) completes.
type Provider interface {
	Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error)
	Name() string
	Models() []ModelInfo
	SupportsLogitBias() bool
}

// Sentinel errors surfaced by Client after exhausting retries (§4.2 failure
// modes: rate_limited, provider_error, context_overflow).
var (
	ErrRateLimited     = errors.New("rate_limited")
	ErrProviderError   = errors.New("provider_error")
	ErrContextOverflow = errors.New("context_overflow")
)

// Client wraps a Provider with the retry policy named in §4.2: up to 3
// attempts with exponential backoff on rate-limit/server-error responses,
// no retry on client errors or context-overflow (those are not transient).
type Client struct {
	provider   Provider
	maxRetries int
	limiter    *ratelimit.Bucket
	// breaker opens after sustained provider_error responses so a fully
	// down provider fails a call immediately rather than spending the full
	// retry budget on every completion request (§4.2 failure modes).
	breaker *infra.CircuitBreaker
}

// New wraps provider with the default retry policy and no self-pacing;
// call SetRateLimit to cap outbound request rate client-side (§5: "the
// provider's rate limiter is the only bound" unless the caller opts into
// one of its own to avoid tripping it in the first place).
func New(provider Provider) *Client {
	return &Client{
		provider:   provider,
		maxRetries: 3,
		breaker: infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
			Name:             "llm-provider",
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Timeout:          20 * time.Second,
		}),
	}
}

// SetRateLimit installs a token-bucket pace of rps requests/second with the
// given burst, self-throttling Complete calls before the provider ever
// returns rate_limited.
func (c *Client) SetRateLimit(rps float64, burst int) {
	c.limiter = ratelimit.NewBucket(ratelimit.Config{RequestsPerSecond: rps, BurstSize: burst, Enabled: true})
}

// Name passes through to the wrapped provider.
func (c *Client) Name() string { return c.provider.Name() }

// Models passes through to the wrapped provider.
func (c *Client) Models() []ModelInfo { return c.provider.Models() }

// SupportsLogitBias reports whether the wrapped provider can apply
// req.LogitBias natively; callers needing the mask-not-mutate guarantee on
// a provider that answers false must fall back to a reference backend that
// does (§4.2 notes the OpenAI-compatible backend as that reference).
func (c *Client) SupportsLogitBias() bool { return c.provider.SupportsLogitBias() }

// Complete retries transient provider failures with exponential backoff
// (250ms, 500ms, 1s) before surfacing a classified sentinel error.
func (c *Client) Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error) {
	if c.limiter != nil {
		if wait := c.limiter.WaitTime(); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
		c.limiter.Allow()
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		chunks, err := infra.ExecuteWithResult(c.breaker, ctx, func(ctx context.Context) (<-chan *CompletionChunk, error) {
			return c.provider.Complete(ctx, req)
		})
		if err == nil {
			return chunks, nil
		}
		lastErr = err
		if errors.Is(err, infra.ErrCircuitOpen) {
			return nil, fmt.Errorf("%w: %v", ErrProviderError, err)
		}
		if !isRetryable(err) {
			return nil, classify(err)
		}
		if attempt == c.maxRetries-1 {
			break
		}
		if waitErr := backoffWait(ctx, attempt); waitErr != nil {
			return nil, waitErr
		}
	}
	return nil, classify(lastErr)
}
