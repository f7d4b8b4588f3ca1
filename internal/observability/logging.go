package observability

import (
	"context"
	"log/slog"
	"regexp"
)

// DefaultRedactPatterns matches the forms of secret agentcore can end up
// logging verbatim: a model provider's error body quoting back the
// Authorization header, a tool's stdout echoing an environment variable, or
// a leaked credential embedded in a task description.
var DefaultRedactPatterns = []string{
	// API keys and tokens
	`(?i)(api[_-]?key|apikey)[\s:=]+["\']?([a-zA-Z0-9_\-]{16,})["\']?`,
	`(?i)(bearer|token)[\s:]+([a-zA-Z0-9_\-\.]{16,})`,
	`(?i)(secret|password|passwd|pwd)[\s:=]+["\']?([^\s"']{8,})["\']?`,

	// Anthropic API keys
	`sk-ant-[a-zA-Z0-9_-]{95,}`,

	// OpenAI API keys
	`sk-[a-zA-Z0-9]{48,}`,

	// JWT tokens
	`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`,

	// Generic hex secrets (32+ chars)
	`(?i)(secret|key|token)[\s:=]+["\']?([a-fA-F0-9]{32,})["\']?`,
}

// NewRedactingHandler wraps inner so every string attribute value is passed
// through DefaultRedactPatterns (plus any caller-supplied extras) before it
// reaches the sink. cmd/agentcore wraps its top-level slog handler with this
// so a provider error body or a tool's captured stdout can't leak an API
// key into the task's log stream.
func NewRedactingHandler(inner slog.Handler, extraPatterns ...string) slog.Handler {
	patterns := make([]*regexp.Regexp, 0, len(DefaultRedactPatterns)+len(extraPatterns))
	for _, p := range append(append([]string{}, DefaultRedactPatterns...), extraPatterns...) {
		if re, err := regexp.Compile(p); err == nil {
			patterns = append(patterns, re)
		}
	}
	return &redactingHandler{inner: inner, patterns: patterns}
}

type redactingHandler struct {
	inner    slog.Handler
	patterns []*regexp.Regexp
}

func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *redactingHandler) Handle(ctx context.Context, record slog.Record) error {
	record.Message = h.redact(record.Message)

	redacted := slog.Record{Time: record.Time, Level: record.Level, Message: record.Message, PC: record.PC}
	record.Attrs(func(a slog.Attr) bool {
		redacted.AddAttrs(h.redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, redacted)
}

func (h *redactingHandler) redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, h.redact(a.Value.String()))
	}
	if a.Value.Kind() == slog.KindAny {
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, h.redact(err.Error()))
		}
	}
	return a
}

func (h *redactingHandler) redact(s string) string {
	for _, re := range h.patterns {
		s = re.ReplaceAllString(s, "[REDACTED]")
	}
	return s
}

func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &redactingHandler{inner: h.inner.WithAttrs(attrs), patterns: h.patterns}
}

func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{inner: h.inner.WithGroup(name), patterns: h.patterns}
}
