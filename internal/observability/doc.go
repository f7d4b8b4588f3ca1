// Package observability provides the Prometheus metrics, structured
// slog logging with redaction, and OpenTelemetry tracing shared across
// the agent's components: the LLM Client's request/cost counters, the
// Agent Loop's tool-execution histograms, and span propagation across
// sub-agent delegation.
package observability
