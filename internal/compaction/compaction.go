// Package compaction implements the chunk-then-summarize pass the Agent Loop
// runs once per task when history overflows the model's context window
// (internal/loop/iterate.go's compress, §4.11.b): split the turns being
// dropped into token-bounded chunks, summarize each with the model, then
// merge the chunk summaries into the one replacement turn the loop keeps.
package compaction

import (
	"context"
	"fmt"
	"strings"
)

// Constants for compaction behavior
const (
	// BaseChunkRatio is the default ratio of context window for chunk sizing.
	BaseChunkRatio = 0.4

	// DefaultSummaryFallback is returned when there's no prior history to summarize.
	DefaultSummaryFallback = "No prior history."

	// OversizedThreshold is the fraction of context window above which a single
	// message is considered too large to summarize (50%).
	OversizedThreshold = 0.5

	// CharsPerToken is the approximate character-to-token ratio for estimation.
	CharsPerToken = 4

	// DefaultContextWindow is the fallback context window size in tokens.
	DefaultContextWindow = 100000
)

// Message represents a conversation message for compaction.
type Message struct {
	// Role is the message role (e.g., "user", "assistant", "system").
	Role string

	// Content is the text content of the message.
	Content string

	// Timestamp is the Unix timestamp when the message was created.
	Timestamp int64

	// ID is an optional unique identifier for the message.
	ID string

	// ToolCalls contains any tool call information (serialized).
	ToolCalls string

	// ToolResults contains any tool result information (serialized).
	ToolResults string

	// Metadata contains additional message metadata.
	Metadata map[string]any
}

// EstimateTokens estimates token count for a message using a simple heuristic.
// Approximation: ~4 characters per token.
func EstimateTokens(msg *Message) int {
	if msg == nil {
		return 0
	}
	chars := len(msg.Content) + len(msg.ToolCalls) + len(msg.ToolResults)
	return (chars + CharsPerToken - 1) / CharsPerToken // Ceiling division
}

// ChunkMessagesByMaxTokens splits messages into chunks where each chunk
// does not exceed maxTokens. This ensures hard limits are respected.
func ChunkMessagesByMaxTokens(messages []*Message, maxTokens int) [][]*Message {
	if len(messages) == 0 {
		return nil
	}
	if maxTokens <= 0 {
		return [][]*Message{messages}
	}

	result := make([][]*Message, 0)
	currentChunk := make([]*Message, 0)
	currentTokens := 0

	for _, msg := range messages {
		msgTokens := EstimateTokens(msg)

		// If a single message exceeds maxTokens, it gets its own chunk
		if msgTokens > maxTokens {
			if len(currentChunk) > 0 {
				result = append(result, currentChunk)
				currentChunk = make([]*Message, 0)
				currentTokens = 0
			}
			result = append(result, []*Message{msg})
			continue
		}

		// If adding this message would exceed limit, start new chunk
		if currentTokens+msgTokens > maxTokens && len(currentChunk) > 0 {
			result = append(result, currentChunk)
			currentChunk = make([]*Message, 0)
			currentTokens = 0
		}

		currentChunk = append(currentChunk, msg)
		currentTokens += msgTokens
	}

	// Append any remaining messages
	if len(currentChunk) > 0 {
		result = append(result, currentChunk)
	}

	return result
}

// IsOversizedForSummary returns true if a single message is too large to summarize.
// A message is considered oversized if it exceeds 50% of the context window.
func IsOversizedForSummary(msg *Message, contextWindow int) bool {
	if msg == nil || contextWindow <= 0 {
		return false
	}
	msgTokens := EstimateTokens(msg)
	threshold := float64(contextWindow) * OversizedThreshold
	return float64(msgTokens) > threshold
}

// SummarizationConfig for summarization operations.
type SummarizationConfig struct {
	// Model is the LLM model identifier to use for summarization.
	Model string

	// APIKey is the API key for the LLM provider.
	APIKey string

	// ReserveTokens is the number of tokens to reserve for the response.
	ReserveTokens int

	// MaxChunkTokens is the maximum tokens per chunk for summarization.
	MaxChunkTokens int

	// ContextWindow is the total context window size in tokens.
	ContextWindow int

	// CustomInstructions are additional instructions for the summarizer.
	CustomInstructions string
}

// DefaultSummarizationConfig returns a config with sensible defaults.
func DefaultSummarizationConfig() *SummarizationConfig {
	return &SummarizationConfig{
		ReserveTokens:  2000,
		MaxChunkTokens: 20000,
		ContextWindow:  DefaultContextWindow,
	}
}

// Summarizer interface for generating summaries.
type Summarizer interface {
	// GenerateSummary generates a summary of the given messages.
	GenerateSummary(ctx context.Context, messages []*Message, config *SummarizationConfig) (string, error)
}

// SummarizeChunks summarizes messages in chunks, then merges the chunk summaries.
func SummarizeChunks(ctx context.Context, messages []*Message, summarizer Summarizer, config *SummarizationConfig) (string, error) {
	if len(messages) == 0 {
		return DefaultSummaryFallback, nil
	}
	if summarizer == nil {
		return "", fmt.Errorf("summarizer is nil")
	}
	if config == nil {
		config = DefaultSummarizationConfig()
	}

	maxChunkTokens := config.MaxChunkTokens
	if maxChunkTokens <= 0 {
		maxChunkTokens = int(float64(config.ContextWindow) * BaseChunkRatio)
	}

	chunks := ChunkMessagesByMaxTokens(messages, maxChunkTokens)
	if len(chunks) == 0 {
		return DefaultSummaryFallback, nil
	}

	// If only one chunk, summarize directly
	if len(chunks) == 1 {
		return summarizer.GenerateSummary(ctx, chunks[0], config)
	}

	// Summarize each chunk
	chunkSummaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		summary, err := summarizer.GenerateSummary(ctx, chunk, config)
		if err != nil {
			return "", fmt.Errorf("summarizing chunk %d: %w", i, err)
		}
		chunkSummaries = append(chunkSummaries, summary)
	}

	// Merge chunk summaries
	return mergeSummaries(ctx, chunkSummaries, summarizer, config)
}

// mergeSummaries combines multiple chunk summaries into a final summary.
func mergeSummaries(ctx context.Context, summaries []string, summarizer Summarizer, config *SummarizationConfig) (string, error) {
	if len(summaries) == 0 {
		return DefaultSummaryFallback, nil
	}
	if len(summaries) == 1 {
		return summaries[0], nil
	}

	// Create synthetic messages from the summaries for the merge pass
	mergeMessages := make([]*Message, len(summaries))
	for i, s := range summaries {
		mergeMessages[i] = &Message{
			Role:    "system",
			Content: fmt.Sprintf("Chunk %d summary:\n%s", i+1, s),
		}
	}

	// Create a merge config with instructions to combine summaries
	mergeConfig := *config
	mergeConfig.CustomInstructions = "Merge these chunk summaries into a single coherent summary. Preserve key details and maintain chronological flow."
	if config.CustomInstructions != "" {
		mergeConfig.CustomInstructions = config.CustomInstructions + "\n\n" + mergeConfig.CustomInstructions
	}

	return summarizer.GenerateSummary(ctx, mergeMessages, &mergeConfig)
}

// SummarizeWithFallback tries full summarization, falls back to partial if oversized.
// For oversized messages, it notes them instead of failing.
func SummarizeWithFallback(ctx context.Context, messages []*Message, summarizer Summarizer, config *SummarizationConfig) (string, error) {
	if len(messages) == 0 {
		return DefaultSummaryFallback, nil
	}
	if summarizer == nil {
		return "", fmt.Errorf("summarizer is nil")
	}
	if config == nil {
		config = DefaultSummarizationConfig()
	}

	// Separate oversized messages from normal ones
	var normal []*Message
	var oversizedNotes []string

	for _, msg := range messages {
		if IsOversizedForSummary(msg, config.ContextWindow) {
			// Note the oversized message instead of including it
			note := fmt.Sprintf("[Oversized %s message with %d tokens - content omitted]",
				msg.Role, EstimateTokens(msg))
			oversizedNotes = append(oversizedNotes, note)
		} else {
			normal = append(normal, msg)
		}
	}

	// Summarize normal messages
	var summary string
	var err error
	if len(normal) > 0 {
		summary, err = SummarizeChunks(ctx, normal, summarizer, config)
		if err != nil {
			return "", fmt.Errorf("summarizing normal messages: %w", err)
		}
	} else {
		summary = DefaultSummaryFallback
	}

	// Append notes about oversized messages
	if len(oversizedNotes) > 0 {
		summary = summary + "\n\n" + strings.Join(oversizedNotes, "\n")
	}

	return summary, nil
}
