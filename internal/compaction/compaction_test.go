package compaction

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name     string
		msg      *Message
		expected int
	}{
		{"nil message", nil, 0},
		{"empty message", &Message{}, 0},
		{"short content", &Message{Content: "Hello"}, 2},                         // 5 chars / 4 = 1.25 -> 2
		{"exact multiple", &Message{Content: "12345678"}, 2},                     // 8 chars / 4 = 2
		{"with tool calls", &Message{Content: "Hi", ToolCalls: "call"}, 2},       // 6 chars / 4 = 1.5 -> 2
		{"with tool results", &Message{Content: "Hi", ToolResults: "result"}, 2}, // 8 chars / 4 = 2
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EstimateTokens(tt.msg)
			if result != tt.expected {
				t.Errorf("EstimateTokens() = %d, want %d", result, tt.expected)
			}
		})
	}
}

func TestChunkMessagesByMaxTokens(t *testing.T) {
	tests := []struct {
		name           string
		messages       []*Message
		maxTokens      int
		expectedChunks int
	}{
		{"empty messages", nil, 100, 0},
		{"zero max tokens", []*Message{{Content: "test"}}, 0, 1},
		{"single message fits", []*Message{{Content: "test"}}, 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ChunkMessagesByMaxTokens(tt.messages, tt.maxTokens)
			if len(result) != tt.expectedChunks {
				t.Errorf("ChunkMessagesByMaxTokens() = %d chunks, want %d", len(result), tt.expectedChunks)
			}
		})
	}

	t.Run("respects max tokens", func(t *testing.T) {
		messages := make([]*Message, 5)
		for i := range messages {
			messages[i] = &Message{Content: strings.Repeat("a", 40)} // 10 tokens each
		}
		result := ChunkMessagesByMaxTokens(messages, 25) // Should fit 2 per chunk
		if len(result) < 2 {
			t.Errorf("expected at least 2 chunks, got %d", len(result))
		}
		for i, chunk := range result {
			tokens := 0
			for _, msg := range chunk {
				tokens += EstimateTokens(msg)
			}
			if tokens > 25 && len(chunk) > 1 {
				t.Errorf("chunk %d has %d tokens, exceeds max 25", i, tokens)
			}
		}
	})

	t.Run("oversized single message", func(t *testing.T) {
		messages := []*Message{
			{Content: "small"},
			{Content: strings.Repeat("a", 200)}, // 50 tokens, oversized
			{Content: "small2"},
		}
		result := ChunkMessagesByMaxTokens(messages, 10)
		// Oversized message should be in its own chunk
		foundOversized := false
		for _, chunk := range result {
			if len(chunk) == 1 && EstimateTokens(chunk[0]) > 10 {
				foundOversized = true
				break
			}
		}
		if !foundOversized {
			t.Error("oversized message should be in its own chunk")
		}
	})
}

func TestIsOversizedForSummary(t *testing.T) {
	tests := []struct {
		name          string
		msg           *Message
		contextWindow int
		expected      bool
	}{
		{"nil message", nil, 100000, false},
		{"zero context window", &Message{Content: "test"}, 0, false},
		{"small message", &Message{Content: "small"}, 100000, false},
		{"oversized message", &Message{Content: strings.Repeat("a", 300000)}, 100000, true}, // 75000 tokens > 50% of 100000
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsOversizedForSummary(tt.msg, tt.contextWindow)
			if result != tt.expected {
				t.Errorf("IsOversizedForSummary() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestDefaultSummarizationConfig(t *testing.T) {
	config := DefaultSummarizationConfig()

	if config.ReserveTokens <= 0 {
		t.Error("ReserveTokens should be positive")
	}
	if config.MaxChunkTokens <= 0 {
		t.Error("MaxChunkTokens should be positive")
	}
	if config.ContextWindow <= 0 {
		t.Error("ContextWindow should be positive")
	}
}

// mockSummarizer implements Summarizer for testing.
type mockSummarizer struct {
	summaries    []string
	callCount    int
	shouldError  bool
	errorMessage string
}

func (m *mockSummarizer) GenerateSummary(ctx context.Context, messages []*Message, config *SummarizationConfig) (string, error) {
	if m.shouldError {
		return "", fmt.Errorf("%s", m.errorMessage)
	}
	summary := fmt.Sprintf("Summary of %d messages", len(messages))
	if m.callCount < len(m.summaries) {
		summary = m.summaries[m.callCount]
	}
	m.callCount++
	return summary, nil
}

func TestSummarizeChunks(t *testing.T) {
	t.Run("empty messages", func(t *testing.T) {
		result, err := SummarizeChunks(context.Background(), nil, &mockSummarizer{}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != DefaultSummaryFallback {
			t.Errorf("expected fallback, got: %s", result)
		}
	})

	t.Run("nil summarizer", func(t *testing.T) {
		_, err := SummarizeChunks(context.Background(), []*Message{{Content: "test"}}, nil, nil)
		if err == nil {
			t.Error("expected error for nil summarizer")
		}
	})

	t.Run("single chunk", func(t *testing.T) {
		summarizer := &mockSummarizer{summaries: []string{"Single summary"}}
		messages := []*Message{{Content: "test"}}
		result, err := SummarizeChunks(context.Background(), messages, summarizer, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != "Single summary" {
			t.Errorf("expected 'Single summary', got: %s", result)
		}
		if summarizer.callCount != 1 {
			t.Errorf("expected 1 call, got %d", summarizer.callCount)
		}
	})

	t.Run("multiple chunks", func(t *testing.T) {
		summarizer := &mockSummarizer{
			summaries: []string{"Chunk 1", "Chunk 2", "Merged"},
		}
		messages := make([]*Message, 10)
		for i := range messages {
			messages[i] = &Message{Content: strings.Repeat("a", 4000)}
		}
		config := &SummarizationConfig{MaxChunkTokens: 2500, ContextWindow: 100000}
		result, err := SummarizeChunks(context.Background(), messages, summarizer, config)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summarizer.callCount < 2 {
			t.Errorf("expected at least 2 calls for chunking, got %d", summarizer.callCount)
		}
		_ = result
	})

	t.Run("summarizer error", func(t *testing.T) {
		summarizer := &mockSummarizer{shouldError: true, errorMessage: "test error"}
		messages := []*Message{{Content: "test"}}
		_, err := SummarizeChunks(context.Background(), messages, summarizer, nil)
		if err == nil {
			t.Error("expected error from summarizer")
		}
	})
}

func TestSummarizeWithFallback(t *testing.T) {
	t.Run("empty messages", func(t *testing.T) {
		result, err := SummarizeWithFallback(context.Background(), nil, &mockSummarizer{}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != DefaultSummaryFallback {
			t.Errorf("expected fallback, got: %s", result)
		}
	})

	t.Run("nil summarizer", func(t *testing.T) {
		_, err := SummarizeWithFallback(context.Background(), []*Message{{Content: "test"}}, nil, nil)
		if err == nil {
			t.Error("expected error for nil summarizer")
		}
	})

	t.Run("handles oversized messages", func(t *testing.T) {
		summarizer := &mockSummarizer{summaries: []string{"Normal summary"}}
		messages := []*Message{
			{Content: "normal"},
			{Role: "user", Content: strings.Repeat("a", 300000)}, // 75000 tokens > 50% of 100000
		}
		config := &SummarizationConfig{ContextWindow: 100000, MaxChunkTokens: 50000}
		result, err := SummarizeWithFallback(context.Background(), messages, summarizer, config)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(result, "Oversized") {
			t.Error("result should contain note about oversized message")
		}
	})

	t.Run("all oversized", func(t *testing.T) {
		summarizer := &mockSummarizer{}
		messages := []*Message{
			{Role: "user", Content: strings.Repeat("a", 300000)}, // 75000 tokens > 50% of 100000
		}
		config := &SummarizationConfig{ContextWindow: 100000, MaxChunkTokens: 50000}
		result, err := SummarizeWithFallback(context.Background(), messages, summarizer, config)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(result, DefaultSummaryFallback) {
			t.Error("result should contain fallback when all oversized")
		}
	})
}

func TestConstants(t *testing.T) {
	if BaseChunkRatio != 0.4 {
		t.Errorf("BaseChunkRatio = %f, want 0.4", BaseChunkRatio)
	}
	if DefaultSummaryFallback != "No prior history." {
		t.Errorf("DefaultSummaryFallback = %q, unexpected", DefaultSummaryFallback)
	}
	if CharsPerToken != 4 {
		t.Errorf("CharsPerToken = %d, want 4", CharsPerToken)
	}
}
