package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertMessagesToOpenAI(t *testing.T) {
	tests := []struct {
		name     string
		messages []Message
		system   string
		wantLen  int
	}{
		{
			name: "basic text messages with system prompt",
			messages: []Message{
				{Role: RoleUser, Content: "Hello"},
				{Role: RoleAssistant, Content: "Hi there!"},
			},
			system:  "You are a helpful assistant",
			wantLen: 3,
		},
		{
			name: "assistant message with a tool call",
			messages: []Message{
				{Role: RoleUser, Content: "What's the weather?"},
				{Role: RoleAssistant, ToolCalls: []ToolCall{
					{ID: "call_123", Name: "get_weather", Arguments: json.RawMessage(`{"location":"NYC"}`)},
				}},
			},
			wantLen: 2,
		},
		{
			name: "tool result message",
			messages: []Message{
				{Role: RoleTool, ToolResults: []ToolResult{{ToolCallID: "call_123", Content: "72F and sunny"}}},
			},
			wantLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := convertMessagesToOpenAI(tt.messages, tt.system)
			require.NoError(t, err)
			assert.Len(t, out, tt.wantLen)
		})
	}
}

func TestConvertToolsToOpenAI(t *testing.T) {
	tools := []ToolDefinition{
		{Name: "search", Description: "search the web", Schema: json.RawMessage(`{"type":"object"}`)},
	}
	out := convertToolsToOpenAI(tools)
	require.Len(t, out, 1)
	assert.Equal(t, "search", out[0].Function.Name)
}

func TestIsRetryableClassifiesByStatus(t *testing.T) {
	rateLimited := &ProviderError{Status: 429}
	assert.True(t, isRetryable(rateLimited))

	badRequest := &ProviderError{Status: 400}
	assert.False(t, isRetryable(badRequest))

	serverErr := &ProviderError{Status: 503}
	assert.True(t, isRetryable(serverErr))
}

func TestClassifyMapsStatusToSentinel(t *testing.T) {
	err := classify(&ProviderError{Status: 429, Message: "slow down"})
	assert.ErrorIs(t, err, ErrRateLimited)

	err = classify(&ProviderError{Status: 413, Message: "too much"})
	assert.ErrorIs(t, err, ErrContextOverflow)

	err = classify(&ProviderError{Status: 500, Message: "oops"})
	assert.ErrorIs(t, err, ErrProviderError)
}
