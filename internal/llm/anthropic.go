package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicConfig configures the Anthropic Provider adapter.
type AnthropicConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
}

// AnthropicProvider implements Provider over the Anthropic Messages API,
// grounded on internal/agent/providers/anthropic.go in the teacher repo.
// Anthropic's API has no logit_bias knob, so SupportsLogitBias reports
// false: the mask-not-mutate contract for this backend is approximated by
// the caller omitting disallowed tools from req.Tools rather than biasing
// their tokens (§4.2 notes this limitation explicitly).
type AnthropicProvider struct {
	client       anthropic.Client
	defaultModel string
}

// NewAnthropicProvider builds a client from cfg, applying the teacher's
// sonnet-4 default model when DefaultModel is unset.
func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "claude-sonnet-4-20250514"
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicProvider{client: anthropic.NewClient(opts...), defaultModel: cfg.DefaultModel}, nil
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "claude-sonnet-4-20250514", ContextSize: 200000, SupportsVision: true},
		{ID: "claude-opus-4-20250514", ContextSize: 200000, SupportsVision: true},
		{ID: "claude-3-5-sonnet-20241022", ContextSize: 200000, SupportsVision: true},
		{ID: "claude-3-haiku-20240307", ContextSize: 200000, SupportsVision: true},
	}
}

func (p *AnthropicProvider) SupportsLogitBias() bool { return false }

func (p *AnthropicProvider) model(requested string) string {
	if requested != "" {
		return requested
	}
	return p.defaultModel
}

func (p *AnthropicProvider) Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error) {
	messages, err := convertMessagesToAnthropic(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("anthropic: convert messages: %w", err)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model(req.Model)),
		Messages:  messages,
		MaxTokens: int64(maxTokensOrDefault(req.MaxTokens)),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.System}}
	}
	if len(req.Tools) > 0 {
		tools, err := convertToolsToAnthropic(req.Tools)
		if err != nil {
			return nil, fmt.Errorf("anthropic: convert tools: %w", err)
		}
		params.Tools = tools
	}
	if req.EnableThinking {
		budget := int64(req.ThinkingBudgetTokens)
		if budget < 1024 {
			budget = 10000
		}
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(budget)
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	chunks := make(chan *CompletionChunk)
	go processAnthropicStream(stream, chunks, p.model(req.Model))
	return chunks, nil
}

// processAnthropicStream converts SSE events into CompletionChunks,
// accumulating tool_use input_json_delta fragments across events before
// emitting the completed ToolCall on content_block_stop.
func processAnthropicStream(stream *anthropic.MessageStreamEventUnionStream, chunks chan<- *CompletionChunk, model string) {
	defer close(chunks)

	var currentToolCall *ToolCall
	var currentToolInput strings.Builder
	var inputTokens, outputTokens int

	for stream.Next() {
		event := stream.Current()
		switch event.Type {
		case "message_start":
			ms := event.AsMessageStart()
			if ms.Message.Usage.InputTokens > 0 {
				inputTokens = int(ms.Message.Usage.InputTokens)
			}

		case "content_block_start":
			block := event.AsContentBlockStart().ContentBlock
			if block.Type == "tool_use" {
				toolUse := block.AsToolUse()
				currentToolCall = &ToolCall{ID: toolUse.ID, Name: toolUse.Name}
				currentToolInput.Reset()
			}

		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			switch delta.Type {
			case "text_delta":
				if delta.Text != "" {
					chunks <- &CompletionChunk{Text: delta.Text}
				}
			case "input_json_delta":
				if delta.PartialJSON != "" {
					currentToolInput.WriteString(delta.PartialJSON)
				}
			}

		case "content_block_stop":
			if currentToolCall != nil {
				currentToolCall.Arguments = json.RawMessage(currentToolInput.String())
				chunks <- &CompletionChunk{ToolCall: currentToolCall}
				currentToolCall = nil
			}

		case "message_delta":
			if usage := event.AsMessageDelta().Usage; usage.OutputTokens > 0 {
				outputTokens = int(usage.OutputTokens)
			}

		case "message_stop":
			chunks <- &CompletionChunk{Done: true, InputTokens: inputTokens, OutputTokens: outputTokens}
			return

		case "error":
			chunks <- &CompletionChunk{Error: wrapAnthropicError(model, nil)}
			return
		}
	}

	if err := stream.Err(); err != nil {
		chunks <- &CompletionChunk{Error: wrapAnthropicError(model, err)}
	}
}

func convertMessagesToAnthropic(messages []Message) ([]anthropic.MessageParam, error) {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case RoleAssistant:
			blocks := []anthropic.ContentBlockParamUnion{}
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, call := range m.ToolCalls {
				var input any
				if err := json.Unmarshal(call.Arguments, &input); err != nil {
					return nil, fmt.Errorf("tool call %s: %w", call.ID, err)
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, input, call.Name))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		case RoleTool:
			for _, result := range m.ToolResults {
				out = append(out, anthropic.NewUserMessage(
					anthropic.NewToolResultBlock(result.ToolCallID, result.Content, result.IsError),
				))
			}
		}
	}
	return out, nil
}

func convertToolsToAnthropic(tools []ToolDefinition) ([]anthropic.ToolUnionParam, error) {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(t.Schema, &schema); err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name, err)
		}
		out = append(out, anthropic.ToolUnionParamOfTool(schema, t.Name))
	}
	return out, nil
}

func maxTokensOrDefault(n int) int {
	if n <= 0 {
		return 4096
	}
	return n
}

func wrapAnthropicError(model string, cause error) *ProviderError {
	status := 0
	if apiErr, ok := cause.(*anthropic.Error); ok {
		status = apiErr.StatusCode
	}
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return &ProviderError{Provider: "anthropic", Model: model, Status: status, Message: "stream error", Cause: cause}
}
