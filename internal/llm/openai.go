package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider over any OpenAI-compatible chat
// completions API, grounded on internal/agent/providers/openai.go in the
// teacher repo. It is the reference backend for the §4.2/§8 mask-not-mutate
// contract: go-openai's ChatCompletionRequest.LogitBias maps directly onto
// CompletionRequest.LogitBias, so a deployment that needs byte-for-byte
// verification of the prefix-stability invariant should point the Agent
// Loop at this backend (or a self-hosted OpenAI-compatible gateway) rather
// than Anthropic, which has no equivalent knob.
type OpenAIProvider struct {
	client       *openai.Client
	defaultModel string
}

// NewOpenAIProvider builds a client for apiKey, optionally against a custom
// base URL (vLLM, llama.cpp server, or another OpenAI-compatible gateway).
func NewOpenAIProvider(apiKey, baseURL, defaultModel string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if defaultModel == "" {
		defaultModel = openai.GPT4o
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg), defaultModel: defaultModel}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: openai.GPT4o, ContextSize: 128000, SupportsVision: true, SupportsBias: true},
		{ID: openai.GPT4Turbo, ContextSize: 128000, SupportsVision: true, SupportsBias: true},
		{ID: openai.GPT3Dot5Turbo, ContextSize: 16385, SupportsBias: true},
	}
}

func (p *OpenAIProvider) SupportsLogitBias() bool { return true }

func (p *OpenAIProvider) Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error) {
	messages, err := convertMessagesToOpenAI(req.Messages, req.System)
	if err != nil {
		return nil, fmt.Errorf("openai: convert messages: %w", err)
	}

	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = convertToolsToOpenAI(req.Tools)
	}
	if len(req.LogitBias) > 0 {
		bias := make(map[string]int, len(req.LogitBias))
		for token, weight := range req.LogitBias {
			bias[token] = int(weight)
		}
		chatReq.LogitBias = bias
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return nil, classifyOpenAIError(err, model)
	}

	chunks := make(chan *CompletionChunk)
	go processOpenAIStream(ctx, stream, chunks)
	return chunks, nil
}

func processOpenAIStream(ctx context.Context, stream *openai.ChatCompletionStream, chunks chan<- *CompletionChunk) {
	defer close(chunks)
	defer stream.Close()

	toolCalls := make(map[int]*ToolCall)
	order := []int{}

	for {
		select {
		case <-ctx.Done():
			chunks <- &CompletionChunk{Error: ctx.Err(), Done: true}
			return
		default:
		}

		resp, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				for _, idx := range order {
					if tc := toolCalls[idx]; tc.ID != "" {
						chunks <- &CompletionChunk{ToolCall: tc}
					}
				}
				chunks <- &CompletionChunk{Done: true}
				return
			}
			chunks <- &CompletionChunk{Error: err, Done: true}
			return
		}

		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta

		if delta.Content != "" {
			chunks <- &CompletionChunk{Text: delta.Content}
		}

		for _, tc := range delta.ToolCalls {
			index := 0
			if tc.Index != nil {
				index = *tc.Index
			}
			if toolCalls[index] == nil {
				toolCalls[index] = &ToolCall{}
				order = append(order, index)
			}
			if tc.ID != "" {
				toolCalls[index].ID = tc.ID
			}
			if tc.Function.Name != "" {
				toolCalls[index].Name = tc.Function.Name
			}
			if tc.Function.Arguments != "" {
				toolCalls[index].Arguments = json.RawMessage(string(toolCalls[index].Arguments) + tc.Function.Arguments)
			}
		}
	}
}

func convertMessagesToOpenAI(messages []Message, system string) ([]openai.ChatCompletionMessage, error) {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range messages {
		switch m.Role {
		case RoleUser:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Content})
		case RoleAssistant:
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content}
			for _, call := range m.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   call.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      call.Name,
						Arguments: string(call.Arguments),
					},
				})
			}
			out = append(out, msg)
		case RoleTool:
			for _, result := range m.ToolResults {
				out = append(out, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    result.Content,
					ToolCallID: result.ToolCallID,
				})
			}
		}
	}
	return out, nil
}

func convertToolsToOpenAI(tools []ToolDefinition) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  json.RawMessage(t.Schema),
			},
		})
	}
	return out
}

func classifyOpenAIError(err error, model string) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: "openai", Model: model, Status: apiErr.HTTPStatusCode, Message: apiErr.Message, Cause: err}
	}
	return &ProviderError{Provider: "openai", Model: model, Status: http.StatusInternalServerError, Message: "request failed", Cause: err}
}
