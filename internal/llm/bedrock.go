package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// BedrockConfig configures the AWS Bedrock Provider adapter.
type BedrockConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	DefaultModel    string
}

// BedrockProvider implements Provider over AWS Bedrock's ConverseStream
// API, grounded on internal/agent/providers/bedrock.go in the teacher
// repo. Bedrock's Converse API has no logit_bias parameter, so like
// Anthropic, SupportsLogitBias reports false.
type BedrockProvider struct {
	client       *bedrockruntime.Client
	defaultModel string
}

// NewBedrockProvider resolves AWS credentials (explicit if given, the
// default chain otherwise) and returns a ready client.
func NewBedrockProvider(ctx context.Context, cfg BedrockConfig) (*BedrockProvider, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "anthropic.claude-3-sonnet-20240229-v1:0"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken,
		)))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("bedrock: load AWS config: %w", err)
	}
	return &BedrockProvider{client: bedrockruntime.NewFromConfig(awsCfg), defaultModel: cfg.DefaultModel}, nil
}

func (p *BedrockProvider) Name() string { return "bedrock" }

func (p *BedrockProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "anthropic.claude-3-sonnet-20240229-v1:0", ContextSize: 200000, SupportsVision: true},
		{ID: "anthropic.claude-3-haiku-20240307-v1:0", ContextSize: 200000, SupportsVision: true},
		{ID: "meta.llama3-70b-instruct-v1:0", ContextSize: 8192},
	}
}

func (p *BedrockProvider) SupportsLogitBias() bool { return false }

func (p *BedrockProvider) Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error) {
	messages, err := convertMessagesToBedrock(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("bedrock: convert messages: %w", err)
	}

	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	input := &bedrockruntime.ConverseStreamInput{
		ModelId:  aws.String(model),
		Messages: messages,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens: aws.Int32(int32(maxTokensOrDefault(req.MaxTokens))),
		},
	}
	if req.System != "" {
		input.System = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: req.System}}
	}
	if len(req.Tools) > 0 {
		toolConfig, err := convertToolsToBedrock(req.Tools)
		if err != nil {
			return nil, fmt.Errorf("bedrock: convert tools: %w", err)
		}
		input.ToolConfig = toolConfig
	}

	out, err := p.client.ConverseStream(ctx, input)
	if err != nil {
		return nil, &ProviderError{Provider: "bedrock", Model: model, Status: http.StatusInternalServerError, Message: "converse stream", Cause: err}
	}

	chunks := make(chan *CompletionChunk)
	go processBedrockStream(out, chunks, model)
	return chunks, nil
}

func processBedrockStream(out *bedrockruntime.ConverseStreamOutput, chunks chan<- *CompletionChunk, model string) {
	defer close(chunks)

	var currentToolCall *ToolCall
	var currentToolInput string
	var inputTokens, outputTokens int

	stream := out.GetStream()
	defer stream.Close()

	for event := range stream.Events() {
		switch ev := event.(type) {
		case *types.ConverseStreamOutputMemberContentBlockStart:
			if toolUse, ok := ev.Value.Start.(*types.ContentBlockStartMemberToolUse); ok {
				currentToolCall = &ToolCall{ID: aws.ToString(toolUse.Value.ToolUseId), Name: aws.ToString(toolUse.Value.Name)}
				currentToolInput = ""
			}

		case *types.ConverseStreamOutputMemberContentBlockDelta:
			switch delta := ev.Value.Delta.(type) {
			case *types.ContentBlockDeltaMemberText:
				if delta.Value != "" {
					chunks <- &CompletionChunk{Text: delta.Value}
				}
			case *types.ContentBlockDeltaMemberToolUse:
				currentToolInput += aws.ToString(delta.Value.Input)
			}

		case *types.ConverseStreamOutputMemberContentBlockStop:
			if currentToolCall != nil {
				currentToolCall.Arguments = json.RawMessage(currentToolInput)
				chunks <- &CompletionChunk{ToolCall: currentToolCall}
				currentToolCall = nil
			}

		case *types.ConverseStreamOutputMemberMetadata:
			if usage := ev.Value.Usage; usage != nil {
				inputTokens = int(aws.ToInt32(usage.InputTokens))
				outputTokens = int(aws.ToInt32(usage.OutputTokens))
			}

		case *types.ConverseStreamOutputMemberMessageStop:
			chunks <- &CompletionChunk{Done: true, InputTokens: inputTokens, OutputTokens: outputTokens}
			return
		}
	}

	if err := stream.Err(); err != nil {
		chunks <- &CompletionChunk{Error: &ProviderError{Provider: "bedrock", Model: model, Status: http.StatusInternalServerError, Message: "stream error", Cause: err}}
	}
}

func convertMessagesToBedrock(messages []Message) ([]types.Message, error) {
	out := make([]types.Message, 0, len(messages))
	for _, m := range messages {
		var content []types.ContentBlock
		var role types.ConversationRole

		switch m.Role {
		case RoleUser, RoleTool:
			role = types.ConversationRoleUser
		case RoleAssistant:
			role = types.ConversationRoleAssistant
		default:
			continue
		}

		if m.Content != "" {
			content = append(content, &types.ContentBlockMemberText{Value: m.Content})
		}
		for _, call := range m.ToolCalls {
			var input any
			if err := json.Unmarshal(call.Arguments, &input); err != nil {
				return nil, fmt.Errorf("tool call %s: %w", call.ID, err)
			}
			content = append(content, &types.ContentBlockMemberToolUse{
				Value: types.ToolUseBlock{ToolUseId: aws.String(call.ID), Name: aws.String(call.Name), Input: document.NewLazyDocument(input)},
			})
		}
		for _, result := range m.ToolResults {
			content = append(content, &types.ContentBlockMemberToolResult{
				Value: types.ToolResultBlock{
					ToolUseId: aws.String(result.ToolCallID),
					Content:   []types.ToolResultContentBlock{&types.ToolResultContentBlockMemberText{Value: result.Content}},
					Status:    toolResultStatus(result.IsError),
				},
			})
		}
		if len(content) == 0 {
			continue
		}
		out = append(out, types.Message{Role: role, Content: content})
	}
	return out, nil
}

func toolResultStatus(isError bool) types.ToolResultStatus {
	if isError {
		return types.ToolResultStatusError
	}
	return types.ToolResultStatusSuccess
}

func convertToolsToBedrock(tools []ToolDefinition) (*types.ToolConfiguration, error) {
	specs := make([]types.Tool, 0, len(tools))
	for _, t := range tools {
		var schema any
		if err := json.Unmarshal(t.Schema, &schema); err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name, err)
		}
		specs = append(specs, &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(t.Name),
				Description: aws.String(t.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(schema)},
			},
		})
	}
	return &types.ToolConfiguration{Tools: specs}, nil
}
