package llm

import (
	"context"
	"fmt"
)

// BackendKind names one of the pluggable LLM backends (§4.2, §6.2).
type BackendKind string

const (
	BackendAnthropic BackendKind = "anthropic"
	BackendOpenAI    BackendKind = "openai"
	BackendBedrock   BackendKind = "bedrock"
)

// BackendConfig is the subset of internal/config.LLMConfig needed to build
// a Provider, kept separate from internal/config to avoid an import cycle
// (config validates against this package's BackendKind).
type BackendConfig struct {
	Kind         BackendKind
	APIKey       string
	BaseURL      string
	DefaultModel string
	AWSRegion    string
}

// NewProvider builds the Provider named by cfg.Kind.
func NewProvider(ctx context.Context, cfg BackendConfig) (Provider, error) {
	switch cfg.Kind {
	case BackendAnthropic:
		return NewAnthropicProvider(AnthropicConfig{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, DefaultModel: cfg.DefaultModel})
	case BackendOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.DefaultModel)
	case BackendBedrock:
		return NewBedrockProvider(ctx, BedrockConfig{Region: cfg.AWSRegion, DefaultModel: cfg.DefaultModel})
	default:
		return nil, fmt.Errorf("llm: unknown backend kind %q", cfg.Kind)
	}
}
