package llm

import (
	"context"

	"github.com/agentcore/core/internal/models"
)

// Backends is the set of constructed providers a FallbackClient may dispatch
// to, keyed by the same provider name config.LLMConfig.Provider accepts
// ("anthropic", "openai", "bedrock").
type Backends map[string]*Client

// FallbackClient wraps a primary Client with an ordered list of secondary
// provider/model candidates, grounded on the model catalog's fallback
// chain (internal/models.RunWithModelFallback): a rate-limited or
// 5xx-failing primary does not fail the iteration outright (§4.2
// rate_limited/provider_error) when an alternate backend can serve the same
// call with a byte-identical request body.
type FallbackClient struct {
	backends Backends
	config   *models.FallbackConfig
}

// NewFallbackClient builds a FallbackClient over backends, trying primary
// then each "provider/model" string in fallbacks in order.
func NewFallbackClient(backends Backends, primaryProvider, primaryModel string, fallbacks []string) *FallbackClient {
	return &FallbackClient{
		backends: backends,
		config: &models.FallbackConfig{
			PrimaryProvider: primaryProvider,
			PrimaryModel:    primaryModel,
			Fallbacks:       fallbacks,
		},
	}
}

// Complete runs req against the primary backend, falling back to the next
// configured candidate when the error is failover-eligible (§4.2). The
// request's Model field is overwritten with each candidate's model name;
// everything else — including the byte-identical System prompt and
// LogitBias map — is reused unchanged, preserving the §8 prefix-stability
// and tool-list-stability invariants across the switch.
func (f *FallbackClient) Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, string, error) {
	result, err := models.RunWithModelFallback(ctx, f.config, func(ctx context.Context, provider, model string) (<-chan *CompletionChunk, error) {
		backend, ok := f.backends[provider]
		if !ok {
			return nil, &ProviderError{Provider: provider, Message: "backend not configured"}
		}
		reqCopy := *req
		reqCopy.Model = model
		return backend.Complete(ctx, &reqCopy)
	}, nil)
	if err != nil {
		return nil, "", err
	}
	return result.Result, result.Provider, nil
}
