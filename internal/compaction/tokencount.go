package compaction

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter gives the Agent Loop's context-overflow check an accurate,
// per-model token count instead of the char/4 heuristic EstimateTokens
// uses for the rougher chunk-sizing decisions above.
type TokenCounter struct {
	mu       sync.RWMutex
	encoding *tiktoken.Tiktoken
	model    string
}

var (
	encodingCacheMu sync.RWMutex
	encodingCache   = make(map[string]*tiktoken.Tiktoken)
)

// NewTokenCounter builds a counter for model, falling back to cl100k_base
// when the model has no registered tiktoken encoding (true for every
// non-OpenAI model this module talks to — Anthropic and Bedrock responses
// are close enough in token density for budget accounting purposes).
func NewTokenCounter(model string) (*TokenCounter, error) {
	encodingCacheMu.RLock()
	cached, ok := encodingCache[model]
	encodingCacheMu.RUnlock()
	if ok {
		return &TokenCounter{encoding: cached, model: model}, nil
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("compaction: load tiktoken encoding: %w", err)
		}
	}

	encodingCacheMu.Lock()
	encodingCache[model] = enc
	encodingCacheMu.Unlock()

	return &TokenCounter{encoding: enc, model: model}, nil
}

// Count returns the exact token count of text under this counter's encoding.
func (tc *TokenCounter) Count(text string) int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return len(tc.encoding.Encode(text, nil, nil))
}

// CountMessages sums per-message token counts plus the fixed per-message
// role/delimiter overhead, following the accounting OpenAI documents for
// its own chat models — close enough across providers for a budget check.
func (tc *TokenCounter) CountMessages(messages []*Message) int {
	const perMessageOverhead = 3

	tc.mu.RLock()
	defer tc.mu.RUnlock()

	total := 0
	for _, m := range messages {
		total += perMessageOverhead
		total += len(tc.encoding.Encode(m.Role, nil, nil))
		total += len(tc.encoding.Encode(m.Content, nil, nil))
	}
	return total
}
