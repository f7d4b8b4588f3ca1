package learning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/agentcore/core/internal/llm"
)

// ErrorKind is the taxonomy named in §7 (kinds, not Go types).
type ErrorKind string

const (
	ErrorKindConfiguration    ErrorKind = "configuration"
	ErrorKindTransientTransport ErrorKind = "transient_transport"
	ErrorKindProvider         ErrorKind = "provider"
	ErrorKindSandbox          ErrorKind = "sandbox"
	ErrorKindParse            ErrorKind = "parse"
	ErrorKindValidation       ErrorKind = "validation"
	ErrorKindSemantic         ErrorKind = "semantic"
	ErrorKindLoopTermination  ErrorKind = "loop_termination"
)

const errorJaccardThreshold = 0.7
const namedPatternMinMembers = 3

// ErrorOccurrence is one reported error to classify.
type ErrorOccurrence struct {
	Kind    ErrorKind
	Message string
}

// FixSuggestion is one LLM-generated remediation for a named pattern.
type FixSuggestion struct {
	RootCause   string
	Suggestions []string
}

// Pattern is a cluster of ≥1 similar error occurrences; once it reaches
// namedPatternMinMembers it becomes "named" and gets a cached LLM-derived
// fix (§4.9.5).
type Pattern struct {
	ID      string
	Kind    ErrorKind
	Members []ErrorOccurrence
	Named   bool
	Fix     *FixSuggestion
}

// FixGenerator produces a root-cause and fix suggestions for a named
// error pattern. Backed by an llm.Client in production; swappable in
// tests.
type FixGenerator interface {
	GenerateFix(ctx context.Context, pattern *Pattern) (*FixSuggestion, error)
}

// ErrorPatternStore records errors, clusters them by message similarity,
// and promotes clusters of ≥3 members to named patterns with a cached
// fix (§4.9.5).
type ErrorPatternStore struct {
	mu       sync.Mutex
	patterns []*Pattern
	fixGen   FixGenerator
}

// NewErrorPatternStore builds an empty store. fixGen may be nil, in which
// case named patterns simply go without a generated fix.
func NewErrorPatternStore(fixGen FixGenerator) *ErrorPatternStore {
	return &ErrorPatternStore{fixGen: fixGen}
}

// Record categorizes occurrence by finding the best-matching existing
// pattern of the same kind (Jaccard on message word-sets ≥0.7) or
// creating a new candidate cluster. Once a cluster reaches 3 members it
// becomes named and, if a FixGenerator is configured, gets a cached fix
// generated once and reused by subsequent similar errors.
func (s *ErrorPatternStore) Record(ctx context.Context, occurrence ErrorOccurrence) *Pattern {
	s.mu.Lock()
	pattern := s.bestMatch(occurrence)
	if pattern == nil {
		pattern = &Pattern{ID: recordID(len(s.patterns)), Kind: occurrence.Kind}
		s.patterns = append(s.patterns, pattern)
	}
	pattern.Members = append(pattern.Members, occurrence)

	becameNamed := !pattern.Named && len(pattern.Members) >= namedPatternMinMembers
	if becameNamed {
		pattern.Named = true
	}
	needsFix := pattern.Named && pattern.Fix == nil
	s.mu.Unlock()

	if needsFix && s.fixGen != nil {
		if fix, err := s.fixGen.GenerateFix(ctx, pattern); err == nil {
			s.mu.Lock()
			pattern.Fix = fix
			s.mu.Unlock()
		}
	}

	return pattern
}

// bestMatch must be called with s.mu held.
func (s *ErrorPatternStore) bestMatch(occurrence ErrorOccurrence) *Pattern {
	var best *Pattern
	bestScore := 0.0

	target := tokenize(occurrence.Message)
	for _, p := range s.patterns {
		if p.Kind != occurrence.Kind || len(p.Members) == 0 {
			continue
		}
		score := jaccard(target, tokenize(p.Members[0].Message))
		if score >= errorJaccardThreshold && score > bestScore {
			best = p
			bestScore = score
		}
	}
	return best
}

// restore replaces the store's patterns with a previously persisted set.
func (s *ErrorPatternStore) restore(patterns []*Pattern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = patterns
}

// Patterns returns a snapshot of every recorded pattern.
func (s *ErrorPatternStore) Patterns() []*Pattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Pattern, len(s.patterns))
	copy(out, s.patterns)
	return out
}

// LLMFixGenerator implements FixGenerator via a single completion call
// asking for a root cause and 3-5 fix suggestions.
type LLMFixGenerator struct {
	client *llm.Client
	model  string
}

// NewLLMFixGenerator builds a FixGenerator backed by client.
func NewLLMFixGenerator(client *llm.Client, model string) *LLMFixGenerator {
	return &LLMFixGenerator{client: client, model: model}
}

const fixGenerationSystemPrompt = `You analyze a cluster of similar errors
from an autonomous coding agent. Respond with a single JSON object:
{"root_cause": string, "suggestions": [string, ...]} with 3 to 5
suggestions.`

// GenerateFix implements FixGenerator.
func (g *LLMFixGenerator) GenerateFix(ctx context.Context, pattern *Pattern) (*FixSuggestion, error) {
	var examples strings.Builder
	for i, m := range pattern.Members {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&examples, "%d. %s\n", i+1, m.Message)
	}

	req := &llm.CompletionRequest{
		Model:  g.model,
		System: fixGenerationSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf("Error kind: %s\nExamples:\n%s", pattern.Kind, examples.String())},
		},
		MaxTokens: 512,
	}

	chunks, err := g.client.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("learning: fix generation: %w", err)
	}

	var text strings.Builder
	for chunk := range chunks {
		if chunk.Error != nil {
			return nil, fmt.Errorf("learning: fix generation stream: %w", chunk.Error)
		}
		text.WriteString(chunk.Text)
	}

	return parseFixSuggestion(text.String())
}

func parseFixSuggestion(response string) (*FixSuggestion, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("learning: no JSON object in fix generation response")
	}

	var decoded struct {
		RootCause   string   `json:"root_cause"`
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), &decoded); err != nil {
		return nil, fmt.Errorf("learning: decode fix generation response: %w", err)
	}
	return &FixSuggestion{RootCause: decoded.RootCause, Suggestions: decoded.Suggestions}, nil
}
