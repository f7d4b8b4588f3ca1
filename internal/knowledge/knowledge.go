// Package knowledge implements the Knowledge Sub-agent (C6, §4.6): web
// search, multi-source research synthesis, and claim verification, with
// graceful degradation whenever the search transport or synthesis step
// fails.
package knowledge

import (
	"context"
	"time"

	"github.com/agentcore/core/internal/llm"
)

// Depth controls how many queries research() fans a question out into
// before synthesizing (§4.6: quick=1, medium=2, deep=4).
type Depth string

const (
	DepthQuick  Depth = "quick"
	DepthMedium Depth = "medium"
	DepthDeep   Depth = "deep"
)

func queryCountFor(depth Depth) int {
	switch depth {
	case DepthMedium:
		return 2
	case DepthDeep:
		return 4
	default:
		return 1
	}
}

// Confidence is research()'s self-reported confidence in its synthesis.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Verdict is verify()'s classification of a claim against gathered
// evidence.
type Verdict string

const (
	VerdictTrue          Verdict = "true"
	VerdictFalse         Verdict = "false"
	VerdictUncertain     Verdict = "uncertain"
	VerdictNeedsMoreInfo Verdict = "needs_more_info"
)

// SearchResult is one hit returned by search().
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// SearchResponse wraps search() output with a Success flag so a transport
// failure can be reported without an error return (§4.6 failure policy).
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Success bool           `json:"success"`
}

// ResearchResult is research()'s structured output.
type ResearchResult struct {
	Answer      string     `json:"answer"`
	Insights    []string   `json:"insights"`
	Confidence  Confidence `json:"confidence"`
	QueriesUsed []string   `json:"queries_used"`
}

// VerifyResult is verify()'s structured output.
type VerifyResult struct {
	Verdict    Verdict        `json:"verdict"`
	Confidence Confidence     `json:"confidence"`
	Evidence   []SearchResult `json:"evidence"`
}

// Searcher abstracts the external search backend so tests can substitute a
// fake without a network call.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// Agent bundles a Searcher, a ContentExtractor, and an llm.Client to
// implement search/research/verify.
type Agent struct {
	searcher  Searcher
	extractor *ContentExtractor
	llm       *llm.Client
	model     string
}

// New builds a knowledge Agent.
func New(searcher Searcher, llmClient *llm.Client, model string) *Agent {
	return &Agent{
		searcher:  searcher,
		extractor: NewContentExtractor(15 * time.Second),
		llm:       llmClient,
		model:     model,
	}
}
