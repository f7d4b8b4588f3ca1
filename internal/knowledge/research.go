package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/agentcore/core/internal/cache"
	"github.com/agentcore/core/internal/llm"
)

const researchSystemPrompt = `You are a research assistant. Given a question
and a set of search results gathered for it, synthesize a concise answer.
Respond with a single JSON object: {"answer": string, "insights": [string],
"confidence": "low"|"medium"|"high"}. Base confidence on how directly the
sources address the question: "high" when multiple sources agree, "low"
when sources are sparse or contradictory.`

// Research answers question by issuing queryCountFor(depth) searches,
// optionally expanding each into full-page content via the
// ContentExtractor, then asking the LLM to synthesize a single answer with
// bullet-point insights and a confidence band (§4.6).
//
// Synthesis failures degrade to the raw gathered snippets with
// ConfidenceLow rather than propagating an error.
func (a *Agent) Research(ctx context.Context, question string, depth Depth, maxSources int) *ResearchResult {
	queries := deriveQueries(question, queryCountFor(depth))

	// Overlapping query variants routinely resurface the same URL; dedupe
	// across the whole gathering pass so synthesis isn't fed repeats.
	seen := cache.NewDedupeCache(cache.DedupeCacheOptions{TTL: time.Hour, MaxSize: maxSources * 4})
	var gathered []SearchResult
	for _, q := range queries {
		resp := a.Search(ctx, q, maxSources)
		if !resp.Success {
			continue
		}
		for _, r := range resp.Results {
			if seen.Check(r.URL) {
				continue
			}
			gathered = append(gathered, r)
		}
	}
	if len(gathered) > maxSources {
		gathered = gathered[:maxSources]
	}

	result, err := a.synthesize(ctx, question, gathered)
	if err != nil {
		return degradedResearchResult(question, queries, gathered)
	}
	result.QueriesUsed = queries
	return result
}

// deriveQueries produces n query variants of question. For n==1 it is the
// question itself; additional variants broaden the angle rather than
// repeating it verbatim.
func deriveQueries(question string, n int) []string {
	base := []string{
		question,
		question + " overview",
		question + " details and examples",
		question + " latest",
	}
	if n > len(base) {
		n = len(base)
	}
	return base[:n]
}

func (a *Agent) synthesize(ctx context.Context, question string, results []SearchResult) (*ResearchResult, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("knowledge: no search results to synthesize")
	}

	var sources strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sources, "%d. %s (%s)\n%s\n\n", i+1, r.Title, r.URL, r.Snippet)
	}

	req := &llm.CompletionRequest{
		Model:  a.model,
		System: researchSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf("Question: %s\n\nSources:\n%s", question, sources.String())},
		},
		MaxTokens: 1024,
	}

	chunks, err := a.llm.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("knowledge: synthesis request: %w", err)
	}

	var text strings.Builder
	for chunk := range chunks {
		if chunk.Error != nil {
			return nil, fmt.Errorf("knowledge: synthesis stream: %w", chunk.Error)
		}
		text.WriteString(chunk.Text)
	}

	return parseResearchResponse(text.String())
}

func parseResearchResponse(response string) (*ResearchResult, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("knowledge: no JSON object in synthesis response")
	}

	var result ResearchResult
	if err := json.Unmarshal([]byte(response[start:end+1]), &result); err != nil {
		return nil, fmt.Errorf("knowledge: decode synthesis response: %w", err)
	}
	return &result, nil
}

func degradedResearchResult(question string, queries []string, results []SearchResult) *ResearchResult {
	var insights []string
	for _, r := range results {
		insights = append(insights, fmt.Sprintf("%s: %s", r.Title, r.Snippet))
	}
	answer := "Synthesis unavailable; raw search snippets follow."
	if len(results) == 0 {
		answer = fmt.Sprintf("No search results were found for %q.", question)
	}
	return &ResearchResult{
		Answer:      answer,
		Insights:    insights,
		Confidence:  ConfidenceLow,
		QueriesUsed: queries,
	}
}
