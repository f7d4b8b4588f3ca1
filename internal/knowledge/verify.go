package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentcore/core/internal/llm"
)

const verifySystemPrompt = `You are a fact-checking assistant. Given a claim,
optional surrounding context, and search evidence, classify the claim.
Respond with a single JSON object: {"verdict": "true"|"false"|"uncertain"|
"needs_more_info", "confidence": "low"|"medium"|"high"}. Use
"needs_more_info" when the evidence gathered does not address the claim at
all, and "uncertain" when evidence conflicts.`

const verifyMaxResults = 5

// Verify searches for evidence on claim and asks the LLM to classify it
// into a verdict and confidence band (§4.6). contextHint, if non-empty, is
// included to disambiguate an otherwise vague claim. On any search or
// synthesis failure, Verify degrades to VerdictNeedsMoreInfo /
// ConfidenceLow rather than propagating an error.
func (a *Agent) Verify(ctx context.Context, claim, contextHint string) *VerifyResult {
	query := claim
	if contextHint != "" {
		query = claim + " " + contextHint
	}

	resp := a.Search(ctx, query, verifyMaxResults)
	if !resp.Success || len(resp.Results) == 0 {
		return &VerifyResult{Verdict: VerdictNeedsMoreInfo, Confidence: ConfidenceLow}
	}

	verdict, confidence, err := a.classify(ctx, claim, contextHint, resp.Results)
	if err != nil {
		return &VerifyResult{
			Verdict:    VerdictNeedsMoreInfo,
			Confidence: ConfidenceLow,
			Evidence:   resp.Results,
		}
	}

	return &VerifyResult{Verdict: verdict, Confidence: confidence, Evidence: resp.Results}
}

func (a *Agent) classify(ctx context.Context, claim, contextHint string, evidence []SearchResult) (Verdict, Confidence, error) {
	var sources strings.Builder
	for i, r := range evidence {
		fmt.Fprintf(&sources, "%d. %s (%s)\n%s\n\n", i+1, r.Title, r.URL, r.Snippet)
	}

	prompt := fmt.Sprintf("Claim: %s\n", claim)
	if contextHint != "" {
		prompt += fmt.Sprintf("Context: %s\n", contextHint)
	}
	prompt += fmt.Sprintf("\nEvidence:\n%s", sources.String())

	req := &llm.CompletionRequest{
		Model:  a.model,
		System: verifySystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: prompt},
		},
		MaxTokens: 256,
	}

	chunks, err := a.llm.Complete(ctx, req)
	if err != nil {
		return "", "", fmt.Errorf("knowledge: verify request: %w", err)
	}

	var text strings.Builder
	for chunk := range chunks {
		if chunk.Error != nil {
			return "", "", fmt.Errorf("knowledge: verify stream: %w", chunk.Error)
		}
		text.WriteString(chunk.Text)
	}

	return parseVerifyResponse(text.String())
}

func parseVerifyResponse(response string) (Verdict, Confidence, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return "", "", fmt.Errorf("knowledge: no JSON object in verify response")
	}

	var decoded struct {
		Verdict    Verdict    `json:"verdict"`
		Confidence Confidence `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), &decoded); err != nil {
		return "", "", fmt.Errorf("knowledge: decode verify response: %w", err)
	}
	if decoded.Verdict == "" {
		return "", "", fmt.Errorf("knowledge: verify response missing verdict")
	}
	return decoded.Verdict, decoded.Confidence, nil
}
