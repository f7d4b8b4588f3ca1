// Package planner implements the Planner (C5, §4.5): one LLM call that
// decomposes a task description into a structured plan, rendered into the
// sandbox's todo.md so plan progress survives outside the conversation
// window.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentcore/core/internal/llm"
	"github.com/agentcore/core/pkg/models"
)

const systemPromptSuffix = `
When asked to plan, respond with a single JSON object matching this shape
and nothing else:
{
  "goal": string,
  "success_criteria": [string],
  "ordered_steps": [string],
  "identified_risks": [string],
  "required_resources": [string]
}`

// Planner issues the one-shot planning call described in §4.5.
type Planner struct {
	client       *llm.Client
	model        string
	systemPrompt string
}

// New builds a Planner. systemPrompt is the same stable system prompt the
// main loop uses (§4.5: "uses the same stable system prompt as the main
// loop; it does not switch tool sets").
func New(client *llm.Client, model, systemPrompt string) *Planner {
	return &Planner{client: client, model: model, systemPrompt: systemPrompt}
}

// Plan requests a structured decomposition of taskDescription. On any
// failure — LLM error, unparseable response — it returns a minimal empty
// plan rather than propagating the error, matching §4.5's "on failure, the
// loop proceeds with an empty plan and a generic todo seed."
func (p *Planner) Plan(ctx context.Context, taskDescription string) *models.Plan {
	plan, err := p.plan(ctx, taskDescription)
	if err != nil {
		return &models.Plan{Goal: taskDescription}
	}
	return plan
}

func (p *Planner) plan(ctx context.Context, taskDescription string) (*models.Plan, error) {
	req := &llm.CompletionRequest{
		Model:  p.model,
		System: p.systemPrompt + systemPromptSuffix,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "Plan this task:\n" + taskDescription},
		},
		MaxTokens: 2048,
	}

	chunks, err := p.client.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("planner: completion: %w", err)
	}

	var text strings.Builder
	for chunk := range chunks {
		if chunk.Error != nil {
			return nil, fmt.Errorf("planner: stream: %w", chunk.Error)
		}
		text.WriteString(chunk.Text)
	}

	return parsePlanResponse(text.String())
}

// parsePlanResponse extracts the first JSON object in response and decodes
// it best-effort — missing fields simply stay at their zero value (§4.5).
func parsePlanResponse(response string) (*models.Plan, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("planner: no JSON object in response")
	}

	var plan models.Plan
	if err := json.Unmarshal([]byte(response[start:end+1]), &plan); err != nil {
		return nil, fmt.Errorf("planner: decode plan: %w", err)
	}
	return &plan, nil
}
