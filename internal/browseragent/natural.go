package browseragent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentcore/core/internal/llm"
)

const naturalTaskSystemPrompt = `You control a web browser one step at a time.
After each step you receive its result. Respond with a single JSON object,
either:
  {"action":"navigate","url":"..."}
  {"action":"click","selector":"..."}
  {"action":"fill","selector":"...","value":"..."}
  {"action":"extract"}
  {"action":"screenshot"}
  {"done":true,"summary":"..."}
Choose "done" once the task is complete or cannot make further progress.`

const maxNaturalTaskSteps = 10

// NaturalTaskResult is the natural-language entry point's output.
type NaturalTaskResult struct {
	Summary string
	Steps   int
	Success bool
}

type naturalStep struct {
	Action   string `json:"action"`
	URL      string `json:"url"`
	Selector string `json:"selector"`
	Value    string `json:"value"`
	Done     bool   `json:"done"`
	Summary  string `json:"summary"`
}

// RunTask forwards instruction to an LLM that steers the structured
// actions one step at a time, bounded at maxNaturalTaskSteps iterations
// (§4.7: "a natural-language task forwarded to a browser-automation
// library with an LLM config").
func (a *Agent) RunTask(ctx context.Context, instruction string) (*NaturalTaskResult, error) {
	if a.llm == nil {
		return nil, fmt.Errorf("browseragent: natural-language task requires an llm client")
	}

	history := []llm.Message{
		{Role: llm.RoleUser, Content: "Task: " + instruction},
	}

	for step := 0; step < maxNaturalTaskSteps; step++ {
		next, err := a.decideNextStep(ctx, history)
		if err != nil {
			return nil, err
		}

		if next.Done {
			return &NaturalTaskResult{Summary: next.Summary, Steps: step, Success: true}, nil
		}

		result, err := a.Do(ctx, naturalStepToAction(next))
		if err != nil {
			return nil, err
		}

		history = append(history, llm.Message{
			Role:    llm.RoleAssistant,
			Content: fmt.Sprintf(`{"action":%q}`, next.Action),
		})
		history = append(history, llm.Message{
			Role:    llm.RoleUser,
			Content: formatStepResult(result),
		})
	}

	return &NaturalTaskResult{
		Summary: "task exceeded the maximum number of browser steps without completing",
		Steps:   maxNaturalTaskSteps,
		Success: false,
	}, nil
}

func naturalStepToAction(step *naturalStep) StructuredAction {
	return StructuredAction{
		Kind:     ActionKind(step.Action),
		URL:      step.URL,
		Selector: step.Selector,
		Value:    step.Value,
	}
}

func formatStepResult(result *ActionResult) string {
	if !result.Success {
		return "Step failed: " + result.Error
	}
	if result.Content == "" {
		return "Step succeeded."
	}
	return "Step succeeded. Content: " + truncate(result.Content, 4000)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "... (truncated)"
}

func (a *Agent) decideNextStep(ctx context.Context, history []llm.Message) (*naturalStep, error) {
	req := &llm.CompletionRequest{
		Model:     a.cfg.Model,
		System:    naturalTaskSystemPrompt,
		Messages:  history,
		MaxTokens: 512,
	}

	chunks, err := a.llm.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("browseragent: step decision: %w", err)
	}

	var text strings.Builder
	for chunk := range chunks {
		if chunk.Error != nil {
			return nil, fmt.Errorf("browseragent: step decision stream: %w", chunk.Error)
		}
		text.WriteString(chunk.Text)
	}

	return parseNaturalStep(text.String())
}

func parseNaturalStep(response string) (*naturalStep, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("browseragent: no JSON object in step response")
	}

	var step naturalStep
	if err := json.Unmarshal([]byte(response[start:end+1]), &step); err != nil {
		return nil, fmt.Errorf("browseragent: decode step response: %w", err)
	}
	return &step, nil
}
