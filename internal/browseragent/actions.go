package browseragent

import (
	"context"
	"encoding/base64"
	"fmt"
)

// ActionKind is one of the structured browser actions named in §4.7.
type ActionKind string

const (
	ActionNavigate   ActionKind = "navigate"
	ActionClick      ActionKind = "click"
	ActionFill       ActionKind = "fill"
	ActionExtract    ActionKind = "extract"
	ActionScreenshot ActionKind = "screenshot"
)

// StructuredAction is one request to the structured entry point.
type StructuredAction struct {
	Kind     ActionKind
	URL      string // navigate
	Selector string // click, fill
	Value    string // fill
}

// ActionResult is the structured entry point's output. Content holds
// extracted text/HTML for ActionExtract, or a base64-encoded PNG for
// ActionScreenshot.
type ActionResult struct {
	Success bool
	Content string
	Error   string
}

// Do executes a single structured action against the lazily-created page.
// It never returns a Go error for automation failures (click target
// missing, navigation timeout) — those land in ActionResult.Error so a
// caller can report a tool failure without treating the step as fatal.
// Only ErrBrowserUnavailable (library/browser init failure) is returned as
// an error.
func (a *Agent) Do(ctx context.Context, action StructuredAction) (*ActionResult, error) {
	p, err := a.ensurePage(ctx)
	if err != nil {
		return nil, err
	}

	switch action.Kind {
	case ActionNavigate:
		return a.navigate(p, action)
	case ActionClick:
		return a.click(p, action)
	case ActionFill:
		return a.fill(p, action)
	case ActionExtract:
		return a.extract(p)
	case ActionScreenshot:
		return a.screenshot(p)
	default:
		return &ActionResult{Success: false, Error: fmt.Sprintf("unknown browser action %q", action.Kind)}, nil
	}
}

func (a *Agent) navigate(p page, action StructuredAction) (*ActionResult, error) {
	if action.URL == "" {
		return &ActionResult{Success: false, Error: "navigate requires a url"}, nil
	}
	if _, err := p.Goto(action.URL); err != nil {
		return &ActionResult{Success: false, Error: err.Error()}, nil
	}
	return &ActionResult{Success: true, Content: p.URL()}, nil
}

func (a *Agent) click(p page, action StructuredAction) (*ActionResult, error) {
	if action.Selector == "" {
		return &ActionResult{Success: false, Error: "click requires a selector"}, nil
	}
	if err := p.Click(action.Selector); err != nil {
		return &ActionResult{Success: false, Error: err.Error()}, nil
	}
	return &ActionResult{Success: true}, nil
}

func (a *Agent) fill(p page, action StructuredAction) (*ActionResult, error) {
	if action.Selector == "" {
		return &ActionResult{Success: false, Error: "fill requires a selector"}, nil
	}
	if err := p.Fill(action.Selector, action.Value); err != nil {
		return &ActionResult{Success: false, Error: err.Error()}, nil
	}
	return &ActionResult{Success: true}, nil
}

func (a *Agent) extract(p page) (*ActionResult, error) {
	html, err := p.Content()
	if err != nil {
		return &ActionResult{Success: false, Error: err.Error()}, nil
	}
	return &ActionResult{Success: true, Content: html}, nil
}

func (a *Agent) screenshot(p page) (*ActionResult, error) {
	data, err := p.Screenshot()
	if err != nil {
		return &ActionResult{Success: false, Error: err.Error()}, nil
	}
	return &ActionResult{Success: true, Content: base64.StdEncoding.EncodeToString(data)}, nil
}
