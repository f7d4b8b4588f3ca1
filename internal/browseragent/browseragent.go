// Package browseragent implements the Browser Sub-agent (C7, §4.7): a
// lazily-created Playwright browser context exposed through a structured
// action entry point (navigate/click/fill/extract/screenshot) and a
// natural-language entry point that drives those same actions via an LLM.
package browseragent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/agentcore/core/internal/llm"
)

// ErrBrowserUnavailable is returned whenever the underlying automation
// library cannot be initialized (binary missing, launch failure). Callers
// treat this as non-fatal per §4.7.
var ErrBrowserUnavailable = errors.New("browser_unavailable")

// page is the subset of playwright.Page the agent depends on, narrowed to
// an interface so tests can substitute a fake without a real browser
// binary.
type page interface {
	Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error)
	Click(selector string, options ...playwright.PageClickOptions) error
	Fill(selector, value string, options ...playwright.PageFillOptions) error
	Content() (string, error)
	Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error)
	URL() string
}

// launcher starts a real Playwright browser and returns its first page.
// Swapped out in tests so Agent can be exercised without installing a
// browser binary.
type launcher func(headless bool) (page, func(), error)

// Config configures the Agent.
type Config struct {
	Headless bool
	Model    string // model used to drive the natural-language entry point
}

// Agent is the Browser Sub-agent. A browser context is created on first
// use (Config.Headless controls it) and torn down by Close.
type Agent struct {
	cfg      Config
	llm      *llm.Client
	launch   launcher
	mu       sync.Mutex
	page     page
	teardown func()
}

// New builds an Agent. llmClient drives the natural-language entry point
// and may be nil if only structured actions will be used.
func New(cfg Config, llmClient *llm.Client) *Agent {
	return &Agent{cfg: cfg, llm: llmClient, launch: launchRealBrowser}
}

// ensurePage lazily launches the browser on first call and reuses the same
// page thereafter, matching §4.7's "lazily created on first use" lifecycle.
func (a *Agent) ensurePage(ctx context.Context) (page, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.page != nil {
		return a.page, nil
	}

	p, teardown, err := a.launch(a.cfg.Headless)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
	}
	a.page = p
	a.teardown = teardown
	return a.page, nil
}

// Close tears down the browser context. Safe to call even if a page was
// never created.
func (a *Agent) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.teardown != nil {
		a.teardown()
	}
	a.page = nil
	a.teardown = nil
}

func launchRealBrowser(headless bool) (page, func(), error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, nil, fmt.Errorf("launch chromium: %w", err)
	}

	bctx, err := browser.NewContext()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, nil, fmt.Errorf("new browser context: %w", err)
	}

	p, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = browser.Close()
		_ = pw.Stop()
		return nil, nil, fmt.Errorf("new page: %w", err)
	}

	teardown := func() {
		_ = bctx.Close()
		_ = browser.Close()
		_ = pw.Stop()
	}
	return p, teardown, nil
}
