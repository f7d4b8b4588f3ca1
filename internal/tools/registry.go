// Package tools implements the Tool Registry & Mask (C3, §4.3): a static
// catalog of tools and a per-phase availability mask, with the byte-stable
// system-prompt rendering the §8 prefix-stability invariant requires.
package tools

import (
	"sync"

	"github.com/agentcore/core/pkg/models"
)

// availability is the §4.3 tool × phase table, read top-to-bottom as the
// spec's matrix.
var availability = map[models.ToolID]map[models.Phase]bool{
	models.ToolCreateFile: {models.PhaseExecuting: true},
	models.ToolReadFile:   {models.PhasePlanning: true, models.PhaseExecuting: true, models.PhaseVerifying: true, models.PhaseLearning: true},
	models.ToolExecute:    {models.PhaseExecuting: true, models.PhaseVerifying: true},
	models.ToolListFiles:  {models.PhasePlanning: true, models.PhaseExecuting: true, models.PhaseVerifying: true, models.PhaseLearning: true},
	models.ToolUpdateTodo: {models.PhasePlanning: true, models.PhaseExecuting: true},
	models.ToolVerify:     {models.PhaseVerifying: true},
	models.ToolBrowser:    {models.PhaseExecuting: true, models.PhaseBrowsing: true},
	models.ToolSearchWeb:  {models.PhasePlanning: true, models.PhaseExecuting: true, models.PhaseLearning: true},
	models.ToolThink:      {models.PhasePlanning: true, models.PhaseExecuting: true, models.PhaseVerifying: true, models.PhaseLearning: true},
	models.ToolDelegate:   {models.PhaseExecuting: true},
	models.ToolTaskCompleted: {models.PhaseExecuting: true, models.PhaseLearning: true},
}

func descriptionFor(id models.ToolID) string {
	switch id {
	case models.ToolCreateFile:
		return "Create or overwrite a file in the sandbox workspace."
	case models.ToolReadFile:
		return "Read the contents of a file in the sandbox workspace."
	case models.ToolExecute:
		return "Run a shell command in the sandbox, with an optional timeout."
	case models.ToolListFiles:
		return "List the entries of a directory in the sandbox workspace."
	case models.ToolUpdateTodo:
		return "Rewrite the task's todo.md progress document."
	case models.ToolVerify:
		return "Run a check (typically a test command) and record the verification outcome."
	case models.ToolBrowser:
		return "Drive the browser sub-agent: navigate, click, fill, extract, or screenshot."
	case models.ToolSearchWeb:
		return "Delegate a query to the knowledge sub-agent's search/research pipeline."
	case models.ToolThink:
		return "Record a reasoning note with no side effect on the sandbox."
	case models.ToolDelegate:
		return "Delegate a sub-task to the orchestrator under one of its execution shapes."
	case models.ToolTaskCompleted:
		return "Signal that the task's goal has been met; the loop finalizes after this iteration."
	default:
		return ""
	}
}

func paramsFor(id models.ToolID) []models.ParamSpec {
	switch id {
	case models.ToolCreateFile:
		return []models.ParamSpec{
			{Name: "PATH", Description: "workspace-relative file path", Required: true},
			{Name: "CONTENT", Description: "full file content", Required: true},
		}
	case models.ToolReadFile:
		return []models.ParamSpec{{Name: "PATH", Description: "workspace-relative file path", Required: true}}
	case models.ToolExecute:
		return []models.ParamSpec{
			{Name: "COMMAND", Description: "shell command to run", Required: true},
			{Name: "TIMEOUT", Description: "optional timeout in seconds"},
		}
	case models.ToolListFiles:
		return []models.ParamSpec{{Name: "PATH", Description: "workspace-relative directory path", Required: true}}
	case models.ToolUpdateTodo:
		return []models.ParamSpec{{Name: "CONTENT", Description: "full todo.md content", Required: true}}
	case models.ToolVerify:
		return []models.ParamSpec{{Name: "COMMAND", Description: "check command to run", Required: true}}
	case models.ToolBrowser:
		return []models.ParamSpec{
			{Name: "INSTRUCTION", Description: "natural-language or structured browser instruction", Required: true},
		}
	case models.ToolSearchWeb:
		return []models.ParamSpec{{Name: "QUERY", Description: "search or research query", Required: true}}
	case models.ToolThink:
		return []models.ParamSpec{{Name: "THOUGHT", Description: "reasoning note text", Required: true}}
	case models.ToolDelegate:
		return []models.ParamSpec{
			{Name: "SHAPE", Description: "sequential | parallel | hierarchical | consensus", Required: true},
			{Name: "AGENTS", Description: "comma-separated agent-kind tags to delegate to", Required: true},
			{Name: "TASK", Description: "sub-task description", Required: true},
		}
	case models.ToolTaskCompleted:
		return nil
	default:
		return nil
	}
}

// catalogOrder is the stable emission order used everywhere a tool list is
// rendered, matching the spec's §4.3 table row order. Stability here is
// what makes the rendered system-prompt section byte-identical across
// calls (§8).
var catalogOrder = []models.ToolID{
	models.ToolCreateFile,
	models.ToolReadFile,
	models.ToolExecute,
	models.ToolListFiles,
	models.ToolUpdateTodo,
	models.ToolVerify,
	models.ToolBrowser,
	models.ToolSearchWeb,
	models.ToolThink,
	models.ToolDelegate,
	models.ToolTaskCompleted,
}

// Registry is the static, immutable-after-construction tool catalog (§4.3).
// Unlike the teacher's ToolRegistry, entries are never added or removed at
// runtime — the catalog is fixed for the process lifetime, which is what
// lets the rendered system-prompt section stay byte-stable across a task's
// iterations.
type Registry struct {
	mu    sync.RWMutex
	specs map[models.ToolID]models.ToolSpec
}

// NewRegistry builds the full §4.3 catalog.
func NewRegistry() *Registry {
	specs := make(map[models.ToolID]models.ToolSpec, len(catalogOrder))
	for _, id := range catalogOrder {
		specs[id] = models.ToolSpec{
			ID:           id,
			Description:  descriptionFor(id),
			Params:       paramsFor(id),
			Availability: availability[id],
		}
	}
	return &Registry{specs: specs}
}

// Get returns the spec for id.
func (r *Registry) Get(id models.ToolID) (models.ToolSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[id]
	return spec, ok
}

// All returns every spec in catalog order.
func (r *Registry) All() []models.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ToolSpec, 0, len(catalogOrder))
	for _, id := range catalogOrder {
		out = append(out, r.specs[id])
	}
	return out
}

// AllowedIn returns the subset of the catalog available in phase p, in
// catalog order.
func (r *Registry) AllowedIn(p models.Phase) []models.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ToolSpec, 0, len(catalogOrder))
	for _, id := range catalogOrder {
		spec := r.specs[id]
		if spec.AllowedIn(p) {
			out = append(out, spec)
		}
	}
	return out
}
