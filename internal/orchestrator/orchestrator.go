// Package orchestrator implements the Orchestrator (C8, §4.8): a registry
// of agent-kind executors dispatched through four execution shapes —
// sequential, parallel, hierarchical, and consensus.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
)

// TaskResult is one delegated task's outcome.
type TaskResult struct {
	AgentKind string
	Output    string
	Err       error
}

// Executor runs one delegated task for a given agent kind.
type Executor func(ctx context.Context, input string) (string, error)

// InteractionRecorder is notified of every delegated task so it can be
// folded into the Interaction Log (C9, §4.8: "each delegated task is
// itself recorded as an interaction with the sub-agent tag").
type InteractionRecorder interface {
	RecordDelegation(ctx context.Context, agentKind, input, output string, err error)
}

// noopRecorder discards delegation records; used when the orchestrator is
// built without a Learning Store wired in.
type noopRecorder struct{}

func (noopRecorder) RecordDelegation(context.Context, string, string, string, error) {}

// Orchestrator holds the agent-kind registry and dispatches tasks through
// the four execution shapes.
type Orchestrator struct {
	mu        sync.RWMutex
	executors map[string]Executor
	recorder  InteractionRecorder
}

// New builds an Orchestrator. recorder may be nil, in which case
// delegations are simply not recorded.
func New(recorder InteractionRecorder) *Orchestrator {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Orchestrator{executors: make(map[string]Executor), recorder: recorder}
}

// Register binds an agent-kind tag to its executor. Registering the same
// kind again replaces the previous executor.
func (o *Orchestrator) Register(agentKind string, exec Executor) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.executors[agentKind] = exec
}

func (o *Orchestrator) executorFor(agentKind string) (Executor, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	exec, ok := o.executors[agentKind]
	if !ok {
		return nil, fmt.Errorf("orchestrator: no executor registered for agent kind %q", agentKind)
	}
	return exec, nil
}

// dispatch runs one task through its executor and records the interaction,
// never returning a Go error for executor failure — that is reported via
// TaskResult.Err so callers running multiple tasks can continue past one
// failure in non-strict modes.
func (o *Orchestrator) dispatch(ctx context.Context, agentKind, input string) TaskResult {
	exec, err := o.executorFor(agentKind)
	if err != nil {
		return TaskResult{AgentKind: agentKind, Err: err}
	}

	output, err := exec(ctx, input)
	o.recorder.RecordDelegation(ctx, agentKind, input, output, err)
	return TaskResult{AgentKind: agentKind, Output: output, Err: err}
}
