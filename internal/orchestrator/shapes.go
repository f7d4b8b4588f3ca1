package orchestrator

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Task is one unit of dispatch: run input through agentKind's executor.
type Task struct {
	AgentKind string
	Input     string
}

const defaultParallelLimit = 8

// Sequential runs tasks in listed order. When strict is true, it halts and
// returns the results gathered so far on the first failure; otherwise it
// continues through every task and returns the full list with failures
// marked on their own TaskResult (§4.8).
func (o *Orchestrator) Sequential(ctx context.Context, tasks []Task, strict bool) []TaskResult {
	results := make([]TaskResult, 0, len(tasks))
	for _, task := range tasks {
		result := o.dispatch(ctx, task.AgentKind, task.Input)
		results = append(results, result)
		if strict && result.Err != nil {
			break
		}
	}
	return results
}

// Parallel starts every task concurrently, bounded by limit (0 uses
// defaultParallelLimit), and returns results in submission order once all
// have completed (§4.8).
func (o *Orchestrator) Parallel(ctx context.Context, tasks []Task, limit int) []TaskResult {
	if limit <= 0 {
		limit = defaultParallelLimit
	}

	results := make([]TaskResult, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			results[i] = o.dispatch(gctx, task.AgentKind, task.Input)
			return nil
		})
	}
	_ = g.Wait() // dispatch never returns a Go error; failures live on TaskResult.Err

	return results
}
