// Package session implements the Session Manager (C12, §4.12): task
// lifecycle, cancellation, and status lookup for every task live in this
// process. It is the entry point the client-facing boundary (§6.1) sits
// behind — one Manager per process, constructor-injected with the
// dependencies every Loop needs, never a module-level singleton (§9).
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentcore/core/internal/eventstream"
	"github.com/agentcore/core/internal/infra"
	"github.com/agentcore/core/internal/loop"
	"github.com/agentcore/core/pkg/models"
)

// entry is everything the Manager tracks for one live or finished task.
type entry struct {
	task   *models.Task
	loop   *loop.Loop
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager tracks every task by identifier and exposes the §6.1
// client-facing operations: create, attach, cancel, status. A Manager is
// safe for concurrent use by multiple callers; each task it creates runs
// its own Loop on its own goroutine, isolating its conversation, sandbox,
// and event stream per §5's scheduling model.
type Manager struct {
	mu       sync.RWMutex
	tasks    map[string]*entry
	deps     loop.Deps
	streams  *eventstream.Registry
	buffer   int
	logger   *slog.Logger
	health   *infra.HealthRegistry
	shutdown *infra.ShutdownCoordinator
}

// New builds a Manager. deps is the template of dependencies passed to
// every Loop it creates; deps.Streams must be non-nil and is also used
// directly for Attach lookups. bufferSize <= 0 uses
// eventstream.DefaultSubscriberBuffer (§6.5).
func New(deps loop.Deps, bufferSize int) *Manager {
	if deps.Streams == nil {
		deps.Streams = eventstream.NewRegistry()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		tasks:    make(map[string]*entry),
		deps:     deps,
		streams:  deps.Streams,
		buffer:   bufferSize,
		logger:   logger,
		health:   infra.NewHealthRegistry(),
		shutdown: infra.NewShutdownCoordinator(10*time.Second, logger),
	}
	m.health.RegisterSimple("sandbox", func(ctx context.Context) error {
		if deps.Sandbox == nil {
			return fmt.Errorf("session: no sandbox client configured")
		}
		return nil
	})
	m.health.RegisterSimple("llm", func(ctx context.Context) error {
		if deps.LLM == nil && deps.ModelFallback == nil {
			return fmt.Errorf("session: no llm client configured")
		}
		return nil
	})
	m.health.Register(infra.CheckSpec{
		Name:     "ready",
		Critical: true,
		Checker:  infra.ReadinessChecker(m.health, []string{"sandbox", "llm"}),
	})
	m.shutdown.RegisterService("event-streams", func(ctx context.Context) error {
		m.streams.CloseAll()
		return nil
	})
	return m
}

// Health runs every registered readiness check and reports the aggregate
// result, used by the client-facing boundary's health endpoint (§6.1).
func (m *Manager) Health(ctx context.Context) infra.ReadinessReport {
	return m.health.CheckAll(ctx)
}

// Shutdown cancels every live task and releases process-wide resources
// (event stream subscribers, etc), used at process exit (§6.1).
func (m *Manager) Shutdown(ctx context.Context) []infra.ShutdownResult {
	for _, id := range m.Tasks() {
		_ = m.Cancel(id)
	}
	return m.shutdown.Shutdown(ctx)
}

// Create allocates a new task, starts its Loop on a fresh goroutine, and
// returns its identifier immediately — task submission (§6.1) never
// blocks on the task's execution.
func (m *Manager) Create(description string) (string, error) {
	if description == "" {
		return "", fmt.Errorf("session: task description must not be empty")
	}

	now := time.Now()
	task := &models.Task{
		ID:          uuid.NewString(),
		Description: description,
		Status:      models.TaskQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	l := loop.New(m.deps, task, m.buffer)
	ctx, cancel := context.WithCancel(context.Background())
	e := &entry{task: task, loop: l, cancel: cancel, done: make(chan struct{})}

	m.mu.Lock()
	m.tasks[task.ID] = e
	m.mu.Unlock()

	go m.run(ctx, e)

	return task.ID, nil
}

// run drives one task's Loop to completion and marks it done. A panic
// inside a Loop's dispatch path is never expected (§4.11 Run already
// converts sub-agent and sandbox failures into task_failed outcomes), but
// run still recovers defensively so one runaway task cannot take down the
// process serving the rest of a user's concurrent tasks (§2 Non-goals:
// single process, one user).
func (m *Manager) run(ctx context.Context, e *entry) {
	defer close(e.done)
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("session: loop panicked", "task", e.task.ID, "recover", r)
		}
	}()

	if err := e.loop.Run(ctx); err != nil {
		m.logger.Warn("session: task ended with error", "task", e.task.ID, "err", err)
	}
	e.task.UpdatedAt = time.Now()
}

// Attach returns a live subscription to taskID's event stream along with
// its already-recorded events, so a client connecting after the task
// started does not miss its history (§4.10 snapshot + subscribe).
func (m *Manager) Attach(taskID string) (history []models.Event, live <-chan models.Event, err error) {
	if _, ok := m.lookup(taskID); !ok {
		return nil, nil, fmt.Errorf("session: unknown task %q", taskID)
	}
	stream, ok := m.streams.Get(taskID)
	if !ok {
		// The task reached a terminal state and its stream has already
		// been closed; still report the task as known with no further
		// events.
		return nil, nil, nil
	}
	return stream.Snapshot(), stream.Subscribe(), nil
}

// Cancel delivers a one-shot cancellation signal to taskID, observed by
// its Loop at the next iteration boundary or between dispatched actions
// (§5, §4.12). Cancelling an already-terminal or unknown task is a no-op
// error, never a panic.
func (m *Manager) Cancel(taskID string) error {
	e, ok := m.lookup(taskID)
	if !ok {
		return fmt.Errorf("session: unknown task %q", taskID)
	}
	e.loop.Cancel()
	e.cancel()
	return nil
}

// Status returns the client-facing snapshot of taskID (§6.1).
func (m *Manager) Status(taskID string) (models.Snapshot, error) {
	e, ok := m.lookup(taskID)
	if !ok {
		return models.Snapshot{}, fmt.Errorf("session: unknown task %q", taskID)
	}
	t := e.task
	return models.Snapshot{
		Status:            t.Status,
		IterationsUsed:    t.IterationsUsed,
		VerificationsUsed: t.VerificationsUsed,
		TestsCount:        t.TestsCount,
		ErrorsCount:       t.ErrorsCount,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}, nil
}

// Wait blocks until taskID's Loop returns or ctx is cancelled, whichever
// comes first. It exists for callers (tests, a CLI wrapper) that need to
// observe completion synchronously rather than through the event stream.
func (m *Manager) Wait(ctx context.Context, taskID string) error {
	e, ok := m.lookup(taskID)
	if !ok {
		return fmt.Errorf("session: unknown task %q", taskID)
	}
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) lookup(taskID string) (*entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.tasks[taskID]
	return e, ok
}

// Tasks returns every task id the Manager has ever created, for
// diagnostic or admin listing use.
func (m *Manager) Tasks() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.tasks))
	for id := range m.tasks {
		ids = append(ids, id)
	}
	return ids
}
