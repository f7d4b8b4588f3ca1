// Package loop implements the Agent Loop (C11, §4.11): the core scheduler
// that drives one task from PLANNING through EXECUTING/VERIFYING to
// LEARNING, wiring every other component (C1-C3, C5-C10) together.
package loop

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/agentcore/core/internal/agents"
	"github.com/agentcore/core/internal/browseragent"
	"github.com/agentcore/core/internal/compaction"
	"github.com/agentcore/core/internal/eventstream"
	"github.com/agentcore/core/internal/knowledge"
	"github.com/agentcore/core/internal/learning"
	"github.com/agentcore/core/internal/llm"
	modelcatalog "github.com/agentcore/core/internal/models"
	"github.com/agentcore/core/internal/observability"
	"github.com/agentcore/core/internal/orchestrator"
	"github.com/agentcore/core/internal/planner"
	"github.com/agentcore/core/internal/sandbox"
	"github.com/agentcore/core/internal/tools"
	tokenusage "github.com/agentcore/core/internal/usage"
	"github.com/agentcore/core/pkg/models"
)

// corePrompt is the fixed system-prompt text folded in front of the tool
// catalog section on every call; it never changes within a task's
// lifetime, which is what keeps the prefix byte-stable (§8).
const corePrompt = `You are an autonomous software engineering agent. Respond only with
ACTION: <TOOL> blocks terminated by ---END--- lines; emit TASK_COMPLETED
once the task's goal is met.`

// DefaultMaxIterations is the §6.5 default iteration budget per task.
const DefaultMaxIterations = 100

// maxRawActionResultTurns is how many recent action_result turns stay
// uncompressed after a context_overflow compression pass (§4.11.b: "keep
// the last 10 raw").
const maxRawActionResultTurns = 10

// Deps bundles every component the loop dispatches into. All fields are
// required except Browser and Knowledge, whose corresponding tools simply
// fail fast if exercised without being wired (mirrors the teacher's
// optional-capability wiring style).
type Deps struct {
	Sandbox      *sandbox.Client
	LLM          *llm.Client
	// ModelFallback, when set, serves every completion in place of LLM,
	// retrying against the configured candidate chain on a failover-eligible
	// error (rate_limited, provider_error) before the iteration gives up.
	ModelFallback *llm.FallbackClient
	Model        string
	Tools        *tools.Registry
	Validator    *tools.Validator
	Planner      *planner.Planner
	Knowledge    *knowledge.Agent
	Browser      *browseragent.Agent
	Orchestrator *orchestrator.Orchestrator
	Learning     *learning.Stores
	Streams      *eventstream.Registry
	Logger       *slog.Logger
	// Metrics and Tracer are optional: nil leaves the loop's LLM and tool
	// dispatch calls uninstrumented, which is fine for tests and for a
	// process that exports neither Prometheus nor OTel endpoints.
	Metrics *observability.Metrics
	Tracer  *observability.Tracer
	// Usage, when set, accumulates per-task token spend so a long-running
	// process can answer "what has task X cost so far" without re-deriving
	// it from the event log.
	Usage *tokenusage.Tracker

	MaxIterations      int
	MaxTokens          int
	DefaultExecTTL     time.Duration
	ContextWindowTokens int // model's total context size, for the context_overflow check (§4.11.b)
}

func (d Deps) withDefaults() Deps {
	if d.MaxIterations <= 0 {
		d.MaxIterations = DefaultMaxIterations
	}
	if d.MaxTokens <= 0 {
		d.MaxTokens = 4096
	}
	if d.DefaultExecTTL <= 0 {
		d.DefaultExecTTL = 300 * time.Second
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	modelWindow := 0
	if info, ok := modelcatalog.Get(d.Model); ok {
		modelWindow = info.ContextWindow
	}
	windowInfo := agents.ResolveContextWindowInfo(nil, nil, "", d.Model, modelWindow, 128000)
	if d.ContextWindowTokens > 0 {
		windowInfo = agents.ContextWindowInfo{Tokens: d.ContextWindowTokens, Source: agents.ContextWindowSourceAgentContextTokens}
	}
	guard := agents.EvaluateContextWindowGuard(windowInfo, nil)
	d.ContextWindowTokens = guard.Tokens
	if guard.ShouldBlock {
		d.Logger.Warn("loop: configured context window below the minimum a task can safely run in, clamping",
			"configured", guard.Tokens, "minimum", agents.ContextWindowHardMinTokens, "source", guard.Source)
		d.ContextWindowTokens = agents.ContextWindowHardMinTokens
	} else if guard.ShouldWarn {
		d.Logger.Warn("loop: context window is small; expect frequent compression passes",
			"configured", guard.Tokens, "recommended_min", agents.ContextWindowWarnBelowTokens, "source", guard.Source)
	}
	return d
}

// Loop runs a single task from initialization through finalization. A Loop
// is single-use: build one per task via New.
type Loop struct {
	deps Deps

	task     *models.Task
	handle   *models.SandboxHandle
	eventStream *eventstream.Stream
	phase    models.Phase
	turns    []models.ConversationTurn
	todo     string
	learningText string

	cancelled   atomic.Bool
	iterations  int
	errorsCount int
	verifications int
	tests int

	sinceSuccessfulWrite bool // true once a CREATE_FILE/EXECUTE has succeeded this EXECUTING run
	actionsLog []models.Action
	resultsLog []models.ActionResult

	tokens        *compaction.TokenCounter
	compressedOnce bool
	startedAt     time.Time

	strategyShape        learning.StrategyKind
	characterization     learning.Characterization
}

// New builds a Loop for task, wiring it to a fresh stream registered under
// task.ID.
func New(deps Deps, task *models.Task, bufferSize int) *Loop {
	deps = deps.withDefaults()
	tokens, err := compaction.NewTokenCounter(deps.Model)
	if err != nil {
		tokens = nil
	}
	return &Loop{
		deps:      deps,
		task:      task,
		eventStream: deps.Streams.Open(task.ID, bufferSize),
		phase:     models.PhaseIdle,
		tokens:    tokens,
		startedAt: time.Now(),
	}
}

// Cancel requests cooperative cancellation, observed at the top of the next
// iteration or between dispatched actions (§5 cancellation semantics).
// Idempotent.
func (l *Loop) Cancel() {
	l.cancelled.Store(true)
}

// Run drives the task to completion: initialization, the iteration loop,
// and finalization. It never panics on a sub-agent or sandbox failure —
// those become task_failed outcomes recorded on the task and event stream.
func (l *Loop) Run(ctx context.Context) error {
	defer l.deps.Streams.Close(l.task.ID)

	if err := l.initialize(ctx); err != nil {
		l.failTask(ctx, models.ReasonSandboxUnavail, err)
		return err
	}

	for {
		if l.cancelled.Load() {
			l.finalize(ctx, false, models.ReasonCancelled)
			return nil
		}
		if l.iterations >= l.deps.MaxIterations {
			l.finalize(ctx, false, models.ReasonIterationLimit)
			return nil
		}

		terminal, failReason, err := l.runIteration(ctx)
		l.iterations++
		l.task.IterationsUsed = l.iterations

		if err != nil {
			if failReason == "" {
				failReason = models.ReasonLLMFatal
			}
			l.finalize(ctx, false, failReason)
			return err
		}
		if terminal {
			l.finalize(ctx, true, "")
			return nil
		}
	}
}

// initialize runs the PLANNING phase (§4.11 Initialization).
func (l *Loop) initialize(ctx context.Context) error {
	l.setPhase(models.PhasePlanning, "")

	characterization := learning.Analyze(l.task.Description)
	shape := learning.StrategySingle
	if l.deps.Learning != nil {
		shape = l.deps.Learning.Strategy.SelectStrategy(l.task.Description, characterization)
	}
	l.characterization = characterization
	l.strategyShape = shape
	l.emit(models.Event{Kind: models.EventPhaseChanged, Phase: models.PhasePlanning,
		Message: fmt.Sprintf("strategy suggestion: %s (advisory)", shape)})

	l.foldPriorLearnings(l.task.Description)

	plan := l.deps.Planner.Plan(ctx, l.task.Description)
	l.todo = planner.RenderTodo(plan)

	handle, err := l.deps.Sandbox.Create(ctx)
	if err != nil {
		return fmt.Errorf("loop: create sandbox: %w", err)
	}
	l.handle = handle

	if err := l.deps.Sandbox.WriteFile(ctx, handle, "todo.md", []byte(l.todo)); err != nil {
		return fmt.Errorf("loop: seed todo: %w", err)
	}

	l.emit(models.Event{Kind: models.EventPlanCreated, Phase: models.PhasePlanning, Plan: plan})

	initialContent := l.task.Description
	if l.learningText != "" {
		initialContent = l.task.Description + "\n\n" + l.learningText
	}
	l.turns = append(l.turns, models.ConversationTurn{
		Role:      models.TurnUser,
		Content:   initialContent,
		CreatedAt: time.Now(),
	})

	l.setPhase(models.PhaseExecuting, "")
	l.task.Status = models.TaskExecuting
	return nil
}

// foldPriorLearnings queries the Interaction Log and Knowledge Hub for
// context relevant to description and appends it to the initial user turn
// — never the system prompt (§4.11.a: "folded into the initial user turn
// as context, never into the system prompt").
func (l *Loop) foldPriorLearnings(description string) {
	if l.deps.Learning == nil {
		return
	}

	var b strings.Builder
	for _, lr := range l.deps.Learning.Interactions.RelevantLearnings(description) {
		fmt.Fprintf(&b, "- prior learning (%s confidence): %s\n", lr.Confidence, lr.Summary)
	}
	for _, item := range l.deps.Learning.Knowledge.Query(description, 3) {
		fmt.Fprintf(&b, "- shared knowledge (%s): %s\n", item.Title, item.Content)
	}

	if b.Len() > 0 {
		l.learningText = "Relevant prior learnings:\n" + b.String()
	}
}

func (l *Loop) setPhase(p models.Phase, note string) {
	l.phase = p
	l.emit(models.Event{Kind: models.EventPhaseChanged, Phase: p, Message: note})
}

func (l *Loop) emit(e models.Event) uint64 {
	return l.eventStream.Append(e)
}

func (l *Loop) failTask(ctx context.Context, reason models.ReasonKind, err error) {
	l.task.Status = models.TaskFailed
	l.task.FailureReason = reason
	l.emit(models.Event{Kind: models.EventTaskFailed, FailureReason: reason,
		ErrorInfo: &models.ErrorInfo{Category: string(reason), Message: err.Error(), Fatal: true}})
}

// finalize runs the LEARNING-phase wrap-up (§4.11 Finalization). Cancelled
// tasks skip the Interaction/reflection recording entirely — "skips
// reflection" per §5's cancellation semantics — but still destroy the
// sandbox and report a terminal event.
func (l *Loop) finalize(ctx context.Context, success bool, reason models.ReasonKind) {
	if reason == models.ReasonCancelled {
		l.task.Status = models.TaskCancelled
		l.emit(models.Event{Kind: models.EventTaskCancelled, Phase: l.phase})
		l.destroySandbox(ctx)
		return
	}

	l.setPhase(models.PhaseLearning, "")
	l.task.Status = models.TaskLearning

	outcome := learning.OutcomeFailure
	if success {
		outcome = learning.OutcomeSuccess
	}
	duration := time.Since(l.startedAt)

	if l.deps.Learning != nil {
		l.deps.Learning.Interactions.Append(learning.InteractionRecord{
			Summary:    l.task.Description,
			Tags:       learning.TagsFromText(l.task.Description),
			Outcome:    outcome,
			Duration:   duration,
			Iterations: l.iterations,
		})
		fast := l.characterization.EstimatedDurationS <= 0 ||
			duration <= time.Duration(l.characterization.EstimatedDurationS)*time.Second
		l.deps.Learning.Strategy.RecordOutcome(l.characterization, l.strategyShape, outcome, fast)
	}

	reflection := l.reflect(ctx)
	l.emit(models.Event{Kind: models.EventReflection, Phase: models.PhaseLearning, Reflection: reflection})

	if success {
		l.task.Status = models.TaskCompleted
		l.emit(models.Event{Kind: models.EventTaskCompleted, Phase: models.PhaseLearning, Message: l.task.FinalMessage})
	} else {
		l.task.Status = models.TaskFailed
		l.task.FailureReason = reason
		l.emit(models.Event{Kind: models.EventTaskFailed, Phase: models.PhaseLearning, FailureReason: reason})
	}

	l.destroySandbox(ctx)
}

// reflect makes the one last LLM call described by §4.11 Finalization,
// asking for a short retrospective over the task's own conversation. A
// failure here is non-fatal — it simply yields an empty reflection, still
// recorded as a reflection event per §7 ("silence is never a legitimate
// response": the event fires either way).
func (l *Loop) reflect(ctx context.Context) string {
	if l.deps.LLM == nil {
		return ""
	}
	messages := toLLMMessages(l.turns)
	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: "The task has ended. In a few sentences: what worked, what didn't, and one lesson for next time.",
	})
	req := &llm.CompletionRequest{
		Model:       l.deps.Model,
		System:      corePrompt + "\n\n" + l.deps.Tools.RenderCatalogSection(),
		Messages:    messages,
		MaxTokens:   l.deps.MaxTokens,
		Temperature: 0.7,
		LogitBias:   l.deps.Tools.BiasFor(models.PhaseLearning),
		CacheHint:   cacheHint,
	}
	text, _, err := l.stream(ctx, req)
	if err != nil {
		l.deps.Logger.Warn("loop: reflection call failed", "task", l.task.ID, "err", err)
		return ""
	}
	return text
}

// destroySandbox is idempotent: Run never invokes finalize twice, but a
// nil handle (initialization failed before Create) is a safe no-op.
func (l *Loop) destroySandbox(ctx context.Context) {
	if l.handle == nil {
		return
	}
	if err := l.deps.Sandbox.Destroy(ctx, l.handle); err != nil {
		l.deps.Logger.Error("loop: destroy sandbox", "task", l.task.ID, "err", err)
	}
	l.handle = nil
}
