package loop

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agentcore/core/internal/action"
	"github.com/agentcore/core/internal/browseragent"
	"github.com/agentcore/core/internal/compaction"
	"github.com/agentcore/core/internal/exec"
	"github.com/agentcore/core/internal/infra"
	"github.com/agentcore/core/internal/learning"
	"github.com/agentcore/core/internal/llm"
	modelcatalog "github.com/agentcore/core/internal/models"
	"github.com/agentcore/core/internal/orchestrator"
	"github.com/agentcore/core/internal/planner"
	"github.com/agentcore/core/internal/sandbox"
	tokenusage "github.com/agentcore/core/internal/usage"
	"github.com/agentcore/core/pkg/models"
)

// cacheHint is the stable marker applied to every call so a caching-aware
// provider can recognize the byte-identical system-prompt prefix (§8).
const cacheHint = "agentcore-core-prompt-v1"

// runIteration executes one EXECUTING-phase turn (§4.11.b): assemble the
// prompt, call the LLM, parse and validate its response, dispatch every
// resulting action, and report whether the task reached its terminal
// sentinel. failReason is only set when err is non-nil and the caller
// should record something other than the generic llm_fatal outcome.
func (l *Loop) runIteration(ctx context.Context) (terminal bool, failReason models.ReasonKind, err error) {
	// §4.11.e: once a CREATE_FILE/EXECUTE has succeeded this EXECUTING run,
	// the next iteration auto-transitions to VERIFYING — masking out
	// TASK_COMPLETED until the model has run something through VERIFY —
	// for exactly this one iteration, then returns to EXECUTING regardless
	// of whether the verification it ran passed.
	autoVerifying := l.phase == models.PhaseExecuting && l.sinceSuccessfulWrite
	if autoVerifying {
		l.setPhase(models.PhaseVerifying, "auto-transition: pending verification")
	}

	l.emit(models.Event{Kind: models.EventIterationStarted, Phase: l.phase})

	response, usage, err := l.callLLM(ctx)
	if err != nil {
		if errors.Is(err, llm.ErrContextOverflow) {
			return false, models.ReasonContextOverflow, err
		}
		if errors.Is(err, llm.ErrRateLimited) || errors.Is(err, llm.ErrProviderError) {
			return false, models.ReasonProviderError, err
		}
		return false, models.ReasonLLMFatal, err
	}

	l.turns = append(l.turns, models.ConversationTurn{Role: models.TurnAssistant, Content: response, CreatedAt: time.Now()})
	l.emit(models.Event{Kind: models.EventLLMResponse, Phase: l.phase, LLMUsage: usage})

	result := action.Parse(response)
	for _, perr := range result.Errors {
		l.recordError(ctx, learning.ErrorKindParse, perr.Error())
	}

	var resultsText strings.Builder
	for i := range result.Actions {
		if l.cancelled.Load() {
			break
		}
		act := result.Actions[i]
		outcome := l.dispatch(ctx, act)
		l.resultsLog = append(l.resultsLog, outcome)
		fmt.Fprintf(&resultsText, "[%s result] %s\n", act.Tool, outcome.Content)
	}

	if resultsText.Len() > 0 {
		l.turns = append(l.turns, models.ConversationTurn{Role: models.TurnTool, Content: resultsText.String(), CreatedAt: time.Now()})
	}

	if autoVerifying {
		l.sinceSuccessfulWrite = false
		l.setPhase(models.PhaseExecuting, "")
	}

	if result.Terminal {
		l.task.FinalMessage = result.FinalMessage
		return true, "", nil
	}
	return false, "", nil
}

// callLLM assembles the current conversation into a CompletionRequest and
// streams one completion, retrying exactly once after a context-overflow
// compression pass (§4.11.b: "compress once, then fail").
func (l *Loop) callLLM(ctx context.Context) (string, *models.LLMUsage, error) {
	req := l.buildRequest()

	if l.tokens != nil && !l.compressedOnce && l.tokens.CountMessages(toCompactionMessages(req.Messages)) > overflowThreshold(l.deps.ContextWindowTokens) {
		l.compress(ctx)
		req = l.buildRequest()
	}

	text, usage, err := l.stream(ctx, req)
	if err != nil && errors.Is(err, llm.ErrContextOverflow) && !l.compressedOnce {
		l.compress(ctx)
		req = l.buildRequest()
		return l.stream(ctx, req)
	}
	return text, usage, err
}

func overflowThreshold(windowTokens int) int {
	return windowTokens * 9 / 10
}

func (l *Loop) stream(ctx context.Context, req *llm.CompletionRequest) (string, *models.LLMUsage, error) {
	l.emit(models.Event{Kind: models.EventLLMRequest, Phase: l.phase})

	if l.deps.Tracer != nil {
		spanCtx, sp := l.deps.Tracer.TraceLLMRequest(ctx, "agentcore", req.Model)
		ctx = spanCtx
		defer sp.End()
	}

	start := time.Now()
	var chunks <-chan *llm.CompletionChunk
	var err error
	if l.deps.ModelFallback != nil {
		chunks, _, err = l.deps.ModelFallback.Complete(ctx, req)
	} else {
		chunks, err = l.deps.LLM.Complete(ctx, req)
	}
	if err != nil {
		l.recordLLMMetric(req.Model, "error", start, 0, 0)
		return "", nil, fmt.Errorf("loop: completion: %w", err)
	}

	var text strings.Builder
	usage := &models.LLMUsage{}
	for chunk := range chunks {
		if chunk.Error != nil {
			l.recordLLMMetric(req.Model, "error", start, usage.PromptTokens, usage.CompletionTokens)
			return "", nil, fmt.Errorf("loop: completion stream: %w", chunk.Error)
		}
		text.WriteString(chunk.Text)
		if chunk.InputTokens > 0 {
			usage.PromptTokens = chunk.InputTokens
		}
		if chunk.OutputTokens > 0 {
			usage.CompletionTokens = chunk.OutputTokens
		}
	}
	l.recordLLMMetric(req.Model, "ok", start, usage.PromptTokens, usage.CompletionTokens)
	l.recordLLMCost(req.Model, usage)
	return text.String(), usage, nil
}

func (l *Loop) recordLLMMetric(model, status string, start time.Time, promptTokens, completionTokens int) {
	if l.deps.Metrics == nil {
		return
	}
	l.deps.Metrics.RecordLLMRequest("agentcore", model, status, time.Since(start).Seconds(), promptTokens, completionTokens)
}

// recordLLMCost estimates a completion's USD cost from the model catalog's
// per-million-token pricing, folds it into the Metrics cost counter, and
// attributes it to this task in the usage tracker so a task's total spend
// is visible without parsing provider invoices.
func (l *Loop) recordLLMCost(model string, usage *models.LLMUsage) {
	if usage == nil {
		return
	}
	info, ok := modelcatalog.Get(model)
	if !ok || (info.InputPrice == 0 && info.OutputPrice == 0) {
		return
	}
	cost := tokenusage.Cost{Input: info.InputPrice, Output: info.OutputPrice}
	tokens := tokenusage.Usage{
		InputTokens:  int64(usage.PromptTokens),
		OutputTokens: int64(usage.CompletionTokens),
	}
	estimated := cost.Estimate(&tokens)

	if l.deps.Metrics != nil {
		l.deps.Metrics.RecordLLMCost("agentcore", model, estimated)
	}
	if l.deps.Usage != nil {
		l.deps.Usage.Record(tokenusage.Record{
			Provider: providerFromModel(model),
			Model:    model,
			TaskID:   l.task.ID,
			Usage:    tokens,
			Cost:     estimated,
		})
		l.deps.Logger.Debug("loop: task spend updated",
			"task_id", l.task.ID, "model", model, "cost", tokenusage.FormatUSD(estimated))
	}
}

// providerFromModel reports the model catalog's provider for model, or
// "unknown" if the model isn't registered.
func providerFromModel(model string) string {
	if info, ok := modelcatalog.Get(model); ok {
		return string(info.Provider)
	}
	return "unknown"
}

func (l *Loop) buildRequest() *llm.CompletionRequest {
	system := corePrompt + "\n\n" + l.deps.Tools.RenderCatalogSection()
	return &llm.CompletionRequest{
		Model:       l.deps.Model,
		System:      system,
		Messages:    toLLMMessages(l.turns),
		MaxTokens:   l.deps.MaxTokens,
		Temperature: 0.7,
		LogitBias:   l.deps.Tools.BiasFor(l.phase),
		CacheHint:   cacheHint,
	}
}

func toLLMMessages(turns []models.ConversationTurn) []llm.Message {
	out := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		out = append(out, llm.Message{Role: toLLMRole(t.Role), Content: t.Content})
	}
	return out
}

func toLLMRole(r models.TurnRole) llm.Role {
	switch r {
	case models.TurnSystem:
		return llm.RoleSystem
	case models.TurnAssistant:
		return llm.RoleAssistant
	case models.TurnTool:
		return llm.RoleTool
	default:
		return llm.RoleUser
	}
}

func toCompactionMessages(messages []llm.Message) []*compaction.Message {
	out := make([]*compaction.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, &compaction.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// llmSummarizer adapts the loop's LLM client to compaction.Summarizer so
// compress can reuse the teacher's chunk-then-summarize machinery instead of
// a hand-rolled condensation.
type llmSummarizer struct {
	client *llm.Client
	model  string
}

func (s *llmSummarizer) GenerateSummary(ctx context.Context, messages []*compaction.Message, _ *compaction.SummarizationConfig) (string, error) {
	var transcript strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&transcript, "[%s] %s\n", m.Role, m.Content)
	}
	req := &llm.CompletionRequest{
		Model: s.model,
		System: "Summarize the following agent conversation turns into a terse paragraph " +
			"preserving file paths, command outcomes, and any unresolved errors. Do not editorialize.",
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: transcript.String()}},
		MaxTokens: 512,
		CacheHint: cacheHint,
	}
	chunks, err := s.client.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	for chunk := range chunks {
		if chunk.Error != nil {
			return "", chunk.Error
		}
		out.WriteString(chunk.Text)
	}
	return out.String(), nil
}

// compress keeps the last maxRawActionResultTurns tool/assistant turns
// uncompressed and folds everything older into one summarized turn, using
// the teacher's chunk-then-summarize utilities (§4.11.b). compress runs at
// most once per task — a second overflow after compressing is a real
// context_overflow failure, not something to paper over twice. A summarizer
// failure degrades to a plain note rather than blocking the retry.
func (l *Loop) compress(ctx context.Context) {
	l.compressedOnce = true
	if len(l.turns) <= maxRawActionResultTurns+1 {
		return
	}

	head := l.turns[:1] // the initial user turn always stays
	tail := l.turns[len(l.turns)-maxRawActionResultTurns:]
	middle := l.turns[1 : len(l.turns)-maxRawActionResultTurns]
	if len(middle) == 0 {
		return
	}

	messages := make([]*compaction.Message, 0, len(middle))
	for _, t := range middle {
		messages = append(messages, &compaction.Message{Role: string(t.Role), Content: t.Content})
	}

	summary := fmt.Sprintf("(%d earlier turns compressed to fit the context window)", len(middle))
	if l.deps.LLM != nil {
		config := compaction.DefaultSummarizationConfig()
		config.ContextWindow = l.deps.ContextWindowTokens
		text, err := compaction.SummarizeWithFallback(ctx, messages, &llmSummarizer{client: l.deps.LLM, model: l.deps.Model}, config)
		if err != nil {
			l.deps.Logger.Warn("loop: compaction summarizer failed, using placeholder", "task", l.task.ID, "err", err)
		} else {
			summary = text
		}
	}

	merged := make([]models.ConversationTurn, 0, len(head)+1+len(tail))
	merged = append(merged, head...)
	merged = append(merged, models.ConversationTurn{Role: models.TurnUser, Content: summary, CreatedAt: time.Now()})
	merged = append(merged, tail...)
	l.turns = merged
}

// dispatch runs one validated-or-rejected action against its tool and
// returns the structured ActionResult recorded on the event stream and
// folded back into the conversation (§4.11.c/d).
func (l *Loop) dispatch(ctx context.Context, act models.Action) models.ActionResult {
	l.emit(models.Event{Kind: models.EventActionParsed, Phase: l.phase, Action: &act})

	validation := l.deps.Tools.Validate(act.Tool, l.phase)
	if !validation.Allowed {
		l.emit(models.Event{Kind: models.EventActionRejected, Phase: l.phase, Action: &act, RejectReason: validation.Reason})
		l.recordError(ctx, learning.ErrorKindValidation, fmt.Sprintf("%s rejected: %s", act.Tool, validation.Reason))
		return models.ActionResult{ToolCallIndex: act.Index, Content: string(validation.Reason), IsError: true}
	}

	if l.deps.Validator != nil {
		if err := l.deps.Validator.Validate(act.Tool, act.Params); err != nil {
			l.emit(models.Event{Kind: models.EventActionRejected, Phase: l.phase, Action: &act, RejectReason: models.ValidMissingParam})
			l.recordError(ctx, learning.ErrorKindValidation, err.Error())
			return models.ActionResult{ToolCallIndex: act.Index, Content: err.Error(), IsError: true}
		}
	}

	start := time.Now()
	if l.deps.Tracer != nil {
		spanCtx, sp := l.deps.Tracer.TraceToolExecution(ctx, string(act.Tool))
		ctx = spanCtx
		defer sp.End()
	}

	var result models.ActionResult
	switch act.Tool {
	case models.ToolCreateFile:
		result = l.dispatchCreateFile(ctx, act)
	case models.ToolReadFile:
		result = l.dispatchReadFile(ctx, act)
	case models.ToolListFiles:
		result = l.dispatchListFiles(ctx, act)
	case models.ToolExecute:
		result = l.dispatchExecute(ctx, act)
	case models.ToolUpdateTodo:
		result = l.dispatchUpdateTodo(ctx, act)
	case models.ToolVerify:
		result = l.dispatchVerify(ctx, act)
	case models.ToolBrowser:
		result = l.dispatchBrowser(ctx, act)
	case models.ToolSearchWeb:
		result = l.dispatchSearchWeb(ctx, act)
	case models.ToolThink:
		result = models.ActionResult{ToolCallIndex: act.Index, Content: "noted"}
	case models.ToolDelegate:
		result = l.dispatchDelegate(ctx, act)
	case models.ToolTaskCompleted:
		result = models.ActionResult{ToolCallIndex: act.Index, Content: "task completed"}
	default:
		result = models.ActionResult{ToolCallIndex: act.Index, Content: "unknown tool", IsError: true}
	}

	if result.IsError {
		l.errorsCount++
		l.task.ErrorsCount = l.errorsCount
		l.recordError(ctx, learning.ErrorKindSandbox, result.Content)
	}
	if l.deps.Metrics != nil {
		status := "ok"
		if result.IsError {
			status = "error"
		}
		l.deps.Metrics.RecordToolExecution(string(act.Tool), status, time.Since(start).Seconds())
	}
	l.emit(models.Event{Kind: models.EventActionResult, Phase: l.phase, Action: &act, ActionResult: &result})
	return result
}

func (l *Loop) dispatchCreateFile(ctx context.Context, act models.Action) models.ActionResult {
	filePath, content := act.Params["PATH"], act.Params["CONTENT"]
	if err := sandbox.ValidateWorkspacePath(filePath); err != nil {
		return models.ActionResult{ToolCallIndex: act.Index, Content: err.Error(), IsError: true}
	}
	if err := l.deps.Sandbox.WriteFile(ctx, l.handle, filePath, []byte(content)); err != nil {
		return models.ActionResult{ToolCallIndex: act.Index, Content: err.Error(), IsError: true}
	}
	l.sinceSuccessfulWrite = true
	return models.ActionResult{ToolCallIndex: act.Index, Content: fmt.Sprintf("wrote %s", filePath)}
}

func (l *Loop) dispatchReadFile(ctx context.Context, act models.Action) models.ActionResult {
	filePath := act.Params["PATH"]
	if err := sandbox.ValidateWorkspacePath(filePath); err != nil {
		return models.ActionResult{ToolCallIndex: act.Index, Content: err.Error(), IsError: true}
	}
	data, err := l.deps.Sandbox.ReadFile(ctx, l.handle, filePath)
	if err != nil {
		return models.ActionResult{ToolCallIndex: act.Index, Content: err.Error(), IsError: true}
	}
	content, truncated := truncateEventContent(string(data))
	return models.ActionResult{ToolCallIndex: act.Index, Content: content, Truncated: truncated}
}

func (l *Loop) dispatchListFiles(ctx context.Context, act models.Action) models.ActionResult {
	dirPath := act.Params["PATH"]
	if err := sandbox.ValidateWorkspacePath(dirPath); err != nil {
		return models.ActionResult{ToolCallIndex: act.Index, Content: err.Error(), IsError: true}
	}
	entries, err := l.deps.Sandbox.ListFiles(ctx, l.handle, dirPath)
	if err != nil {
		return models.ActionResult{ToolCallIndex: act.Index, Content: err.Error(), IsError: true}
	}
	var b strings.Builder
	for _, e := range entries {
		if e.IsDirectory {
			fmt.Fprintf(&b, "%s/\n", e.Name)
		} else {
			fmt.Fprintf(&b, "%s\n", e.Name)
		}
	}
	return models.ActionResult{ToolCallIndex: act.Index, Content: b.String()}
}

func (l *Loop) dispatchExecute(ctx context.Context, act models.Action) models.ActionResult {
	command := act.Params["COMMAND"]
	if exec.ControlChars.MatchString(command) {
		return models.ActionResult{ToolCallIndex: act.Index, Content: "COMMAND must not contain embedded newlines", IsError: true}
	}

	timeout := l.deps.DefaultExecTTL
	if raw := act.Params["TIMEOUT"]; raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil {
			timeout = time.Duration(secs) * time.Second
		}
	}

	start := time.Now()
	res, err := l.deps.Sandbox.Exec(ctx, l.handle, command, l.handle.WorkspaceRoot, timeout)
	_ = start
	if err != nil {
		return models.ActionResult{ToolCallIndex: act.Index, Content: err.Error(), IsError: true}
	}

	content, truncated := truncateEventContent(res.Stdout + res.Stderr)
	if res.ExitCode == 0 {
		l.sinceSuccessfulWrite = true
	}
	exitCode := res.ExitCode
	return models.ActionResult{
		ToolCallIndex: act.Index,
		Content:       content,
		IsError:       res.ExitCode != 0,
		Truncated:     truncated || res.StdoutTruncated || res.StderrTruncated,
		ExitCode:      &exitCode,
		DurationMS:    res.Duration.Milliseconds(),
	}
}

func (l *Loop) dispatchUpdateTodo(ctx context.Context, act models.Action) models.ActionResult {
	content := act.Params["CONTENT"]
	if content == "" {
		return models.ActionResult{ToolCallIndex: act.Index, Content: "missing CONTENT", IsError: true}
	}
	if err := l.deps.Sandbox.WriteFile(ctx, l.handle, "todo.md", []byte(content)); err != nil {
		return models.ActionResult{ToolCallIndex: act.Index, Content: err.Error(), IsError: true}
	}
	l.todo = content
	return models.ActionResult{ToolCallIndex: act.Index, Content: "todo updated"}
}

func (l *Loop) dispatchVerify(ctx context.Context, act models.Action) models.ActionResult {
	prevPhase := l.phase
	l.setPhase(models.PhaseVerifying, "")
	defer l.setPhase(prevPhase, "")

	res, err := l.deps.Sandbox.Exec(ctx, l.handle, act.Params["COMMAND"], l.handle.WorkspaceRoot, l.deps.DefaultExecTTL)
	l.verifications++
	l.task.VerificationsUsed = l.verifications

	passed := err == nil && res.ExitCode == 0
	output := ""
	if res != nil {
		output, _ = truncateEventContent(res.Stdout + res.Stderr)
	}
	l.emit(models.Event{Kind: models.EventVerification, Phase: models.PhaseVerifying,
		Verification: &models.VerificationInfo{Passed: passed, Command: act.Params["COMMAND"], Output: output}})

	if strings.Contains(strings.ToLower(act.Params["COMMAND"]), "test") {
		l.tests++
		l.task.TestsCount = l.tests
		l.emit(models.Event{Kind: models.EventTest, Phase: models.PhaseVerifying})
	}

	if err != nil {
		return models.ActionResult{ToolCallIndex: act.Index, Content: err.Error(), IsError: true}
	}
	return models.ActionResult{ToolCallIndex: act.Index, Content: output, IsError: !passed}
}

func (l *Loop) dispatchBrowser(ctx context.Context, act models.Action) models.ActionResult {
	if l.deps.Browser == nil {
		return models.ActionResult{ToolCallIndex: act.Index, Content: "browser sub-agent not configured", IsError: true}
	}

	prevPhase := l.phase
	l.setPhase(models.PhaseBrowsing, "")
	defer l.setPhase(prevPhase, "")

	result, err := l.deps.Browser.RunTask(ctx, act.Params["INSTRUCTION"])
	if err != nil {
		if errors.Is(err, browseragent.ErrBrowserUnavailable) {
			return models.ActionResult{ToolCallIndex: act.Index, Content: err.Error(), IsError: true}
		}
		return models.ActionResult{ToolCallIndex: act.Index, Content: err.Error(), IsError: true}
	}
	return models.ActionResult{ToolCallIndex: act.Index, Content: result.Summary, IsError: !result.Success}
}

func (l *Loop) dispatchSearchWeb(ctx context.Context, act models.Action) models.ActionResult {
	if l.deps.Knowledge == nil {
		return models.ActionResult{ToolCallIndex: act.Index, Content: "knowledge sub-agent not configured", IsError: true}
	}

	research := l.deps.Knowledge.Research(ctx, act.Params["QUERY"], knowledge.DepthMedium, 5)
	return models.ActionResult{ToolCallIndex: act.Index, Content: research.Answer, IsError: research.Answer == ""}
}

func (l *Loop) dispatchDelegate(ctx context.Context, act models.Action) models.ActionResult {
	if l.deps.Orchestrator == nil {
		return models.ActionResult{ToolCallIndex: act.Index, Content: "orchestrator not configured", IsError: true}
	}

	agents := splitAgents(act.Params["AGENTS"])
	if len(agents) == 0 {
		return models.ActionResult{ToolCallIndex: act.Index, Content: "missing AGENTS", IsError: true}
	}

	tasks := make([]orchestrator.Task, len(agents))
	for i, agentKind := range agents {
		tasks[i] = orchestrator.Task{AgentKind: agentKind, Input: act.Params["TASK"]}
	}

	switch act.Params["SHAPE"] {
	case "parallel":
		results := l.deps.Orchestrator.Parallel(ctx, tasks, 0)
		return delegationResult(act.Index, results)
	case "hierarchical":
		hr := l.deps.Orchestrator.Hierarchical(ctx, []orchestrator.Subgroup{{Tasks: tasks, Parallel: true}}, orchestrator.AggregationConcat)
		return models.ActionResult{ToolCallIndex: act.Index, Content: hr.Output}
	case "consensus":
		cr, err := l.deps.Orchestrator.Consensus(ctx, agents, act.Params["TASK"], 0)
		if err != nil {
			return models.ActionResult{ToolCallIndex: act.Index, Content: err.Error(), IsError: true}
		}
		return models.ActionResult{ToolCallIndex: act.Index, Content: cr.Winner, IsError: !cr.ConsensusReached}
	default: // "sequential"
		results := l.deps.Orchestrator.Sequential(ctx, tasks, false)
		return delegationResult(act.Index, results)
	}
}

func delegationResult(index int, results []orchestrator.TaskResult) models.ActionResult {
	var b strings.Builder
	hasError := false
	for _, r := range results {
		if r.Err != nil {
			hasError = true
			fmt.Fprintf(&b, "[%s] error: %s\n", r.AgentKind, r.Err)
			continue
		}
		fmt.Fprintf(&b, "[%s] %s\n", r.AgentKind, r.Output)
	}
	return models.ActionResult{ToolCallIndex: index, Content: b.String(), IsError: hasError}
}

func splitAgents(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// maxEventContent is the §4.11.d truncation limit applied to any action
// result folded into the event stream and conversation.
const maxEventContent = 16 << 10 // 16 KiB

func truncateEventContent(s string) (string, bool) {
	if len(s) <= maxEventContent {
		return s, false
	}
	return infra.TruncateBytes(s, maxEventContent), true
}

func (l *Loop) recordError(ctx context.Context, kind learning.ErrorKind, message string) {
	l.errorsCount++
	l.task.ErrorsCount = l.errorsCount
	l.emit(models.Event{Kind: models.EventErrorRecorded, Phase: l.phase,
		ErrorInfo: &models.ErrorInfo{Category: string(kind), Message: message}})
	if l.deps.Learning != nil {
		l.deps.Learning.ErrorPatterns.Record(ctx, learning.ErrorOccurrence{Kind: kind, Message: message})
	}
}

var _ = planner.RenderTodo // referenced indirectly via Deps.Planner during initialize
