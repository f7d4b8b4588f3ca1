package models

import "time"

// EventKind identifies the kind of a stream Event (§3). This is the
// complete set named by the spec — the client-facing event subscription
// (§6.1) delivers exactly these kinds and no others.
type EventKind string

const (
	EventPhaseChanged     EventKind = "phase_changed"
	EventPlanCreated      EventKind = "plan_created"
	EventIterationStarted EventKind = "iteration_started"
	EventLLMRequest       EventKind = "llm_request"
	EventLLMResponse      EventKind = "llm_response"
	EventActionParsed     EventKind = "action_parsed"
	EventActionRejected   EventKind = "action_rejected"
	EventActionResult     EventKind = "action_result"
	EventVerification     EventKind = "verification"
	EventTest             EventKind = "test"
	EventErrorRecorded    EventKind = "error_recorded"
	EventLearningRecorded EventKind = "learning_recorded"
	EventKnowledgeShared  EventKind = "knowledge_shared"
	EventReflection       EventKind = "reflection"
	EventTaskCompleted    EventKind = "task_completed"
	EventTaskFailed       EventKind = "task_failed"
	EventTaskCancelled    EventKind = "task_cancelled"
	EventSubscriberLagged EventKind = "subscriber_lagged"
)

// Event is one append-only record in a task's stream (§3, §4.10). Every
// event carries the task id, a monotonically increasing sequence number
// within that task, a wall-clock timestamp, and a kind-specific payload.
// Events are never modified or deleted after Append returns.
type Event struct {
	TaskID    string    `json:"task_id"`
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"ts"`
	Kind      EventKind `json:"type"`

	Phase   Phase  `json:"phase,omitempty"`
	Message string `json:"message,omitempty"`

	Plan          *Plan             `json:"plan,omitempty"`
	Action        *Action           `json:"action,omitempty"`
	RejectReason  ValidationError   `json:"reject_reason,omitempty"`
	ActionResult  *ActionResult     `json:"action_result,omitempty"`
	Verification  *VerificationInfo `json:"verification,omitempty"`
	ErrorInfo     *ErrorInfo        `json:"error,omitempty"`
	Learning      *Learning         `json:"learning,omitempty"`
	KnowledgeItem *KnowledgeItem    `json:"knowledge_item,omitempty"`
	Reflection    string            `json:"reflection,omitempty"`
	FailureReason ReasonKind        `json:"failure_reason,omitempty"`

	// LLMUsage carries token accounting for llm_request/llm_response events.
	LLMUsage *LLMUsage `json:"llm_usage,omitempty"`
}

// LLMUsage reports token accounting for one completion call.
type LLMUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// ActionResult is the structured outcome of dispatching one Action (§4.11.d).
type ActionResult struct {
	ToolCallIndex int    `json:"tool_call_index"`
	Content       string `json:"content"`
	IsError       bool   `json:"is_error"`
	Truncated     bool   `json:"truncated,omitempty"`
	ExitCode      *int   `json:"exit_code,omitempty"`
	DurationMS    int64  `json:"duration_ms,omitempty"`
}

// VerificationInfo records the outcome of a VERIFY action.
type VerificationInfo struct {
	Passed  bool   `json:"passed"`
	Command string `json:"command,omitempty"`
	Output  string `json:"output,omitempty"`
}

// ErrorInfo is the kind-specific payload for error_recorded events.
type ErrorInfo struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Fatal    bool   `json:"fatal,omitempty"`
}

// Plan is the planner's structured output (§4.5).
type Plan struct {
	Goal               string   `json:"goal"`
	SuccessCriteria    []string `json:"success_criteria,omitempty"`
	OrderedSteps       []string `json:"ordered_steps,omitempty"`
	IdentifiedRisks    []string `json:"identified_risks,omitempty"`
	RequiredResources  []string `json:"required_resources,omitempty"`
}
