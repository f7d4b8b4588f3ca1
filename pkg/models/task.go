// Package models provides the domain types shared by the agent execution
// core: tasks, phases, tools, actions, events, and the learning records
// produced while running them.
package models

import "time"

// TaskStatus is the lifecycle status of a Task.
type TaskStatus string

const (
	TaskQueued     TaskStatus = "queued"
	TaskPlanning   TaskStatus = "planning"
	TaskExecuting  TaskStatus = "executing"
	TaskVerifying  TaskStatus = "verifying"
	TaskLearning   TaskStatus = "learning"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
	TaskCancelled  TaskStatus = "cancelled"
)

// Terminal reports whether the status is one the task cannot leave.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskCompleted, TaskFailed, TaskCancelled:
		return true
	default:
		return false
	}
}

// Task is one execution instance driven by the agent loop. It is created by
// the session manager (C12) and mutated only by the loop that owns it.
type Task struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	IterationsUsed    int `json:"iterations_used"`
	VerificationsUsed int `json:"verifications_count"`
	TestsCount        int `json:"tests_count"`
	ErrorsCount       int `json:"errors_count"`

	// FailureReason is set when Status == TaskFailed.
	FailureReason ReasonKind `json:"failure_reason,omitempty"`
	// FinalMessage is the prose captured from a TASK_COMPLETED sentinel.
	FinalMessage string `json:"final_message,omitempty"`
}

// Snapshot returns the client-facing status projection (§6.1).
type Snapshot struct {
	Status            TaskStatus `json:"status"`
	IterationsUsed    int        `json:"iterations_used"`
	VerificationsUsed int        `json:"verifications_count"`
	TestsCount        int        `json:"tests_count"`
	ErrorsCount       int        `json:"errors_count"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ReasonKind enumerates why a task failed (§7 error taxonomy).
type ReasonKind string

const (
	ReasonIterationLimit   ReasonKind = "iteration_limit"
	ReasonCancelled        ReasonKind = "cancelled"
	ReasonLLMFatal         ReasonKind = "llm_fatal"
	ReasonContextOverflow  ReasonKind = "context_overflow"
	ReasonSandboxUnavail   ReasonKind = "sandbox_unavailable"
	ReasonProviderError    ReasonKind = "provider_error"
	ReasonConfiguration    ReasonKind = "configuration_error"
)
