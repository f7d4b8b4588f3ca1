package models

import "time"

// TurnRole identifies the author of a ConversationTurn.
type TurnRole string

const (
	TurnSystem    TurnRole = "system"
	TurnUser      TurnRole = "user"
	TurnAssistant TurnRole = "assistant"
	TurnTool      TurnRole = "tool"
)

// ConversationTurn is one role-tagged message in a task's append-only
// conversation (§3). Once appended, its byte content is immutable — this
// is what makes prefix-stable KV-cache reuse possible (§8 prefix
// stability).
type ConversationTurn struct {
	Role      TurnRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SandboxHandle is a reference to a remote isolated environment (§3). It
// owns a root working directory, a process-execution capability, and a
// lifetime bounded by the task that created it.
type SandboxHandle struct {
	ID            string    `json:"id"`
	WorkspaceRoot string    `json:"workspace_root"`
	CreatedAt     time.Time `json:"created_at"`
}
