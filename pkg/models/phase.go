package models

// Phase is the agent's current execution mode. It gates which tools the
// model is allowed to emit (§4.3) — at any instant a live task has exactly
// one phase.
type Phase string

const (
	PhasePlanning  Phase = "PLANNING"
	PhaseExecuting Phase = "EXECUTING"
	PhaseVerifying Phase = "VERIFYING"
	PhaseBrowsing  Phase = "BROWSING"
	PhaseLearning  Phase = "LEARNING"
	PhaseIdle      Phase = "IDLE"
)

// AllPhases lists every phase in a stable order, used when rendering the
// tool availability table and when iterating bias maps deterministically.
func AllPhases() []Phase {
	return []Phase{PhasePlanning, PhaseExecuting, PhaseVerifying, PhaseBrowsing, PhaseLearning}
}
