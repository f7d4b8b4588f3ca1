package models

import "time"

// Confidence is a coarse-grained confidence band computed from occurrence
// count and success ratio (§3 Learning).
type Confidence string

const (
	ConfidenceLow       Confidence = "low"
	ConfidenceMedium    Confidence = "medium"
	ConfidenceHigh      Confidence = "high"
	ConfidenceVeryHigh  Confidence = "very_high"
)

// InteractionRecord is one completed (sub-)task's outcome, appended to the
// Interaction Log (C9 §4.9.1).
type InteractionRecord struct {
	ID          string    `json:"id"`
	AgentTag    string    `json:"agent_tag"`
	TaskText    string    `json:"task_text"`
	Actions     []Action  `json:"actions"`
	Results     []ActionResult `json:"results"`
	Success     bool      `json:"success"`
	Duration    time.Duration `json:"duration"`
	Iterations  int       `json:"iterations"`
	ErrorCount  int       `json:"error_count"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
}

// LearningKind enumerates the shapes of pattern a Learning can represent.
type LearningKind string

const (
	LearningSuccessPattern LearningKind = "success_pattern"
	LearningFailurePattern LearningKind = "failure_pattern"
	LearningOptimization   LearningKind = "optimization"
	LearningErrorRecovery  LearningKind = "error_recovery"
	LearningTaskStrategy   LearningKind = "task_strategy"
	LearningBestPractice   LearningKind = "best_practice"
)

// Learning is an extracted pattern with an evidence trail back to the
// interactions that produced it (§3 Learning).
type Learning struct {
	ID          string       `json:"id"`
	Kind        LearningKind `json:"kind"`
	Description string       `json:"description"`
	Evidence    []string     `json:"evidence"` // interaction ids
	Occurrence  int          `json:"occurrence"`
	SuccessRate float64      `json:"success_rate"`
	Confidence  Confidence   `json:"confidence"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// KnowledgeState is the lifecycle state of a KnowledgeItem.
type KnowledgeState string

const (
	KnowledgeExperimental KnowledgeState = "experimental"
	KnowledgeValidated    KnowledgeState = "validated"
	KnowledgeDeprecated   KnowledgeState = "deprecated"
	KnowledgeArchived     KnowledgeState = "archived"
)

// KnowledgePriority ranks an item for the Knowledge Hub's total query order
// (§9 Open Questions: priority desc, then tag-overlap, then recency).
type KnowledgePriority int

const (
	PriorityLow KnowledgePriority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// KnowledgeVersion is a prior content snapshot of a KnowledgeItem, kept so
// state-transition history stays auditable.
type KnowledgeVersion struct {
	Content    string    `json:"content"`
	ChangeNote string    `json:"change_note"`
	At         time.Time `json:"at"`
}

// KnowledgeItem is a persisted entry in the knowledge base (§3).
type KnowledgeItem struct {
	ID           string             `json:"id"`
	Category     string             `json:"category"`
	Title        string             `json:"title"`
	Content      string             `json:"content"`
	Tags         []string           `json:"tags"`
	State        KnowledgeState     `json:"state"`
	Priority     KnowledgePriority  `json:"priority"`
	SuccessCount int                `json:"success_count"`
	FailureCount int                `json:"failure_count"`
	Versions     []KnowledgeVersion `json:"versions,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// UsageCount is the total number of times this item has been applied.
func (k KnowledgeItem) UsageCount() int { return k.SuccessCount + k.FailureCount }

// SuccessRate is the fraction of applications that succeeded; 0 when unused.
func (k KnowledgeItem) SuccessRate() float64 {
	total := k.UsageCount()
	if total == 0 {
		return 0
	}
	return float64(k.SuccessCount) / float64(total)
}

// ErrorPattern is a cluster of similar errors (§3).
type ErrorPattern struct {
	ID                 string    `json:"id"`
	Category           string    `json:"category"`
	Members            []string  `json:"members"` // error messages
	CommonRootCauses   []string  `json:"common_root_causes,omitempty"`
	EffectiveFixes     []string  `json:"effective_fixes,omitempty"`
	PreventionStrategy []string  `json:"prevention_strategies,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Named reports whether the candidate cluster has accreted enough members
// to become a recognized pattern (§3: ≥ 3 members).
func (p ErrorPattern) Named() bool { return len(p.Members) >= 3 }

// StrategyShape is the execution shape chosen for a task (§3 StrategyChoice).
type StrategyShape string

const (
	StrategySingle       StrategyShape = "single"
	StrategySequential   StrategyShape = "sequential"
	StrategyParallel     StrategyShape = "parallel"
	StrategyHierarchical StrategyShape = "hierarchical"
	StrategyConsensus    StrategyShape = "consensus"
)

// StrategyChoice records the execution shape chosen for a task, the
// intended agent sequence, and the outcome observed afterward.
type StrategyChoice struct {
	TaskText      string        `json:"task_text"`
	Keywords      []string      `json:"keywords"`
	Shape         StrategyShape `json:"shape"`
	AgentSequence []string      `json:"agent_sequence"`
	Confidence    float64       `json:"confidence"`
	Success       bool          `json:"success"`
	DurationFast  bool          `json:"duration_fast"`
	RecordedAt    time.Time     `json:"recorded_at"`
}

// Complexity is the adaptive-strategy complexity band (§4.9.4).
type Complexity string

const (
	ComplexityTrivial      Complexity = "trivial"
	ComplexitySimple       Complexity = "simple"
	ComplexityModerate     Complexity = "moderate"
	ComplexityComplex      Complexity = "complex"
	ComplexityVeryComplex  Complexity = "very_complex"
)
