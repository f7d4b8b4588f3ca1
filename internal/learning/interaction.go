package learning

import (
	"context"
	"sync"
	"time"
)

// Outcome is a completed (sub-)task's result classification.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Confidence is a Learning's accrued confidence band, driven by occurrence
// count (§4.9: 1→low, 3→medium, 7→high, 15→very_high).
type Confidence string

const (
	ConfidenceLow      Confidence = "low"
	ConfidenceMedium   Confidence = "medium"
	ConfidenceHigh     Confidence = "high"
	ConfidenceVeryHigh Confidence = "very_high"
)

const tagOverlapThreshold = 0.5
const learningMinMatches = 3

// confidenceForCount maps an occurrence count to its confidence band.
func confidenceForCount(count int) Confidence {
	switch {
	case count >= 15:
		return ConfidenceVeryHigh
	case count >= 7:
		return ConfidenceHigh
	case count >= 3:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// InteractionRecord is one completed (sub-)task appended to the log.
type InteractionRecord struct {
	ID        string
	AgentTag  string // "" for the top-level task, or the delegated sub-agent kind (§4.8)
	Summary   string
	Tags      []string
	Outcome   Outcome
	Duration  time.Duration
	Iterations int
	Timestamp time.Time
}

// Learning is an extracted recurring pattern across ≥3 matching
// interactions sharing an outcome.
type Learning struct {
	ID         string
	Summary    string
	Tags       []string
	Outcome    Outcome
	Count      int
	Confidence Confidence
	UpdatedAt  time.Time
}

// InteractionLog appends InteractionRecords and derives Learnings from
// repeated tag-overlapping patterns.
type InteractionLog struct {
	mu        sync.Mutex
	records   []InteractionRecord
	learnings map[string]*Learning // keyed by a stable signature of summary+outcome
}

// NewInteractionLog builds an empty log.
func NewInteractionLog() *InteractionLog {
	return &InteractionLog{learnings: make(map[string]*Learning)}
}

// RecordDelegation implements orchestrator.InteractionRecorder (§4.8: "each
// delegated task is itself recorded as an interaction with the sub-agent
// tag").
func (l *InteractionLog) RecordDelegation(ctx context.Context, agentKind, input, output string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	l.Append(InteractionRecord{
		AgentTag: agentKind,
		Summary:  input,
		Tags:     tagsFromText(input),
		Outcome:  outcome,
	})
}

// Append records one interaction and runs learning extraction against
// prior records with the same outcome (§4.9.1).
func (l *InteractionLog) Append(record InteractionRecord) *Learning {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	if record.ID == "" {
		record.ID = recordID(len(l.records))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, record)
	return l.extractLearning(record)
}

// extractLearning counts prior records matching record by tag overlap
// ≥0.5 and the same outcome; at k≥3 matches it creates or increments a
// Learning, upgrading its confidence by the new count.
func (l *InteractionLog) extractLearning(record InteractionRecord) *Learning {
	matches := 0
	for _, prior := range l.records[:len(l.records)-1] {
		if prior.Outcome != record.Outcome {
			continue
		}
		if tagOverlap(prior.Tags, record.Tags) >= tagOverlapThreshold {
			matches++
		}
	}
	if matches < learningMinMatches-1 { // -1: record itself is the (matches+1)th member
		return nil
	}

	key := record.Summary + "|" + string(record.Outcome)
	learning, ok := l.learnings[key]
	if !ok {
		learning = &Learning{
			ID:      recordID(len(l.learnings)),
			Summary: record.Summary,
			Tags:    record.Tags,
			Outcome: record.Outcome,
		}
		l.learnings[key] = learning
	}
	learning.Count = matches + 1
	learning.Confidence = confidenceForCount(learning.Count)
	learning.UpdatedAt = record.Timestamp
	return learning
}

// tagOverlap is the Jaccard similarity of two tag sets.
func tagOverlap(a, b []string) float64 {
	return jaccard(toSet(a), toSet(b))
}

func toSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

// TagsFromText derives a tag set from free text by tokenizing it; callers
// with a richer tagging scheme may supply their own Tags directly on
// InteractionRecord instead.
func TagsFromText(text string) []string {
	return tagsFromText(text)
}

func tagsFromText(text string) []string {
	set := tokenize(text)
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	return tags
}

// Learnings returns every extracted learning, most recently updated first.
func (l *InteractionLog) Learnings() []*Learning {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*Learning, 0, len(l.learnings))
	for _, learning := range l.learnings {
		out = append(out, learning)
	}
	return out
}

// RelevantLearnings returns every Learning whose tags overlap text at all,
// used to fold prior learnings into a new task's initial user turn
// (§4.11.a.2).
func (l *InteractionLog) RelevantLearnings(text string) []*Learning {
	l.mu.Lock()
	defer l.mu.Unlock()

	textTags := toSet(tagsFromText(text))
	var out []*Learning
	for _, learning := range l.learnings {
		if jaccard(textTags, toSet(learning.Tags)) > 0 {
			out = append(out, learning)
		}
	}
	return out
}

// Records returns a copy of every appended interaction.
func (l *InteractionLog) Records() []InteractionRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]InteractionRecord, len(l.records))
	copy(out, l.records)
	return out
}

func recordID(seq int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	if seq == 0 {
		return "r0"
	}
	digits := make([]byte, 0, 8)
	n := seq
	for n > 0 {
		digits = append([]byte{alphabet[n%len(alphabet)]}, digits...)
		n /= len(alphabet)
	}
	return "r" + string(digits)
}
