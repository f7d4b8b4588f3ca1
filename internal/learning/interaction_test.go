package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJaccardIdenticalSetsIsOne(t *testing.T) {
	assert.Equal(t, 1.0, jaccardText("build test deploy", "deploy test build"))
}

func TestJaccardDisjointSetsIsZero(t *testing.T) {
	assert.Equal(t, 0.0, jaccardText("alpha beta", "gamma delta"))
}

func TestJaccardBothEmptyIsZero(t *testing.T) {
	assert.Equal(t, 0.0, jaccardText("", ""))
}

func TestConfidenceForCountThresholds(t *testing.T) {
	assert.Equal(t, ConfidenceLow, confidenceForCount(1))
	assert.Equal(t, ConfidenceLow, confidenceForCount(2))
	assert.Equal(t, ConfidenceMedium, confidenceForCount(3))
	assert.Equal(t, ConfidenceMedium, confidenceForCount(6))
	assert.Equal(t, ConfidenceHigh, confidenceForCount(7))
	assert.Equal(t, ConfidenceVeryHigh, confidenceForCount(15))
}

func TestAppendNoLearningBelowThreeMatches(t *testing.T) {
	log := NewInteractionLog()
	l1 := log.Append(InteractionRecord{Summary: "fix bug in parser", Tags: []string{"fix", "parser", "bug"}, Outcome: OutcomeSuccess})
	l2 := log.Append(InteractionRecord{Summary: "fix bug in parser", Tags: []string{"fix", "parser", "bug"}, Outcome: OutcomeSuccess})
	assert.Nil(t, l1)
	assert.Nil(t, l2)
}

func TestAppendCreatesLearningAtThreeMatches(t *testing.T) {
	log := NewInteractionLog()
	record := InteractionRecord{Summary: "fix bug in parser", Tags: []string{"fix", "parser", "bug"}, Outcome: OutcomeSuccess}
	log.Append(record)
	log.Append(record)
	learning := log.Append(record)

	require.NotNil(t, learning)
	assert.Equal(t, 3, learning.Count)
	assert.Equal(t, ConfidenceMedium, learning.Confidence)
}

func TestAppendIgnoresDifferentOutcomeForMatching(t *testing.T) {
	log := NewInteractionLog()
	record := InteractionRecord{Summary: "fix bug", Tags: []string{"fix", "bug"}, Outcome: OutcomeSuccess}
	failure := InteractionRecord{Summary: "fix bug", Tags: []string{"fix", "bug"}, Outcome: OutcomeFailure}

	log.Append(record)
	log.Append(record)
	log.Append(failure) // different outcome, shouldn't count toward the success cluster
	learning := log.Append(record)

	require.NotNil(t, learning)
	assert.Equal(t, 3, learning.Count)
}

func TestAppendRequiresTagOverlapAboveThreshold(t *testing.T) {
	log := NewInteractionLog()
	a := InteractionRecord{Summary: "fix bug", Tags: []string{"fix", "bug", "parser", "go"}, Outcome: OutcomeSuccess}
	b := InteractionRecord{Summary: "fix bug", Tags: []string{"unrelated", "tags", "entirely", "different"}, Outcome: OutcomeSuccess}

	log.Append(a)
	log.Append(a)
	learning := log.Append(b)
	assert.Nil(t, learning)
}

func TestRecordDelegationClassifiesOutcomeByError(t *testing.T) {
	log := NewInteractionLog()
	log.RecordDelegation(nil, "knowledge", "research x", "", assertError())
	records := log.Records()
	require.Len(t, records, 1)
	assert.Equal(t, OutcomeFailure, records[0].Outcome)
	assert.Equal(t, "knowledge", records[0].AgentTag)
}

func assertError() error {
	return errTest
}

var errTest = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
