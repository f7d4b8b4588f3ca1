package learning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFixGenerator struct {
	calls int
	fix   *FixSuggestion
}

func (f *fakeFixGenerator) GenerateFix(ctx context.Context, pattern *Pattern) (*FixSuggestion, error) {
	f.calls++
	return f.fix, nil
}

func TestRecordCreatesNewClusterBelowThreshold(t *testing.T) {
	store := NewErrorPatternStore(nil)
	pattern := store.Record(context.Background(), ErrorOccurrence{Kind: ErrorKindSandbox, Message: "container failed to start: timeout"})
	assert.False(t, pattern.Named)
	assert.Len(t, pattern.Members, 1)
}

func TestRecordMergesSimilarMessagesIntoSameCluster(t *testing.T) {
	store := NewErrorPatternStore(nil)
	a := store.Record(context.Background(), ErrorOccurrence{Kind: ErrorKindSandbox, Message: "container failed to start: timeout waiting for daemon"})
	b := store.Record(context.Background(), ErrorOccurrence{Kind: ErrorKindSandbox, Message: "container failed to start: timeout waiting for daemon socket"})
	assert.Same(t, a, b)
}

func TestRecordKeepsDissimilarMessagesSeparate(t *testing.T) {
	store := NewErrorPatternStore(nil)
	a := store.Record(context.Background(), ErrorOccurrence{Kind: ErrorKindSandbox, Message: "container failed to start"})
	b := store.Record(context.Background(), ErrorOccurrence{Kind: ErrorKindParse, Message: "unterminated action block"})
	assert.NotSame(t, a, b)
}

func TestRecordBecomesNamedAtThreeMembers(t *testing.T) {
	store := NewErrorPatternStore(nil)
	occ := ErrorOccurrence{Kind: ErrorKindProvider, Message: "rate limited by upstream provider"}
	store.Record(context.Background(), occ)
	store.Record(context.Background(), occ)
	pattern := store.Record(context.Background(), occ)
	assert.True(t, pattern.Named)
}

func TestRecordGeneratesFixOnceWhenNamed(t *testing.T) {
	gen := &fakeFixGenerator{fix: &FixSuggestion{RootCause: "rate limiting", Suggestions: []string{"backoff", "reduce concurrency"}}}
	store := NewErrorPatternStore(gen)
	occ := ErrorOccurrence{Kind: ErrorKindProvider, Message: "rate limited by upstream provider"}

	store.Record(context.Background(), occ)
	store.Record(context.Background(), occ)
	pattern := store.Record(context.Background(), occ)
	store.Record(context.Background(), occ) // a 4th similar error should reuse the cached fix

	require.NotNil(t, pattern.Fix)
	assert.Equal(t, "rate limiting", pattern.Fix.RootCause)
	assert.Equal(t, 1, gen.calls)
}

func TestParseFixSuggestionExtractsJSON(t *testing.T) {
	fix, err := parseFixSuggestion(`{"root_cause":"timeouts","suggestions":["increase timeout","retry"]}`)
	require.NoError(t, err)
	assert.Equal(t, "timeouts", fix.RootCause)
	assert.Len(t, fix.Suggestions, 2)
}
