package learning

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadJSONRoundTrips(t *testing.T) {
	stores, err := New(nil)
	require.NoError(t, err)

	stores.Interactions.Append(InteractionRecord{Summary: "fix bug", Tags: []string{"fix", "bug"}, Outcome: OutcomeSuccess})
	stores.Knowledge.Share("insight", "title", "content", PriorityHigh, []string{"go"})
	stores.ErrorPatterns.Record(context.Background(), ErrorOccurrence{Kind: ErrorKindSandbox, Message: "timeout starting container"})

	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, stores.SaveJSON(path))

	restored, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, restored.LoadJSON(path))

	assert.Len(t, restored.Interactions.Records(), 1)
	assert.Len(t, restored.Knowledge.snapshot(), 1)
	assert.Len(t, restored.ErrorPatterns.Patterns(), 1)
}

func TestSQLiteStoreSaveAndLoadRoundTrips(t *testing.T) {
	stores, err := New(nil)
	require.NoError(t, err)
	stores.Interactions.Append(InteractionRecord{Summary: "research topic", Tags: []string{"research", "topic"}, Outcome: OutcomeSuccess})

	path := filepath.Join(t.TempDir(), "learning.db")
	sqliteStore, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer sqliteStore.Close()

	ctx := context.Background()
	require.NoError(t, sqliteStore.Save(ctx, stores))

	restored, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, sqliteStore.Load(ctx, restored))

	assert.Len(t, restored.Interactions.Records(), 1)
}

func TestSQLiteStoreLoadNoopWhenNeverSaved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	sqliteStore, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer sqliteStore.Close()

	stores, err := New(nil)
	require.NoError(t, err)
	assert.NoError(t, sqliteStore.Load(context.Background(), stores))
	assert.Empty(t, stores.Interactions.Records())
}
