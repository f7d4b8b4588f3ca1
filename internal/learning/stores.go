package learning

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agentcore/core/internal/infra"
)

// Stores bundles the five coordinated Learning Stores (§4.9) so the Agent
// Loop can construct, persist, and restore them as one unit at task
// boundaries.
type Stores struct {
	Interactions *InteractionLog
	Knowledge    *Hub
	Performance  *Optimizer
	Strategy     *AdaptiveStrategy
	ErrorPatterns *ErrorPatternStore
}

// New builds a fresh, empty set of Stores. fixGen may be nil.
func New(fixGen FixGenerator) (*Stores, error) {
	hub, err := NewHub()
	if err != nil {
		return nil, fmt.Errorf("learning: new knowledge hub: %w", err)
	}
	return &Stores{
		Interactions:  NewInteractionLog(),
		Knowledge:     hub,
		Performance:   NewOptimizer(),
		Strategy:      NewAdaptiveStrategy(),
		ErrorPatterns: NewErrorPatternStore(fixGen),
	}, nil
}

// currentSchemaVersion is the document schema major version this build
// writes and is willing to read. A snapshot written by a newer build that
// bumped this is refused rather than partially decoded (§6.4).
const currentSchemaVersion = 1

// ErrUnknownSchemaVersion is returned by LoadJSON/SQLiteStore.Load when a
// snapshot's schema_version is newer than currentSchemaVersion.
var ErrUnknownSchemaVersion = errors.New("learning: unknown schema version")

// document is the JSON-serializable snapshot persisted at task boundary
// (§4.9: "optional persistence to a JSON document on task boundary"). The
// Knowledge Hub's chromem-go embedding index and its subscriber channels
// are deliberately excluded — they are rebuilt from Items on Load.
type document struct {
	SchemaVersion  int                  `json:"schema_version"`
	Records        []InteractionRecord `json:"records"`
	KnowledgeItems []*Item             `json:"knowledge_items"`
	ErrorPatterns  []*Pattern          `json:"error_patterns"`
	SavedAt        time.Time           `json:"saved_at"`
}

// snapshotMigrations registers the upgrade steps applied to an on-disk
// snapshot whose schema_version predates currentSchemaVersion, tracked the
// same way agentcore tracks any other on-disk state migration.
func snapshotMigrations(path string) *infra.MigrationManager {
	mgr := infra.NewMigrationManager(&infra.MigrationManagerConfig{
		StateDir:  filepath.Dir(path),
		StatePath: path + ".migrations.json",
	})
	mgr.Register(&infra.Migration{
		Version:     1,
		Name:        "stamp_schema_version",
		Description: "stamp pre-versioning learning snapshots as schema version 1",
		Up: func(ctx *infra.MigrationContext) error {
			ctx.Logger.Info("learning: stamping legacy snapshot %s as schema version 1", path)
			return nil
		},
	})
	return mgr
}

// SaveJSON writes a snapshot of every store to path as a single JSON
// document.
func (s *Stores) SaveJSON(path string) error {
	doc := document{
		SchemaVersion:  currentSchemaVersion,
		Records:        s.Interactions.Records(),
		KnowledgeItems: s.Knowledge.snapshot(),
		ErrorPatterns:  s.ErrorPatterns.Patterns(),
		SavedAt:        time.Now(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("learning: marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("learning: write snapshot: %w", err)
	}

	mgr := snapshotMigrations(path)
	state, err := mgr.LoadState()
	if err == nil && state.Version < currentSchemaVersion {
		_, _ = mgr.MigrateUp(nil)
	}
	return nil
}

// LoadJSON restores interaction records and knowledge items from a
// snapshot previously written by SaveJSON. A snapshot with no schema_version
// field is treated as a pre-versioning version-0 document and migrated in
// place; one with a version newer than currentSchemaVersion is refused
// outright rather than risk silently misreading a future format (§6.4).
// Restored interaction records are re-appended so learning extraction
// re-runs deterministically, which is intentional: it reproduces the same
// Learnings a cold process would derive on replay.
func (s *Stores) LoadJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("learning: read snapshot: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("learning: unmarshal snapshot: %w", err)
	}
	if doc.SchemaVersion > currentSchemaVersion {
		return fmt.Errorf("%w: %d (max supported %d)", ErrUnknownSchemaVersion, doc.SchemaVersion, currentSchemaVersion)
	}
	if doc.SchemaVersion < currentSchemaVersion {
		if _, err := snapshotMigrations(path).MigrateUp(nil); err != nil {
			return fmt.Errorf("learning: migrate snapshot %s: %w", path, err)
		}
	}

	for _, r := range doc.Records {
		s.Interactions.Append(r)
	}
	for _, item := range doc.KnowledgeItems {
		s.Knowledge.restore(item)
	}
	s.ErrorPatterns.restore(doc.ErrorPatterns)
	return nil
}

// SQLiteStore is the optional durable backend (config.Learning.Backend ==
// "sqlite"): a single-row key-value table holding the same JSON document
// SaveJSON produces, scaled down from the teacher's relational
// CockroachDB-backed task store to a single-process local file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (and migrates, if needed) a sqlite-backed
// document store at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("learning: open sqlite store: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS learning_snapshot (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		document TEXT NOT NULL,
		saved_at TIMESTAMP NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("learning: migrate sqlite store: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Save upserts the current Stores snapshot into the single-row table.
func (s *SQLiteStore) Save(ctx context.Context, stores *Stores) error {
	doc := document{
		SchemaVersion:  currentSchemaVersion,
		Records:        stores.Interactions.Records(),
		KnowledgeItems: stores.Knowledge.snapshot(),
		ErrorPatterns:  stores.ErrorPatterns.Patterns(),
		SavedAt:        time.Now(),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("learning: marshal sqlite snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO learning_snapshot (id, document, saved_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET document = excluded.document, saved_at = excluded.saved_at`,
		string(data), doc.SavedAt)
	if err != nil {
		return fmt.Errorf("learning: upsert sqlite snapshot: %w", err)
	}
	return nil
}

// Load restores stores from the single-row table. It is a no-op if no
// snapshot has ever been saved.
func (s *SQLiteStore) Load(ctx context.Context, stores *Stores) error {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM learning_snapshot WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("learning: query sqlite snapshot: %w", err)
	}

	var doc document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return fmt.Errorf("learning: unmarshal sqlite snapshot: %w", err)
	}
	if doc.SchemaVersion > currentSchemaVersion {
		return fmt.Errorf("%w: %d (max supported %d)", ErrUnknownSchemaVersion, doc.SchemaVersion, currentSchemaVersion)
	}
	for _, r := range doc.Records {
		stores.Interactions.Append(r)
	}
	for _, item := range doc.KnowledgeItems {
		stores.Knowledge.restore(item)
	}
	stores.ErrorPatterns.restore(doc.ErrorPatterns)
	return nil
}
