// Package journal persists migration runs and their completed stages in
// SQLite so an interrupted run can be resumed.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
)

// Outcomes a run can be resumed from.
var resumableOutcomes = []string{"failed", "canceled"}

// Run identifies one migration run.
type Run struct {
	ID     string
	Engine string
	Source string
	Dest   string
}

// Store is the SQLite-backed journal.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the journal at path. Use ":memory:" for a
// throwaway journal.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.IOError(err, "open journal").WithPath(path).Build()
	}
	// One connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.IOError(err, "initialize journal schema").WithPath(path).Build()
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		engine TEXT NOT NULL,
		source TEXT NOT NULL,
		dest TEXT NOT NULL,
		started INTEGER NOT NULL,
		finished INTEGER,
		outcome TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(engine, source, dest);
	CREATE TABLE IF NOT EXISTS stages (
		run_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		changes BLOB NOT NULL,
		warnings BLOB NOT NULL,
		completed INTEGER NOT NULL,
		PRIMARY KEY (run_id, stage)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// StartRun records the start of run. Starting a run that already exists
// (a resumed run) reopens it.
func (s *Store) StartRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, engine, source, dest, started) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET finished = NULL, outcome = NULL`,
		run.ID, run.Engine, run.Source, run.Dest, time.Now().UnixNano(),
	)
	if err != nil {
		return errors.WriteError(err, "insert run").WithContext("run_id", run.ID).Build()
	}
	return nil
}

// FinishRun stamps the end of a run with its outcome label.
func (s *Store) FinishRun(ctx context.Context, runID, outcome string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE runs SET finished = ?, outcome = ? WHERE run_id = ?",
		time.Now().UnixNano(), outcome, runID,
	)
	if err != nil {
		return errors.WriteError(err, "finish run").WithContext("run_id", runID).Build()
	}
	return nil
}

// Resumable returns the most recent run for the same engine, source and
// destination that never finished or ended failed or canceled.
func (s *Store) Resumable(ctx context.Context, engine, source, dest string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id FROM runs
		WHERE engine = ? AND source = ? AND dest = ?
		  AND (finished IS NULL OR outcome IN (?, ?))
		ORDER BY started DESC LIMIT 1`,
		engine, source, dest, resumableOutcomes[0], resumableOutcomes[1],
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.IOError(err, "query resumable run").Build()
	}
	return id, true, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Checkpointer returns the stage journal of one run.
func (s *Store) Checkpointer(runID string) models.Checkpointer {
	return &runJournal{store: s, runID: runID}
}

type runJournal struct {
	store *Store
	runID string
}

func (j *runJournal) Checkpoint(ctx context.Context, stage models.StageName, changes []models.Change, warnings []string) error {
	if changes == nil {
		changes = []models.Change{}
	}
	if warnings == nil {
		warnings = []string{}
	}
	changesJSON, err := json.Marshal(changes)
	if err != nil {
		return errors.InternalError("marshal stage changes").WithCause(err).Build()
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return errors.InternalError("marshal stage warnings").WithCause(err).Build()
	}

	j.store.mu.Lock()
	defer j.store.mu.Unlock()
	_, err = j.store.db.ExecContext(ctx, `
		INSERT INTO stages (run_id, stage, changes, warnings, completed) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, stage) DO UPDATE SET changes = excluded.changes, warnings = excluded.warnings, completed = excluded.completed`,
		j.runID, string(stage), changesJSON, warningsJSON, time.Now().UnixNano(),
	)
	if err != nil {
		return errors.WriteError(err, "insert stage checkpoint").WithContext("run_id", j.runID).WithContext("stage", string(stage)).Build()
	}
	return nil
}

func (j *runJournal) Completed(ctx context.Context, stage models.StageName) ([]models.Change, []string, bool, error) {
	j.store.mu.RLock()
	defer j.store.mu.RUnlock()

	var changesJSON, warningsJSON []byte
	err := j.store.db.QueryRowContext(ctx,
		"SELECT changes, warnings FROM stages WHERE run_id = ? AND stage = ?",
		j.runID, string(stage),
	).Scan(&changesJSON, &warningsJSON)
	if err == sql.ErrNoRows {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, errors.IOError(err, "query stage checkpoint").WithContext("run_id", j.runID).Build()
	}
	var changes []models.Change
	if err := json.Unmarshal(changesJSON, &changes); err != nil {
		return nil, nil, false, errors.ParseError(err, "decode stage changes").WithContext("stage", string(stage)).Build()
	}
	var warnings []string
	if err := json.Unmarshal(warningsJSON, &warnings); err != nil {
		return nil, nil, false, errors.ParseError(err, "decode stage warnings").WithContext("stage", string(stage)).Build()
	}
	return changes, warnings, true, nil
}
