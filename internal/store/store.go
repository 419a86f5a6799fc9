package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for recorded planning runs.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates the runs and plan_steps tables and their indexes.
// Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS runs (
  id                    TEXT PRIMARY KEY,
  created_at            TIMESTAMP NOT NULL,
  catalog_hash          TEXT NOT NULL,
  targets               TEXT NOT NULL DEFAULT '[]',
  mastery_threshold     REAL NOT NULL,
  budget                REAL,
  topics_considered     INTEGER NOT NULL DEFAULT 0,
  topics_planned        INTEGER NOT NULL DEFAULT 0,
  estimated_total_hours REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS plan_steps (
  id              INTEGER PRIMARY KEY,
  run_id          TEXT NOT NULL REFERENCES runs(id),
  ordinal         INTEGER NOT NULL,
  module_id       TEXT NOT NULL,
  topic           TEXT NOT NULL,
  estimated_hours REAL NOT NULL,
  rationale       TEXT NOT NULL DEFAULT '[]',
  UNIQUE(run_id, ordinal)
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_runs_catalog_hash ON runs(catalog_hash);
CREATE INDEX IF NOT EXISTS idx_plan_steps_run ON plan_steps(run_id);
CREATE INDEX IF NOT EXISTS idx_plan_steps_module ON plan_steps(module_id);
`

// prepareRun assigns an id and creation time to a run that lacks them and
// stamps the run id onto its steps.
func prepareRun(run *Run) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	for i := range run.Steps {
		run.Steps[i].RunID = run.ID
		run.Steps[i].Ordinal = i
	}
}

// InsertRun transactionally writes a run and its steps. An empty ID is
// replaced by a new UUID; the assigned id is returned.
func (s *Store) InsertRun(run *Run) (string, error) {
	prepareRun(run)

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("insert run: begin: %w", err)
	}
	defer tx.Rollback()

	if err := insertRunTx(tx, run); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("insert run: commit: %w", err)
	}
	return run.ID, nil
}

const runCols = `id, created_at, catalog_hash, targets, mastery_threshold, budget,
	topics_considered, topics_planned, estimated_total_hours`

func scanRun(scanner interface{ Scan(...any) error }) (*Run, error) {
	r := &Run{}
	var targets string
	var budget sql.NullFloat64
	err := scanner.Scan(
		&r.ID, &r.CreatedAt, &r.CatalogHash, &targets, &r.MasteryThreshold, &budget,
		&r.TopicsConsidered, &r.TopicsPlanned, &r.EstimatedTotalHours,
	)
	if err != nil {
		return nil, err
	}
	r.Targets = unmarshalStrings(targets)
	if budget.Valid {
		b := budget.Float64
		r.Budget = &b
	}
	return r, nil
}

// RunByID returns the run with the given id, without its steps.
// Returns nil, nil if no such run exists.
func (s *Store) RunByID(id string) (*Run, error) {
	r, err := scanRun(s.db.QueryRow("SELECT "+runCols+" FROM runs WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("run by id: %w", err)
	}
	return r, nil
}

// ListRuns returns a page of runs, newest first, plus the total number of
// runs stored.
func (s *Store) ListRuns(offset, limit int) ([]*Run, int, error) {
	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("list runs: count: %w", err)
	}

	rows, err := s.db.Query(
		"SELECT "+runCols+" FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list runs: scan: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list runs: rows: %w", err)
	}
	return runs, total, nil
}

// RunsByCatalog returns every run recorded against a catalog fingerprint,
// newest first.
func (s *Store) RunsByCatalog(hash string) ([]*Run, error) {
	rows, err := s.db.Query(
		"SELECT "+runCols+" FROM runs WHERE catalog_hash = ? ORDER BY created_at DESC, rowid DESC",
		hash,
	)
	if err != nil {
		return nil, fmt.Errorf("runs by catalog: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("runs by catalog: scan: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// StepsByRun returns the steps of a run in plan order.
func (s *Store) StepsByRun(runID string) ([]*Step, error) {
	rows, err := s.db.Query(
		`SELECT run_id, ordinal, module_id, topic, estimated_hours, rationale
		 FROM plan_steps WHERE run_id = ? ORDER BY ordinal`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("steps by run: %w", err)
	}
	defer rows.Close()

	var steps []*Step
	for rows.Next() {
		st := &Step{}
		var rationale string
		if err := rows.Scan(&st.RunID, &st.Ordinal, &st.ModuleID, &st.Topic,
			&st.EstimatedHours, &rationale); err != nil {
			return nil, fmt.Errorf("steps by run: scan: %w", err)
		}
		st.Rationale = unmarshalStrings(rationale)
		steps = append(steps, st)
	}
	return steps, rows.Err()
}

// DeleteRun transactionally removes a run and its steps. Deleting an
// unknown id is not an error; the returned bool reports whether a run was
// removed.
func (s *Store) DeleteRun(id string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("delete run: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM plan_steps WHERE run_id = ?", id); err != nil {
		return false, fmt.Errorf("delete run: steps: %w", err)
	}
	res, err := tx.Exec("DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete run: rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("delete run: commit: %w", err)
	}
	return n > 0, nil
}
