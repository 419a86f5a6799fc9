package store

import (
	"database/sql"
	"fmt"
)

// CommitBatch inserts all buffered runs from a BatchedStore into SQLite
// within a single transaction, in buffer order. The buffer is cleared on
// success.
func (s *Store) CommitBatch(batch *BatchedStore) error {
	batch.mu.Lock()
	defer batch.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	for i := range batch.Runs {
		if err := insertRunTx(tx, &batch.Runs[i]); err != nil {
			return fmt.Errorf("commit batch: run %s: %w", batch.Runs[i].ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	batch.Runs = nil
	return nil
}

// --- Transaction-scoped insert helpers ---

// insertRunTx writes a prepared run and its steps.
func insertRunTx(tx *sql.Tx, run *Run) error {
	_, err := tx.Exec(
		`INSERT INTO runs (`+runCols+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, run.CatalogHash, marshalStrings(run.Targets),
		run.MasteryThreshold, run.Budget,
		run.TopicsConsidered, run.TopicsPlanned, run.EstimatedTotalHours,
	)
	if err != nil {
		return err
	}
	for i := range run.Steps {
		if err := insertStepTx(tx, &run.Steps[i]); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func insertStepTx(tx *sql.Tx, st *Step) error {
	_, err := tx.Exec(
		`INSERT INTO plan_steps (run_id, ordinal, module_id, topic, estimated_hours, rationale)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		st.RunID, st.Ordinal, st.ModuleID, st.Topic, st.EstimatedHours, marshalStrings(st.Rationale),
	)
	return err
}
