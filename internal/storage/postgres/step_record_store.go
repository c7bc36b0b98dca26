package postgres

import (
	"context"
	"fmt"
	"strings"

	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/storage"
)

// StepRecordStore implements storage.StepRecordStore using PostgreSQL.
type StepRecordStore struct {
	pool *Pool
}

// NewStepRecordStore creates a new StepRecordStore.
func NewStepRecordStore(pool *Pool) *StepRecordStore {
	return &StepRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.StepRecordStore = (*StepRecordStore)(nil)

// InsertBulk adds the records of one run atomically. Fails entire batch on any duplicate.
func (s *StepRecordStore) InsertBulk(ctx context.Context, records []*domain.StepRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := insertQuery("step_records", storage.StepRecordColumns)
	for _, r := range records {
		if r == nil || r.RunID == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, query, storage.StepRecordValues(r)...); err != nil {
			return storeError("insert step record in bulk", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRunID retrieves all records for a run, ordered by timestamp ASC.
func (s *StepRecordStore) GetByRunID(ctx context.Context, runID string) ([]*domain.StepRecord, error) {
	query := "SELECT " + strings.Join(storage.StepRecordColumns, ", ") + `
		FROM step_records
		WHERE run_id = $1
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get step records by run id: %w", err)
	}
	defer rows.Close()

	var records []*domain.StepRecord
	for rows.Next() {
		var r domain.StepRecord
		if err := rows.Scan(storage.StepRecordTargets(&r)...); err != nil {
			return nil, fmt.Errorf("scan step record row: %w", err)
		}
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate step record rows: %w", err)
	}

	return records, nil
}
