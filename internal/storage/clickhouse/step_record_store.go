package clickhouse

import (
	"context"
	"fmt"
	"strings"

	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/storage"
)

// StepRecordStore implements storage.StepRecordStore using ClickHouse.
type StepRecordStore struct {
	conn *Conn
}

// NewStepRecordStore creates a new StepRecordStore.
func NewStepRecordStore(conn *Conn) *StepRecordStore {
	return &StepRecordStore{conn: conn}
}

// Compile-time interface check.
var _ storage.StepRecordStore = (*StepRecordStore)(nil)

var stepColumns = strings.Join(storage.StepRecordColumns, ", ")

// InsertBulk adds the records of one or more runs.
// Fails entire batch if any run in it already has records.
func (s *StepRecordStore) InsertBulk(ctx context.Context, records []*domain.StepRecord) error {
	if len(records) == 0 {
		return nil
	}

	type key struct {
		runID       string
		timestampMs int64
	}
	seen := make(map[key]struct{}, len(records))
	runs := make(map[string]struct{})
	for _, r := range records {
		if r == nil || r.RunID == "" {
			return storage.ErrInvalidInput
		}
		k := key{r.RunID, r.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		runs[r.RunID] = struct{}{}
	}

	// Runs are written once, so one lookup per run id is enough.
	for runID := range runs {
		var count uint64
		if err := s.conn.QueryRow(ctx, `SELECT count(*) FROM step_records WHERE run_id = ?`, runID).Scan(&count); err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if count > 0 {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO step_records ("+stepColumns+")")
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		if err := batch.Append(storage.StepRecordValues(r)...); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves all records for a run, ordered by timestamp ASC.
func (s *StepRecordStore) GetByRunID(ctx context.Context, runID string) ([]*domain.StepRecord, error) {
	query := "SELECT " + stepColumns + " FROM step_records WHERE run_id = ? ORDER BY timestamp_ms ASC"

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
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
