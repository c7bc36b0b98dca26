package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/storage"
)

// RunStore implements storage.RunStore on SQLite.
type RunStore struct {
	db *DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

var _ storage.RunStore = (*RunStore)(nil)

var (
	runColumns = strings.Join(storage.RunRecordColumns, ", ")
	runInsert  = "INSERT INTO runs (" + runColumns + ") VALUES (?" +
		strings.Repeat(", ?", len(storage.RunRecordColumns)-1) + ")"
)

// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}
	if _, err := s.db.ExecContext(ctx, runInsert, storage.RunRecordValues(r)...); err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	var r domain.RunRecord
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE run_id = ?", runID)
	if err := row.Scan(storage.RunRecordTargets(&r)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return &r, nil
}

// List retrieves runs for a pool (all pools when poolID is empty),
// ordered by created_at DESC, run_id ASC.
func (s *RunStore) List(ctx context.Context, poolID string) ([]*domain.RunRecord, error) {
	query := "SELECT " + runColumns + ` FROM runs
		WHERE (? = '' OR pool_id = ?)
		ORDER BY created_at_ms DESC, run_id ASC`

	rows, err := s.db.QueryContext(ctx, query, poolID, poolID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.RunRecord
	for rows.Next() {
		var r domain.RunRecord
		if err := rows.Scan(storage.RunRecordTargets(&r)...); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}
