package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

var runSelect = "SELECT " + strings.Join(storage.RunRecordColumns, ", ") + " FROM runs"

// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertQuery("runs", storage.RunRecordColumns), storage.RunRecordValues(r)...)
	return storeError("insert run", err)
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	var r domain.RunRecord
	err := s.pool.QueryRow(ctx, runSelect+" WHERE run_id = $1", runID).Scan(storage.RunRecordTargets(&r)...)
	if err != nil {
		return nil, storeError("get run by id", err)
	}
	return &r, nil
}

// List retrieves runs for a pool (all pools when poolID is empty),
// ordered by created_at DESC, run_id ASC.
func (s *RunStore) List(ctx context.Context, poolID string) ([]*domain.RunRecord, error) {
	query := runSelect + `
		WHERE ($1 = '' OR pool_id = $1)
		ORDER BY created_at_ms DESC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, poolID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

func scanRuns(rows pgx.Rows) ([]*domain.RunRecord, error) {
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
