package storage

import (
	"context"

	"clmm-backtest/internal/domain"
)

// SwapEventStore provides access to swap_events storage.
type SwapEventStore interface {
	// InsertBulk adds multiple swap events atomically.
	// Fails entire batch on duplicate (pool_id, tx_hash, log_index).
	InsertBulk(ctx context.Context, events []*domain.SwapEvent) error

	// GetByPoolTimeRange retrieves events for a pool within [start, end] (inclusive),
	// ordered by timestamp ASC, tx_hash ASC, log_index ASC.
	GetByPoolTimeRange(ctx context.Context, poolID string, start, end int64) ([]*domain.SwapEvent, error)
}

// PriceTimeseriesStore provides access to price_timeseries storage.
type PriceTimeseriesStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate (pool_id, timestamp_ms).
	InsertBulk(ctx context.Context, points []*domain.PricePoint) error

	// GetByPoolID retrieves all points for a pool, ordered by timestamp ASC.
	GetByPoolID(ctx context.Context, poolID string) ([]*domain.PricePoint, error)

	// GetByTimeRange retrieves points for a pool within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, poolID string, start, end int64) ([]*domain.PricePoint, error)
}

// StepRecordStore provides access to step_records storage.
type StepRecordStore interface {
	// InsertBulk adds the records of one run. Fails entire batch on duplicate (run_id, timestamp_ms).
	InsertBulk(ctx context.Context, records []*domain.StepRecord) error

	// GetByRunID retrieves all records for a run, ordered by timestamp ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.StepRecord, error)
}

// RunStore provides access to runs storage.
type RunStore interface {
	// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.RunRecord) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunRecord, error)

	// List retrieves runs for a pool (all pools when poolID is empty),
	// ordered by created_at DESC, run_id ASC.
	List(ctx context.Context, poolID string) ([]*domain.RunRecord, error)
}
