package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/storage"
)

// SwapEventStore implements storage.SwapEventStore using PostgreSQL.
type SwapEventStore struct {
	pool *Pool
}

// NewSwapEventStore creates a new SwapEventStore.
func NewSwapEventStore(pool *Pool) *SwapEventStore {
	return &SwapEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SwapEventStore = (*SwapEventStore)(nil)

// InsertBulk adds multiple swap events atomically. Fails entire batch on any duplicate.
func (s *SwapEventStore) InsertBulk(ctx context.Context, events []*domain.SwapEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO swap_events (
			pool_id, tx_hash, log_index, timestamp_ms, tick, direction, amount_in, virtual_liquidity
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, e := range events {
		if e == nil {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			e.PoolID,
			e.TxHash,
			e.LogIndex,
			e.TimestampMs,
			e.Tick,
			string(e.Direction),
			e.AmountIn,
			e.VirtualLiquidity,
		)
		if err != nil {
			return storeError("insert swap event in bulk", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByPoolTimeRange retrieves swap events for a pool within [start, end] (inclusive).
func (s *SwapEventStore) GetByPoolTimeRange(ctx context.Context, poolID string, start, end int64) ([]*domain.SwapEvent, error) {
	query := `
		SELECT pool_id, tx_hash, log_index, timestamp_ms, tick, direction, amount_in, virtual_liquidity
		FROM swap_events
		WHERE pool_id = $1 AND timestamp_ms >= $2 AND timestamp_ms <= $3
		ORDER BY timestamp_ms ASC, tx_hash ASC, log_index ASC
	`

	rows, err := s.pool.Query(ctx, query, poolID, start, end)
	if err != nil {
		return nil, fmt.Errorf("get swap events by pool/time range: %w", err)
	}
	defer rows.Close()

	return scanSwapEvents(rows)
}

// scanSwapEvents scans multiple rows into a slice of SwapEvent.
func scanSwapEvents(rows pgx.Rows) ([]*domain.SwapEvent, error) {
	var events []*domain.SwapEvent

	for rows.Next() {
		var e domain.SwapEvent
		var direction string

		err := rows.Scan(
			&e.PoolID,
			&e.TxHash,
			&e.LogIndex,
			&e.TimestampMs,
			&e.Tick,
			&direction,
			&e.AmountIn,
			&e.VirtualLiquidity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan swap event row: %w", err)
		}
		e.Direction = domain.Direction(direction)

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap event rows: %w", err)
	}

	return events, nil
}
