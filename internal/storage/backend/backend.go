// Package backend opens the configured store implementations.
package backend

import (
	"context"
	"fmt"

	"clmm-backtest/internal/config"
	"clmm-backtest/internal/storage"
	chstore "clmm-backtest/internal/storage/clickhouse"
	"clmm-backtest/internal/storage/memory"
	"clmm-backtest/internal/storage/migrations"
	pgstore "clmm-backtest/internal/storage/postgres"
	"clmm-backtest/internal/storage/sqlite"
)

// Stores holds one implementation per store. Steps and Runs are nil for backend "none".
type Stores struct {
	Swaps  storage.SwapEventStore
	Prices storage.PriceTimeseriesStore
	Steps  storage.StepRecordStore
	Runs   storage.RunStore

	closers []func()
}

// Close releases every connection opened by Open.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Open connects the backends named in cfg and applies embedded migrations.
// Connections are shared between stores on the same backend.
func Open(ctx context.Context, cfg config.StorageConfig) (*Stores, error) {
	s := &Stores{}
	var (
		pg   *pgstore.Pool
		ch   *chstore.Conn
		lite *sqlite.DB
	)

	postgres := func() (*pgstore.Pool, error) {
		if pg != nil {
			return pg, nil
		}
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		pg = pool
		return pg, nil
	}
	clickhouse := func() (*chstore.Conn, error) {
		if ch != nil {
			return ch, nil
		}
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		s.closers = append(s.closers, func() { _ = conn.Close() })
		ch = conn
		return ch, nil
	}
	sqliteDB := func() (*sqlite.DB, error) {
		if lite != nil {
			return lite, nil
		}
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = db.Close() })
		lite = db
		return lite, nil
	}

	fail := func(store string, err error) (*Stores, error) {
		s.Close()
		return nil, fmt.Errorf("open %s store: %w", store, err)
	}

	switch cfg.Swaps {
	case config.BackendPostgres:
		pool, err := postgres()
		if err != nil {
			return fail("swap", err)
		}
		s.Swaps = pgstore.NewSwapEventStore(pool)
	default:
		s.Swaps = memory.NewSwapEventStore()
	}

	switch cfg.Prices {
	case config.BackendClickHouse:
		conn, err := clickhouse()
		if err != nil {
			return fail("price", err)
		}
		s.Prices = chstore.NewPriceTimeseriesStore(conn)
	default:
		s.Prices = memory.NewPriceTimeseriesStore()
	}

	switch cfg.Steps {
	case config.BackendMemory:
		s.Steps = memory.NewStepRecordStore()
	case config.BackendPostgres:
		pool, err := postgres()
		if err != nil {
			return fail("step record", err)
		}
		s.Steps = pgstore.NewStepRecordStore(pool)
	case config.BackendClickHouse:
		conn, err := clickhouse()
		if err != nil {
			return fail("step record", err)
		}
		s.Steps = chstore.NewStepRecordStore(conn)
	}

	switch cfg.Runs {
	case config.BackendMemory:
		s.Runs = memory.NewRunStore()
	case config.BackendPostgres:
		pool, err := postgres()
		if err != nil {
			return fail("run", err)
		}
		s.Runs = pgstore.NewRunStore(pool)
	case config.BackendSQLite:
		db, err := sqliteDB()
		if err != nil {
			return fail("run", err)
		}
		s.Runs = sqlite.NewRunStore(db)
	}

	return s, nil
}
