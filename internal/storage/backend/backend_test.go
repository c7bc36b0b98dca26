package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clmm-backtest/internal/config"
	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/storage/memory"
	"clmm-backtest/internal/storage/sqlite"
)

func TestOpen_MemoryDefaults(t *testing.T) {
	s, err := Open(context.Background(), config.StorageConfig{
		Swaps:  config.BackendMemory,
		Prices: config.BackendMemory,
		Steps:  config.BackendNone,
		Runs:   config.BackendNone,
	})
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &memory.SwapEventStore{}, s.Swaps)
	assert.IsType(t, &memory.PriceTimeseriesStore{}, s.Prices)
	assert.Nil(t, s.Steps)
	assert.Nil(t, s.Runs)
}

func TestOpen_SQLiteRuns(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, config.StorageConfig{
		Swaps:      config.BackendMemory,
		Prices:     config.BackendMemory,
		Steps:      config.BackendMemory,
		Runs:       config.BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "runs.db"),
	})
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &sqlite.RunStore{}, s.Runs)
	assert.IsType(t, &memory.StepRecordStore{}, s.Steps)

	require.NoError(t, s.Runs.Insert(ctx, &domain.RunRecord{RunID: "r1", PoolID: "p"}))
	got, err := s.Runs.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "p", got.PoolID)
}

func TestOpen_PostgresUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network test in short mode")
	}
	_, err := Open(context.Background(), config.StorageConfig{
		Swaps:       config.BackendPostgres,
		Prices:      config.BackendMemory,
		PostgresDSN: "postgres://nobody@127.0.0.1:1/none?connect_timeout=1",
	})
	assert.Error(t, err)
}
