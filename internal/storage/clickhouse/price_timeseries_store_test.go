package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/storage"
)

func TestPriceTimeseriesStore_InsertAndQuery(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceTimeseriesStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, nil))

	points := []*domain.PricePoint{
		{PoolID: "pool-1", TimestampMs: 3000, Price: 1.3},
		{PoolID: "pool-1", TimestampMs: 1000, Price: 1.1},
		{PoolID: "pool-1", TimestampMs: 2000, Price: 1.2},
		{PoolID: "pool-2", TimestampMs: 1000, Price: 9.9},
	}
	require.NoError(t, store.InsertBulk(ctx, points))

	all, err := store.GetByPoolID(ctx, "pool-1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1000), all[0].TimestampMs)
	assert.Equal(t, 1.1, all[0].Price)
	assert.Equal(t, int64(3000), all[2].TimestampMs)

	window, err := store.GetByTimeRange(ctx, "pool-1", 2000, 3000)
	require.NoError(t, err)
	assert.Len(t, window, 2)
}

func TestPriceTimeseriesStore_Duplicates(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceTimeseriesStore(conn)
	ctx := context.Background()

	p := &domain.PricePoint{PoolID: "pool-1", TimestampMs: 1000, Price: 1}
	require.NoError(t, store.InsertBulk(ctx, []*domain.PricePoint{p}))

	err := store.InsertBulk(ctx, []*domain.PricePoint{p})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	q := &domain.PricePoint{PoolID: "pool-1", TimestampMs: 2000, Price: 1}
	err = store.InsertBulk(ctx, []*domain.PricePoint{q, q})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}
