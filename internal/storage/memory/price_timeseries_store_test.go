package memory

import (
	"context"
	"errors"
	"testing"

	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/storage"
)

func TestPriceTimeseriesStore_InsertBulkAndGet(t *testing.T) {
	store := NewPriceTimeseriesStore()
	ctx := context.Background()

	points := []*domain.PricePoint{
		{PoolID: "p1", TimestampMs: 2000, Price: 1.1},
		{PoolID: "p1", TimestampMs: 1000, Price: 1.0},
		{PoolID: "p2", TimestampMs: 1000, Price: 7.0},
	}

	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByPoolID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByPoolID failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(result))
	}
	if result[0].TimestampMs != 1000 || result[1].TimestampMs != 2000 {
		t.Errorf("Expected ascending timestamps, got %d, %d", result[0].TimestampMs, result[1].TimestampMs)
	}
}

func TestPriceTimeseriesStore_GetByTimeRange(t *testing.T) {
	store := NewPriceTimeseriesStore()
	ctx := context.Background()

	var points []*domain.PricePoint
	for i := int64(0); i < 5; i++ {
		points = append(points, &domain.PricePoint{PoolID: "p1", TimestampMs: i * 1000, Price: float64(i + 1)})
	}
	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByTimeRange(ctx, "p1", 1000, 3000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(result) != 3 {
		t.Errorf("Expected 3 points (inclusive range), got %d", len(result))
	}
}

func TestPriceTimeseriesStore_DuplicateKey(t *testing.T) {
	store := NewPriceTimeseriesStore()
	ctx := context.Background()

	points := []*domain.PricePoint{{PoolID: "p1", TimestampMs: 1000, Price: 1.0}}
	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, points)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestPriceTimeseriesStore_InvalidInput(t *testing.T) {
	store := NewPriceTimeseriesStore()

	err := store.InsertBulk(context.Background(), []*domain.PricePoint{{TimestampMs: 1000, Price: 1}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for missing pool id, got %v", err)
	}
}
