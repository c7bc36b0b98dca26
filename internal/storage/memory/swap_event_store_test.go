package memory

import (
	"context"
	"errors"
	"testing"

	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/storage"
)

func TestSwapEventStore_GetByPoolTimeRange(t *testing.T) {
	store := NewSwapEventStore()
	ctx := context.Background()

	events := []*domain.SwapEvent{
		{PoolID: "p1", TxHash: "0xb", LogIndex: 0, TimestampMs: 2000, Tick: 10, Direction: domain.DirectionToken0In, AmountIn: 1, VirtualLiquidity: 1},
		{PoolID: "p1", TxHash: "0xa", LogIndex: 1, TimestampMs: 2000, Tick: 11, Direction: domain.DirectionToken1In, AmountIn: 2, VirtualLiquidity: 1},
		{PoolID: "p1", TxHash: "0xa", LogIndex: 0, TimestampMs: 2000, Tick: 12, Direction: domain.DirectionToken0In, AmountIn: 3, VirtualLiquidity: 1},
		{PoolID: "p1", TxHash: "0xc", LogIndex: 0, TimestampMs: 1000, Tick: 13, Direction: domain.DirectionToken0In, AmountIn: 4, VirtualLiquidity: 1},
		{PoolID: "p1", TxHash: "0xd", LogIndex: 0, TimestampMs: 3000, Tick: 14, Direction: domain.DirectionToken0In, AmountIn: 5, VirtualLiquidity: 1},
		{PoolID: "p2", TxHash: "0xe", LogIndex: 0, TimestampMs: 2000, Tick: 15, Direction: domain.DirectionToken0In, AmountIn: 6, VirtualLiquidity: 1},
	}
	if err := store.InsertBulk(ctx, events); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByPoolTimeRange(ctx, "p1", 1000, 2000)
	if err != nil {
		t.Fatalf("GetByPoolTimeRange failed: %v", err)
	}

	want := []int{13, 12, 11, 10}
	if len(result) != len(want) {
		t.Fatalf("Expected %d events, got %d", len(want), len(result))
	}
	for i, tick := range want {
		if result[i].Tick != tick {
			t.Errorf("position %d: expected tick %d, got %d", i, tick, result[i].Tick)
		}
	}
}

func TestSwapEventStore_DuplicateKey(t *testing.T) {
	store := NewSwapEventStore()
	ctx := context.Background()

	e := &domain.SwapEvent{PoolID: "p1", TxHash: "0xa", LogIndex: 0, TimestampMs: 1000}
	if err := store.InsertBulk(ctx, []*domain.SwapEvent{e}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, []*domain.SwapEvent{
		{PoolID: "p1", TxHash: "0xb", LogIndex: 0, TimestampMs: 1000},
		e,
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Batch failed atomically
	result, _ := store.GetByPoolTimeRange(ctx, "p1", 0, 5000)
	if len(result) != 1 {
		t.Errorf("Expected 1 event after failed batch, got %d", len(result))
	}
}

func TestSwapEventStore_IntraBatchDuplicate(t *testing.T) {
	store := NewSwapEventStore()

	e := &domain.SwapEvent{PoolID: "p1", TxHash: "0xa", LogIndex: 0}
	err := store.InsertBulk(context.Background(), []*domain.SwapEvent{e, e})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestSwapEventStore_InvalidInput(t *testing.T) {
	store := NewSwapEventStore()

	err := store.InsertBulk(context.Background(), []*domain.SwapEvent{nil})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestSwapEventStore_ReturnsCopies(t *testing.T) {
	store := NewSwapEventStore()
	ctx := context.Background()

	e := &domain.SwapEvent{PoolID: "p1", TxHash: "0xa", TimestampMs: 1000, AmountIn: 1}
	if err := store.InsertBulk(ctx, []*domain.SwapEvent{e}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	e.AmountIn = 99

	result, _ := store.GetByPoolTimeRange(ctx, "p1", 0, 2000)
	result[0].AmountIn = 42

	again, _ := store.GetByPoolTimeRange(ctx, "p1", 0, 2000)
	if again[0].AmountIn != 1 {
		t.Errorf("Expected stored amount 1, got %v", again[0].AmountIn)
	}
}
