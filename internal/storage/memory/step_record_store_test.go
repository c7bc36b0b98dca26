package memory

import (
	"context"
	"errors"
	"testing"

	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/storage"
)

func TestStepRecordStore_InsertBulkAndGet(t *testing.T) {
	store := NewStepRecordStore()
	ctx := context.Background()

	records := []*domain.StepRecord{
		{RunID: "r1", TimestampMs: 2000, Price: 1.1},
		{RunID: "r1", TimestampMs: 1000, Price: 1.0, ResetPoint: true},
		{RunID: "r2", TimestampMs: 1000, Price: 9.0},
	}
	if err := store.InsertBulk(ctx, records); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRunID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(got))
	}
	if got[0].TimestampMs != 1000 || !got[0].ResetPoint {
		t.Errorf("Expected first record at 1000 flagged as reset, got %+v", got[0])
	}

	empty, err := store.GetByRunID(ctx, "missing")
	if err != nil || len(empty) != 0 {
		t.Errorf("Expected no records for unknown run, got %d (%v)", len(empty), err)
	}
}

func TestStepRecordStore_DuplicateKey(t *testing.T) {
	store := NewStepRecordStore()
	ctx := context.Background()

	r := &domain.StepRecord{RunID: "r1", TimestampMs: 1000}
	if err := store.InsertBulk(ctx, []*domain.StepRecord{r}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.InsertBulk(ctx, []*domain.StepRecord{r}); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}
