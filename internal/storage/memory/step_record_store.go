package memory

import (
	"context"
	"sort"
	"sync"

	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/storage"
)

type stepKey struct {
	RunID       string
	TimestampMs int64
}

// StepRecordStore is an in-memory implementation of storage.StepRecordStore.
type StepRecordStore struct {
	mu    sync.RWMutex
	byRun map[string][]*domain.StepRecord
	keys  map[stepKey]bool
}

// NewStepRecordStore creates a new in-memory step record store.
func NewStepRecordStore() *StepRecordStore {
	return &StepRecordStore{
		byRun: make(map[string][]*domain.StepRecord),
		keys:  make(map[stepKey]bool),
	}
}

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *StepRecordStore) InsertBulk(_ context.Context, records []*domain.StepRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[stepKey]bool, len(records))
	for _, r := range records {
		if r == nil || r.RunID == "" {
			return storage.ErrInvalidInput
		}
		key := stepKey{r.RunID, r.TimestampMs}
		if s.keys[key] || batchKeys[key] {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = true
	}

	for _, r := range records {
		recordCopy := *r
		s.byRun[r.RunID] = append(s.byRun[r.RunID], &recordCopy)
		s.keys[stepKey{r.RunID, r.TimestampMs}] = true
	}

	return nil
}

// GetByRunID retrieves all records for a run, ordered by timestamp ASC.
func (s *StepRecordStore) GetByRunID(_ context.Context, runID string) ([]*domain.StepRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.byRun[runID]
	result := make([]*domain.StepRecord, 0, len(stored))
	for _, r := range stored {
		recordCopy := *r
		result = append(result, &recordCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

var _ storage.StepRecordStore = (*StepRecordStore)(nil)
