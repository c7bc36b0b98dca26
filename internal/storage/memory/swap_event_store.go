package memory

import (
	"context"
	"sort"
	"sync"

	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/storage"
)

// swapEventKey is the composite key for swap event deduplication.
type swapEventKey struct {
	PoolID   string
	TxHash   string
	LogIndex int
}

func keyOf(e *domain.SwapEvent) swapEventKey {
	return swapEventKey{PoolID: e.PoolID, TxHash: e.TxHash, LogIndex: e.LogIndex}
}

// SwapEventStore is an in-memory implementation of storage.SwapEventStore.
type SwapEventStore struct {
	mu   sync.RWMutex
	data []*domain.SwapEvent
	keys map[swapEventKey]bool
}

// NewSwapEventStore creates a new in-memory swap event store.
func NewSwapEventStore() *SwapEventStore {
	return &SwapEventStore{
		data: make([]*domain.SwapEvent, 0),
		keys: make(map[swapEventKey]bool),
	}
}

// InsertBulk adds multiple swap events atomically. Fails entire batch on any duplicate.
func (s *SwapEventStore) InsertBulk(_ context.Context, events []*domain.SwapEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check for duplicates (both existing and intra-batch)
	batchKeys := make(map[swapEventKey]bool, len(events))
	for _, e := range events {
		if e == nil || e.PoolID == "" {
			return storage.ErrInvalidInput
		}
		key := keyOf(e)
		if s.keys[key] || batchKeys[key] {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = true
	}

	for _, e := range events {
		eventCopy := *e
		s.data = append(s.data, &eventCopy)
		s.keys[keyOf(e)] = true
	}

	return nil
}

// GetByPoolTimeRange retrieves swap events for a pool within [start, end] (inclusive).
func (s *SwapEventStore) GetByPoolTimeRange(_ context.Context, poolID string, start, end int64) ([]*domain.SwapEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SwapEvent
	for _, e := range s.data {
		if e.PoolID == poolID && e.TimestampMs >= start && e.TimestampMs <= end {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sortSwapEvents(result)

	return result, nil
}

// sortSwapEvents sorts events by (timestamp, tx_hash, log_index).
func sortSwapEvents(events []*domain.SwapEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].TimestampMs != events[j].TimestampMs {
			return events[i].TimestampMs < events[j].TimestampMs
		}
		if events[i].TxHash != events[j].TxHash {
			return events[i].TxHash < events[j].TxHash
		}
		return events[i].LogIndex < events[j].LogIndex
	})
}

// Verify interface compliance at compile time.
var _ storage.SwapEventStore = (*SwapEventStore)(nil)
