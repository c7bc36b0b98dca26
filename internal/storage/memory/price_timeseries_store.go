package memory

import (
	"context"
	"sort"
	"sync"

	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/storage"
)

type priceKey struct {
	PoolID      string
	TimestampMs int64
}

// PriceTimeseriesStore is an in-memory implementation of storage.PriceTimeseriesStore.
type PriceTimeseriesStore struct {
	mu   sync.RWMutex
	data map[priceKey]*domain.PricePoint
}

// NewPriceTimeseriesStore creates a new in-memory price timeseries store.
func NewPriceTimeseriesStore() *PriceTimeseriesStore {
	return &PriceTimeseriesStore{
		data: make(map[priceKey]*domain.PricePoint),
	}
}

// InsertBulk adds multiple points. Fails entire batch on duplicate.
func (s *PriceTimeseriesStore) InsertBulk(_ context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[priceKey]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.PoolID == "" {
			return storage.ErrInvalidInput
		}
		key := priceKey{p.PoolID, p.TimestampMs}
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, p := range points {
		pointCopy := *p
		s.data[priceKey{p.PoolID, p.TimestampMs}] = &pointCopy
	}

	return nil
}

// GetByPoolID retrieves all points for a pool, ordered by timestamp ASC.
func (s *PriceTimeseriesStore) GetByPoolID(_ context.Context, poolID string) ([]*domain.PricePoint, error) {
	return s.collect(func(p *domain.PricePoint) bool { return p.PoolID == poolID }), nil
}

// GetByTimeRange retrieves points for a pool within [start, end] (inclusive).
func (s *PriceTimeseriesStore) GetByTimeRange(_ context.Context, poolID string, start, end int64) ([]*domain.PricePoint, error) {
	return s.collect(func(p *domain.PricePoint) bool {
		return p.PoolID == poolID && p.TimestampMs >= start && p.TimestampMs <= end
	}), nil
}

func (s *PriceTimeseriesStore) collect(match func(*domain.PricePoint) bool) []*domain.PricePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PricePoint
	for _, p := range s.data {
		if match(p) {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result
}

var _ storage.PriceTimeseriesStore = (*PriceTimeseriesStore)(nil)
