package normalization

import (
	"context"
	"fmt"
	"io"

	"clmm-backtest/internal/storage"
)

// Loader writes parsed CSV input into the raw-data stores.
type Loader struct {
	swapStore  storage.SwapEventStore
	priceStore storage.PriceTimeseriesStore
}

// NewLoader creates a loader. Either store may be nil if that input is never loaded.
func NewLoader(swapStore storage.SwapEventStore, priceStore storage.PriceTimeseriesStore) *Loader {
	return &Loader{
		swapStore:  swapStore,
		priceStore: priceStore,
	}
}

// IngestResult counts what was written.
type IngestResult struct {
	Prices int
	Swaps  int
}

// Ingest loads one pool's price and swap files.
// Steps:
//  1. Parse prices (sorted by timestamp) -> price store
//  2. Parse swaps (validated, canonical order) -> swap store
//
// A nil reader skips that input. Stores reject the whole batch on a duplicate key.
func (l *Loader) Ingest(ctx context.Context, poolID string, prices, swaps io.Reader) (IngestResult, error) {
	var res IngestResult

	if prices != nil {
		if l.priceStore == nil {
			return res, fmt.Errorf("price store not configured")
		}
		points, err := ParsePriceCSV(prices, poolID)
		if err != nil {
			return res, fmt.Errorf("parse prices: %w", err)
		}
		if len(points) > 0 {
			if err := l.priceStore.InsertBulk(ctx, points); err != nil {
				return res, fmt.Errorf("store prices: %w", err)
			}
		}
		res.Prices = len(points)
	}

	if swaps != nil {
		if l.swapStore == nil {
			return res, fmt.Errorf("swap store not configured")
		}
		events, err := ParseSwapCSV(swaps, poolID)
		if err != nil {
			return res, fmt.Errorf("parse swaps: %w", err)
		}
		if len(events) > 0 {
			if err := l.swapStore.InsertBulk(ctx, events); err != nil {
				return res, fmt.Errorf("store swaps: %w", err)
			}
		}
		res.Swaps = len(events)
	}

	return res, nil
}
