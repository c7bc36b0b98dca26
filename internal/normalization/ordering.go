package normalization

import (
	"sort"

	"clmm-backtest/internal/domain"
)

// SortSwaps orders swaps by (timestamp_ms ASC, tx_hash ASC, log_index ASC).
// This is the order stores return them in and the order fees are attributed in.
func SortSwaps(swaps []*domain.SwapEvent) {
	sort.SliceStable(swaps, func(i, j int) bool {
		return compareSwaps(swaps[i], swaps[j]) < 0
	})
}

// SortPrices orders price points by timestamp.
func SortPrices(points []*domain.PricePoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].TimestampMs < points[j].TimestampMs
	})
}

// compareSwaps returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
func compareSwaps(a, b *domain.SwapEvent) int {
	if a.TimestampMs != b.TimestampMs {
		if a.TimestampMs < b.TimestampMs {
			return -1
		}
		return 1
	}
	if a.TxHash != b.TxHash {
		if a.TxHash < b.TxHash {
			return -1
		}
		return 1
	}
	if a.LogIndex != b.LogIndex {
		if a.LogIndex < b.LogIndex {
			return -1
		}
		return 1
	}
	return 0
}
