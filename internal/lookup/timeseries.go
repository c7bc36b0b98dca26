package lookup

import (
	"errors"
	"sort"

	"clmm-backtest/internal/domain"
)

// Errors returned by lookup functions.
var (
	ErrNoPriceData = errors.New("no price data available")
)

// PriceAt returns price at or before target timestamp.
// If no price before target, returns first available price.
// Returns ErrNoPriceData if slice is empty.
func PriceAt(target int64, prices []domain.PricePoint) (float64, error) {
	if len(prices) == 0 {
		return 0, ErrNoPriceData
	}

	i := sort.Search(len(prices), func(i int) bool { return prices[i].TimestampMs > target })
	if i == 0 {
		return prices[0].Price, nil
	}
	return prices[i-1].Price, nil
}

// ReturnsBefore returns the simple returns observed strictly before target.
// returns must be sorted by timestamp.
func ReturnsBefore(target int64, returns []domain.ReturnPoint) []float64 {
	i := sort.Search(len(returns), func(i int) bool { return returns[i].TimestampMs >= target })
	return domain.Returns(returns[:i])
}

// SwapWindow returns the swaps with from < timestamp <= to.
// swaps must be sorted by timestamp; the result aliases the input.
func SwapWindow(swaps []domain.SwapEvent, from, to int64) []domain.SwapEvent {
	lo := sort.Search(len(swaps), func(i int) bool { return swaps[i].TimestampMs > from })
	hi := sort.Search(len(swaps), func(i int) bool { return swaps[i].TimestampMs > to })
	if lo >= hi {
		return nil
	}
	return swaps[lo:hi]
}
