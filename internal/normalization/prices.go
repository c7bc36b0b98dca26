package normalization

import (
	"errors"
	"fmt"
	"math"

	"clmm-backtest/internal/domain"
)

// DefaultChangeLimit drops single-interval moves larger than 90%.
const DefaultChangeLimit = 0.9

var (
	// ErrNoData is returned when there is nothing to aggregate.
	ErrNoData = errors.New("no price data")

	// ErrInvalidInterval is returned for a non-positive aggregation interval.
	ErrInvalidInterval = errors.New("invalid aggregation interval")
)

// AggregatePrices keeps the points that fall on the interval grid anchored at the
// first point. Input must be sorted by timestamp; later duplicates of a grid
// timestamp are ignored.
//
// The grid is first_ts + k*interval for k >= 0. Points between grid timestamps
// are dropped, and a grid timestamp with no observation is simply absent.
func AggregatePrices(points []*domain.PricePoint, intervalMs int64) ([]domain.PricePoint, error) {
	if intervalMs <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidInterval, intervalMs)
	}
	if len(points) == 0 {
		return nil, ErrNoData
	}

	first := points[0].TimestampMs
	result := make([]domain.PricePoint, 0, len(points))
	last := int64(math.MinInt64)

	for _, p := range points {
		if (p.TimestampMs-first)%intervalMs != 0 || p.TimestampMs == last {
			continue
		}
		result = append(result, *p)
		last = p.TimestampMs
	}

	return result, nil
}

// ComputeReturns computes simple and log returns over consecutive points.
//
// The first point has no return and is dropped. Returns whose magnitude exceeds
// changeLimit are dropped too; the next return is still measured against the
// dropped point's price, so a single bad print produces at most two outliers.
// A non-positive changeLimit disables the filter.
func ComputeReturns(points []domain.PricePoint, changeLimit float64) []domain.ReturnPoint {
	if len(points) < 2 {
		return nil
	}

	result := make([]domain.ReturnPoint, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev := points[i-1].Price
		if prev == 0 {
			continue
		}
		r := points[i].Price/prev - 1
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		if changeLimit > 0 && math.Abs(r) > changeLimit {
			continue
		}
		result = append(result, domain.ReturnPoint{
			PoolID:      points[i].PoolID,
			TimestampMs: points[i].TimestampMs,
			Price:       points[i].Price,
			Return:      r,
			LogReturn:   math.Log1p(r),
		})
	}

	return result
}

// Series is an aggregated price series with its return history.
type Series struct {
	Prices  []domain.PricePoint  // grid points, ascending
	Returns []domain.ReturnPoint // returns over Prices, filtered
}

// BuildSeries aggregates raw points and derives returns in one pass.
// Raw points are sorted in place first.
func BuildSeries(raw []*domain.PricePoint, intervalMs int64, changeLimit float64) (Series, error) {
	SortPrices(raw)
	prices, err := AggregatePrices(raw, intervalMs)
	if err != nil {
		return Series{}, err
	}
	return Series{
		Prices:  prices,
		Returns: ComputeReturns(prices, changeLimit),
	}, nil
}

// From returns the price points at or after startMs.
func (s Series) From(startMs int64) []domain.PricePoint {
	for i, p := range s.Prices {
		if p.TimestampMs >= startMs {
			return s.Prices[i:]
		}
	}
	return nil
}
