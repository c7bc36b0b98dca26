package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const (
	dayMs  = int64(24 * 60 * 60 * 1000)
	yearMs = 365 * dayMs
)

// computePercentile interpolates between closest ranks, so the median of an
// even-length sample is the midpoint of the two middle values.
// sorted must be pre-sorted ASC. p is percentile (0.50 = median).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	// stat.LinInterp places rank p*n; shifting p lands it on rank 1+p*(n-1).
	q := math.Min(1, (float64(n-1)*p+1)/float64(n))
	return stat.Quantile(q, stat.LinInterp, sorted, nil)
}

// computeMedian returns the median without reordering values.
func computeMedian(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return computePercentile(sorted, 0.50)
}

// computeMean returns 0 for an empty slice instead of NaN.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// computeRangeDrawdown is (max - min) / max over the whole series.
// It ignores ordering, so it bounds the true peak-to-trough drawdown from above.
func computeRangeDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi <= 0 {
		return 0
	}
	return (hi - lo) / hi
}

// computePctChange returns v[i]/v[i-1] - 1, skipping zero denominators.
func computePctChange(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		out = append(out, values[i]/values[i-1]-1)
	}
	return out
}

// periodsPerYear derives the annualization factor from the median step spacing.
func periodsPerYear(timestamps []int64) float64 {
	if len(timestamps) < 2 {
		return 0
	}
	gaps := make([]float64, 0, len(timestamps)-1)
	for i := 1; i < len(timestamps); i++ {
		gaps = append(gaps, float64(timestamps[i]-timestamps[i-1]))
	}
	gap := computeMedian(gaps)
	if gap <= 0 {
		return 0
	}
	return float64(yearMs) / gap
}

// annualize scales a period return over whole days to a yearly rate.
func annualize(ret float64, days int) float64 {
	if days <= 0 {
		return 0
	}
	return ret * 365 / float64(days)
}
