// Package metrics computes run-level return and risk statistics from step records.
package metrics

import (
	"errors"
	"math"
	"sort"

	"clmm-backtest/internal/domain"
)

// ErrNoRecords is returned when there are no step records to summarize.
var ErrNoRecords = errors.New("no step records to summarize")

// Summarize aggregates a run's step records.
// Records are sorted by timestamp before order-dependent metrics are computed.
// All values are in token0 units. A non-positive initialValue falls back to the
// first record's value_position.
//
// Formulas:
//   - days = whole days between first and last record
//   - gross_fee_return = sum(fees0 + fees1*price_1_0) / initial
//   - net_return = final / initial - 1
//   - *_apr = return * 365 / days (0 when days == 0)
//   - max_drawdown = (max - min) / max of value_position
//   - volatility = sample std of per-step value change, annualized by step spacing
//   - sharpe = net_apr / volatility
//   - base share = base / (base + limit + leftover) per step
func Summarize(records []*domain.StepRecord, initialValue float64) (domain.RunSummary, error) {
	n := len(records)
	if n == 0 {
		return domain.RunSummary{}, ErrNoRecords
	}

	sorted := make([]*domain.StepRecord, n)
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimestampMs < sorted[j].TimestampMs
	})

	first, last := sorted[0], sorted[n-1]
	if initialValue <= 0 {
		initialValue = first.ValuePosition
	}

	values := make([]float64, n)
	timestamps := make([]int64, n)
	baseShares := make([]float64, 0, n)
	cumFees := 0.0
	rebalances := 0

	for i, r := range sorted {
		values[i] = r.ValuePosition
		timestamps[i] = r.TimestampMs
		cumFees += r.Fees0 + r.Fees1*r.Price10
		if r.ResetPoint {
			rebalances++
		}
		if deployed := r.BasePositionValue + r.LimitPositionValue + r.ValueLeftover; deployed > 0 {
			baseShares = append(baseShares, r.BasePositionValue/deployed)
		}
	}

	days := int((last.TimestampMs - first.TimestampMs) / dayMs)

	summary := domain.RunSummary{
		Days:               days,
		InitialValue:       initialValue,
		FinalValue:         last.ValuePosition,
		Rebalances:         rebalances,
		MaxDrawdown:        computeRangeDrawdown(values),
		MeanBasePosition:   computeMean(baseShares),
		MedianBasePosition: computeMedian(baseShares),
	}

	if initialValue > 0 {
		summary.GrossFeeReturn = cumFees / initialValue
		summary.NetReturn = last.ValuePosition/initialValue - 1
	}
	summary.GrossFeeAPR = annualize(summary.GrossFeeReturn, days)
	summary.NetAPR = annualize(summary.NetReturn, days)

	summary.Volatility = computeStddev(computePctChange(values)) * math.Sqrt(periodsPerYear(timestamps))
	if summary.Volatility > 0 {
		summary.SharpeRatio = summary.NetAPR / summary.Volatility
	}

	return summary, nil
}
