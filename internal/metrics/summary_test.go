package metrics

import (
	"errors"
	"math"
	"testing"

	"clmm-backtest/internal/domain"
)

const hourMs = int64(60 * 60 * 1000)

func approx(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize(nil, 100)
	if !errors.Is(err, ErrNoRecords) {
		t.Errorf("expected ErrNoRecords, got %v", err)
	}
}

func TestSummarize_Basic(t *testing.T) {
	// Two days of hourly steps, value grows linearly from 100 to 110.
	steps := 49
	records := make([]*domain.StepRecord, steps)
	for i := 0; i < steps; i++ {
		records[i] = &domain.StepRecord{
			TimestampMs:        int64(i) * hourMs,
			Price10:            2,
			Fees0:              0.01,
			Fees1:              0.005,
			ValuePosition:      100 + 10*float64(i)/float64(steps-1),
			BasePositionValue:  75,
			LimitPositionValue: 20,
			ValueLeftover:      5,
		}
	}
	records[10].ResetPoint = true
	records[30].ResetPoint = true

	s, err := Summarize(records, 100)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	if s.Days != 2 {
		t.Errorf("expected 2 days, got %d", s.Days)
	}
	if s.Rebalances != 2 {
		t.Errorf("expected 2 rebalances, got %d", s.Rebalances)
	}
	if !approx(s.FinalValue, 110) {
		t.Errorf("expected final 110, got %v", s.FinalValue)
	}
	if !approx(s.NetReturn, 0.1) {
		t.Errorf("expected net return 0.1, got %v", s.NetReturn)
	}
	if !approx(s.NetAPR, 0.1*365/2) {
		t.Errorf("expected net APR %v, got %v", 0.1*365/2, s.NetAPR)
	}

	// 49 * (0.01 + 0.005*2) = 0.98
	if !approx(s.GrossFeeReturn, 0.0098) {
		t.Errorf("expected gross fee return 0.0098, got %v", s.GrossFeeReturn)
	}
	if !approx(s.GrossFeeAPR, 0.0098*365/2) {
		t.Errorf("expected gross fee APR, got %v", s.GrossFeeAPR)
	}
	if !approx(s.MaxDrawdown, 10.0/110.0) {
		t.Errorf("expected drawdown %v, got %v", 10.0/110.0, s.MaxDrawdown)
	}
	if !approx(s.MeanBasePosition, 0.75) || !approx(s.MedianBasePosition, 0.75) {
		t.Errorf("expected base share 0.75, got %v / %v", s.MeanBasePosition, s.MedianBasePosition)
	}
	if s.Volatility <= 0 {
		t.Errorf("expected positive volatility, got %v", s.Volatility)
	}
	if !approx(s.SharpeRatio, s.NetAPR/s.Volatility) {
		t.Errorf("expected sharpe = apr / vol, got %v", s.SharpeRatio)
	}
}

func TestSummarize_SameDayHasZeroAPR(t *testing.T) {
	records := []*domain.StepRecord{
		{TimestampMs: 0, ValuePosition: 100, Fees0: 1},
		{TimestampMs: hourMs, ValuePosition: 105},
	}

	s, err := Summarize(records, 0)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Days != 0 {
		t.Errorf("expected 0 days, got %d", s.Days)
	}
	if s.NetAPR != 0 || s.GrossFeeAPR != 0 {
		t.Errorf("expected zero APRs, got %v / %v", s.NetAPR, s.GrossFeeAPR)
	}
	if !approx(s.InitialValue, 100) {
		t.Errorf("expected initial value to fall back to first record, got %v", s.InitialValue)
	}
	if !approx(s.NetReturn, 0.05) {
		t.Errorf("expected net return 0.05, got %v", s.NetReturn)
	}
}

func TestSummarize_SortsByTimestamp(t *testing.T) {
	records := []*domain.StepRecord{
		{TimestampMs: 2 * dayMs, ValuePosition: 90},
		{TimestampMs: 0, ValuePosition: 100},
		{TimestampMs: dayMs, ValuePosition: 120},
	}

	s, err := Summarize(records, 100)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !approx(s.FinalValue, 90) {
		t.Errorf("expected final 90, got %v", s.FinalValue)
	}
	if !approx(s.MaxDrawdown, 30.0/120.0) {
		t.Errorf("expected drawdown 0.25, got %v", s.MaxDrawdown)
	}
	if records[0].TimestampMs != 2*dayMs {
		t.Error("input slice was reordered")
	}
}

func TestSummarize_FlatSeriesHasNoVolatility(t *testing.T) {
	records := []*domain.StepRecord{
		{TimestampMs: 0, ValuePosition: 100},
		{TimestampMs: dayMs, ValuePosition: 100},
		{TimestampMs: 2 * dayMs, ValuePosition: 100},
	}

	s, err := Summarize(records, 100)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Volatility != 0 || s.SharpeRatio != 0 || s.MaxDrawdown != 0 {
		t.Errorf("expected zero risk stats, got vol=%v sharpe=%v dd=%v", s.Volatility, s.SharpeRatio, s.MaxDrawdown)
	}
}

func TestComputePercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	if got := computePercentile(sorted, 0.5); got != 2.5 {
		t.Errorf("expected median 2.5, got %v", got)
	}
	if got := computePercentile(sorted, 1); got != 4 {
		t.Errorf("expected max 4, got %v", got)
	}
	if got := computePercentile(nil, 0.5); got != 0 {
		t.Errorf("expected 0 for empty, got %v", got)
	}
	if got := computePercentile(sorted, 0); got != 1 {
		t.Errorf("expected min 1, got %v", got)
	}
	if got := computePercentile([]float64{7}, 0.5); got != 7 {
		t.Errorf("expected single value 7, got %v", got)
	}
}

func TestComputeMedian(t *testing.T) {
	values := []float64{5, 1, 3}
	if got := computeMedian(values); math.Abs(got-3) > 1e-12 {
		t.Errorf("expected median 3, got %v", got)
	}
	if values[0] != 5 || values[1] != 1 {
		t.Errorf("computeMedian reordered its input: %v", values)
	}
	if got := computeMedian([]float64{10, 40, 20, 30}); math.Abs(got-25) > 1e-12 {
		t.Errorf("expected median 25, got %v", got)
	}
}

func TestPeriodsPerYear(t *testing.T) {
	ts := []int64{0, 60_000, 120_000, 180_000}
	if got := periodsPerYear(ts); !approx(got, 365*24*60) {
		t.Errorf("expected one-minute annualization, got %v", got)
	}
	if got := periodsPerYear(ts[:1]); got != 0 {
		t.Errorf("expected 0 for single point, got %v", got)
	}
}
