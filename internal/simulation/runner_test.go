package simulation

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/forecast"
	"clmm-backtest/internal/storage/memory"
)

type runnerFixture struct {
	swaps  *memory.SwapEventStore
	prices *memory.PriceTimeseriesStore
	steps  *memory.StepRecordStore
	runs   *memory.RunStore
}

// seed stores two hours of 30-second prices and a swap every five minutes in the second hour.
func seed(t *testing.T) runnerFixture {
	t.Helper()
	ctx := context.Background()
	f := runnerFixture{
		swaps:  memory.NewSwapEventStore(),
		prices: memory.NewPriceTimeseriesStore(),
		steps:  memory.NewStepRecordStore(),
		runs:   memory.NewRunStore(),
	}

	var points []*domain.PricePoint
	for ts := int64(0); ts <= 120*minute; ts += 30_000 {
		points = append(points, &domain.PricePoint{
			PoolID:      "pool-1",
			TimestampMs: ts,
			Price:       1 + 0.001*math.Sin(float64(ts)/float64(7*minute)),
		})
	}
	require.NoError(t, f.prices.InsertBulk(ctx, points))

	var swaps []*domain.SwapEvent
	for ts := 65 * minute; ts <= 120*minute; ts += 5 * minute {
		swaps = append(swaps, &domain.SwapEvent{
			PoolID:           "pool-1",
			TxHash:           "0xswap",
			LogIndex:         int(ts / minute),
			TimestampMs:      ts,
			Tick:             0,
			Direction:        domain.DirectionToken0In,
			AmountIn:         10,
			VirtualLiquidity: 1e24,
		})
	}
	require.NoError(t, f.swaps.InsertBulk(ctx, swaps))
	return f
}

func (f runnerFixture) runner(fc forecast.Forecaster, now time.Time) *Runner {
	return NewRunner(RunnerOptions{
		SwapStore:  f.swaps,
		PriceStore: f.prices,
		StepStore:  f.steps,
		RunStore:   f.runs,
		Forecaster: fc,
		Now:        func() time.Time { return now },
	})
}

func testRequest() RunRequest {
	return RunRequest{
		PoolID:      "pool-1",
		Label:       "test",
		StartMs:     60 * minute,
		EndMs:       120 * minute,
		WarmupMs:    60 * minute,
		IntervalMs:  minute,
		ChangeLimit: 0.9,
		Params:      testParams(),
		Initial0:    1000,
		Initial1:    1000,
	}
}

func TestRunner_RunPersists(t *testing.T) {
	ctx := context.Background()
	f := seed(t)
	now := time.UnixMilli(1_700_000_000_000)
	r := f.runner(forecast.Static{StdDev: 0.05}, now)

	res, err := r.Run(ctx, testRequest())
	require.NoError(t, err)

	run := res.Run
	assert.NotEmpty(t, run.RunID)
	assert.Equal(t, "pool-1", run.PoolID)
	assert.Equal(t, "test", run.Label)
	assert.Equal(t, 61, run.Steps)
	assert.Equal(t, 60*minute, run.StartMs)
	assert.Equal(t, 120*minute, run.EndMs)
	assert.Equal(t, now.UnixMilli(), run.CreatedAtMs)
	assertRel(t, 1000+1000/res.Records[0].Price, run.Summary.InitialValue)
	assert.Greater(t, run.Summary.GrossFeeReturn, 0.0)

	stored, err := f.runs.GetByID(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.Steps, stored.Steps)

	records, err := f.steps.GetByRunID(ctx, run.RunID)
	require.NoError(t, err)
	require.Len(t, records, 61)
	for _, rec := range records {
		assert.Equal(t, run.RunID, rec.RunID)
	}
}

func TestRunner_WarmupFeedsForecaster(t *testing.T) {
	f := seed(t)
	var (
		mu    sync.Mutex
		first = -1
	)
	fc := forecast.Func(func(history []float64) (domain.Forecast, error) {
		mu.Lock()
		if first < 0 {
			first = len(history)
		}
		mu.Unlock()
		return domain.Forecast{Variance: 0.0025}, nil
	})

	in, err := f.runner(fc, time.Now()).Load(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Len(t, in.Prices, 61)
	assert.Len(t, in.Returns, 120)
	assert.Len(t, in.Swaps, 12)

	_, err = f.runner(fc, time.Now()).Execute(context.Background(), testRequest(), in)
	require.NoError(t, err)
	// returns at minutes 1..59 precede the first step at minute 60
	assert.Equal(t, 59, first)
}

func TestRunner_ExecuteIsDeterministic(t *testing.T) {
	ctx := context.Background()
	f := seed(t)
	r := f.runner(forecast.Static{StdDev: 0.002}, time.Now())
	req := testRequest()

	in, err := r.Load(ctx, req)
	require.NoError(t, err)

	var baseline []*domain.StepRecord
	for i := 0; i < 5; i++ {
		res, err := r.Execute(ctx, req, in)
		require.NoError(t, err)
		for _, rec := range res.Records {
			rec.RunID = ""
		}
		if baseline == nil {
			baseline = res.Records
			continue
		}
		assert.Equal(t, baseline, res.Records, "run %d", i)
	}
}

func TestRunner_NoPrices(t *testing.T) {
	f := seed(t)
	req := testRequest()
	req.PoolID = "other"

	_, err := f.runner(forecast.Static{StdDev: 0.05}, time.Now()).Run(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoPrices)

	req = testRequest()
	req.StartMs = 500 * minute
	req.EndMs = 600 * minute
	req.WarmupMs = 0
	_, err = f.runner(forecast.Static{StdDev: 0.05}, time.Now()).Run(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoPrices)
}

func TestRunner_InvalidRequest(t *testing.T) {
	f := seed(t)
	r := f.runner(forecast.Static{StdDev: 0.05}, time.Now())

	tests := []struct {
		name   string
		mutate func(*RunRequest)
	}{
		{"missing pool", func(r *RunRequest) { r.PoolID = "" }},
		{"end before start", func(r *RunRequest) { r.EndMs = r.StartMs - 1 }},
		{"negative warmup", func(r *RunRequest) { r.WarmupMs = -1 }},
		{"zero interval", func(r *RunRequest) { r.IntervalMs = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := testRequest()
			tc.mutate(&req)
			_, err := r.Run(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestRunner_InvalidParamsNotPersisted(t *testing.T) {
	ctx := context.Background()
	f := seed(t)
	req := testRequest()
	req.Params.Alpha = 2

	_, err := f.runner(forecast.Static{StdDev: 0.05}, time.Now()).Run(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidParams)

	runs, err := f.runs.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, runs)
}
