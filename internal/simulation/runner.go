package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/forecast"
	"clmm-backtest/internal/metrics"
	"clmm-backtest/internal/normalization"
	"clmm-backtest/internal/storage"
)

// Runner errors
var (
	ErrInvalidRequest = errors.New("invalid run request")
	ErrNoPrices       = errors.New("no price points in run window")
)

// Runner executes stored-data backtests and persists their output.
type Runner struct {
	swapStore  storage.SwapEventStore
	priceStore storage.PriceTimeseriesStore
	stepStore  storage.StepRecordStore
	runStore   storage.RunStore
	forecaster forecast.Forecaster
	sink       EventSink
	now        func() time.Time
}

// RunnerOptions contains configuration for creating a Runner.
// StepStore and RunStore are optional; nil skips persistence.
type RunnerOptions struct {
	SwapStore  storage.SwapEventStore
	PriceStore storage.PriceTimeseriesStore
	StepStore  storage.StepRecordStore
	RunStore   storage.RunStore
	Forecaster forecast.Forecaster
	Sink       EventSink
	Now        func() time.Time
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		swapStore:  opts.SwapStore,
		priceStore: opts.PriceStore,
		stepStore:  opts.StepStore,
		runStore:   opts.RunStore,
		forecaster: opts.Forecaster,
		sink:       opts.Sink,
		now:        now,
	}
}

// RunRequest selects the data and parameters for one run.
type RunRequest struct {
	PoolID      string
	Label       string
	StartMs     int64 // first simulated timestamp, inclusive
	EndMs       int64 // last simulated timestamp, inclusive
	WarmupMs    int64 // price history loaded before StartMs for the forecaster
	IntervalMs  int64 // aggregation grid
	ChangeLimit float64
	Params      domain.StrategyParams
	Initial0    float64
	Initial1    float64
}

// Validate rejects requests that cannot select a run window.
func (req RunRequest) Validate() error {
	switch {
	case req.PoolID == "":
		return fmt.Errorf("%w: pool id is required", ErrInvalidRequest)
	case req.EndMs < req.StartMs:
		return fmt.Errorf("%w: end %d before start %d", ErrInvalidRequest, req.EndMs, req.StartMs)
	case req.WarmupMs < 0:
		return fmt.Errorf("%w: negative warmup", ErrInvalidRequest)
	case req.IntervalMs <= 0:
		return fmt.Errorf("%w: interval must be positive", ErrInvalidRequest)
	}
	return nil
}

// Result is a completed run.
type Result struct {
	Run     *domain.RunRecord
	Records []*domain.StepRecord
}

// Run loads, simulates, summarizes and persists one backtest.
// Steps:
//  1. Load inputs for the request window (see Load)
//  2. Simulate with a driver built for req.Params
//  3. Flatten states into step records under a fresh run id
//  4. Summarize into RunSummary
//  5. Persist step records, then the run record
func (r *Runner) Run(ctx context.Context, req RunRequest) (*Result, error) {
	in, err := r.Load(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := r.Execute(ctx, req, in)
	if err != nil {
		return nil, err
	}
	if err := r.Persist(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Load reads raw prices from StartMs-WarmupMs to EndMs and swaps inside the
// simulated window, and aggregates prices onto the request grid. Returns cover
// the warmup too so the first step has forecaster history.
func (r *Runner) Load(ctx context.Context, req RunRequest) (Inputs, error) {
	if err := req.Validate(); err != nil {
		return Inputs{}, err
	}
	if r.priceStore == nil || r.swapStore == nil {
		return Inputs{}, errors.New("simulation: price and swap stores are required")
	}

	raw, err := r.priceStore.GetByTimeRange(ctx, req.PoolID, req.StartMs-req.WarmupMs, req.EndMs)
	if err != nil {
		return Inputs{}, fmt.Errorf("load prices: %w", err)
	}
	series, err := normalization.BuildSeries(raw, req.IntervalMs, req.ChangeLimit)
	if err != nil {
		if errors.Is(err, normalization.ErrNoData) {
			return Inputs{}, fmt.Errorf("%w: pool %s", ErrNoPrices, req.PoolID)
		}
		return Inputs{}, err
	}
	prices := series.From(req.StartMs)
	if len(prices) == 0 {
		return Inputs{}, fmt.Errorf("%w: pool %s", ErrNoPrices, req.PoolID)
	}

	stored, err := r.swapStore.GetByPoolTimeRange(ctx, req.PoolID, prices[0].TimestampMs, req.EndMs)
	if err != nil {
		return Inputs{}, fmt.Errorf("load swaps: %w", err)
	}
	swaps := make([]domain.SwapEvent, len(stored))
	for i, s := range stored {
		swaps[i] = *s
	}

	return Inputs{
		Prices:   prices,
		Swaps:    swaps,
		Returns:  series.Returns,
		Initial0: req.Initial0,
		Initial1: req.Initial1,
	}, nil
}

// Execute simulates in with req.Params and summarizes the result.
// Nothing is persisted. Safe for concurrent use with different requests.
func (r *Runner) Execute(ctx context.Context, req RunRequest, in Inputs) (*Result, error) {
	driver, err := NewDriver(DriverOptions{
		Params:     req.Params,
		Forecaster: r.forecaster,
		Sink:       r.sink,
	})
	if err != nil {
		return nil, err
	}

	states, err := driver.Run(ctx, in)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	records := make([]*domain.StepRecord, len(states))
	for i := range states {
		rec := states[i].Record(runID)
		records[i] = &rec
	}

	initialValue := in.Initial0 + in.Initial1*records[0].Price10
	summary, err := metrics.Summarize(records, initialValue)
	if err != nil {
		return nil, err
	}

	run := &domain.RunRecord{
		RunID:       runID,
		PoolID:      req.PoolID,
		Label:       req.Label,
		Params:      req.Params,
		Initial0:    in.Initial0,
		Initial1:    in.Initial1,
		StartMs:     records[0].TimestampMs,
		EndMs:       records[len(records)-1].TimestampMs,
		Steps:       len(records),
		CreatedAtMs: r.now().UnixMilli(),
		Summary:     summary,
	}

	return &Result{Run: run, Records: records}, nil
}

// Persist writes step records before the run record, so a listed run always
// has its steps.
func (r *Runner) Persist(ctx context.Context, res *Result) error {
	if r.stepStore != nil {
		if err := r.stepStore.InsertBulk(ctx, res.Records); err != nil {
			return fmt.Errorf("store step records: %w", err)
		}
	}
	if r.runStore != nil {
		if err := r.runStore.Insert(ctx, res.Run); err != nil {
			return fmt.Errorf("store run: %w", err)
		}
	}
	return nil
}
