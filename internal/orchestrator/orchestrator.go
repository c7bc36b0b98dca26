// Package orchestrator coordinates a configured backtest.
// It wires: CSV ingestion → window resolution → simulation (single run or sweep)
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"clmm-backtest/internal/config"
	"clmm-backtest/internal/normalization"
	"clmm-backtest/internal/simulation"
	"clmm-backtest/internal/storage"
	"clmm-backtest/internal/storage/backend"
	"clmm-backtest/internal/sweep"
)

// Orchestrator runs the configured pool through ingestion and simulation.
type Orchestrator struct {
	cfg    *config.Config
	stores *backend.Stores
	runner *simulation.Runner
	logger *slog.Logger
}

// Options for creating Orchestrator.
type Options struct {
	Config *config.Config
	Stores *backend.Stores
	Sink   simulation.EventSink // optional
	Logger *slog.Logger         // optional; slog.Default when nil
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:    opts.Config,
		stores: opts.Stores,
		runner: simulation.NewRunner(simulation.RunnerOptions{
			SwapStore:  opts.Stores.Swaps,
			PriceStore: opts.Stores.Prices,
			StepStore:  opts.Stores.Steps,
			RunStore:   opts.Stores.Runs,
			Forecaster: opts.Config.NewForecaster(),
			Sink:       opts.Sink,
		}),
		logger: logger,
	}
}

// Runner returns the simulation runner bound to the configured stores.
func (o *Orchestrator) Runner() *simulation.Runner { return o.runner }

// Ingest loads the configured price and swap files into the raw-data stores.
// A file whose rows are already stored (duplicate key) is skipped with a warning,
// so restarting against a persistent backend is harmless.
func (o *Orchestrator) Ingest(ctx context.Context) (normalization.IngestResult, error) {
	var total normalization.IngestResult
	loader := normalization.NewLoader(o.stores.Swaps, o.stores.Prices)
	poolID := o.cfg.Pool.ID

	load := func(path string, asPrices bool) error {
		if path == "" {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()

		var prices, swaps io.Reader
		if asPrices {
			prices = f
		} else {
			swaps = f
		}
		res, err := loader.Ingest(ctx, poolID, prices, swaps)
		if errors.Is(err, storage.ErrDuplicateKey) {
			o.logger.Warn("input already ingested, skipping", "file", path, "pool", poolID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		total.Prices += res.Prices
		total.Swaps += res.Swaps
		return nil
	}

	if err := load(o.cfg.Data.PricesCSV, true); err != nil {
		return total, err
	}
	if err := load(o.cfg.Data.SwapsCSV, false); err != nil {
		return total, err
	}
	if total.Prices > 0 || total.Swaps > 0 {
		o.logger.Info("ingested", "pool", poolID, "prices", total.Prices, "swaps", total.Swaps)
	}
	return total, nil
}

// Request builds the run request from config. A zero data.start resolves to the
// first stored price plus the warmup; a zero data.end to the last stored price.
func (o *Orchestrator) Request(ctx context.Context) (simulation.RunRequest, error) {
	d := o.cfg.Data
	req := simulation.RunRequest{
		PoolID:      o.cfg.Pool.ID,
		WarmupMs:    d.Warmup.Milliseconds(),
		IntervalMs:  d.Interval.Milliseconds(),
		ChangeLimit: d.ChangeLimit,
		Params:      o.cfg.Params(),
		Initial0:    o.cfg.Inventory.Token0,
		Initial1:    o.cfg.Inventory.Token1,
	}
	req.Label = sweep.Label(req.Params)

	if !d.Start.IsZero() {
		req.StartMs = d.Start.UnixMilli()
	}
	if !d.End.IsZero() {
		req.EndMs = d.End.UnixMilli()
	}
	if d.Start.IsZero() || d.End.IsZero() {
		points, err := o.stores.Prices.GetByPoolID(ctx, req.PoolID)
		if err != nil {
			return req, fmt.Errorf("resolve window: %w", err)
		}
		if len(points) == 0 {
			return req, fmt.Errorf("%w: pool %s", simulation.ErrNoPrices, req.PoolID)
		}
		if d.Start.IsZero() {
			req.StartMs = points[0].TimestampMs + req.WarmupMs
		}
		if d.End.IsZero() {
			req.EndMs = points[len(points)-1].TimestampMs
		}
	}

	return req, req.Validate()
}

// Backtest runs one backtest with the configured parameters.
// The result is persisted only when persist is true.
func (o *Orchestrator) Backtest(ctx context.Context, persist bool) (*simulation.Result, error) {
	req, err := o.Request(ctx)
	if err != nil {
		return nil, err
	}
	o.logger.Info("backtest starting",
		"pool", req.PoolID, "start_ms", req.StartMs, "end_ms", req.EndMs, "params", req.Label)

	in, err := o.runner.Load(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := o.runner.Execute(ctx, req, in)
	if err != nil {
		return nil, err
	}
	if persist {
		if err := o.runner.Persist(ctx, res); err != nil {
			return nil, err
		}
	}

	o.logger.Info("backtest complete",
		"run_id", res.Run.RunID, "steps", res.Run.Steps, "rebalances", res.Run.Summary.Rebalances,
		"net_apr", res.Run.Summary.NetAPR)
	return res, nil
}

// Sweep runs the configured parameter grid over inputs loaded once.
// onCell may be nil; it is called from worker goroutines.
func (o *Orchestrator) Sweep(ctx context.Context, onCell func(sweep.CellResult)) ([]sweep.CellResult, error) {
	req, err := o.Request(ctx)
	if err != nil {
		return nil, err
	}
	in, err := o.runner.Load(ctx, req)
	if err != nil {
		return nil, err
	}

	s := o.cfg.Sweep
	grid := sweep.Grid{
		Alphas:           s.Alphas,
		Taus:             s.Taus,
		LimitRatios:      s.LimitRatios,
		VolatilityRatios: s.VolatilityRatios,
	}
	o.logger.Info("sweep starting", "pool", req.PoolID, "cells", grid.Size(), "concurrency", s.Concurrency)

	return sweep.Run(ctx, sweep.Options{
		Executor:    o.runner,
		Request:     req,
		Inputs:      in,
		Grid:        grid,
		Concurrency: s.Concurrency,
		Persist:     s.Persist,
		OnCell:      onCell,
	})
}
