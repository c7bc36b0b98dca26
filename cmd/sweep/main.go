// Command sweep runs the configured parameter grid over one pool and ranks the cells.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clmm-backtest/internal/config"
	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/observability"
	"clmm-backtest/internal/orchestrator"
	"clmm-backtest/internal/reporting"
	"clmm-backtest/internal/storage/backend"
	"clmm-backtest/internal/sweep"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config")
	concurrency := flag.Int("concurrency", 0, "Cells in flight (overrides sweep.concurrency; 0 = GOMAXPROCS)")
	persist := flag.Bool("persist", false, "Persist every successful cell")
	format := flag.String("format", "table", "Output format: table, markdown, csv")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address while running")
	flag.Parse()

	cfg, err := config.LoadUnchecked(*configPath)
	if err != nil {
		fatal(slog.Default(), "load config", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "concurrency":
			cfg.Sweep.Concurrency = *concurrency
		case "persist":
			cfg.Sweep.Persist = *persist
		case "metrics-addr":
			cfg.Metrics.Enabled = true
			cfg.Metrics.Addr = *metricsAddr
		}
	})
	if err := cfg.Validate(); err != nil {
		fatal(slog.Default(), "invalid config", err)
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		fatal(logger, "open stores", err)
	}
	defer stores.Close()

	// Per-event logging is too chatty across a grid; only metrics subscribe.
	var m *observability.Metrics
	opts := orchestrator.Options{Config: cfg, Stores: stores, Logger: logger}
	if cfg.Metrics.Enabled {
		reg := observability.NewRegistry()
		m = observability.NewMetrics(cfg.Metrics.Namespace, reg)
		opts.Sink = m
		go func() {
			if err := observability.Serve(ctx, cfg.Metrics.Addr, observability.HandlerFor(reg), logger); err != nil {
				logger.Error("metrics server", "error", err)
			}
		}()
	}
	orch := orchestrator.New(opts)

	if _, err := orch.Ingest(ctx); err != nil {
		fatal(logger, "ingest", err)
	}

	began := time.Now()
	cells, err := orch.Sweep(ctx, func(c sweep.CellResult) {
		if m != nil {
			m.ObserveSweepCell(c.Err)
		}
		if c.Err != nil {
			logger.Warn("cell failed", "cell", c.Index, "params", sweep.Label(c.Params), "error", c.Err)
			return
		}
		logger.Info("cell done", "cell", c.Index, "params", sweep.Label(c.Params),
			"net_apr", c.Result.Run.Summary.NetAPR)
	})
	if err != nil {
		fatal(logger, "sweep", err)
	}

	succeeded := sweep.Succeeded(cells)
	logger.Info("sweep complete", "cells", len(cells), "succeeded", len(succeeded),
		"elapsed", time.Since(began).Round(time.Millisecond))

	runs := make([]*domain.RunRecord, 0, len(succeeded))
	for _, res := range succeeded {
		runs = append(runs, res.Run)
	}
	report := reporting.BuildReport(runs, cfg.Pool.ID, time.Now().UTC())

	switch *format {
	case "markdown":
		_, err = os.Stdout.WriteString(reporting.RenderMarkdown(report))
	case "csv":
		_, err = os.Stdout.WriteString(reporting.RenderRunsCSV(report.Runs))
	default:
		err = reporting.RenderSummaryTable(os.Stdout, report.Runs)
	}
	if err != nil {
		fatal(logger, "render", err)
	}
	if len(succeeded) < len(cells) {
		os.Exit(2)
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
