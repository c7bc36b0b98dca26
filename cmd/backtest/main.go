// Command backtest runs one adaptive liquidity backtest for the configured pool.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clmm-backtest/internal/config"
	"clmm-backtest/internal/observability"
	"clmm-backtest/internal/orchestrator"
	"clmm-backtest/internal/reporting"
	"clmm-backtest/internal/simulation"
	"clmm-backtest/internal/storage/backend"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config (defaults when empty)")
	poolID := flag.String("pool", "", "Pool ID (overrides pool.id)")
	pricesCSV := flag.String("prices", "", "Price CSV to ingest before running")
	swapsCSV := flag.String("swaps", "", "Swap CSV to ingest before running")
	start := flag.String("start", "", "First simulated time, RFC 3339")
	end := flag.String("end", "", "Last simulated time, RFC 3339")

	// Strategy parameters
	alpha := flag.Float64("alpha", 0, "Base range coverage in (0,1)")
	tau := flag.Float64("tau", 0, "Limit range coverage in (0,1)")
	limitRatio := flag.Float64("limit-ratio", 0, "Limit/base value ratio that triggers a reset")
	volRatio := flag.Float64("vol-ratio", 0, "Relative volatility drop that triggers a reset (0 disables)")

	// Output
	outputJSON := flag.Bool("json", false, "Output run record as JSON")
	stepsCSV := flag.String("steps-csv", "", "Write step records to this CSV file")
	persist := flag.Bool("persist", false, "Persist steps and run to the configured stores")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address while running")

	flag.Parse()

	cfg, err := config.LoadUnchecked(*configPath)
	if err != nil {
		fatal(slog.Default(), "load config", err)
	}

	// Flags override config
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pool":
			cfg.Pool.ID = *poolID
		case "prices":
			cfg.Data.PricesCSV = *pricesCSV
		case "swaps":
			cfg.Data.SwapsCSV = *swapsCSV
		case "start":
			cfg.Data.Start, flagErr = parseTime(*start, flagErr)
		case "end":
			cfg.Data.End, flagErr = parseTime(*end, flagErr)
		case "alpha":
			cfg.Strategy.Alpha = *alpha
		case "tau":
			cfg.Strategy.Tau = *tau
		case "limit-ratio":
			cfg.Strategy.LimitRatioThreshold = *limitRatio
		case "vol-ratio":
			cfg.Strategy.VolatilityResetRatio = volRatio
		case "metrics-addr":
			cfg.Metrics.Enabled = true
			cfg.Metrics.Addr = *metricsAddr
		}
	})
	if flagErr != nil {
		fatal(slog.Default(), "parse flags", flagErr)
	}
	if err := cfg.Validate(); err != nil {
		fatal(slog.Default(), "invalid config", err)
	}
	if cfg.Pool.ID == "" {
		fatal(slog.Default(), "invalid config", errors.New("pool id is required (--pool or pool.id)"))
	}

	// Setup logger; stdout carries the report
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	// Handle shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		fatal(logger, "open stores", err)
	}
	defer stores.Close()

	sinks := simulation.MultiSink{simulation.NewLogSink(logger)}
	var m *observability.Metrics
	if cfg.Metrics.Enabled {
		reg := observability.NewRegistry()
		m = observability.NewMetrics(cfg.Metrics.Namespace, reg)
		sinks = append(sinks, m)
		go func() {
			if err := observability.Serve(ctx, cfg.Metrics.Addr, observability.HandlerFor(reg), logger); err != nil {
				logger.Error("metrics server", "error", err)
			}
		}()
	}

	orch := orchestrator.New(orchestrator.Options{
		Config: cfg,
		Stores: stores,
		Sink:   sinks,
		Logger: logger,
	})

	if _, err := orch.Ingest(ctx); err != nil {
		fatal(logger, "ingest", err)
	}

	began := time.Now()
	res, err := orch.Backtest(ctx, *persist)
	if m != nil {
		m.ObserveRun(time.Since(began), err)
	}
	if err != nil {
		var stepErr *simulation.StepError
		if errors.As(err, &stepErr) {
			logger.Error("step failed", "index", stepErr.Index, "ts", stepErr.TimestampMs, "price", stepErr.Price)
		}
		fatal(logger, "backtest", err)
	}

	if *stepsCSV != "" {
		if err := os.WriteFile(*stepsCSV, []byte(reporting.RenderStepCSV(res.Records)), 0o644); err != nil {
			fatal(logger, "write steps csv", err)
		}
		logger.Info("steps written", "path", *stepsCSV, "rows", len(res.Records))
	}

	// Output
	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Run); err != nil {
			fatal(logger, "encode run", err)
		}
		return
	}
	if err := reporting.RenderRunSummary(os.Stdout, res.Run); err != nil {
		fatal(logger, "render summary", err)
	}
}

// parseTime parses an RFC 3339 flag value, keeping the first error seen.
func parseTime(v string, prev error) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil && prev == nil {
		return time.Time{}, fmt.Errorf("time %q: %w", v, err)
	}
	return t, prev
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
