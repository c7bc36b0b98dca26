// Command ingest loads price and swap CSV files into the configured raw-data stores.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"clmm-backtest/internal/config"
	"clmm-backtest/internal/orchestrator"
	"clmm-backtest/internal/storage/backend"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config")
	poolID := flag.String("pool", "", "Pool ID (overrides pool.id)")
	pricesCSV := flag.String("prices", "", "Price CSV (timestamp_ms|time, price)")
	swapsCSV := flag.String("swaps", "", "Swap CSV (timestamp_ms|time, tx_hash, log_index, tick, direction, amount_in, virtual_liquidity)")
	flag.Parse()

	cfg, err := config.LoadUnchecked(*configPath)
	if err != nil {
		fatal(slog.Default(), "load config", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pool":
			cfg.Pool.ID = *poolID
		case "prices":
			cfg.Data.PricesCSV = *pricesCSV
		case "swaps":
			cfg.Data.SwapsCSV = *swapsCSV
		}
	})
	if err := cfg.Validate(); err != nil {
		fatal(slog.Default(), "invalid config", err)
	}
	if cfg.Pool.ID == "" {
		fatal(slog.Default(), "invalid config", errors.New("pool id is required (--pool or pool.id)"))
	}
	if cfg.Data.PricesCSV == "" && cfg.Data.SwapsCSV == "" {
		fatal(slog.Default(), "invalid config", errors.New("nothing to ingest: set --prices and/or --swaps"))
	}

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	if cfg.Storage.Swaps == config.BackendMemory && cfg.Storage.Prices == config.BackendMemory {
		logger.Warn("memory backends selected; ingested data is dropped on exit")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		fatal(logger, "open stores", err)
	}
	defer stores.Close()

	orch := orchestrator.New(orchestrator.Options{Config: cfg, Stores: stores, Logger: logger})
	res, err := orch.Ingest(ctx)
	if err != nil {
		fatal(logger, "ingest", err)
	}
	logger.Info("ingest complete", "pool", cfg.Pool.ID, "prices", res.Prices, "swaps", res.Swaps)
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
