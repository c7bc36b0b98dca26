// Command server serves stored backtest results over HTTP with Prometheus metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"clmm-backtest/internal/api"
	"clmm-backtest/internal/config"
	"clmm-backtest/internal/observability"
	"clmm-backtest/internal/orchestrator"
	"clmm-backtest/internal/storage/backend"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config")
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	backtest := flag.Bool("backtest", false, "Ingest configured CSVs and run the configured backtest before serving")
	flag.Parse()

	cfg, err := config.LoadUnchecked(*configPath)
	if err != nil {
		fatal(slog.Default(), "load config", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		fatal(slog.Default(), "invalid config", err)
	}

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)
	if !strings.EqualFold(cfg.Log.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Storage.Runs == config.BackendNone {
		fatal(logger, "invalid config", errors.New("storage.runs is none; nothing to serve"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		fatal(logger, "open stores", err)
	}
	defer stores.Close()

	reg := observability.NewRegistry()
	m := observability.NewMetrics(cfg.Metrics.Namespace, reg)

	if *backtest {
		orch := orchestrator.New(orchestrator.Options{Config: cfg, Stores: stores, Sink: m, Logger: logger})
		if _, err := orch.Ingest(ctx); err != nil {
			fatal(logger, "ingest", err)
		}
		began := time.Now()
		_, err := orch.Backtest(ctx, true)
		m.ObserveRun(time.Since(began), err)
		if err != nil {
			fatal(logger, "backtest", err)
		}
	}

	handler := api.NewHandler(api.Options{
		Runs:        stores.Runs,
		Steps:       stores.Steps,
		Metrics:     observability.HandlerFor(reg),
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      logger,
	})

	if err := observability.Serve(ctx, cfg.Server.Addr, handler, logger); err != nil {
		fatal(logger, "http server", err)
	}
	logger.Info("shutdown complete")
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
