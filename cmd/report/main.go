// Command report renders stored runs: a ranked table, a markdown report, CSV,
// or the step records of a single run.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"clmm-backtest/internal/config"
	"clmm-backtest/internal/reporting"
	"clmm-backtest/internal/storage/backend"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config")
	poolID := flag.String("pool", "", "Only runs of this pool (all pools when empty)")
	runID := flag.String("run", "", "Render one run: summary, or its steps with --format csv")
	format := flag.String("format", "table", "Output format: table, markdown, csv")
	outputDir := flag.String("output-dir", "", "Write REPORT.md and RUNS.csv here instead of stdout")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(slog.Default(), "load config", err)
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	if cfg.Storage.Runs == config.BackendNone {
		fatal(logger, "invalid config", errors.New("storage.runs is none; nothing to report"))
	}

	ctx := context.Background()
	stores, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		fatal(logger, "open stores", err)
	}
	defer stores.Close()

	if *runID != "" {
		if err := renderRun(ctx, stores, *runID, *format); err != nil {
			fatal(logger, "render run", err)
		}
		return
	}

	report, err := reporting.NewGenerator(stores.Runs).Generate(ctx, *poolID)
	if err != nil {
		fatal(logger, "generate report", err)
	}

	if *outputDir != "" {
		if err := os.MkdirAll(*outputDir, 0o755); err != nil {
			fatal(logger, "create output dir", err)
		}
		files := map[string]string{
			"REPORT.md": reporting.RenderMarkdown(report),
			"RUNS.csv":  reporting.RenderRunsCSV(report.Runs),
		}
		for name, content := range files {
			path := filepath.Join(*outputDir, name)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				fatal(logger, "write "+name, err)
			}
			logger.Info("report written", "path", path)
		}
		return
	}

	switch *format {
	case "markdown":
		_, err = os.Stdout.WriteString(reporting.RenderMarkdown(report))
	case "csv":
		_, err = os.Stdout.WriteString(reporting.RenderRunsCSV(report.Runs))
	case "table":
		err = reporting.RenderSummaryTable(os.Stdout, report.Runs)
	default:
		err = fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		fatal(logger, "render", err)
	}
}

// renderRun prints one run's summary, or its step records as CSV.
func renderRun(ctx context.Context, stores *backend.Stores, runID, format string) error {
	run, err := stores.Runs.GetByID(ctx, runID)
	if err != nil {
		return err
	}
	if format != "csv" {
		return reporting.RenderRunSummary(os.Stdout, run)
	}
	if stores.Steps == nil {
		return errors.New("storage.steps is none; step records unavailable")
	}
	records, err := stores.Steps.GetByRunID(ctx, runID)
	if err != nil {
		return err
	}
	_, err = os.Stdout.WriteString(reporting.RenderStepCSV(records))
	return err
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
