package orchestrator

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clmm-backtest/internal/config"
	"clmm-backtest/internal/simulation"
	"clmm-backtest/internal/storage/backend"
	"clmm-backtest/internal/sweep"
)

const minute = int64(60_000)

// writeInputs writes three hours of one-minute prices and a swap every ten minutes.
func writeInputs(t *testing.T, dir string) (prices, swaps string) {
	t.Helper()

	var pb strings.Builder
	pb.WriteString("timestamp_ms,price\n")
	for ts := int64(0); ts <= 180*minute; ts += minute {
		fmt.Fprintf(&pb, "%d,%.8f\n", ts, 1+0.001*math.Sin(float64(ts)/float64(11*minute)))
	}

	var sb strings.Builder
	sb.WriteString("timestamp_ms,tx_hash,log_index,tick,direction,amount_in,virtual_liquidity\n")
	for ts := 70 * minute; ts <= 180*minute; ts += 10 * minute {
		fmt.Fprintf(&sb, "%d,0xabc,%d,0,token0,25,1e24\n", ts, ts/minute)
	}

	prices = filepath.Join(dir, "prices.csv")
	swaps = filepath.Join(dir, "swaps.csv")
	require.NoError(t, os.WriteFile(prices, []byte(pb.String()), 0o644))
	require.NoError(t, os.WriteFile(swaps, []byte(sb.String()), 0o644))
	return prices, swaps
}

func setup(t *testing.T, extra string) (*Orchestrator, *backend.Stores) {
	t.Helper()
	dir := t.TempDir()
	prices, swaps := writeInputs(t, dir)

	yaml := fmt.Sprintf(`
pool:
  id: pool-1
  token0_decimals: 18
  token1_decimals: 18
strategy:
  volatility_reset_ratio: 0.5
inventory:
  token0: 1000
  token1: 1000
data:
  interval: 1m
  warmup: 1h
  prices_csv: %s
  swaps_csv: %s
forecast:
  model: static
  static_stddev: 0.002
storage:
  steps: memory
  runs: memory
%s`, prices, swaps, extra)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	stores, err := backend.Open(context.Background(), cfg.Storage)
	require.NoError(t, err)
	t.Cleanup(stores.Close)

	return New(Options{Config: cfg, Stores: stores}), stores
}

func TestOrchestrator_Ingest(t *testing.T) {
	ctx := context.Background()
	orch, _ := setup(t, "")

	res, err := orch.Ingest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 181, res.Prices)
	assert.Equal(t, 12, res.Swaps)

	// Second ingest hits duplicate keys and is skipped.
	res, err = orch.Ingest(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Prices)
	assert.Zero(t, res.Swaps)
}

func TestOrchestrator_Request_ResolvesWindow(t *testing.T) {
	ctx := context.Background()
	orch, _ := setup(t, "")
	_, err := orch.Ingest(ctx)
	require.NoError(t, err)

	req, err := orch.Request(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pool-1", req.PoolID)
	assert.Equal(t, 60*minute, req.StartMs)
	assert.Equal(t, 180*minute, req.EndMs)
	assert.Equal(t, 60*minute, req.WarmupMs)
	assert.Equal(t, minute, req.IntervalMs)
	assert.Equal(t, 1000.0, req.Initial0)
	assert.Equal(t, sweep.Label(req.Params), req.Label)
}

func TestOrchestrator_Request_NoPrices(t *testing.T) {
	orch, _ := setup(t, "")

	_, err := orch.Request(context.Background())
	assert.ErrorIs(t, err, simulation.ErrNoPrices)
}

func TestOrchestrator_Backtest(t *testing.T) {
	ctx := context.Background()
	orch, stores := setup(t, "")
	_, err := orch.Ingest(ctx)
	require.NoError(t, err)

	res, err := orch.Backtest(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 121, res.Run.Steps)
	assert.Equal(t, 60*minute, res.Run.StartMs)

	runs, err := stores.Runs.List(ctx, "pool-1")
	require.NoError(t, err)
	assert.Empty(t, runs, "not persisted without persist flag")

	res, err = orch.Backtest(ctx, true)
	require.NoError(t, err)
	stored, err := stores.Runs.GetByID(ctx, res.Run.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.Run.Summary, stored.Summary)
	steps, err := stores.Steps.GetByRunID(ctx, res.Run.RunID)
	require.NoError(t, err)
	assert.Len(t, steps, 121)
}

func TestOrchestrator_Sweep(t *testing.T) {
	ctx := context.Background()
	orch, stores := setup(t, `sweep:
  alphas: [0.3, 0.6]
  taus: [0.9, 0.95]
  concurrency: 2
  persist: true
`)
	_, err := orch.Ingest(ctx)
	require.NoError(t, err)

	var seen atomic.Int32
	cells, err := orch.Sweep(ctx, func(sweep.CellResult) { seen.Add(1) })
	require.NoError(t, err)
	require.Len(t, cells, 4)
	assert.EqualValues(t, 4, seen.Load())
	for _, c := range cells {
		require.NoError(t, c.Err)
	}
	assert.Equal(t, 0.3, cells[0].Params.Alpha)
	assert.Equal(t, 0.95, cells[3].Params.Tau)

	runs, err := stores.Runs.List(ctx, "pool-1")
	require.NoError(t, err)
	assert.Len(t, runs, 4)
}
