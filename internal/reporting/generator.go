package reporting

import (
	"context"
	"errors"
	"sort"
	"time"

	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/storage"
)

// ErrNoRuns is returned when there are no runs to report on.
var ErrNoRuns = errors.New("no runs available for report")

// Generator builds reports from the run store.
type Generator struct {
	runStore storage.RunStore
	now      func() time.Time
}

// NewGenerator creates a report generator.
func NewGenerator(runStore storage.RunStore) *Generator {
	return &Generator{
		runStore: runStore,
		now:      time.Now,
	}
}

// Generate builds a report over the runs of poolID (every pool when empty).
func (g *Generator) Generate(ctx context.Context, poolID string) (*Report, error) {
	runs, err := g.runStore.List(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	return BuildReport(runs, poolID, g.now()), nil
}

// BuildReport ranks runs and summarizes their coverage.
func BuildReport(runs []*domain.RunRecord, poolID string, generatedAt time.Time) *Report {
	r := &Report{
		GeneratedAt: generatedAt.UTC(),
		PoolID:      poolID,
		Runs:        make([]RunRow, 0, len(runs)),
	}

	pools := make(map[string]struct{})
	for i, run := range runs {
		pools[run.PoolID] = struct{}{}
		r.DataSummary.TotalSteps += run.Steps
		r.DataSummary.TotalResets += run.Summary.Rebalances
		if i == 0 || run.StartMs < r.DataSummary.DateRangeStart {
			r.DataSummary.DateRangeStart = run.StartMs
		}
		if run.EndMs > r.DataSummary.DateRangeEnd {
			r.DataSummary.DateRangeEnd = run.EndMs
		}
		r.Runs = append(r.Runs, NewRunRow(run))
	}
	r.DataSummary.TotalRuns = len(runs)
	r.DataSummary.TotalPools = len(pools)

	RankRows(r.Runs)
	return r
}

// RankRows sorts rows by net APR DESC, run_id ASC.
func RankRows(rows []RunRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].NetAPR != rows[j].NetAPR {
			return rows[i].NetAPR > rows[j].NetAPR
		}
		return rows[i].RunID < rows[j].RunID
	})
}
