// Package reporting renders stored runs as tables, CSV and Markdown.
package reporting

import (
	"time"

	"clmm-backtest/internal/domain"
)

// Report represents a run comparison report.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	PoolID      string // empty when the report covers every pool

	DataSummary DataSummary

	// Runs ranked by net APR DESC, run_id ASC
	Runs []RunRow
}

// DataSummary describes the runs a report covers.
type DataSummary struct {
	TotalRuns      int
	TotalPools     int
	TotalSteps     int
	TotalResets    int
	DateRangeStart int64 // Unix ms
	DateRangeEnd   int64 // Unix ms
}

// RunRow represents one row in the run table.
type RunRow struct {
	RunID                string
	PoolID               string
	Label                string
	Alpha                float64
	Tau                  float64
	LimitRatioThreshold  float64
	VolatilityResetRatio float64
	Days                 int
	Steps                int
	Rebalances           int
	GrossFeeAPR          float64
	NetReturn            float64
	NetAPR               float64
	MaxDrawdown          float64
	Volatility           float64
	SharpeRatio          float64
	MeanBasePosition     float64
}

// NewRunRow flattens a run record.
func NewRunRow(r *domain.RunRecord) RunRow {
	return RunRow{
		RunID:                r.RunID,
		PoolID:               r.PoolID,
		Label:                r.Label,
		Alpha:                r.Params.Alpha,
		Tau:                  r.Params.Tau,
		LimitRatioThreshold:  r.Params.LimitRatioThreshold,
		VolatilityResetRatio: r.Params.VolatilityResetRatio,
		Days:                 r.Summary.Days,
		Steps:                r.Steps,
		Rebalances:           r.Summary.Rebalances,
		GrossFeeAPR:          r.Summary.GrossFeeAPR,
		NetReturn:            r.Summary.NetReturn,
		NetAPR:               r.Summary.NetAPR,
		MaxDrawdown:          r.Summary.MaxDrawdown,
		Volatility:           r.Summary.Volatility,
		SharpeRatio:          r.Summary.SharpeRatio,
		MeanBasePosition:     r.Summary.MeanBasePosition,
	}
}
