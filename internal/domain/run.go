package domain

// RunRecord describes one completed backtest run.
// Corresponds to runs table in PostgreSQL and SQLite.
type RunRecord struct {
	RunID       string // uuid
	PoolID      string
	Label       string // free-form, e.g. sweep cell
	Params      StrategyParams
	Initial0    float64 // initial token0 inventory
	Initial1    float64 // initial token1 inventory
	StartMs     int64   // first step timestamp
	EndMs       int64   // last step timestamp
	Steps       int
	CreatedAtMs int64
	Summary     RunSummary
}

// RunSummary aggregates a run's step records into return and risk statistics.
type RunSummary struct {
	Days               int     // whole days between first and last step
	InitialValue       float64 // value_position at step 0
	FinalValue         float64 // value_position at the last step
	GrossFeeReturn     float64 // cumulative fees / initial value
	GrossFeeAPR        float64
	NetReturn          float64 // final / initial - 1
	NetAPR             float64
	Rebalances         int     // steps flagged as reset points
	MaxDrawdown        float64 // (max - min) / max of value_position
	Volatility         float64 // annualised std of per-step value returns
	SharpeRatio        float64 // net APR / volatility
	MeanBasePosition   float64 // mean base share of value
	MedianBasePosition float64 // median base share of value
}
