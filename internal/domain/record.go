package domain

// StepRecord is the flattened per-step output of a run.
// Corresponds to step_records table in ClickHouse and PostgreSQL.
// USD columns invert the band (token0 per token1), so lower_usd = 1/upper.
type StepRecord struct {
	RunID          string
	TimestampMs    int64
	Price          float64 // token1 per token0
	Price10        float64 // token0 per token1
	ResetPoint     bool
	Triggers       string  // ResetTrigger.String()
	Volatility     float64 // base position forecast std
	ReturnForecast float64 // base position forecast mean

	BaseLower  float64
	BaseUpper  float64
	LimitLower float64
	LimitUpper float64
	ResetLower float64
	ResetUpper float64

	BaseLowerUSD  float64
	BaseUpperUSD  float64
	LimitLowerUSD float64
	LimitUpperUSD float64
	ResetLowerUSD float64
	ResetUpperUSD float64

	Fees0        float64 // step fees
	Fees1        float64
	FeesAccrued0 float64 // fees since last reset
	FeesAccrued1 float64
	Leftover0    float64
	Leftover1    float64

	Base0      float64
	Base1      float64
	Limit0     float64
	Limit1     float64
	Allocated0 float64
	Allocated1 float64
	Total0     float64
	Total1     float64

	ValuePosition      float64 // total0 + total1*price10
	ValueAllocated     float64
	ValueLeftover      float64
	BasePositionValue  float64
	LimitPositionValue float64
}
