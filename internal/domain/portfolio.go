package domain

import "strings"

// ResetTrigger is a set of reasons that forced a redeployment.
type ResetTrigger uint8

// Reset triggers.
const (
	TriggerBandBreach ResetTrigger = 1 << iota
	TriggerImbalance
	TriggerVolatilityDecay
)

// Has reports whether t contains flag.
func (t ResetTrigger) Has(flag ResetTrigger) bool {
	return t&flag != 0
}

// String joins trigger names with "|".
func (t ResetTrigger) String() string {
	if t == 0 {
		return ""
	}
	var parts []string
	if t.Has(TriggerBandBreach) {
		parts = append(parts, "band_breach")
	}
	if t.Has(TriggerImbalance) {
		parts = append(parts, "imbalance")
	}
	if t.Has(TriggerVolatilityDecay) {
		parts = append(parts, "volatility_decay")
	}
	return strings.Join(parts, "|")
}

// PortfolioState is the strategy snapshot for one simulated step.
// Values are never mutated after the driver returns them.
type PortfolioState struct {
	TimestampMs int64   // step timestamp (ms)
	Price       float64 // token1 per token0
	PriceTick   int     // snapped tick of Price

	Positions [2]LiquidityPosition // [BaseIndex], [LimitIndex]

	Leftover0    float64 // uninvested token0
	Leftover1    float64 // uninvested token1
	AccruedFees0 float64 // token0 fees since last reset
	AccruedFees1 float64 // token1 fees since last reset
	StepFees0    float64 // token0 fees earned this step
	StepFees1    float64 // token1 fees earned this step

	ResetBand Band
	BaseBand  Band
	LimitBand Band

	IsResetPoint bool
	Triggers     ResetTrigger

	Inventory0 float64 // token0 deployed at the last reset
	Inventory1 float64 // token1 deployed at the last reset

	Params StrategyParams
}

// Base returns the base position.
func (s *PortfolioState) Base() LiquidityPosition { return s.Positions[BaseIndex] }

// Limit returns the limit position.
func (s *PortfolioState) Limit() LiquidityPosition { return s.Positions[LimitIndex] }

// Allocated0 sums token0 across positions.
func (s *PortfolioState) Allocated0() float64 {
	return s.Positions[BaseIndex].Token0 + s.Positions[LimitIndex].Token0
}

// Allocated1 sums token1 across positions.
func (s *PortfolioState) Allocated1() float64 {
	return s.Positions[BaseIndex].Token1 + s.Positions[LimitIndex].Token1
}

// Total0 is allocated + leftover + accrued token0.
func (s *PortfolioState) Total0() float64 {
	return s.Allocated0() + s.Leftover0 + s.AccruedFees0
}

// Total1 is allocated + leftover + accrued token1.
func (s *PortfolioState) Total1() float64 {
	return s.Allocated1() + s.Leftover1 + s.AccruedFees1
}

// Record flattens the state into an output row.
func (s *PortfolioState) Record(runID string) StepRecord {
	p10 := 1 / s.Price
	base := s.Base()
	limit := s.Limit()

	r := StepRecord{
		RunID:          runID,
		TimestampMs:    s.TimestampMs,
		Price:          s.Price,
		Price10:        p10,
		ResetPoint:     s.IsResetPoint,
		Triggers:       s.Triggers.String(),
		Volatility:     base.PlacementVolatility,
		ReturnForecast: base.PlacementReturnForecast,

		BaseLower:  s.BaseBand.Lower,
		BaseUpper:  s.BaseBand.Upper,
		LimitLower: s.LimitBand.Lower,
		LimitUpper: s.LimitBand.Upper,
		ResetLower: s.ResetBand.Lower,
		ResetUpper: s.ResetBand.Upper,

		BaseLowerUSD:  inverse(s.BaseBand.Upper),
		BaseUpperUSD:  inverse(s.BaseBand.Lower),
		LimitLowerUSD: inverse(s.LimitBand.Upper),
		LimitUpperUSD: inverse(s.LimitBand.Lower),
		ResetLowerUSD: inverse(s.ResetBand.Upper),
		ResetUpperUSD: inverse(s.ResetBand.Lower),

		Fees0:        s.StepFees0,
		Fees1:        s.StepFees1,
		FeesAccrued0: s.AccruedFees0,
		FeesAccrued1: s.AccruedFees1,
		Leftover0:    s.Leftover0,
		Leftover1:    s.Leftover1,

		Base0:      base.Token0,
		Base1:      base.Token1,
		Limit0:     limit.Token0,
		Limit1:     limit.Token1,
		Allocated0: s.Allocated0(),
		Allocated1: s.Allocated1(),
		Total0:     s.Total0(),
		Total1:     s.Total1(),
	}

	r.ValuePosition = r.Total0 + r.Total1*p10
	r.ValueAllocated = r.Allocated0 + r.Allocated1*p10
	r.ValueLeftover = r.Leftover0 + r.Leftover1*p10
	r.BasePositionValue = base.ValueUSD(p10)
	r.LimitPositionValue = limit.ValueUSD(p10)
	return r
}

func inverse(v float64) float64 {
	if v == 0 {
		return 0
	}
	return 1 / v
}
