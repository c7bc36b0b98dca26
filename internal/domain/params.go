package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParams is returned by StrategyParams.Validate.
var ErrInvalidParams = errors.New("invalid strategy params")

// DefaultVolCheckIntervalMs is the spacing of volatility re-evaluations after a reset.
const DefaultVolCheckIntervalMs int64 = 24 * 60 * 60 * 1000

// StrategyParams is the immutable configuration of a single run.
type StrategyParams struct {
	Alpha                float64 // base band confidence, 0 < alpha < 1
	Tau                  float64 // reset band confidence, 0 < tau < 1
	LimitRatioThreshold  float64 // limit/base imbalance threshold, > 0
	VolatilityResetRatio float64 // fresh/reset std ratio at or below which to reset
	FeeRate              float64 // pool fee fraction (0.003 = 30 bps)
	Token0Decimals       int
	Token1Decimals       int
	VolCheckIntervalMs   int64 // elapsed-since-reset multiple that gates the volatility check
}

// TickSpacing returns the pool tick spacing for the fee tier.
func (p StrategyParams) TickSpacing() int {
	return int(math.Round(p.FeeRate * 2 * 10000))
}

// DecimalAdjustment converts a human price into a raw pool price.
func (p StrategyParams) DecimalAdjustment() float64 {
	return math.Pow(10, float64(p.Token1Decimals-p.Token0Decimals))
}

// Validate checks parameter ranges.
func (p StrategyParams) Validate() error {
	switch {
	case !(p.Alpha > 0 && p.Alpha < 1):
		return fmt.Errorf("%w: alpha %v not in (0,1)", ErrInvalidParams, p.Alpha)
	case !(p.Tau > 0 && p.Tau < 1):
		return fmt.Errorf("%w: tau %v not in (0,1)", ErrInvalidParams, p.Tau)
	case !(p.LimitRatioThreshold > 0):
		return fmt.Errorf("%w: limit_ratio_threshold %v must be > 0", ErrInvalidParams, p.LimitRatioThreshold)
	case !(p.VolatilityResetRatio >= 0 && p.VolatilityResetRatio < 1):
		return fmt.Errorf("%w: volatility_reset_ratio %v not in [0,1)", ErrInvalidParams, p.VolatilityResetRatio)
	case !(p.FeeRate > 0 && p.FeeRate < 1):
		return fmt.Errorf("%w: fee_rate %v not in (0,1)", ErrInvalidParams, p.FeeRate)
	case p.TickSpacing() < 1:
		return fmt.Errorf("%w: fee_rate %v gives tick spacing < 1", ErrInvalidParams, p.FeeRate)
	case p.Token0Decimals < 0 || p.Token0Decimals > 36 || p.Token1Decimals < 0 || p.Token1Decimals > 36:
		return fmt.Errorf("%w: decimals %d/%d out of range", ErrInvalidParams, p.Token0Decimals, p.Token1Decimals)
	case p.VolCheckIntervalMs <= 0:
		return fmt.Errorf("%w: vol_check_interval_ms %d must be > 0", ErrInvalidParams, p.VolCheckIntervalMs)
	}
	return nil
}

// Forecast is a one-step-ahead return distribution.
type Forecast struct {
	Mean     float64 // expected simple return
	Variance float64 // return variance
}

// StdDev returns the forecast standard deviation.
func (f Forecast) StdDev() float64 {
	return math.Sqrt(f.Variance)
}
