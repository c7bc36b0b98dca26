// Package reset decides when deployed positions must be withdrawn and redeployed.
package reset

import (
	"fmt"

	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/forecast"
	"clmm-backtest/internal/tickmath"
)

// Decision is the outcome of evaluating one step.
type Decision struct {
	Reset      bool
	Triggers   domain.ResetTrigger
	VolChecked bool            // the volatility check ran this step
	Fresh      domain.Forecast // valid when VolChecked
}

// Engine evaluates the reset triggers for a portfolio state.
type Engine struct {
	forecaster forecast.Forecaster
}

// NewEngine creates an engine that refits f for the volatility check.
func NewEngine(f forecast.Forecaster) *Engine {
	return &Engine{forecaster: f}
}

// Evaluate checks band breach, limit imbalance and volatility decay against
// state, which must already carry this step's amounts and fees.
// history holds the returns strictly before state.TimestampMs.
func (e *Engine) Evaluate(state domain.PortfolioState, history []float64) (Decision, error) {
	var d Decision

	if BandBreached(state) {
		d.Triggers |= domain.TriggerBandBreach
	}
	if Imbalanced(state) {
		d.Triggers |= domain.TriggerImbalance
	}

	if VolCheckDue(state) {
		fc, err := e.forecaster.Forecast(history)
		if err != nil {
			return Decision{}, fmt.Errorf("volatility check: %w", err)
		}
		d.VolChecked = true
		d.Fresh = fc
		if ref := state.Base().PlacementVolatility; ref > 0 && fc.StdDev()/ref <= state.Params.VolatilityResetRatio {
			d.Triggers |= domain.TriggerVolatilityDecay
		}
	}

	d.Reset = d.Triggers != 0
	return d, nil
}

// BandBreached reports whether the price left the reset band.
func BandBreached(state domain.PortfolioState) bool {
	return state.Price < state.ResetBand.Lower || state.Price > state.ResetBand.Upper
}

// Imbalanced reports whether the limit position has been converted enough to
// be folded back into a new base position: it holds both tokens, its
// token0/token1 ratio lies in [θ, θ+1] and it outweighs the base by (1+θ).
// With an empty base the ratio condition alone triggers.
func Imbalanced(state domain.PortfolioState) bool {
	limit := state.Limit()
	if !(limit.Token0 > 0 && limit.Token1 > 0) {
		return false
	}
	theta := state.Params.LimitRatioThreshold
	ratio := limit.Token0 / limit.Token1
	if ratio < theta || ratio > theta+1 {
		return false
	}
	baseValue := state.Base().Value(state.Price)
	if baseValue <= 0 {
		return true
	}
	return limit.Value(state.Price) > (1+theta)*baseValue
}

// VolCheckDue reports whether elapsed time since the last reset is a positive
// multiple of the volatility check interval.
func VolCheckDue(state domain.PortfolioState) bool {
	interval := state.Params.VolCheckIntervalMs
	elapsed := state.TimestampMs - state.Base().LastResetMs
	return interval > 0 && elapsed > 0 && elapsed%interval == 0
}

// Withdraw converts both positions to raw token amounts at the current tick
// and adds leftover and accrued fees. The result is the inventory available
// for redeployment.
func Withdraw(state domain.PortfolioState) (amount0, amount1 float64) {
	p := state.Params
	for _, pos := range state.Positions {
		a0, a1 := tickmath.AmountsForLiquidity(state.PriceTick, pos.LowerTick, pos.UpperTick, pos.Liquidity,
			p.Token0Decimals, p.Token1Decimals)
		amount0 += a0
		amount1 += a1
	}
	amount0 += state.Leftover0 + state.AccruedFees0
	amount1 += state.Leftover1 + state.AccruedFees1
	return amount0, amount1
}
