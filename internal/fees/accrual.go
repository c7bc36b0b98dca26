// Package fees attributes pool swap fees to deployed liquidity positions.
package fees

import (
	"sort"

	"clmm-backtest/internal/domain"
)

// Result holds fees earned per token.
type Result struct {
	Fee0 float64
	Fee1 float64
}

// Add returns the component-wise sum.
func (r Result) Add(other Result) Result {
	return Result{Fee0: r.Fee0 + other.Fee0, Fee1: r.Fee1 + other.Fee1}
}

// Accrue attributes swaps to positions whose [lower, upper] contains the trade tick.
// Each match earns feeRate * amountIn * liquidity / virtualLiquidity of the input token.
// Contributions are summed in sorted order, so any permutation of swaps yields
// bit-identical totals.
func Accrue(swaps []domain.SwapEvent, positions []domain.LiquidityPosition, feeRate float64) Result {
	if len(swaps) == 0 || len(positions) == 0 {
		return Result{}
	}

	liquidity := make([]float64, len(positions))
	for i, p := range positions {
		liquidity[i] = p.LiquidityFloat()
	}

	var parts0, parts1 []float64
	for _, s := range swaps {
		if !(s.VirtualLiquidity > 0) {
			continue
		}
		for i, p := range positions {
			if liquidity[i] == 0 || !p.InRange(s.Tick) {
				continue
			}
			fee := feeRate * s.AmountIn * (liquidity[i] / s.VirtualLiquidity)
			if s.Direction == domain.DirectionToken0In {
				parts0 = append(parts0, fee)
			} else {
				parts1 = append(parts1, fee)
			}
		}
	}

	return Result{Fee0: sortedSum(parts0), Fee1: sortedSum(parts1)}
}

func sortedSum(parts []float64) float64 {
	sort.Float64s(parts)
	sum := 0.0
	for _, v := range parts {
		sum += v
	}
	return sum
}
