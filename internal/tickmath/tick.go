// Package tickmath converts between prices, ticks, liquidity and token amounts
// for a concentrated-liquidity pool with price = 1.0001^tick.
package tickmath

import "math"

// Tick bounds of a Uniswap-v3 style pool.
const (
	MinTick = -887272
	MaxTick = 887272
)

var logBase = math.Log(1.0001)

// tickEpsilon absorbs float error when a price sits exactly on a tick.
const tickEpsilon = 1e-9

// TickSpacing returns the tick spacing for a fee fraction (0.003 -> 60).
func TickSpacing(feeRate float64) int {
	return int(math.Round(feeRate * 2 * 10000))
}

// PriceToTick returns floor(log_1.0001(price * 10^(dec1-dec0))).
// Non-positive prices clamp to MinTick.
func PriceToTick(price float64, decimals0, decimals1 int) int {
	adjusted := price * math.Pow(10, float64(decimals1-decimals0))
	if !(adjusted > 0) {
		return MinTick
	}
	if math.IsInf(adjusted, 1) {
		return MaxTick
	}
	return clamp(int(math.Floor(math.Log(adjusted)/logBase + tickEpsilon)))
}

// SnapTick rounds tick to the nearest multiple of spacing, ties to even.
// The result stays within [MinTick, MaxTick]: a multiple rounded past a bound
// moves to the outermost multiple inside it.
func SnapTick(tick, spacing int) int {
	if spacing <= 1 {
		return tick
	}
	snapped := int(math.RoundToEven(float64(tick)/float64(spacing))) * spacing
	// integer division truncates toward zero, i.e. inward
	switch {
	case snapped < MinTick:
		return MinTick / spacing * spacing
	case snapped > MaxTick:
		return MaxTick / spacing * spacing
	}
	return snapped
}

// BoundaryTick converts a price boundary into a valid tick multiple.
func BoundaryTick(price float64, decimals0, decimals1, spacing int) int {
	return SnapTick(PriceToTick(price, decimals0, decimals1), spacing)
}

// TickToPrice returns the human price at tick.
func TickToPrice(tick, decimals0, decimals1 int) float64 {
	return math.Pow(1.0001, float64(tick)) / math.Pow(10, float64(decimals1-decimals0))
}

func clamp(tick int) int {
	if tick < MinTick {
		return MinTick
	}
	if tick > MaxTick {
		return MaxTick
	}
	return tick
}
