package domain

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Position slots within PortfolioState.Positions.
const (
	BaseIndex  = 0
	LimitIndex = 1
)

// Band is a price-space interval.
type Band struct {
	Lower float64
	Upper float64
}

// Contains reports whether price lies within [Lower, Upper].
func (b Band) Contains(price float64) bool {
	return price >= b.Lower && price <= b.Upper
}

// LiquidityPosition is one deployed concentrated-liquidity range.
// Liquidity only changes on redeployment; token amounts are re-derived each step.
type LiquidityPosition struct {
	LowerTick int         // multiple of tick spacing
	UpperTick int         // multiple of tick spacing
	Liquidity uint256.Int // raw liquidity units
	Token0    float64     // token0 held at the current tick
	Token1    float64     // token1 held at the current tick

	PlacementPrice          float64 // price at deployment
	PlacementTimeMs         int64   // deployment timestamp (ms)
	PlacementVolatility     float64 // forecast std at deployment
	PlacementReturnForecast float64 // forecast mean at deployment
	LastResetMs             int64   // timestamp of the reset that created this position (ms)
}

// WithAmounts returns a copy holding the given token amounts.
func (p LiquidityPosition) WithAmounts(amount0, amount1 float64) LiquidityPosition {
	p.Token0 = amount0
	p.Token1 = amount1
	return p
}

// InRange reports whether tick lies within [LowerTick, UpperTick].
func (p LiquidityPosition) InRange(tick int) bool {
	return tick >= p.LowerTick && tick <= p.UpperTick
}

// LiquidityFloat returns the liquidity as float64 for ratio math.
func (p LiquidityPosition) LiquidityFloat() float64 {
	f, _ := new(big.Float).SetInt(p.Liquidity.ToBig()).Float64()
	return f
}

// Value is the position value in token1 units at price (token1 per token0).
func (p LiquidityPosition) Value(price float64) float64 {
	return p.Token0*price + p.Token1
}

// ValueUSD is the position value in token0 units given price1_0 (token0 per token1).
func (p LiquidityPosition) ValueUSD(price10 float64) float64 {
	return p.Token0 + p.Token1*price10
}
