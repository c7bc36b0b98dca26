// Package allocator turns inventory and a forecast distribution into a base
// position, a single-sided limit position and leftover inventory.
package allocator

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/tickmath"
)

// Allocation errors. Every invariant failure wraps ErrInvariant.
var (
	ErrInvariant           = errors.New("allocation invariant violated")
	ErrOverAllocated       = fmt.Errorf("%w: allocated amount exceeds available inventory", ErrInvariant)
	ErrLimitNotSingleSided = fmt.Errorf("%w: limit position holds both tokens", ErrInvariant)
	ErrInvalidForecast     = errors.New("invalid forecast")
	ErrInvalidInventory    = errors.New("invalid inventory")
)

// residualTolerance is the relative shortfall absorbed as float rounding.
const residualTolerance = 1e-9

// Input is everything needed to (re)deploy inventory.
type Input struct {
	TimestampMs int64
	Price       float64 // token1 per token0
	PriceTick   int     // snapped tick of Price
	Amount0     float64 // available token0
	Amount1     float64 // available token1
	Forecast    domain.Forecast
	Params      domain.StrategyParams
}

// Allocation is the result of deploying inventory.
type Allocation struct {
	Base      domain.LiquidityPosition
	Limit     domain.LiquidityPosition
	Leftover0 float64
	Leftover1 float64
	ResetBand domain.Band
	BaseBand  domain.Band
	LimitBand domain.Band
}

// Bands computes the reset and base price bands around price from the
// forecast distribution N(mean, std).
func Bands(price float64, fc domain.Forecast, params domain.StrategyParams) (reset, base domain.Band) {
	dist := distuv.Normal{Mu: fc.Mean, Sigma: fc.StdDev()}
	band := func(confidence float64) domain.Band {
		tail := (1 - confidence) / 2
		return domain.Band{
			Lower: price * (1 + dist.Quantile(tail)),
			Upper: price * (1 + dist.Quantile(1-tail)),
		}
	}
	return band(params.Tau), band(params.Alpha)
}

// Allocate deploys the available inventory into base and limit positions.
// Steps:
//  1. Reset and base bands from the forecast quantiles
//  2. Snap base band to ticks
//  3. Place the maximum base liquidity, take what it actually consumes
//  4. Place the remainder single-sided on the richer side as the limit position
//  5. What is left becomes leftover inventory
func Allocate(in Input) (Allocation, error) {
	if err := validate(in); err != nil {
		return Allocation{}, err
	}
	p := in.Params
	spacing := p.TickSpacing()
	boundaryTick := func(price float64) int {
		return tickmath.BoundaryTick(price, p.Token0Decimals, p.Token1Decimals, spacing)
	}

	// 1. Bands
	resetBand, baseBand := Bands(in.Price, in.Forecast, p)

	// 2. Base ticks
	baseLower, baseUpper := ordered(boundaryTick(baseBand.Lower), boundaryTick(baseBand.Upper))

	// 3. Base position
	base := place(in, baseLower, baseUpper, in.Amount0, in.Amount1)
	rem0 := in.Amount0 - base.Token0
	rem1 := in.Amount1 - base.Token1

	// 4. Limit position on the richer side
	var limitBand domain.Band
	var limitLower, limitUpper int
	var limit0, limit1 float64
	if rem0*in.Price > rem1 {
		limitBand = domain.Band{Lower: in.Price, Upper: baseBand.Upper}
		limitLower, limitUpper = ordered(in.PriceTick, baseUpper)
		limit0 = rem0
	} else {
		limitBand = domain.Band{Lower: baseBand.Lower, Upper: in.Price}
		limitLower, limitUpper = ordered(baseLower, in.PriceTick)
		limit1 = rem1
	}
	limit := place(in, limitLower, limitUpper, nonNegative(limit0), nonNegative(limit1))
	if limit.Token0 > 0 && limit.Token1 > 0 {
		return Allocation{}, fmt.Errorf("%w: token0 %v token1 %v on [%d, %d] at tick %d",
			ErrLimitNotSingleSided, limit.Token0, limit.Token1, limitLower, limitUpper, in.PriceTick)
	}

	// 5. Leftover
	left0, err := residual(in.Amount0, rem0-limit.Token0, "token0")
	if err != nil {
		return Allocation{}, err
	}
	left1, err := residual(in.Amount1, rem1-limit.Token1, "token1")
	if err != nil {
		return Allocation{}, err
	}

	return Allocation{
		Base:      base,
		Limit:     limit,
		Leftover0: left0,
		Leftover1: left1,
		ResetBand: resetBand,
		BaseBand:  baseBand,
		LimitBand: limitBand,
	}, nil
}

// place deploys the maximum liquidity fundable by amount0/amount1 in [lower, upper].
func place(in Input, lower, upper int, amount0, amount1 float64) domain.LiquidityPosition {
	p := in.Params
	liq := tickmath.LiquidityForAmounts(in.PriceTick, lower, upper, amount0, amount1, p.Token0Decimals, p.Token1Decimals)
	a0, a1 := tickmath.AmountsForLiquidity(in.PriceTick, lower, upper, liq, p.Token0Decimals, p.Token1Decimals)

	return domain.LiquidityPosition{
		LowerTick:               lower,
		UpperTick:               upper,
		Liquidity:               liq,
		Token0:                  a0,
		Token1:                  a1,
		PlacementPrice:          in.Price,
		PlacementTimeMs:         in.TimestampMs,
		PlacementVolatility:     in.Forecast.StdDev(),
		PlacementReturnForecast: in.Forecast.Mean,
		LastResetMs:             in.TimestampMs,
	}
}

// residual clamps float-rounding shortfalls to zero and rejects real ones.
func residual(available, left float64, token string) (float64, error) {
	if left >= 0 {
		return left, nil
	}
	if -left <= residualTolerance*math.Max(available, 1) {
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %s residual %v from available %v", ErrOverAllocated, token, left, available)
}

func validate(in Input) error {
	if !(in.Price > 0) || math.IsInf(in.Price, 0) {
		return fmt.Errorf("%w: price %v", ErrInvalidInventory, in.Price)
	}
	if !finiteNonNegative(in.Amount0) || !finiteNonNegative(in.Amount1) {
		return fmt.Errorf("%w: amounts %v/%v", ErrInvalidInventory, in.Amount0, in.Amount1)
	}
	if math.IsNaN(in.Forecast.Mean) || math.IsInf(in.Forecast.Mean, 0) ||
		!(in.Forecast.Variance > 0) || math.IsInf(in.Forecast.Variance, 0) {
		return fmt.Errorf("%w: mean %v variance %v", ErrInvalidForecast, in.Forecast.Mean, in.Forecast.Variance)
	}
	return nil
}

func ordered(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
