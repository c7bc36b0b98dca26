package tickmath

import (
	"math"
	"math/big"

	"github.com/holiman/uint256"
)

const precision = 256

var q96 = new(big.Float).SetPrec(precision).SetInt(new(big.Int).Lsh(big.NewInt(1), 96))

// sqrtRatioX96 returns sqrt(1.0001^tick) * 2^96.
func sqrtRatioX96(tick int) *big.Float {
	s := new(big.Float).SetPrec(precision).SetFloat64(math.Pow(1.0001, float64(tick)/2))
	return s.Mul(s, q96)
}

func pow10(decimals int) *big.Float {
	return new(big.Float).SetPrec(precision).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
}

func bf(v float64) *big.Float {
	return new(big.Float).SetPrec(precision).SetFloat64(v)
}

// liquidity0 is the liquidity supported by amount0 over [sa, sb].
func liquidity0(amount0 float64, sa, sb *big.Float, decimals0 int) *big.Float {
	num := new(big.Float).SetPrec(precision).Mul(sa, sb)
	num.Quo(num, q96)
	num.Mul(num, bf(amount0))
	num.Mul(num, pow10(decimals0))
	return num.Quo(num, new(big.Float).SetPrec(precision).Sub(sb, sa))
}

// liquidity1 is the liquidity supported by amount1 over [sa, sb].
func liquidity1(amount1 float64, sa, sb *big.Float, decimals1 int) *big.Float {
	num := new(big.Float).SetPrec(precision).Mul(bf(amount1), q96)
	num.Mul(num, pow10(decimals1))
	return num.Quo(num, new(big.Float).SetPrec(precision).Sub(sb, sa))
}

// amount0 is the token0 held by liquidity over [sa, sb].
func amount0(liq, sa, sb *big.Float, decimals0 int) float64 {
	v := new(big.Float).SetPrec(precision).Mul(liq, q96)
	v.Mul(v, new(big.Float).SetPrec(precision).Sub(sb, sa))
	v.Quo(v, sb)
	v.Quo(v, sa)
	v.Quo(v, pow10(decimals0))
	f, _ := v.Float64()
	return f
}

// amount1 is the token1 held by liquidity over [sa, sb].
func amount1(liq, sa, sb *big.Float, decimals1 int) float64 {
	v := new(big.Float).SetPrec(precision).Mul(liq, new(big.Float).SetPrec(precision).Sub(sb, sa))
	v.Quo(v, q96)
	v.Quo(v, pow10(decimals1))
	f, _ := v.Float64()
	return f
}

// LiquidityForAmounts returns the largest integer liquidity that amount0 and
// amount1 can fund in [lower, upper] at the current tick.
// Empty ranges and non-positive amounts yield zero.
func LiquidityForAmounts(tick, lower, upper int, amount0, amount1 float64, decimals0, decimals1 int) uint256.Int {
	var out uint256.Int
	if lower >= upper {
		return out
	}
	amount0 = nonNegative(amount0)
	amount1 = nonNegative(amount1)

	sp := sqrtRatioX96(tick)
	sa := sqrtRatioX96(lower)
	sb := sqrtRatioX96(upper)

	var liq *big.Float
	switch {
	case sp.Cmp(sa) <= 0:
		liq = liquidity0(amount0, sa, sb, decimals0)
	case sp.Cmp(sb) < 0:
		l0 := liquidity0(amount0, sp, sb, decimals0)
		l1 := liquidity1(amount1, sa, sp, decimals1)
		liq = l0
		if l1.Cmp(l0) < 0 {
			liq = l1
		}
	default:
		liq = liquidity1(amount1, sa, sb, decimals1)
	}

	// Truncation toward zero is the floor for non-negative values.
	floor, _ := liq.Int(nil)
	if floor.Sign() <= 0 {
		return out
	}
	if overflow := out.SetFromBig(floor); overflow {
		out.SetAllOne()
	}
	return out
}

// AmountsForLiquidity returns the token amounts held by liquidity in
// [lower, upper] at the current tick.
func AmountsForLiquidity(tick, lower, upper int, liquidity uint256.Int, decimals0, decimals1 int) (float64, float64) {
	if lower >= upper || liquidity.IsZero() {
		return 0, 0
	}

	liq := new(big.Float).SetPrec(precision).SetInt(liquidity.ToBig())
	sp := sqrtRatioX96(tick)
	sa := sqrtRatioX96(lower)
	sb := sqrtRatioX96(upper)

	switch {
	case sp.Cmp(sa) <= 0:
		return amount0(liq, sa, sb, decimals0), 0
	case sp.Cmp(sb) < 0:
		return amount0(liq, sp, sb, decimals0), amount1(liq, sa, sp, decimals1)
	default:
		return 0, amount1(liq, sa, sb, decimals1)
	}
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
