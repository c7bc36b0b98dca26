package fees

import (
	"math/rand/v2"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"

	"clmm-backtest/internal/domain"
)

func position(lower, upper int, liquidity uint64) domain.LiquidityPosition {
	return domain.LiquidityPosition{LowerTick: lower, UpperTick: upper, Liquidity: *uint256.NewInt(liquidity)}
}

func swap(tick int, dir domain.Direction, amountIn, virtual float64) domain.SwapEvent {
	return domain.SwapEvent{Tick: tick, Direction: dir, AmountIn: amountIn, VirtualLiquidity: virtual}
}

func TestAccrue_InRangeOnly(t *testing.T) {
	positions := []domain.LiquidityPosition{
		position(-600, 600, 1_000),
		position(0, 600, 500),
	}
	swaps := []domain.SwapEvent{
		swap(-100, domain.DirectionToken0In, 100, 10_000), // base only
		swap(300, domain.DirectionToken1In, 200, 10_000),  // both
		swap(900, domain.DirectionToken0In, 100, 10_000),  // neither
	}

	got := Accrue(swaps, positions, 0.003)

	assert.InDelta(t, 0.003*100*0.1, got.Fee0, 1e-15)
	assert.InDelta(t, 0.003*200*0.1+0.003*200*0.05, got.Fee1, 1e-15)
}

func TestAccrue_BoundariesInclusive(t *testing.T) {
	positions := []domain.LiquidityPosition{position(-60, 60, 1_000)}
	swaps := []domain.SwapEvent{
		swap(-60, domain.DirectionToken0In, 10, 1_000),
		swap(60, domain.DirectionToken1In, 10, 1_000),
	}

	got := Accrue(swaps, positions, 0.01)
	assert.InDelta(t, 0.1, got.Fee0, 1e-15)
	assert.InDelta(t, 0.1, got.Fee1, 1e-15)
}

func TestAccrue_Empty(t *testing.T) {
	assert.Equal(t, Result{}, Accrue(nil, []domain.LiquidityPosition{position(0, 60, 1)}, 0.003))
	assert.Equal(t, Result{}, Accrue([]domain.SwapEvent{swap(0, domain.DirectionToken0In, 1, 1)}, nil, 0.003))

	// zero-liquidity position earns nothing
	got := Accrue([]domain.SwapEvent{swap(0, domain.DirectionToken0In, 1, 1)}, []domain.LiquidityPosition{position(-60, 60, 0)}, 0.003)
	assert.Equal(t, Result{}, got)
}

func TestAccrue_Commutative(t *testing.T) {
	positions := []domain.LiquidityPosition{
		position(-1200, 1200, 123_456_789),
		position(0, 1200, 98_765_432),
	}

	rng := rand.New(rand.NewPCG(42, 43))
	swaps := make([]domain.SwapEvent, 500)
	for i := range swaps {
		dir := domain.DirectionToken0In
		if rng.IntN(2) == 1 {
			dir = domain.DirectionToken1In
		}
		swaps[i] = swap(rng.IntN(3000)-1500, dir, rng.Float64()*1000, 1e9+rng.Float64()*1e9)
	}

	want := Accrue(swaps, positions, 0.003)
	for i := 0; i < 10; i++ {
		shuffled := make([]domain.SwapEvent, len(swaps))
		copy(shuffled, swaps)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		assert.Equal(t, want, Accrue(shuffled, positions, 0.003), "permutation %d", i)
	}
}

func TestAccrue_AdditiveAcrossPositions(t *testing.T) {
	a := position(-600, 600, 1_000)
	b := position(0, 600, 700)
	swaps := []domain.SwapEvent{
		swap(10, domain.DirectionToken0In, 50, 5_000),
		swap(20, domain.DirectionToken1In, 70, 5_000),
	}

	both := Accrue(swaps, []domain.LiquidityPosition{a, b}, 0.003)
	sum := Accrue(swaps, []domain.LiquidityPosition{a}, 0.003).Add(Accrue(swaps, []domain.LiquidityPosition{b}, 0.003))

	assert.InDelta(t, sum.Fee0, both.Fee0, 1e-15)
	assert.InDelta(t, sum.Fee1, both.Fee1, 1e-15)
}

func TestResult_Add(t *testing.T) {
	assert.Equal(t, Result{Fee0: 3, Fee1: 5}, Result{Fee0: 1, Fee1: 2}.Add(Result{Fee0: 2, Fee1: 3}))
}
