package tickmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickSpacing(t *testing.T) {
	assert.Equal(t, 60, TickSpacing(0.003))
	assert.Equal(t, 10, TickSpacing(0.0005))
	assert.Equal(t, 200, TickSpacing(0.01))
}

func TestPriceToTick(t *testing.T) {
	assert.Equal(t, 0, PriceToTick(1.0, 18, 18))
	assert.Equal(t, 16095, PriceToTick(5.0, 18, 18))
	// floor, not truncation, for prices below 1
	assert.Equal(t, -6932, PriceToTick(0.5, 18, 18))
	assert.Equal(t, MinTick, PriceToTick(0, 18, 18))
	assert.Equal(t, MinTick, PriceToTick(-1, 18, 18))
}

func TestPriceToTick_DecimalAdjustment(t *testing.T) {
	// 10^(18-6) * 0.0005 = 5e8
	tick := PriceToTick(0.0005, 6, 18)
	assert.Equal(t, 200311, tick)
}

func TestSnapTick(t *testing.T) {
	assert.Equal(t, 60, SnapTick(59, 60))
	assert.Equal(t, 0, SnapTick(29, 60))
	assert.Equal(t, 0, SnapTick(30, 60))   // tie to even multiple (0)
	assert.Equal(t, 120, SnapTick(90, 60)) // tie to even multiple (2)
	assert.Equal(t, -60, SnapTick(-59, 60))
	assert.Equal(t, 17, SnapTick(17, 1))
}

func TestSnapTick_StaysInRange(t *testing.T) {
	for _, spacing := range []int{10, 60, 200} {
		lo := SnapTick(MinTick, spacing)
		hi := SnapTick(MaxTick, spacing)
		assert.GreaterOrEqual(t, lo, MinTick, "spacing %d", spacing)
		assert.LessOrEqual(t, hi, MaxTick, "spacing %d", spacing)
		assert.Zero(t, lo%spacing)
		assert.Zero(t, hi%spacing)
	}
	assert.Equal(t, -887220, SnapTick(MinTick, 60))
	assert.Equal(t, 887220, SnapTick(MaxTick, 60))
	assert.Equal(t, -887220, BoundaryTick(0, 18, 18, 60))
}

func TestBoundaryTick_RoundTripStable(t *testing.T) {
	prices := []float64{0.0123, 0.8, 0.999, 1.0, 1.2, 5.0, 1834.25}
	for _, spacing := range []int{1, 2, 10, 60, 200} {
		for _, p := range prices {
			tick := BoundaryTick(p, 18, 18, spacing)
			back := TickToPrice(tick, 18, 18)
			assert.Equal(t, tick, BoundaryTick(back, 18, 18, spacing), "price %v spacing %d", p, spacing)
			assert.Zero(t, tick%spacing)
		}
	}
}

func TestTickToPrice(t *testing.T) {
	assert.InDelta(t, 1.0, TickToPrice(0, 18, 18), 1e-12)
	assert.InDelta(t, 1.0001, TickToPrice(1, 18, 18), 1e-12)
	assert.InDelta(t, 0.0005, TickToPrice(PriceToTick(0.0005, 6, 18), 6, 18), 0.0005*1e-4)
}
