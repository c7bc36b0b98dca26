// Package simulation runs the strategy over a price series, one immutable
// PortfolioState per timestamp.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"math"

	"clmm-backtest/internal/allocator"
	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/fees"
	"clmm-backtest/internal/forecast"
	"clmm-backtest/internal/lookup"
	"clmm-backtest/internal/reset"
	"clmm-backtest/internal/tickmath"
)

// DriverOptions configures a Driver.
type DriverOptions struct {
	Params     domain.StrategyParams
	Forecaster forecast.Forecaster
	Sink       EventSink // optional
}

// Driver threads PortfolioState through a run. It holds no per-run state and
// may be shared by sequential runs with the same parameters.
type Driver struct {
	params     domain.StrategyParams
	forecaster forecast.Forecaster
	engine     *reset.Engine
	sink       EventSink
}

// Inputs is the full data set for one run.
type Inputs struct {
	Prices   []domain.PricePoint  // strictly increasing timestamps
	Swaps    []domain.SwapEvent   // non-decreasing timestamps
	Returns  []domain.ReturnPoint // forecaster history, non-decreasing timestamps
	Initial0 float64
	Initial1 float64
}

// NewDriver validates opts and creates a driver.
func NewDriver(opts DriverOptions) (*Driver, error) {
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}
	if opts.Forecaster == nil {
		return nil, errors.New("simulation: forecaster is required")
	}
	sink := opts.Sink
	if sink == nil {
		sink = Discard
	}
	return &Driver{
		params:     opts.Params,
		forecaster: opts.Forecaster,
		engine:     reset.NewEngine(opts.Forecaster),
		sink:       sink,
	}, nil
}

// Params returns the driver's strategy parameters.
func (d *Driver) Params() domain.StrategyParams { return d.params }

// Initialize fits the forecaster on history and deploys the initial inventory.
func (d *Driver) Initialize(t int64, price float64, history []float64, amount0, amount1 float64) (domain.PortfolioState, error) {
	fc, err := d.forecaster.Forecast(history)
	if err != nil {
		return domain.PortfolioState{}, fmt.Errorf("initial forecast: %w", err)
	}
	return d.deploy(t, price, d.tick(price), amount0, amount1, fc)
}

// Step advances prior to timestamp t. swaps are the trades in (prior.TimestampMs, t]
// and history the returns strictly before t. prior is not modified.
func (d *Driver) Step(prior domain.PortfolioState, t int64, price float64, swaps []domain.SwapEvent, history []float64) (domain.PortfolioState, error) {
	next := prior
	next.TimestampMs = t
	next.Price = price
	next.PriceTick = d.tick(price)
	next.IsResetPoint = false
	next.Triggers = 0

	// Carry positions forward at the new tick
	for i, pos := range next.Positions {
		a0, a1 := tickmath.AmountsForLiquidity(next.PriceTick, pos.LowerTick, pos.UpperTick, pos.Liquidity,
			d.params.Token0Decimals, d.params.Token1Decimals)
		next.Positions[i] = pos.WithAmounts(a0, a1)
	}

	// Fees for the window
	earned := fees.Accrue(swaps, next.Positions[:], d.params.FeeRate)
	next.StepFees0 = earned.Fee0
	next.StepFees1 = earned.Fee1
	next.AccruedFees0 += earned.Fee0
	next.AccruedFees1 += earned.Fee1
	d.sink.Emit(Event{
		Kind:        EventFeesAccrued,
		TimestampMs: t,
		Price:       price,
		Fee0:        earned.Fee0,
		Fee1:        earned.Fee1,
		Swaps:       len(swaps),
	})

	// Reset decision
	decision, err := d.engine.Evaluate(next, history)
	if err != nil {
		return domain.PortfolioState{}, err
	}
	if decision.VolChecked {
		d.sink.Emit(Event{
			Kind:         EventVolatilityChecked,
			TimestampMs:  t,
			Price:        price,
			Forecast:     decision.Fresh,
			ReferenceStd: next.Base().PlacementVolatility,
			Triggers:     decision.Triggers & domain.TriggerVolatilityDecay,
		})
	}
	if !decision.Reset {
		return next, nil
	}

	// Withdraw and redeploy
	amount0, amount1 := reset.Withdraw(next)
	fc := decision.Fresh
	if !decision.VolChecked {
		if fc, err = d.forecaster.Forecast(history); err != nil {
			return domain.PortfolioState{}, fmt.Errorf("reset forecast: %w", err)
		}
	}
	redeployed, err := d.deploy(t, price, next.PriceTick, amount0, amount1, fc)
	if err != nil {
		return domain.PortfolioState{}, err
	}
	redeployed.StepFees0 = next.StepFees0
	redeployed.StepFees1 = next.StepFees1
	redeployed.IsResetPoint = true
	redeployed.Triggers = decision.Triggers

	d.sink.Emit(Event{
		Kind:        EventReset,
		TimestampMs: t,
		Price:       price,
		Amount0:     amount0,
		Amount1:     amount1,
		Triggers:    decision.Triggers,
	})
	return redeployed, nil
}

// Run validates in and simulates every price point in order.
// ctx is checked between steps; a fit in progress is not interrupted.
func (d *Driver) Run(ctx context.Context, in Inputs) ([]domain.PortfolioState, error) {
	if err := ValidateInputs(in); err != nil {
		return nil, err
	}

	states := make([]domain.PortfolioState, 0, len(in.Prices))
	first := in.Prices[0]
	state, err := d.Initialize(first.TimestampMs, first.Price, lookup.ReturnsBefore(first.TimestampMs, in.Returns), in.Initial0, in.Initial1)
	if err != nil {
		return nil, &StepError{Index: 0, TimestampMs: first.TimestampMs, Price: first.Price, Err: err}
	}
	states = append(states, state)

	for i := 1; i < len(in.Prices); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := in.Prices[i]
		swaps := lookup.SwapWindow(in.Swaps, in.Prices[i-1].TimestampMs, p.TimestampMs)
		next, err := d.Step(state, p.TimestampMs, p.Price, swaps, lookup.ReturnsBefore(p.TimestampMs, in.Returns))
		if err != nil {
			return nil, &StepError{Index: i, TimestampMs: p.TimestampMs, Price: p.Price, State: state, Err: err}
		}
		states = append(states, next)
		state = next
	}

	return states, nil
}

// ValidateInputs rejects malformed run inputs.
func ValidateInputs(in Inputs) error {
	if len(in.Prices) == 0 {
		return fmt.Errorf("%w: empty price series", ErrInvalidInput)
	}
	if !finiteNonNegative(in.Initial0) || !finiteNonNegative(in.Initial1) {
		return fmt.Errorf("%w: initial inventory %v/%v", ErrInvalidInput, in.Initial0, in.Initial1)
	}
	for i, p := range in.Prices {
		if !(p.Price > 0) || math.IsInf(p.Price, 0) {
			return fmt.Errorf("%w: price %v at index %d", ErrInvalidInput, p.Price, i)
		}
		if i > 0 && p.TimestampMs <= in.Prices[i-1].TimestampMs {
			return fmt.Errorf("%w: price timestamps not increasing at index %d", ErrInvalidInput, i)
		}
	}
	for i := range in.Swaps {
		if err := in.Swaps[i].Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		if i > 0 && in.Swaps[i].TimestampMs < in.Swaps[i-1].TimestampMs {
			return fmt.Errorf("%w: swap timestamps decreasing at index %d", ErrInvalidInput, i)
		}
	}
	for i, r := range in.Returns {
		if math.IsNaN(r.Return) || math.IsInf(r.Return, 0) {
			return fmt.Errorf("%w: return %v at index %d", ErrInvalidInput, r.Return, i)
		}
		if i > 0 && r.TimestampMs < in.Returns[i-1].TimestampMs {
			return fmt.Errorf("%w: return timestamps decreasing at index %d", ErrInvalidInput, i)
		}
	}
	return nil
}

func (d *Driver) tick(price float64) int {
	return tickmath.BoundaryTick(price, d.params.Token0Decimals, d.params.Token1Decimals, d.params.TickSpacing())
}

func (d *Driver) deploy(t int64, price float64, tick int, amount0, amount1 float64, fc domain.Forecast) (domain.PortfolioState, error) {
	alloc, err := allocator.Allocate(allocator.Input{
		TimestampMs: t,
		Price:       price,
		PriceTick:   tick,
		Amount0:     amount0,
		Amount1:     amount1,
		Forecast:    fc,
		Params:      d.params,
	})
	if err != nil {
		return domain.PortfolioState{}, err
	}

	d.sink.Emit(Event{
		Kind:        EventAllocated,
		TimestampMs: t,
		Price:       price,
		Amount0:     amount0,
		Amount1:     amount1,
		Forecast:    fc,
	})

	return domain.PortfolioState{
		TimestampMs: t,
		Price:       price,
		PriceTick:   tick,
		Positions:   [2]domain.LiquidityPosition{alloc.Base, alloc.Limit},
		Leftover0:   alloc.Leftover0,
		Leftover1:   alloc.Leftover1,
		ResetBand:   alloc.ResetBand,
		BaseBand:    alloc.BaseBand,
		LimitBand:   alloc.LimitBand,
		Inventory0:  amount0,
		Inventory1:  amount1,
		Params:      d.params,
	}, nil
}

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}
