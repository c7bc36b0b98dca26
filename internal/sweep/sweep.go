// Package sweep runs one backtest per point of a strategy parameter grid.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/simulation"
)

// Grid lists the values to try per parameter. An empty axis keeps the base value.
type Grid struct {
	Alphas           []float64
	Taus             []float64
	LimitRatios      []float64
	VolatilityRatios []float64
}

// Size returns the number of cells Expand yields.
func (g Grid) Size() int {
	n := 1
	for _, axis := range [][]float64{g.Alphas, g.Taus, g.LimitRatios, g.VolatilityRatios} {
		if len(axis) > 0 {
			n *= len(axis)
		}
	}
	return n
}

// Expand returns the cartesian product over base. The order is fixed:
// alpha varies slowest, volatility ratio fastest.
func (g Grid) Expand(base domain.StrategyParams) []domain.StrategyParams {
	alphas := orBase(g.Alphas, base.Alpha)
	taus := orBase(g.Taus, base.Tau)
	limits := orBase(g.LimitRatios, base.LimitRatioThreshold)
	vols := orBase(g.VolatilityRatios, base.VolatilityResetRatio)

	out := make([]domain.StrategyParams, 0, g.Size())
	for _, a := range alphas {
		for _, t := range taus {
			for _, l := range limits {
				for _, v := range vols {
					p := base
					p.Alpha = a
					p.Tau = t
					p.LimitRatioThreshold = l
					p.VolatilityResetRatio = v
					out = append(out, p)
				}
			}
		}
	}
	return out
}

func orBase(axis []float64, base float64) []float64 {
	if len(axis) == 0 {
		return []float64{base}
	}
	return axis
}

// Label names a cell by the parameters the grid varies.
func Label(p domain.StrategyParams) string {
	return fmt.Sprintf("alpha=%g tau=%g limit=%g vol=%g", p.Alpha, p.Tau, p.LimitRatioThreshold, p.VolatilityResetRatio)
}

// Executor simulates and persists runs. *simulation.Runner implements it.
type Executor interface {
	Execute(ctx context.Context, req simulation.RunRequest, in simulation.Inputs) (*simulation.Result, error)
	Persist(ctx context.Context, res *simulation.Result) error
}

// Options configures a sweep.
type Options struct {
	Executor    Executor
	Request     simulation.RunRequest // base request; Params and Label are replaced per cell
	Inputs      simulation.Inputs     // loaded once and shared read-only by every cell
	Grid        Grid
	Concurrency int              // <= 0 uses GOMAXPROCS
	Persist     bool             // persist each successful cell
	OnCell      func(CellResult) // optional; called from worker goroutines
}

// CellResult is the outcome of one grid cell.
type CellResult struct {
	Index  int
	Params domain.StrategyParams
	Result *simulation.Result // nil when Err is set
	Err    error
}

// Run executes every cell with at most Concurrency cells in flight.
// A failing cell is reported in its CellResult and does not stop the others;
// only context cancellation aborts the sweep. Results are in grid order.
func Run(ctx context.Context, opts Options) ([]CellResult, error) {
	if opts.Executor == nil {
		return nil, errors.New("sweep: executor is required")
	}
	cells := opts.Grid.Expand(opts.Request.Params)
	if err := simulation.ValidateInputs(opts.Inputs); err != nil {
		return nil, err
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]CellResult, len(cells))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, params := range cells {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			req := opts.Request
			req.Params = params
			req.Label = Label(params)

			cell := CellResult{Index: i, Params: params}
			res, err := opts.Executor.Execute(gctx, req, opts.Inputs)
			if err == nil && opts.Persist {
				err = opts.Executor.Persist(gctx, res)
			}
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				cell.Err = err
			} else {
				cell.Result = res
			}

			results[i] = cell
			if opts.OnCell != nil {
				opts.OnCell(cell)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Succeeded returns the results of cells that completed without error, in grid order.
func Succeeded(cells []CellResult) []*simulation.Result {
	out := make([]*simulation.Result, 0, len(cells))
	for _, c := range cells {
		if c.Err == nil && c.Result != nil {
			out = append(out, c.Result)
		}
	}
	return out
}
