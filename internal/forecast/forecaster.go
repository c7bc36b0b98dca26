// Package forecast produces one-step-ahead return distributions from a return history.
package forecast

import (
	"errors"

	"clmm-backtest/internal/domain"
)

// Forecaster errors.
var (
	ErrInsufficientHistory = errors.New("insufficient return history")
	ErrInvalidHistory      = errors.New("return history contains non-finite values")
	ErrNoConvergence       = errors.New("forecaster failed to converge")
)

// Forecaster fits a model to a return history and forecasts the next return.
// Implementations must be deterministic for identical input.
type Forecaster interface {
	Forecast(history []float64) (domain.Forecast, error)
}

// Func adapts a function to Forecaster.
type Func func(history []float64) (domain.Forecast, error)

// Forecast calls f.
func (f Func) Forecast(history []float64) (domain.Forecast, error) {
	return f(history)
}

// Static always returns the same distribution.
type Static struct {
	Mean   float64
	StdDev float64
}

// Forecast ignores history.
func (s Static) Forecast(_ []float64) (domain.Forecast, error) {
	return domain.Forecast{Mean: s.Mean, Variance: s.StdDev * s.StdDev}, nil
}
