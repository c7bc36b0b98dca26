package simulation

import (
	"errors"
	"fmt"

	"clmm-backtest/internal/domain"
)

// ErrInvalidInput is returned before a run starts when its inputs are malformed.
var ErrInvalidInput = errors.New("invalid simulation input")

// StepError is a fatal failure at one step of a run.
// State is the last good state before the failing step (zero for step 0).
type StepError struct {
	Index       int
	TimestampMs int64
	Price       float64
	State       domain.PortfolioState
	Err         error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d at %d (price %v): %v", e.Index, e.TimestampMs, e.Price, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
