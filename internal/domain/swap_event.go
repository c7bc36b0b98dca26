package domain

import (
	"errors"
	"fmt"
	"math"
)

// Direction identifies which token a swap paid into the pool.
type Direction string

// Swap directions.
const (
	DirectionToken0In Direction = "token0"
	DirectionToken1In Direction = "token1"
)

// ErrInvalidSwap is returned by SwapEvent.Validate.
var ErrInvalidSwap = errors.New("invalid swap event")

// SwapEvent represents a single pool swap used for fee attribution.
// Corresponds to swap_events table in PostgreSQL.
type SwapEvent struct {
	PoolID           string    // pool identifier
	TxHash           string    // transaction hash
	LogIndex         int       // index of the swap log within the transaction
	TimestampMs      int64     // Unix timestamp in milliseconds
	Tick             int       // pool tick at the trade
	Direction        Direction // token paid in
	AmountIn         float64   // traded-in amount, human units of the input token
	VirtualLiquidity float64   // active pool liquidity at the trade, raw liquidity units
}

// Validate rejects swaps that cannot be attributed.
func (s *SwapEvent) Validate() error {
	switch s.Direction {
	case DirectionToken0In, DirectionToken1In:
	default:
		return fmt.Errorf("%w: unknown direction %q (tx %s/%d)", ErrInvalidSwap, s.Direction, s.TxHash, s.LogIndex)
	}
	if math.IsNaN(s.AmountIn) || math.IsInf(s.AmountIn, 0) || s.AmountIn < 0 {
		return fmt.Errorf("%w: amount_in %v (tx %s/%d)", ErrInvalidSwap, s.AmountIn, s.TxHash, s.LogIndex)
	}
	if !(s.VirtualLiquidity > 0) || math.IsInf(s.VirtualLiquidity, 0) {
		return fmt.Errorf("%w: virtual_liquidity %v (tx %s/%d)", ErrInvalidSwap, s.VirtualLiquidity, s.TxHash, s.LogIndex)
	}
	return nil
}
