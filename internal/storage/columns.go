package storage

import "clmm-backtest/internal/domain"

// StepRecordColumns is the column order shared by every step_records table.
var StepRecordColumns = []string{
	"run_id", "timestamp_ms", "price", "price_1_0", "reset_point", "triggers", "volatility", "return_forecast",
	"base_lower", "base_upper", "limit_lower", "limit_upper", "reset_lower", "reset_upper",
	"base_lower_usd", "base_upper_usd", "limit_lower_usd", "limit_upper_usd", "reset_lower_usd", "reset_upper_usd",
	"fees_0", "fees_1", "fees_accrued_0", "fees_accrued_1", "leftover_0", "leftover_1",
	"base_0", "base_1", "limit_0", "limit_1", "allocated_0", "allocated_1", "total_0", "total_1",
	"value_position", "value_allocated", "value_left_over", "base_position_value", "limit_position_value",
}

// StepRecordTargets returns pointers to r's fields in StepRecordColumns order, for row scanning.
func StepRecordTargets(r *domain.StepRecord) []any {
	return []any{
		&r.RunID, &r.TimestampMs, &r.Price, &r.Price10, &r.ResetPoint, &r.Triggers, &r.Volatility, &r.ReturnForecast,
		&r.BaseLower, &r.BaseUpper, &r.LimitLower, &r.LimitUpper, &r.ResetLower, &r.ResetUpper,
		&r.BaseLowerUSD, &r.BaseUpperUSD, &r.LimitLowerUSD, &r.LimitUpperUSD, &r.ResetLowerUSD, &r.ResetUpperUSD,
		&r.Fees0, &r.Fees1, &r.FeesAccrued0, &r.FeesAccrued1, &r.Leftover0, &r.Leftover1,
		&r.Base0, &r.Base1, &r.Limit0, &r.Limit1, &r.Allocated0, &r.Allocated1, &r.Total0, &r.Total1,
		&r.ValuePosition, &r.ValueAllocated, &r.ValueLeftover, &r.BasePositionValue, &r.LimitPositionValue,
	}
}

// StepRecordValues returns r's field values in StepRecordColumns order, for inserts.
func StepRecordValues(r *domain.StepRecord) []any {
	return []any{
		r.RunID, r.TimestampMs, r.Price, r.Price10, r.ResetPoint, r.Triggers, r.Volatility, r.ReturnForecast,
		r.BaseLower, r.BaseUpper, r.LimitLower, r.LimitUpper, r.ResetLower, r.ResetUpper,
		r.BaseLowerUSD, r.BaseUpperUSD, r.LimitLowerUSD, r.LimitUpperUSD, r.ResetLowerUSD, r.ResetUpperUSD,
		r.Fees0, r.Fees1, r.FeesAccrued0, r.FeesAccrued1, r.Leftover0, r.Leftover1,
		r.Base0, r.Base1, r.Limit0, r.Limit1, r.Allocated0, r.Allocated1, r.Total0, r.Total1,
		r.ValuePosition, r.ValueAllocated, r.ValueLeftover, r.BasePositionValue, r.LimitPositionValue,
	}
}

// RunRecordColumns is the column order shared by every runs table.
var RunRecordColumns = []string{
	"run_id", "pool_id", "label",
	"alpha", "tau", "limit_ratio_threshold", "volatility_reset_ratio", "fee_rate",
	"token0_decimals", "token1_decimals", "vol_check_interval_ms",
	"initial_0", "initial_1", "start_ms", "end_ms", "steps", "created_at_ms",
	"days", "initial_value", "final_value", "gross_fee_return", "gross_fee_apr", "net_return", "net_apr",
	"rebalances", "max_drawdown", "volatility", "sharpe_ratio", "mean_base_position", "median_base_position",
}

// RunRecordTargets returns pointers to r's fields in RunRecordColumns order.
func RunRecordTargets(r *domain.RunRecord) []any {
	p, s := &r.Params, &r.Summary
	return []any{
		&r.RunID, &r.PoolID, &r.Label,
		&p.Alpha, &p.Tau, &p.LimitRatioThreshold, &p.VolatilityResetRatio, &p.FeeRate,
		&p.Token0Decimals, &p.Token1Decimals, &p.VolCheckIntervalMs,
		&r.Initial0, &r.Initial1, &r.StartMs, &r.EndMs, &r.Steps, &r.CreatedAtMs,
		&s.Days, &s.InitialValue, &s.FinalValue, &s.GrossFeeReturn, &s.GrossFeeAPR, &s.NetReturn, &s.NetAPR,
		&s.Rebalances, &s.MaxDrawdown, &s.Volatility, &s.SharpeRatio, &s.MeanBasePosition, &s.MedianBasePosition,
	}
}

// RunRecordValues returns r's field values in RunRecordColumns order.
func RunRecordValues(r *domain.RunRecord) []any {
	p, s := r.Params, r.Summary
	return []any{
		r.RunID, r.PoolID, r.Label,
		p.Alpha, p.Tau, p.LimitRatioThreshold, p.VolatilityResetRatio, p.FeeRate,
		p.Token0Decimals, p.Token1Decimals, p.VolCheckIntervalMs,
		r.Initial0, r.Initial1, r.StartMs, r.EndMs, r.Steps, r.CreatedAtMs,
		s.Days, s.InitialValue, s.FinalValue, s.GrossFeeReturn, s.GrossFeeAPR, s.NetReturn, s.NetAPR,
		s.Rebalances, s.MaxDrawdown, s.Volatility, s.SharpeRatio, s.MeanBasePosition, s.MedianBasePosition,
	}
}
