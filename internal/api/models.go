package api

import (
	"time"

	"clmm-backtest/internal/domain"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes an API error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RunListResponse is returned by GET /api/v1/runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// RunResponse describes one stored run.
type RunResponse struct {
	RunID     string          `json:"run_id"`
	PoolID    string          `json:"pool_id"`
	Label     string          `json:"label,omitempty"`
	Params    ParamsResponse  `json:"params"`
	Initial0  float64         `json:"initial_token0"`
	Initial1  float64         `json:"initial_token1"`
	Start     time.Time       `json:"start"`
	End       time.Time       `json:"end"`
	Steps     int             `json:"steps"`
	CreatedAt time.Time       `json:"created_at"`
	Summary   SummaryResponse `json:"summary"`
}

// ParamsResponse mirrors domain.StrategyParams.
type ParamsResponse struct {
	Alpha                float64 `json:"alpha"`
	Tau                  float64 `json:"tau"`
	LimitRatioThreshold  float64 `json:"limit_ratio_threshold"`
	VolatilityResetRatio float64 `json:"volatility_reset_ratio"`
	FeeRate              float64 `json:"fee_rate"`
	Token0Decimals       int     `json:"token0_decimals"`
	Token1Decimals       int     `json:"token1_decimals"`
	VolCheckIntervalMs   int64   `json:"vol_check_interval_ms"`
}

// SummaryResponse mirrors domain.RunSummary.
type SummaryResponse struct {
	Days               int     `json:"days"`
	InitialValue       float64 `json:"initial_value"`
	FinalValue         float64 `json:"final_value"`
	GrossFeeReturn     float64 `json:"gross_fee_return"`
	GrossFeeAPR        float64 `json:"gross_fee_apr"`
	NetReturn          float64 `json:"net_return"`
	NetAPR             float64 `json:"net_apr"`
	Rebalances         int     `json:"rebalances"`
	MaxDrawdown        float64 `json:"max_drawdown"`
	Volatility         float64 `json:"volatility"`
	SharpeRatio        float64 `json:"sharpe_ratio"`
	MeanBasePosition   float64 `json:"mean_base_position"`
	MedianBasePosition float64 `json:"median_base_position"`
}

// StepListResponse is returned by GET /api/v1/runs/:id/steps.
type StepListResponse struct {
	RunID string         `json:"run_id"`
	Steps []StepResponse `json:"steps"`
}

// StepResponse is one step record. Bands are token1 per token0.
type StepResponse struct {
	TimestampMs    int64   `json:"timestamp_ms"`
	Price          float64 `json:"price"`
	ResetPoint     bool    `json:"reset_point"`
	Triggers       string  `json:"triggers,omitempty"`
	Volatility     float64 `json:"volatility"`
	ReturnForecast float64 `json:"return_forecast"`

	BaseLower  float64 `json:"base_lower"`
	BaseUpper  float64 `json:"base_upper"`
	LimitLower float64 `json:"limit_lower"`
	LimitUpper float64 `json:"limit_upper"`
	ResetLower float64 `json:"reset_lower"`
	ResetUpper float64 `json:"reset_upper"`

	Fees0        float64 `json:"fees_0"`
	Fees1        float64 `json:"fees_1"`
	FeesAccrued0 float64 `json:"fees_accrued_0"`
	FeesAccrued1 float64 `json:"fees_accrued_1"`

	Base0     float64 `json:"base_0"`
	Base1     float64 `json:"base_1"`
	Limit0    float64 `json:"limit_0"`
	Limit1    float64 `json:"limit_1"`
	Leftover0 float64 `json:"leftover_0"`
	Leftover1 float64 `json:"leftover_1"`
	Total0    float64 `json:"total_0"`
	Total1    float64 `json:"total_1"`

	ValuePosition float64 `json:"value_position"`
}

func newRunResponse(r *domain.RunRecord) RunResponse {
	s := r.Summary
	return RunResponse{
		RunID:  r.RunID,
		PoolID: r.PoolID,
		Label:  r.Label,
		Params: ParamsResponse{
			Alpha:                r.Params.Alpha,
			Tau:                  r.Params.Tau,
			LimitRatioThreshold:  r.Params.LimitRatioThreshold,
			VolatilityResetRatio: r.Params.VolatilityResetRatio,
			FeeRate:              r.Params.FeeRate,
			Token0Decimals:       r.Params.Token0Decimals,
			Token1Decimals:       r.Params.Token1Decimals,
			VolCheckIntervalMs:   r.Params.VolCheckIntervalMs,
		},
		Initial0:  r.Initial0,
		Initial1:  r.Initial1,
		Start:     time.UnixMilli(r.StartMs).UTC(),
		End:       time.UnixMilli(r.EndMs).UTC(),
		Steps:     r.Steps,
		CreatedAt: time.UnixMilli(r.CreatedAtMs).UTC(),
		Summary: SummaryResponse{
			Days:               s.Days,
			InitialValue:       s.InitialValue,
			FinalValue:         s.FinalValue,
			GrossFeeReturn:     s.GrossFeeReturn,
			GrossFeeAPR:        s.GrossFeeAPR,
			NetReturn:          s.NetReturn,
			NetAPR:             s.NetAPR,
			Rebalances:         s.Rebalances,
			MaxDrawdown:        s.MaxDrawdown,
			Volatility:         s.Volatility,
			SharpeRatio:        s.SharpeRatio,
			MeanBasePosition:   s.MeanBasePosition,
			MedianBasePosition: s.MedianBasePosition,
		},
	}
}

func newStepResponse(r *domain.StepRecord) StepResponse {
	return StepResponse{
		TimestampMs:    r.TimestampMs,
		Price:          r.Price,
		ResetPoint:     r.ResetPoint,
		Triggers:       r.Triggers,
		Volatility:     r.Volatility,
		ReturnForecast: r.ReturnForecast,
		BaseLower:      r.BaseLower,
		BaseUpper:      r.BaseUpper,
		LimitLower:     r.LimitLower,
		LimitUpper:     r.LimitUpper,
		ResetLower:     r.ResetLower,
		ResetUpper:     r.ResetUpper,
		Fees0:          r.Fees0,
		Fees1:          r.Fees1,
		FeesAccrued0:   r.FeesAccrued0,
		FeesAccrued1:   r.FeesAccrued1,
		Base0:          r.Base0,
		Base1:          r.Base1,
		Limit0:         r.Limit0,
		Limit1:         r.Limit1,
		Leftover0:      r.Leftover0,
		Leftover1:      r.Leftover1,
		Total0:         r.Total0,
		Total1:         r.Total1,
		ValuePosition:  r.ValuePosition,
	}
}
