package reporting

import (
	"fmt"
	"strconv"
	"strings"

	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/storage"
)

// RenderStepCSV renders step records as CSV string, in step_records column order.
func RenderStepCSV(records []*domain.StepRecord) string {
	var sb strings.Builder

	sb.WriteString(strings.Join(storage.StepRecordColumns, ","))
	sb.WriteString("\n")

	for _, r := range records {
		for i, v := range storage.StepRecordValues(r) {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(formatValue(v))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderRunsCSV renders run rows as CSV string.
func RenderRunsCSV(rows []RunRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("run_id,pool_id,label,alpha,tau,limit_ratio_threshold,volatility_reset_ratio,")
	sb.WriteString("days,steps,rebalances,gross_fee_apr,net_return,net_apr,")
	sb.WriteString("max_drawdown,volatility,sharpe_ratio,mean_base_position\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%.4f,%.4f,%.4f,%.4f,%d,%d,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			r.RunID,
			r.PoolID,
			csvEscape(r.Label),
			r.Alpha,
			r.Tau,
			r.LimitRatioThreshold,
			r.VolatilityResetRatio,
			r.Days,
			r.Steps,
			r.Rebalances,
			r.GrossFeeAPR,
			r.NetReturn,
			r.NetAPR,
			r.MaxDrawdown,
			r.Volatility,
			r.SharpeRatio,
			r.MeanBasePosition,
		))
	}

	return sb.String()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return csvEscape(x)
	default:
		return fmt.Sprint(x)
	}
}

// csvEscape quotes s when it contains a separator, quote or newline.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
