package reporting

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"clmm-backtest/internal/domain"
)

// RenderSummaryTable writes ranked run rows as a terminal table.
func RenderSummaryTable(w io.Writer, rows []RunRow) error {
	table := tablewriter.NewWriter(w)
	table.Header("#", "Run", "Label", "Alpha", "Tau", "Limit", "VolRatio", "Days", "Resets", "FeeAPR", "NetAPR", "MaxDD", "Sharpe", "Base%")

	for i, r := range rows {
		if err := table.Append(
			fmt.Sprintf("%d", i+1),
			shortID(r.RunID),
			r.Label,
			fmt.Sprintf("%.2f", r.Alpha),
			fmt.Sprintf("%.2f", r.Tau),
			fmt.Sprintf("%.2f", r.LimitRatioThreshold),
			fmt.Sprintf("%.2f", r.VolatilityResetRatio),
			fmt.Sprintf("%d", r.Days),
			fmt.Sprintf("%d", r.Rebalances),
			fmt.Sprintf("%.2f%%", r.GrossFeeAPR*100),
			fmt.Sprintf("%.2f%%", r.NetAPR*100),
			fmt.Sprintf("%.2f%%", r.MaxDrawdown*100),
			fmt.Sprintf("%.2f", r.SharpeRatio),
			fmt.Sprintf("%.1f", r.MeanBasePosition*100),
		); err != nil {
			return err
		}
	}

	return table.Render()
}

// RenderRunSummary writes one run's summary as a two-column table.
func RenderRunSummary(w io.Writer, run *domain.RunRecord) error {
	s := run.Summary
	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Value")

	rows := [][]string{
		{"run_id", run.RunID},
		{"pool_id", run.PoolID},
		{"steps", fmt.Sprintf("%d", run.Steps)},
		{"days", fmt.Sprintf("%d", s.Days)},
		{"initial_value", fmt.Sprintf("%.6f", s.InitialValue)},
		{"final_value", fmt.Sprintf("%.6f", s.FinalValue)},
		{"gross_fee_return", fmt.Sprintf("%.4f%%", s.GrossFeeReturn*100)},
		{"gross_fee_apr", fmt.Sprintf("%.4f%%", s.GrossFeeAPR*100)},
		{"net_return", fmt.Sprintf("%.4f%%", s.NetReturn*100)},
		{"net_apr", fmt.Sprintf("%.4f%%", s.NetAPR*100)},
		{"rebalances", fmt.Sprintf("%d", s.Rebalances)},
		{"max_drawdown", fmt.Sprintf("%.4f%%", s.MaxDrawdown*100)},
		{"volatility", fmt.Sprintf("%.4f", s.Volatility)},
		{"sharpe_ratio", fmt.Sprintf("%.4f", s.SharpeRatio)},
		{"mean_base_position", fmt.Sprintf("%.2f%%", s.MeanBasePosition*100)},
		{"median_base_position", fmt.Sprintf("%.2f%%", s.MedianBasePosition*100)},
	}
	for _, row := range rows {
		if err := table.Append(row[0], row[1]); err != nil {
			return err
		}
	}

	return table.Render()
}
