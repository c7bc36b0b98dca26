package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.PoolID != "" {
		sb.WriteString(fmt.Sprintf("Pool: %s\n\n", r.PoolID))
	}

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Runs | %d |\n", r.DataSummary.TotalRuns))
	sb.WriteString(fmt.Sprintf("| Pools | %d |\n", r.DataSummary.TotalPools))
	sb.WriteString(fmt.Sprintf("| Steps | %d |\n", r.DataSummary.TotalSteps))
	sb.WriteString(fmt.Sprintf("| Resets | %d |\n", r.DataSummary.TotalResets))
	sb.WriteString(fmt.Sprintf("| Date Range Start | %s |\n", formatMs(r.DataSummary.DateRangeStart)))
	sb.WriteString(fmt.Sprintf("| Date Range End | %s |\n", formatMs(r.DataSummary.DateRangeEnd)))
	sb.WriteString("\n")

	// Runs
	sb.WriteString("## Runs\n\n")
	if len(r.Runs) > 0 {
		sb.WriteString("| # | Run | Label | Alpha | Tau | Limit | VolRatio | Days | Resets | FeeAPR | NetAPR | MaxDD | Vol | Sharpe | Base% |\n")
		sb.WriteString("|---|-----|-------|-------|-----|-------|----------|------|--------|--------|--------|-------|-----|--------|-------|\n")
		for i, m := range r.Runs {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %.2f | %.2f | %.2f | %.2f | %d | %d | %.4f | %.4f | %.4f | %.4f | %.2f | %.1f |\n",
				i+1, shortID(m.RunID), m.Label,
				m.Alpha, m.Tau, m.LimitRatioThreshold, m.VolatilityResetRatio,
				m.Days, m.Rebalances, m.GrossFeeAPR, m.NetAPR, m.MaxDrawdown,
				m.Volatility, m.SharpeRatio, m.MeanBasePosition*100))
		}
	} else {
		sb.WriteString("No runs available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func formatMs(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

// shortID keeps the first uuid group.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
