package report

import (
	"fmt"
	"strings"
)

// Format renders metrics as the same fixed-width text report the
// engine prints after a run completes.
func Format(m Metrics) string {
	var b strings.Builder
	rule := strings.Repeat("=", 50)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "        BACKTEST PERFORMANCE REPORT")
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "--- Return ---")
	fmt.Fprintf(&b, "  Total Return:          %12.0f TWD (%+.2f%%)\n", m.TotalReturn, m.TotalReturnPct)
	fmt.Fprintf(&b, "  Annualized Return:     %+12.2f%%\n", m.AnnualizedReturnPct)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "--- Risk ---")
	fmt.Fprintf(&b, "  Max Drawdown:          %12.0f TWD (%.2f%%)\n", m.MaxDrawdown, m.MaxDrawdownPct)
	fmt.Fprintf(&b, "  Annualized Volatility: %12.2f%%\n", m.AnnualizedVolatility)
	fmt.Fprintf(&b, "  Sharpe Ratio:          %12.2f\n", m.SharpeRatio)
	fmt.Fprintf(&b, "  Sortino Ratio:         %12.2f\n", m.SortinoRatio)
	fmt.Fprintf(&b, "  Calmar Ratio:          %12.2f\n", m.CalmarRatio)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "--- Trades ---")
	fmt.Fprintf(&b, "  Total Trades:          %12d\n", m.TotalTrades)
	fmt.Fprintf(&b, "  Win Rate:              %12.1f%%\n", m.WinRate)
	fmt.Fprintf(&b, "  Profit Factor:         %12.2f\n", m.ProfitFactor)
	fmt.Fprintf(&b, "  Avg Win:               %12.0f TWD\n", m.AvgWin)
	fmt.Fprintf(&b, "  Avg Loss:              %12.0f TWD\n", m.AvgLoss)
	fmt.Fprintf(&b, "  Avg PnL/Trade:         %12.0f TWD\n", m.AvgPnLPerTrade)
	fmt.Fprintf(&b, "  Max Consecutive Wins:  %12d\n", m.MaxConsecutiveWins)
	fmt.Fprintf(&b, "  Max Consecutive Losses:%12d\n", m.MaxConsecutiveLosses)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "--- Costs ---")
	fmt.Fprintf(&b, "  Total Commission:      %12.0f TWD\n", m.TotalCommission)
	fmt.Fprintf(&b, "  Total Tax:             %12.0f TWD\n", m.TotalTax)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "--- Duration ---")
	fmt.Fprintf(&b, "  Total Bars:            %12d\n", m.TotalBars)
	fmt.Fprintf(&b, "  Avg Bars Held:         %12.1f\n", m.AvgBarsHeld)
	fmt.Fprintln(&b, rule)

	return b.String()
}
