package main

import (
	"fmt"
	"strings"

	"swingbacktest/internal/domain"
)

func printReport(result *domain.BacktestResult) {
	line := strings.Repeat("=", 60)
	fmt.Println()
	fmt.Println(line)
	fmt.Printf("Backtest Report: %s on %s\n", result.StrategyName, result.Ticker)
	fmt.Println(line)

	if result.Empty() {
		fmt.Println("No trades: series shorter than the strategy lookback.")
		fmt.Println(line)
		return
	}

	m := result.Metrics
	fmt.Printf("Period:          %s ~ %s\n", result.Start.Format(dateLayout), result.End.Format(dateLayout))
	fmt.Printf("Initial Capital: %s\n", result.InitialCapital.StringFixed(0))
	fmt.Printf("Final Capital:   %s\n", result.FinalCapital.StringFixed(0))
	fmt.Println()

	fmt.Println("--- Returns ---")
	fmt.Printf("  Total Return:      %+.2f%%\n", m.TotalReturn)
	fmt.Printf("  Annualized Return: %+.2f%%\n", m.AnnualizedReturn)
	fmt.Println()

	fmt.Println("--- Risk ---")
	fmt.Printf("  Sharpe Ratio:      %.2f\n", m.SharpeRatio)
	fmt.Printf("  Sortino Ratio:     %.2f\n", m.SortinoRatio)
	fmt.Printf("  Max Drawdown:      %.2f%%\n", m.MaxDrawdown)
	fmt.Printf("  MDD Duration:      %d bars\n", m.MaxDrawdownDuration)
	fmt.Println()

	fmt.Println("--- Trades ---")
	fmt.Printf("  Total Trades:      %d (%d W / %d L)\n", m.TotalTrades, m.WinningTrades, m.LosingTrades)
	fmt.Printf("  Win Rate:          %.1f%%\n", m.WinRate)
	fmt.Printf("  Profit Factor:     %.2f\n", m.ProfitFactor)
	fmt.Printf("  Avg Win:           %+.2f%%\n", m.AvgWin)
	fmt.Printf("  Avg Loss:          %+.2f%%\n", m.AvgLoss)
	fmt.Printf("  Avg Holding:       %.1f days\n", m.AvgHoldingDays)
	fmt.Printf("  Commission Total:  %s\n", m.TotalCommission.StringFixed(0))

	if len(result.Trades) > 0 {
		fmt.Println()
		fmt.Println("--- Trade Log ---")
		fmt.Printf("%-12s %-12s %10s %10s %12s %8s %5s  %s\n",
			"Entry", "Exit", "EntryPx", "ExitPx", "P&L", "%", "Days", "Reason")
		fmt.Println(strings.Repeat("-", 80))
		for _, t := range result.Trades {
			fmt.Printf("%-12s %-12s %10.0f %10.0f %12s %+7.2f%% %4dd  %s\n",
				t.EntryDate.Format(dateLayout),
				t.ExitDate.Format(dateLayout),
				t.EntryPrice,
				t.ExitPrice,
				t.PnL.StringFixed(0),
				t.PnLPercent,
				t.HoldingDays,
				t.ExitReason,
			)
		}
	}

	fmt.Println(line)
}
