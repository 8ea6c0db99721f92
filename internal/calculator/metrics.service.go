// Package calculator derives the performance scorecard of a backtest
// run from its trade log and equity curve alone.
package calculator

import (
	"math"

	"swingbacktest/internal/domain"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

const tradingDaysPerYear = 252

// epsilon below which a standard deviation is treated as zero variance
const minStdev = 1e-10

type CalculateMetricsInput struct {
	Trades         []domain.TradeRecord
	EquityCurve    []domain.EquityPoint
	InitialCapital decimal.Decimal
	FinalCapital   decimal.Decimal
	Bars           int

	// RiskFreeRate is annual; it is de-annualized by /252 internally.
	RiskFreeRate float64
}

// CalculateMetrics is a pure function of the inputs. Every degenerate
// shape (zero trades, flat curve, all-winning or all-losing logs) maps
// to a defined number, never NaN and never a panic.
func CalculateMetrics(in CalculateMetricsInput) domain.Metrics {
	m := domain.Metrics{TotalCommission: decimal.Zero}

	initial := in.InitialCapital.InexactFloat64()
	final := in.FinalCapital.InexactFloat64()
	if initial > 0 {
		m.TotalReturn = (final/initial - 1) * 100
		if in.Bars > 0 && final > 0 {
			growth := math.Pow(final/initial, tradingDaysPerYear/float64(in.Bars))
			m.AnnualizedReturn = (growth - 1) * 100
		}
	}

	daily := dailyReturns(in.EquityCurve)
	rfDaily := in.RiskFreeRate / tradingDaysPerYear
	excess := make([]float64, len(daily))
	downside := []float64{}
	for i, r := range daily {
		excess[i] = r - rfDaily
		if r < 0 {
			downside = append(downside, r)
		}
	}

	m.SharpeRatio = annualizedRatio(mean(excess), stdev(excess))
	m.SortinoRatio = annualizedRatio(mean(excess), stdev(downside))
	m.MaxDrawdown, m.MaxDrawdownDuration = drawdown(in.EquityCurve)

	winPcts := []float64{}
	lossPcts := []float64{}
	holdingDays := []float64{}
	grossProfit := decimal.Zero
	grossLoss := decimal.Zero
	for _, t := range in.Trades {
		m.TotalCommission = m.TotalCommission.Add(t.Commission)
		holdingDays = append(holdingDays, float64(t.HoldingDays))
		if t.PnL.GreaterThan(decimal.Zero) {
			winPcts = append(winPcts, t.PnLPercent)
			grossProfit = grossProfit.Add(t.PnL)
		} else {
			lossPcts = append(lossPcts, t.PnLPercent)
			grossLoss = grossLoss.Add(t.PnL.Abs())
		}
	}

	m.TotalTrades = len(in.Trades)
	m.WinningTrades = len(winPcts)
	m.LosingTrades = len(lossPcts)
	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades) * 100

		// floor the denominator at 1 when there is nothing on the loss
		// side, so an all-winning log still gets a finite factor
		denom := grossLoss
		if denom.IsZero() {
			denom = decimal.NewFromInt(1)
		}
		m.ProfitFactor = grossProfit.Div(denom).InexactFloat64()
	}
	m.AvgWin = mean(winPcts)
	m.AvgLoss = mean(lossPcts)
	m.AvgHoldingDays = mean(holdingDays)

	return m
}

func dailyReturns(curve []domain.EquityPoint) []float64 {
	returns := []float64{}
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Value
		if prev == 0 {
			continue
		}
		returns = append(returns, curve[i].Value/prev-1)
	}
	return returns
}

// drawdown returns the deepest peak-to-trough decline as a negative
// percent, and the longest consecutive run of bars spent below a peak.
func drawdown(curve []domain.EquityPoint) (float64, int) {
	maxDD := 0.0
	longest := 0
	current := 0
	runningMax := math.Inf(-1)
	for _, p := range curve {
		if p.Value > runningMax {
			runningMax = p.Value
		}
		dd := 0.0
		if runningMax > 0 {
			dd = (p.Value - runningMax) / runningMax
		}
		if dd < maxDD {
			maxDD = dd
		}
		if dd < 0 {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}
	return maxDD * 100, longest
}

func annualizedRatio(num, denom float64) float64 {
	if denom < minStdev {
		return 0
	}
	return num / denom * math.Sqrt(tradingDaysPerYear)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m, err := stats.Mean(xs)
	if err != nil {
		return 0
	}
	return m
}

func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	s, err := stats.StandardDeviationSample(xs)
	if err != nil {
		return 0
	}
	return s
}
