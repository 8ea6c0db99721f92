package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EquityPoint is one mark of total account value (cash + open position
// at the bar's close). A run produces exactly one point per input bar.
type EquityPoint struct {
	Date  time.Time
	Value float64
}

// Metrics is the fixed scorecard derived from a run's trade log and
// equity curve. Percent-valued fields are expressed as percents
// (TotalReturn = 12.5 means +12.5%), drawdown as a negative percent.
type Metrics struct {
	TotalReturn         float64
	AnnualizedReturn    float64
	SharpeRatio         float64
	SortinoRatio        float64
	MaxDrawdown         float64
	MaxDrawdownDuration int
	WinRate             float64
	ProfitFactor        float64
	TotalTrades         int
	WinningTrades       int
	LosingTrades        int
	AvgWin              float64
	AvgLoss             float64
	AvgHoldingDays      float64
	TotalCommission     decimal.Decimal
}

// BacktestResult is the terminal artifact of one simulation run. It is
// never mutated after being returned.
type BacktestResult struct {
	RunID          uuid.UUID
	StrategyName   string
	Ticker         string
	Start          time.Time
	End            time.Time
	InitialCapital decimal.Decimal
	FinalCapital   decimal.Decimal
	Metrics        Metrics
	Trades         []TradeRecord
	EquityCurve    []EquityPoint
}

// Empty reports whether the run produced no simulated bars, e.g. when
// the input series was shorter than the strategy's minimum lookback.
func (r BacktestResult) Empty() bool {
	return len(r.EquityCurve) == 0 && len(r.Trades) == 0
}
