package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExitReason string

const (
	ExitReasonStopLoss   ExitReason = "STOP_LOSS"
	ExitReasonTarget     ExitReason = "TARGET"
	ExitReasonSignalExit ExitReason = "SIGNAL_EXIT"
	ExitReasonEndOfData  ExitReason = "END_OF_DATA"
)

// Position is the single open lot a simulation run may hold. EntryPrice
// is the per-share cost basis after slippage; CostBasis and
// EntryCommission keep the exact amounts taken out of cash so the trade
// ledger balances to the cent.
type Position struct {
	EntryDate       time.Time
	EntryPrice      float64
	Shares          int64
	StopPrice       float64
	PeakPrice       float64
	CostBasis       decimal.Decimal
	EntryCommission decimal.Decimal
}

// TradeRecord is an immutable snapshot of one closed round-trip.
type TradeRecord struct {
	Ticker     string
	EntryDate  time.Time
	EntryPrice float64
	ExitDate   time.Time
	ExitPrice  float64
	Shares     int64

	// PnL nets out commission and tax on both sides, so
	// final capital == initial capital + sum of PnL, exactly.
	PnL        decimal.Decimal
	PnLPercent float64

	// Commission is everything paid to execute the round-trip: entry
	// commission plus exit commission and sell-side tax.
	Commission decimal.Decimal

	HoldingDays int
	ExitReason  ExitReason
}
