package domain

import "time"

// Signal is the per-bar instruction emitted by a strategy.
type Signal int

const (
	SignalHold Signal = 0
	SignalBuy  Signal = 1
	SignalSell Signal = -1
)

// PriceBar is one trading day of a ticker's price series, plus the
// columns a strategy computes on top of it. Bars are immutable once a
// strategy has stamped ATR and Signal for a run.
type PriceBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64

	// ATR is the strategy's volatility estimate for the bar. NaN until
	// the indicator window has warmed up.
	ATR    float64
	Signal Signal
}
