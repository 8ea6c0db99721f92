package strategy

import (
	"fmt"
	"math"

	"swingbacktest/internal/domain"
)

// MomentumOptions are the tunables of the reference momentum strategy.
type MomentumOptions struct {
	FastSpan     int
	SlowSpan     int
	RSIPeriod    int
	ATRPeriod    int
	VolumeWindow int

	// VolumeRatio is the multiple of the rolling volume average a buy
	// bar must exceed.
	VolumeRatio   float64
	RSIBuyCeiling float64
	RSISellFloor  float64
}

func DefaultMomentumOptions() MomentumOptions {
	return MomentumOptions{
		FastSpan:      20,
		SlowSpan:      60,
		RSIPeriod:     14,
		ATRPeriod:     14,
		VolumeWindow:  20,
		VolumeRatio:   1.2,
		RSIBuyCeiling: 70,
		RSISellFloor:  80,
	}
}

// MomentumStrategy buys fast-over-slow EMA crossovers confirmed by RSI
// and a volume spike, and sells when the trend flips or RSI overheats.
type MomentumStrategy struct {
	opts MomentumOptions
}

func NewMomentumStrategy() *MomentumStrategy {
	return &MomentumStrategy{opts: DefaultMomentumOptions()}
}

func NewMomentumStrategyWithOptions(opts MomentumOptions) *MomentumStrategy {
	return &MomentumStrategy{opts: opts}
}

func (s *MomentumStrategy) Name() string {
	return fmt.Sprintf("momentum_ema%dx%d_rsi", s.opts.FastSpan, s.opts.SlowSpan)
}

func (s *MomentumStrategy) MinBars() int {
	return s.opts.SlowSpan
}

func (s *MomentumStrategy) GenerateSignals(bars []domain.PriceBar) ([]domain.PriceBar, error) {
	if len(bars) < s.MinBars() {
		return nil, fmt.Errorf("momentum strategy needs at least %d bars, got %d", s.MinBars(), len(bars))
	}

	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = float64(b.Volume)
	}

	fast := ema(closes, s.opts.FastSpan)
	slow := ema(closes, s.opts.SlowSpan)
	strength := rsi(closes, s.opts.RSIPeriod)
	volAvg := rollingMean(volumes, s.opts.VolumeWindow)
	trueRange := atr(bars, s.opts.ATRPeriod)

	out := make([]domain.PriceBar, len(bars))
	copy(out, bars)

	for i := range out {
		out[i].ATR = trueRange[i]
		out[i].Signal = domain.SignalHold

		// NaN indicator values fail every comparison below, which keeps
		// warm-up bars at Hold.
		if i > 0 &&
			fast[i] > slow[i] &&
			fast[i-1] <= slow[i-1] &&
			strength[i] < s.opts.RSIBuyCeiling &&
			!math.IsNaN(volAvg[i]) &&
			volumes[i] > volAvg[i]*s.opts.VolumeRatio {
			out[i].Signal = domain.SignalBuy
		}

		if fast[i] < slow[i] || strength[i] > s.opts.RSISellFloor {
			out[i].Signal = domain.SignalSell
		}
	}

	return out, nil
}
