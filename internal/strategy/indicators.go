package strategy

import (
	"math"

	"swingbacktest/internal/domain"
)

// Indicator kernels used by the reference strategy. Each returns one
// value per input bar, with NaN marking bars before the window has
// enough history.

func ema(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1.0-alpha)*out[i-1]
	}
	return out
}

func rollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i := range values {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// rsi uses simple rolling averages of gains and losses (Cutler's RSI).
// The first delta needs a previous close, so the window is only full
// from index period onward.
func rsi(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	for i := period; i < len(closes); i++ {
		var gain, loss float64
		for j := i - period + 1; j <= i; j++ {
			delta := closes[j] - closes[j-1]
			if delta > 0 {
				gain += delta
			} else {
				loss -= delta
			}
		}
		avgGain := gain / float64(period)
		avgLoss := loss / float64(period)
		switch {
		case avgLoss > 0:
			rs := avgGain / avgLoss
			out[i] = 100.0 - 100.0/(1.0+rs)
		case avgGain > 0:
			out[i] = 100.0
		default:
			// flat window, no direction to measure
			out[i] = math.NaN()
		}
	}
	return out
}

// atr averages the true range over the window. True range is the
// largest of high-low, |high-prev close| and |low-prev close|; the
// first bar has no previous close and falls back to high-low.
func atr(bars []domain.PriceBar, period int) []float64 {
	tr := make([]float64, len(bars))
	for i, b := range bars {
		hl := b.High - b.Low
		if i == 0 {
			tr[i] = hl
			continue
		}
		prevClose := bars[i-1].Close
		hc := math.Abs(b.High - prevClose)
		lc := math.Abs(b.Low - prevClose)
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return rollingMean(tr, period)
}
