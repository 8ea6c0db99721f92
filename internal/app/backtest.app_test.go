package app

import (
	"math"
	"testing"

	"swingbacktest/internal/domain"
	"swingbacktest/internal/util"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type stubStrategy struct {
	name    string
	minBars int
	signals map[int]domain.Signal
}

func (s stubStrategy) Name() string { return s.name }

func (s stubStrategy) MinBars() int { return s.minBars }

func (s stubStrategy) GenerateSignals(bars []domain.PriceBar) ([]domain.PriceBar, error) {
	out := make([]domain.PriceBar, len(bars))
	copy(out, bars)
	for i := range out {
		out[i].ATR = math.NaN()
		if sig, ok := s.signals[i]; ok {
			out[i].Signal = sig
		}
	}
	return out, nil
}

func makeBars(closes []float64) []domain.PriceBar {
	start := util.NewDate(2024, 1, 2)
	bars := make([]domain.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = domain.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func flatCloses(n int, price float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return closes
}

func newTestHandler() BacktestHandler {
	return BacktestHandler{Config: DefaultBacktestConfig()}
}

func requireConservation(t *testing.T, result *domain.BacktestResult) {
	t.Helper()
	sum := decimal.Zero
	for _, tr := range result.Trades {
		sum = sum.Add(tr.PnL)
	}
	require.True(t, result.FinalCapital.Equal(result.InitialCapital.Add(sum)),
		"final capital %s != initial %s + pnl %s",
		result.FinalCapital, result.InitialCapital, sum)
}

func Test_RunSeries_flatSeriesNoSignals(t *testing.T) {
	handler := newTestHandler()
	strat := stubStrategy{name: "noop", minBars: 1, signals: nil}

	result, err := handler.RunSeries(strat, "FLAT", makeBars(flatCloses(100, 100)))
	require.NoError(t, err)

	require.Len(t, result.Trades, 0)
	require.Len(t, result.EquityCurve, 100)
	require.True(t, result.FinalCapital.Equal(result.InitialCapital))
	require.Equal(t, 0.0, result.Metrics.SharpeRatio)
	require.Equal(t, 0.0, result.Metrics.SortinoRatio)
	require.Equal(t, 0.0, result.Metrics.MaxDrawdown)
	require.Equal(t, 0, result.Metrics.MaxDrawdownDuration)
	requireConservation(t, result)
}

func Test_RunSeries_signalExit(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	strat := stubStrategy{
		name:    "buy10sell20",
		minBars: 1,
		signals: map[int]domain.Signal{10: domain.SignalBuy, 20: domain.SignalSell},
	}

	handler := newTestHandler()
	result, err := handler.RunSeries(strat, "UP", makeBars(closes))
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]
	require.Equal(t, domain.ExitReasonSignalExit, trade.ExitReason)
	require.True(t, trade.PnL.GreaterThan(decimal.Zero))
	require.Equal(t, util.NewDate(2024, 1, 2).AddDate(0, 0, 10), trade.EntryDate)
	require.Equal(t, util.NewDate(2024, 1, 2).AddDate(0, 0, 20), trade.ExitDate)
	require.Equal(t, 10, trade.HoldingDays)
	requireConservation(t, result)
}

func Test_RunSeries_stopLoss(t *testing.T) {
	closes := []float64{100, 100, 100, 100, 100, 100, 97, 92, 92, 92}
	strat := stubStrategy{
		name:    "buy5",
		minBars: 1,
		signals: map[int]domain.Signal{5: domain.SignalBuy},
	}

	handler := newTestHandler()
	result, err := handler.RunSeries(strat, "DROP", makeBars(closes))
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]
	require.Equal(t, domain.ExitReasonStopLoss, trade.ExitReason)
	require.True(t, trade.PnL.LessThan(decimal.Zero))
	require.Negative(t, result.Metrics.MaxDrawdown)
	requireConservation(t, result)
}

func Test_RunSeries_endOfData(t *testing.T) {
	closes := flatCloses(12, 100)
	strat := stubStrategy{
		name:    "buyAndHold",
		minBars: 1,
		signals: map[int]domain.Signal{5: domain.SignalBuy},
	}

	handler := newTestHandler()
	bars := makeBars(closes)
	result, err := handler.RunSeries(strat, "HOLD", bars)
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]
	require.Equal(t, domain.ExitReasonEndOfData, trade.ExitReason)
	require.Equal(t, bars[len(bars)-1].Date, trade.ExitDate)

	// after the forced close the last mark is the final cash
	last := result.EquityCurve[len(result.EquityCurve)-1]
	require.Equal(t, result.FinalCapital.InexactFloat64(), last.Value)
	requireConservation(t, result)
}

func Test_RunSeries_insufficientData(t *testing.T) {
	handler := newTestHandler()
	strat := stubStrategy{name: "needs60", minBars: 60}

	result, err := handler.RunSeries(strat, "SHORT", makeBars(flatCloses(10, 100)))
	require.NoError(t, err)

	require.True(t, result.Empty())
	require.True(t, result.FinalCapital.Equal(result.InitialCapital))
	require.Equal(t, 0, result.Metrics.TotalTrades)
}

func Test_RunSeries_equityCurveCoversEveryBar(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100 + 5*math.Sin(float64(i)/3)
	}
	strat := stubStrategy{
		name:    "churn",
		minBars: 1,
		signals: map[int]domain.Signal{
			3: domain.SignalBuy, 8: domain.SignalSell,
			15: domain.SignalBuy, 22: domain.SignalSell,
			30: domain.SignalBuy,
		},
	}

	handler := newTestHandler()
	bars := makeBars(closes)
	result, err := handler.RunSeries(strat, "CHURN", bars)
	require.NoError(t, err)

	require.Len(t, result.EquityCurve, len(bars))
	for i, p := range result.EquityCurve {
		require.Equal(t, bars[i].Date, p.Date)
		require.Positive(t, p.Value)
	}
	require.LessOrEqual(t, result.Metrics.MaxDrawdown, 0.0)
	requireConservation(t, result)
}

func Test_RunSeries_deterministic(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + 3*math.Cos(float64(i)/2)
	}
	strat := stubStrategy{
		name:    "repeat",
		minBars: 1,
		signals: map[int]domain.Signal{4: domain.SignalBuy, 18: domain.SignalSell, 25: domain.SignalBuy},
	}

	handler := newTestHandler()
	bars := makeBars(closes)

	first, err := handler.RunSeries(strat, "DET", bars)
	require.NoError(t, err)
	second, err := handler.RunSeries(strat, "DET", bars)
	require.NoError(t, err)

	require.Equal(t, first.Trades, second.Trades)
	require.Equal(t, first.EquityCurve, second.EquityCurve)
	require.Equal(t, first.Metrics, second.Metrics)
	require.True(t, first.FinalCapital.Equal(second.FinalCapital))
}

func Test_RunSeries_degenerateRiskFallsBackToCashFraction(t *testing.T) {
	cfg := DefaultBacktestConfig()
	cfg.ATRStopMultiplier = 0 // risk per share collapses to zero
	handler := BacktestHandler{Config: cfg}

	strat := stubStrategy{
		name:    "buy1",
		minBars: 1,
		signals: map[int]domain.Signal{1: domain.SignalBuy},
	}

	result, err := handler.RunSeries(strat, "DGN", makeBars(flatCloses(10, 100)))
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	require.Positive(t, result.Trades[0].Shares)
	requireConservation(t, result)
}
