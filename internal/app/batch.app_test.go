package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"swingbacktest/internal/domain"
	"swingbacktest/internal/repository"

	"github.com/stretchr/testify/require"
)

type stubPriceRepository struct {
	series map[string][]domain.PriceBar
}

func (r stubPriceRepository) List(_ context.Context, ticker string, _, _ time.Time) ([]domain.PriceBar, error) {
	bars, ok := r.series[ticker]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrNoPriceData, ticker)
	}
	return bars, nil
}

func Test_RunBatch_isolatesShortAndMissingTickers(t *testing.T) {
	repo := stubPriceRepository{series: map[string][]domain.PriceBar{
		"LONG":  makeBars(flatCloses(50, 100)),
		"SHORT": makeBars(flatCloses(5, 100)),
	}}
	handler := BacktestHandler{
		PriceRepository: repo,
		Config:          DefaultBacktestConfig(),
	}
	strat := stubStrategy{name: "noop", minBars: 10}

	results, err := handler.RunBatch(context.Background(), BatchInput{
		Strategy: strat,
		Tickers:  []string{"LONG", "SHORT", "MISSING"},
	})
	require.NoError(t, err)

	// the short series yields an explicitly empty result, the missing
	// ticker is dropped, and neither aborts the healthy run
	require.Len(t, results, 2)
	require.Contains(t, results, "LONG")
	require.Contains(t, results, "SHORT")
	require.NotContains(t, results, "MISSING")

	require.True(t, results["SHORT"].Empty())
	require.True(t, results["SHORT"].FinalCapital.Equal(results["SHORT"].InitialCapital))
	require.Len(t, results["LONG"].EquityCurve, 50)
}

func Test_RunBatch_runsAreIndependent(t *testing.T) {
	series := map[string][]domain.PriceBar{}
	tickers := []string{}
	for i := 0; i < 12; i++ {
		ticker := fmt.Sprintf("T%02d", i)
		tickers = append(tickers, ticker)
		series[ticker] = makeBars(flatCloses(30, 100+float64(i)))
	}

	handler := BacktestHandler{
		PriceRepository: stubPriceRepository{series: series},
		Config:          DefaultBacktestConfig(),
	}
	strat := stubStrategy{
		name:    "trade",
		minBars: 1,
		signals: map[int]domain.Signal{2: domain.SignalBuy, 10: domain.SignalSell},
	}

	results, err := handler.RunBatch(context.Background(), BatchInput{
		Strategy: strat,
		Tickers:  tickers,
	})
	require.NoError(t, err)
	require.Len(t, results, len(tickers))

	for _, ticker := range tickers {
		result := results[ticker]
		require.Equal(t, ticker, result.Ticker)
		require.Len(t, result.Trades, 1)
		requireConservation(t, result)
	}
}
