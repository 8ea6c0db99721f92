package app

import (
	"context"
	"sync"
	"time"

	"swingbacktest/internal/domain"
	"swingbacktest/internal/strategy"
)

const batchWorkers = 4

type BatchInput struct {
	Strategy strategy.Strategy
	Tickers  []string
	Start    time.Time
	End      time.Time
}

// RunBatch fans the backtest out over the tickers with a bounded worker
// pool. Runs are fully independent; a ticker that fails to load or
// simulate is logged and left out of the returned map rather than
// aborting its siblings.
func (h BacktestHandler) RunBatch(ctx context.Context, in BatchInput) (map[string]*domain.BacktestResult, error) {
	type workResult struct {
		Ticker string
		Result *domain.BacktestResult
		Err    error
	}

	inputCh := make(chan string, len(in.Tickers))
	resultCh := make(chan workResult, len(in.Tickers))
	var wg sync.WaitGroup
	for _, ticker := range in.Tickers {
		wg.Add(1)
		inputCh <- ticker
	}
	close(inputCh)

	for i := 0; i < batchWorkers; i++ {
		go func() {
			for ticker := range inputCh {
				// drain the queue on cancellation so the wait group
				// still reaches zero
				if err := ctx.Err(); err != nil {
					resultCh <- workResult{Ticker: ticker, Err: err}
					wg.Done()
					continue
				}
				res, err := h.Run(ctx, RunInput{
					Strategy: in.Strategy,
					Ticker:   ticker,
					Start:    in.Start,
					End:      in.End,
				})
				resultCh <- workResult{Ticker: ticker, Result: res, Err: err}
				wg.Done()
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	out := map[string]*domain.BacktestResult{}
	for res := range resultCh {
		if res.Err != nil {
			h.logger().Errorw("backtest failed, skipping ticker",
				"ticker", res.Ticker, "error", res.Err)
			continue
		}
		out[res.Ticker] = res.Result
	}

	return out, nil
}
