package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"swingbacktest/internal/domain"
)

// ErrNoPriceData marks a ticker with no rows in the store. Callers
// treat it as a per-ticker failure, never a silent substitution.
var ErrNoPriceData = errors.New("no price data for ticker")

// PriceRepository reads one ticker's daily price series, ascending by
// date. Zero start/end mean an unbounded range on that side.
type PriceRepository interface {
	List(ctx context.Context, ticker string, start, end time.Time) ([]domain.PriceBar, error)
}

type seriesCache map[string][]domain.PriceBar

func NewPriceRepository(db *sql.DB) PriceRepository {
	return &priceRepositoryHandler{
		db:    db,
		cache: seriesCache{},
		mu:    &sync.RWMutex{},
	}
}

type priceRepositoryHandler struct {
	db    *sql.DB
	cache seriesCache
	mu    *sync.RWMutex
}

const dateLayout = "2006-01-02"

func cacheKey(ticker string, start, end time.Time) string {
	return fmt.Sprintf("%s|%s|%s", ticker, start.Format(dateLayout), end.Format(dateLayout))
}

func (h *priceRepositoryHandler) List(ctx context.Context, ticker string, start, end time.Time) ([]domain.PriceBar, error) {
	key := cacheKey(ticker, start, end)
	h.mu.RLock()
	if bars, ok := h.cache[key]; ok {
		h.mu.RUnlock()
		return bars, nil
	}
	h.mu.RUnlock()

	query := `SELECT time, open, high, low, close, volume FROM ohlcv_daily WHERE ticker_code = $1`
	args := []interface{}{ticker}
	if !start.IsZero() {
		args = append(args, start)
		query += fmt.Sprintf(" AND time >= $%d", len(args))
	}
	if !end.IsZero() {
		args = append(args, end)
		query += fmt.Sprintf(" AND time <= $%d", len(args))
	}
	query += " ORDER BY time ASC"

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices for %s: %w", ticker, err)
	}
	defer rows.Close()

	bars := []domain.PriceBar{}
	for rows.Next() {
		var b domain.PriceBar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan price row for %s: %w", ticker, err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read price rows for %s: %w", ticker, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPriceData, ticker)
	}

	h.mu.Lock()
	h.cache[key] = bars
	h.mu.Unlock()

	return bars, nil
}
