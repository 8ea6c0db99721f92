package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"swingbacktest/internal/domain"
	"swingbacktest/internal/util"

	"github.com/gocarina/gocsv"
)

type csvPriceRow struct {
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume int64   `csv:"volume"`
}

// CSVPriceRepository reads <Dir>/<ticker>.csv files for offline runs.
// Rows must already be sorted ascending by date.
type CSVPriceRepository struct {
	Dir string
}

func (r CSVPriceRepository) List(_ context.Context, ticker string, start, end time.Time) ([]domain.PriceBar, error) {
	f, err := os.Open(filepath.Join(r.Dir, ticker+".csv"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoPriceData, ticker)
		}
		return nil, fmt.Errorf("failed to open price file for %s: %w", ticker, err)
	}
	defer f.Close()

	rows := []csvPriceRow{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse price file for %s: %w", ticker, err)
	}

	bars := []domain.PriceBar{}
	for _, row := range rows {
		date, err := time.Parse(dateLayout, row.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date %q for %s: %w", row.Date, ticker, err)
		}
		if !start.IsZero() && date.Before(start) {
			continue
		}
		if !end.IsZero() && !util.DateLte(date, end) {
			continue
		}
		bars = append(bars, domain.PriceBar{
			Date:   date,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPriceData, ticker)
	}

	return bars, nil
}
