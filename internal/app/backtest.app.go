package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"swingbacktest/internal/calculator"
	"swingbacktest/internal/domain"
	"swingbacktest/internal/repository"
	"swingbacktest/internal/strategy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// fallbackATRRatio estimates ATR as a fraction of the close when the
// indicator hasn't warmed up yet.
const fallbackATRRatio = 0.02

// BacktestConfig holds the per-run cost model and sizing knobs. Rates
// are fractions, not percents (0.001 = 0.1%).
type BacktestConfig struct {
	InitialCapital decimal.Decimal

	// CommissionRate applies to notional on both entry and exit.
	CommissionRate float64

	// SlippageRate moves the fill against the trader on both sides.
	SlippageRate float64

	// TaxRate is the sell-side transaction tax, exit only.
	TaxRate float64

	// ATRStopMultiplier places the stop at peak - k*ATR.
	ATRStopMultiplier float64

	// RiskFraction is the share of cash put at risk between entry and
	// stop when sizing a position.
	RiskFraction float64

	// EntryFraction scales the risk-budgeted share count; the default
	// commits 30%, mirroring a staged-entry policy.
	EntryFraction float64

	// RiskFreeRate is the annual rate used for Sharpe/Sortino.
	RiskFreeRate float64
}

func DefaultBacktestConfig() BacktestConfig {
	return BacktestConfig{
		InitialCapital:    decimal.NewFromInt(100_000_000),
		CommissionRate:    0.00015,
		SlippageRate:      0.001,
		TaxRate:           0.0023,
		ATRStopMultiplier: 3.0,
		RiskFraction:      0.02,
		EntryFraction:     0.3,
		RiskFreeRate:      0.035,
	}
}

// BacktestHandler replays price series against a strategy and produces
// trade logs, equity curves and the derived scorecard.
type BacktestHandler struct {
	PriceRepository repository.PriceRepository
	Config          BacktestConfig
	Logger          *zap.SugaredLogger
}

type RunInput struct {
	Strategy strategy.Strategy
	Ticker   string
	Start    time.Time
	End      time.Time
}

// Run loads the ticker's price series from the repository and simulates
// it. Zero Start/End mean the full available range.
func (h BacktestHandler) Run(ctx context.Context, in RunInput) (*domain.BacktestResult, error) {
	bars, err := h.PriceRepository.List(ctx, in.Ticker, in.Start, in.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices for %s: %w", in.Ticker, err)
	}
	return h.RunSeries(in.Strategy, in.Ticker, bars)
}

// RunSeries simulates an already-loaded price series. A series shorter
// than the strategy's minimum lookback yields an empty, well-formed
// result rather than an error.
func (h BacktestHandler) RunSeries(strat strategy.Strategy, ticker string, bars []domain.PriceBar) (*domain.BacktestResult, error) {
	if len(bars) < strat.MinBars() {
		h.logger().Warnw("insufficient data for backtest",
			"ticker", ticker, "bars", len(bars), "required", strat.MinBars())
		return h.emptyResult(strat.Name(), ticker), nil
	}

	signaled, err := strat.GenerateSignals(bars)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signals for %s: %w", ticker, err)
	}

	result := h.simulate(strat.Name(), ticker, signaled)
	result.Metrics = calculator.CalculateMetrics(calculator.CalculateMetricsInput{
		Trades:         result.Trades,
		EquityCurve:    result.EquityCurve,
		InitialCapital: result.InitialCapital,
		FinalCapital:   result.FinalCapital,
		Bars:           len(signaled),
		RiskFreeRate:   h.Config.RiskFreeRate,
	})
	return result, nil
}

// simulate walks the series bar by bar through the FLAT/LONG position
// state machine. Cash moves only on entry and exit, so the equity curve
// is always cash plus the open position marked at the bar's close.
func (h BacktestHandler) simulate(strategyName, ticker string, bars []domain.PriceBar) *domain.BacktestResult {
	cfg := h.Config
	cash := cfg.InitialCapital
	var pos *domain.Position

	trades := []domain.TradeRecord{}
	curve := make([]domain.EquityPoint, 0, len(bars))

	commissionRate := decimal.NewFromFloat(cfg.CommissionRate)
	exitFeeRate := decimal.NewFromFloat(cfg.CommissionRate + cfg.TaxRate)

	closePosition := func(exitDate time.Time, exitPrice float64, reason domain.ExitReason) {
		proceeds := decimal.NewFromFloat(exitPrice).Mul(decimal.NewFromInt(pos.Shares))
		fees := proceeds.Mul(exitFeeRate)
		cash = cash.Add(proceeds).Sub(fees)

		trades = append(trades, domain.TradeRecord{
			Ticker:      ticker,
			EntryDate:   pos.EntryDate,
			EntryPrice:  pos.EntryPrice,
			ExitDate:    exitDate,
			ExitPrice:   exitPrice,
			Shares:      pos.Shares,
			PnL:         proceeds.Sub(fees).Sub(pos.CostBasis).Sub(pos.EntryCommission),
			PnLPercent:  (exitPrice/pos.EntryPrice - 1) * 100,
			Commission:  pos.EntryCommission.Add(fees),
			HoldingDays: int(exitDate.Sub(pos.EntryDate).Hours() / 24),
			ExitReason:  reason,
		})
		pos = nil
	}

	for _, bar := range bars {
		price := bar.Close
		atr := bar.ATR
		if math.IsNaN(atr) || atr <= 0 {
			atr = price * fallbackATRRatio
		}

		if pos != nil {
			if bar.High > pos.PeakPrice {
				pos.PeakPrice = bar.High
			}
			// the trailing stop only ratchets upward
			if stop := pos.PeakPrice - cfg.ATRStopMultiplier*atr; stop > pos.StopPrice {
				pos.StopPrice = stop
			}

			if price <= pos.StopPrice {
				closePosition(bar.Date, price*(1-cfg.SlippageRate), domain.ExitReasonStopLoss)
			} else if bar.Signal == domain.SignalSell {
				closePosition(bar.Date, price*(1-cfg.SlippageRate), domain.ExitReasonSignalExit)
			}
		} else if bar.Signal == domain.SignalBuy {
			fill := price * (1 + cfg.SlippageRate)
			stop := fill - cfg.ATRStopMultiplier*atr
			riskPerShare := fill - stop
			cashAvailable := cash.InexactFloat64()

			var shares int64
			if riskPerShare > 0 {
				maxShares := int64(cashAvailable * cfg.RiskFraction / riskPerShare)
				shares = int64(float64(maxShares) * cfg.EntryFraction)
			} else {
				// degenerate risk-per-share: spend 10% of cash instead
				shares = int64(cashAvailable * 0.1 / fill)
			}
			if shares < 1 {
				shares = 1
			}

			cost := decimal.NewFromFloat(fill).Mul(decimal.NewFromInt(shares))
			commission := cost.Mul(commissionRate)
			cash = cash.Sub(cost).Sub(commission)

			pos = &domain.Position{
				EntryDate:       bar.Date,
				EntryPrice:      fill,
				Shares:          shares,
				StopPrice:       stop,
				PeakPrice:       fill,
				CostBasis:       cost,
				EntryCommission: commission,
			}
		}

		equity := cash
		if pos != nil {
			equity = equity.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(pos.Shares)))
		}
		curve = append(curve, domain.EquityPoint{Date: bar.Date, Value: equity.InexactFloat64()})
	}

	if pos != nil {
		last := bars[len(bars)-1]
		closePosition(last.Date, last.Close*(1-cfg.SlippageRate), domain.ExitReasonEndOfData)
		// the last mark assumed the position stayed open; re-mark at
		// the cash the forced close actually left behind
		curve[len(curve)-1].Value = cash.InexactFloat64()
	}

	return &domain.BacktestResult{
		RunID:          uuid.New(),
		StrategyName:   strategyName,
		Ticker:         ticker,
		Start:          bars[0].Date,
		End:            bars[len(bars)-1].Date,
		InitialCapital: cfg.InitialCapital,
		FinalCapital:   cash,
		Trades:         trades,
		EquityCurve:    curve,
	}
}

func (h BacktestHandler) emptyResult(strategyName, ticker string) *domain.BacktestResult {
	return &domain.BacktestResult{
		RunID:          uuid.New(),
		StrategyName:   strategyName,
		Ticker:         ticker,
		InitialCapital: h.Config.InitialCapital,
		FinalCapital:   h.Config.InitialCapital,
		Metrics:        domain.Metrics{TotalCommission: decimal.Zero},
		Trades:         []domain.TradeRecord{},
		EquityCurve:    []domain.EquityPoint{},
	}
}

func (h BacktestHandler) logger() *zap.SugaredLogger {
	if h.Logger != nil {
		return h.Logger
	}
	return zap.S()
}
