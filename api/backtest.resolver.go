package api

import (
	"fmt"
	"time"

	"swingbacktest/internal/app"
	"swingbacktest/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type BacktestRequest struct {
	Ticker    string `json:"ticker"`
	Strategy  string `json:"strategy"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`

	// optional per-run overrides of the engine defaults
	InitialCapital    *float64 `json:"initialCapital"`
	CommissionRate    *float64 `json:"commissionRate"`
	SlippageRate      *float64 `json:"slippageRate"`
	TaxRate           *float64 `json:"taxRate"`
	ATRStopMultiplier *float64 `json:"atrStopMultiplier"`
	RiskFraction      *float64 `json:"riskFraction"`
}

type tradeJson struct {
	Ticker      string  `json:"ticker"`
	EntryDate   string  `json:"entryDate"`
	EntryPrice  float64 `json:"entryPrice"`
	ExitDate    string  `json:"exitDate"`
	ExitPrice   float64 `json:"exitPrice"`
	Shares      int64   `json:"shares"`
	Pnl         float64 `json:"pnl"`
	PnlPercent  float64 `json:"pnlPercent"`
	HoldingDays int     `json:"holdingDays"`
	ExitReason  string  `json:"exitReason"`
}

type equityPointJson struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type metricsJson struct {
	TotalReturn         float64 `json:"totalReturn"`
	AnnualizedReturn    float64 `json:"annualizedReturn"`
	SharpeRatio         float64 `json:"sharpeRatio"`
	SortinoRatio        float64 `json:"sortinoRatio"`
	MaxDrawdown         float64 `json:"maxDrawdown"`
	MaxDrawdownDuration int     `json:"maxDrawdownDuration"`
	WinRate             float64 `json:"winRate"`
	ProfitFactor        float64 `json:"profitFactor"`
	TotalTrades         int     `json:"totalTrades"`
	WinningTrades       int     `json:"winningTrades"`
	LosingTrades        int     `json:"losingTrades"`
	AvgWin              float64 `json:"avgWin"`
	AvgLoss             float64 `json:"avgLoss"`
	AvgHoldingDays      float64 `json:"avgHoldingDays"`
	TotalCommission     float64 `json:"totalCommission"`
}

type BacktestResponse struct {
	RunID          string            `json:"runId"`
	StrategyName   string            `json:"strategyName"`
	Ticker         string            `json:"ticker"`
	Start          string            `json:"start"`
	End            string            `json:"end"`
	InitialCapital float64           `json:"initialCapital"`
	FinalCapital   float64           `json:"finalCapital"`
	Metrics        metricsJson       `json:"metrics"`
	Trades         []tradeJson       `json:"trades"`
	EquityCurve    []equityPointJson `json:"equityCurve"`
}

const dateLayout = "2006-01-02"

func (m ApiHandler) backtest(c *gin.Context) {
	var requestBody BacktestRequest
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		returnErrorJsonCode(err, c, 400)
		return
	}
	if requestBody.Ticker == "" {
		returnErrorJsonCode(fmt.Errorf("ticker is required"), c, 400)
		return
	}

	strategyName := requestBody.Strategy
	if strategyName == "" {
		names := m.StrategyRegistry.List()
		if len(names) == 0 {
			returnErrorJson(fmt.Errorf("no strategies registered"), c)
			return
		}
		strategyName = names[0]
	}
	strat, ok := m.StrategyRegistry.Get(strategyName)
	if !ok {
		returnErrorJsonCode(fmt.Errorf("unknown strategy %q", strategyName), c, 400)
		return
	}

	var start, end time.Time
	var err error
	if requestBody.StartDate != "" {
		start, err = time.Parse(dateLayout, requestBody.StartDate)
		if err != nil {
			returnErrorJsonCode(err, c, 400)
			return
		}
	}
	if requestBody.EndDate != "" {
		end, err = time.Parse(dateLayout, requestBody.EndDate)
		if err != nil {
			returnErrorJsonCode(err, c, 400)
			return
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		returnErrorJsonCode(fmt.Errorf("end date cannot be before start date"), c, 400)
		return
	}

	handler := m.BacktestHandler
	handler.Config = applyOverrides(handler.Config, requestBody)

	result, err := handler.Run(c.Request.Context(), app.RunInput{
		Strategy: strat,
		Ticker:   requestBody.Ticker,
		Start:    start,
		End:      end,
	})
	if err != nil {
		returnErrorJson(fmt.Errorf("failed to run backtest: %w", err), c)
		return
	}

	c.JSON(200, toBacktestResponse(result))
}

func applyOverrides(cfg app.BacktestConfig, req BacktestRequest) app.BacktestConfig {
	if req.InitialCapital != nil {
		cfg.InitialCapital = decimal.NewFromFloat(*req.InitialCapital)
	}
	if req.CommissionRate != nil {
		cfg.CommissionRate = *req.CommissionRate
	}
	if req.SlippageRate != nil {
		cfg.SlippageRate = *req.SlippageRate
	}
	if req.TaxRate != nil {
		cfg.TaxRate = *req.TaxRate
	}
	if req.ATRStopMultiplier != nil {
		cfg.ATRStopMultiplier = *req.ATRStopMultiplier
	}
	if req.RiskFraction != nil {
		cfg.RiskFraction = *req.RiskFraction
	}
	return cfg
}

func toBacktestResponse(result *domain.BacktestResult) BacktestResponse {
	trades := make([]tradeJson, 0, len(result.Trades))
	for _, t := range result.Trades {
		trades = append(trades, tradeJson{
			Ticker:      t.Ticker,
			EntryDate:   t.EntryDate.Format(dateLayout),
			EntryPrice:  t.EntryPrice,
			ExitDate:    t.ExitDate.Format(dateLayout),
			ExitPrice:   t.ExitPrice,
			Shares:      t.Shares,
			Pnl:         t.PnL.InexactFloat64(),
			PnlPercent:  t.PnLPercent,
			HoldingDays: t.HoldingDays,
			ExitReason:  string(t.ExitReason),
		})
	}

	curve := make([]equityPointJson, 0, len(result.EquityCurve))
	for _, p := range result.EquityCurve {
		curve = append(curve, equityPointJson{
			Date:  p.Date.Format(dateLayout),
			Value: p.Value,
		})
	}

	m := result.Metrics
	return BacktestResponse{
		RunID:          result.RunID.String(),
		StrategyName:   result.StrategyName,
		Ticker:         result.Ticker,
		Start:          result.Start.Format(dateLayout),
		End:            result.End.Format(dateLayout),
		InitialCapital: result.InitialCapital.InexactFloat64(),
		FinalCapital:   result.FinalCapital.InexactFloat64(),
		Metrics: metricsJson{
			TotalReturn:         m.TotalReturn,
			AnnualizedReturn:    m.AnnualizedReturn,
			SharpeRatio:         m.SharpeRatio,
			SortinoRatio:        m.SortinoRatio,
			MaxDrawdown:         m.MaxDrawdown,
			MaxDrawdownDuration: m.MaxDrawdownDuration,
			WinRate:             m.WinRate,
			ProfitFactor:        m.ProfitFactor,
			TotalTrades:         m.TotalTrades,
			WinningTrades:       m.WinningTrades,
			LosingTrades:        m.LosingTrades,
			AvgWin:              m.AvgWin,
			AvgLoss:             m.AvgLoss,
			AvgHoldingDays:      m.AvgHoldingDays,
			TotalCommission:     m.TotalCommission.InexactFloat64(),
		},
		Trades:      trades,
		EquityCurve: curve,
	}
}
