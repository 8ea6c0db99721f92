package main

import (
	"database/sql"
	"fmt"
	"os"
	"sort"
	"time"

	"swingbacktest/api"
	"swingbacktest/internal/app"
	"swingbacktest/internal/logger"
	"swingbacktest/internal/repository"
	"swingbacktest/internal/strategy"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

func newRegistry() *strategy.Registry {
	registry := strategy.NewRegistry()
	registry.Register(strategy.NewMomentumStrategy())
	return registry
}

func main() {
	// .env is optional; env vars win either way
	_ = godotenv.Load()
	log := logger.New()

	root := &cobra.Command{
		Use:           "backtest",
		Short:         "Swing-trading backtest engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newRunCmd(log), newApiCmd(log))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRunCmd(log *zap.SugaredLogger) *cobra.Command {
	var (
		dataDir      string
		tickers      []string
		strategyName string
		startDate    string
		endDate      string
		capital      float64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Backtest tickers from CSV price files and print reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := newRegistry()
			strat, ok := registry.Get(strategyName)
			if !ok {
				return fmt.Errorf("unknown strategy %q, available: %v", strategyName, registry.List())
			}

			start, end, err := parseRange(startDate, endDate)
			if err != nil {
				return err
			}

			cfg := app.DefaultBacktestConfig()
			if capital > 0 {
				cfg.InitialCapital = decimal.NewFromFloat(capital)
			}

			handler := app.BacktestHandler{
				PriceRepository: repository.CSVPriceRepository{Dir: dataDir},
				Config:          cfg,
				Logger:          log,
			}

			results, err := handler.RunBatch(cmd.Context(), app.BatchInput{
				Strategy: strat,
				Tickers:  tickers,
				Start:    start,
				End:      end,
			})
			if err != nil {
				return fmt.Errorf("failed to run batch: %w", err)
			}

			keys := make([]string, 0, len(results))
			for ticker := range results {
				keys = append(keys, ticker)
			}
			sort.Strings(keys)
			for _, ticker := range keys {
				printReport(results[ticker])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "data", "directory holding <ticker>.csv price files")
	cmd.Flags().StringSliceVar(&tickers, "tickers", nil, "tickers to backtest")
	cmd.Flags().StringVar(&strategyName, "strategy", strategy.NewMomentumStrategy().Name(), "strategy to run")
	cmd.Flags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&capital, "capital", 0, "initial capital (default 100,000,000)")
	_ = cmd.MarkFlagRequired("tickers")

	return cmd
}

func newApiCmd(log *zap.SugaredLogger) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "api",
		Short: "Serve the backtest HTTP API backed by Postgres prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := sql.Open("postgres", os.Getenv("DATABASE_URL"))
			if err != nil {
				return fmt.Errorf("failed to connect to db: %w", err)
			}

			handler := api.ApiHandler{
				BacktestHandler: app.BacktestHandler{
					PriceRepository: repository.NewPriceRepository(db),
					Config:          app.DefaultBacktestConfig(),
					Logger:          log,
				},
				StrategyRegistry: newRegistry(),
			}

			log.Infow("starting api", "port", port)
			return handler.StartApi(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "listen port")

	return cmd
}

func parseRange(startDate, endDate string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if startDate != "" {
		start, err = time.Parse(dateLayout, startDate)
		if err != nil {
			return start, end, fmt.Errorf("failed to parse start date: %w", err)
		}
	}
	if endDate != "" {
		end, err = time.Parse(dateLayout, endDate)
		if err != nil {
			return start, end, fmt.Errorf("failed to parse end date: %w", err)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return start, end, fmt.Errorf("end date cannot be before start date")
	}
	return start, end, nil
}
