// Command txfbt replays historical TX/MTX futures bars through an
// event-driven backtest engine and prints a performance report.
//
// Architecture:
//
//	main.go                    — entry point: loads config, loads bars, runs the engine, prints the report
//	engine/engine.go           — orchestrator: drives matching, risk, strategy, and equity snapshot per bar
//	matching/matching.go       — one-bar-lookahead order queue and fill generation
//	position/manager.go        — weighted-average position state, realized/unrealized P&L, equity curve
//	risk/manager.go            — combines pre-trade checks, fixed-order stops, and the real-time halt monitor
//	strategy/                  — the Strategy interface the engine drives once per bar
//	data/                      — CSV/HTTP bar loading and the chronological replay feed
//	report/                    — performance metrics, fixed-width text report, JSON run persistence
//	api/                       — optional websocket dashboard exposing live progress and the final result
//
// How it works:
//
//	Bars are replayed one at a time in strict chronological order. On
//	every bar the engine fills orders queued from the prior bar first,
//	marks the open position to the bar's close, lets the risk manager
//	evaluate stops and forced liquidation, then hands the bar to the
//	strategy — whose own orders cannot fill until the following bar.
//	This fixed order is what keeps the backtest free of look-ahead
//	bias.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/txf-quant/txfbt/internal/api"
	"github.com/txf-quant/txfbt/internal/config"
	"github.com/txf-quant/txfbt/internal/data"
	"github.com/txf-quant/txfbt/internal/engine"
	"github.com/txf-quant/txfbt/internal/report"
	"github.com/txf-quant/txfbt/internal/strategy/examples"
	"github.com/txf-quant/txfbt/pkg/types"

	"github.com/shopspring/decimal"
)

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("TXF_CONFIG"); p != "" {
		cfgPath = p
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "path to config YAML file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	strat := examples.NewDualMA(cfg.Backtest.Symbol, cfg.Strategy.FastPeriod, cfg.Strategy.SlowPeriod, cfg.Strategy.Quantity)

	eng, err := engine.New(*cfg, strat, logger)
	if err != nil {
		logger.Error("failed to create engine", "error", err)
		os.Exit(1)
	}

	var apiServer *api.Server
	if cfg.Dashboard.Enabled {
		apiServer = api.NewServer(cfg.Dashboard, eng, logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error("dashboard server failed", "error", err)
			}
		}()
		logger.Info("dashboard started", "url", fmt.Sprintf("http://localhost:%d", cfg.Dashboard.Port))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal, stopping after the current bar", "signal", sig.String())
		cancel()
	}()

	feed, err := loadFeed(ctx, *cfg)
	if err != nil {
		logger.Error("failed to load bars", "error", err)
		os.Exit(1)
	}
	logger.Info("loaded bars", "count", feed.Len(), "symbol", cfg.Backtest.Symbol)

	result, err := eng.Run(ctx, feed)
	if err != nil {
		logger.Error("backtest run failed", "error", err)
		if apiServer != nil {
			apiServer.Stop()
		}
		os.Exit(1)
	}

	metrics := report.Calculate(
		equityFloats(result.EquityCurve),
		result.TradeRecords,
		decToFloat(result.InitialCapital),
		decToFloat(result.TotalCommission),
		decToFloat(result.TotalTax),
		report.Options{
			BarsPerYear:  cfg.Report.BarsPerYear,
			RiskFreeRate: cfg.Report.RiskFreeRate,
			TotalBars:    result.TotalBars,
		},
	)
	fmt.Println(report.Format(metrics))

	if cfg.Report.OutputDir != "" {
		store, err := report.Open(cfg.Report.OutputDir)
		if err != nil {
			logger.Error("failed to open report store", "error", err)
		} else {
			runID := cfg.Report.RunID
			if runID == "" {
				runID = fmt.Sprintf("%s-%s", cfg.Backtest.Symbol, time.Now().Format("20060102-150405"))
			}
			err := store.SaveRun(runID, report.RunResult{
				Trades:      result.TradeRecords,
				EquityCurve: result.EquityCurve,
				Metrics:     metrics,
			})
			if err != nil {
				logger.Error("failed to save run result", "error", err)
			} else {
				logger.Info("saved run result", "dir", cfg.Report.OutputDir, "run_id", runID)
			}
		}
	}

	if apiServer != nil {
		logger.Info("run complete, dashboard still serving the final result; press ctrl-c to exit")
		<-sigCh
		if err := apiServer.Stop(); err != nil {
			logger.Error("failed to stop dashboard", "error", err)
		}
	}
}

// loadFeed loads every CSV bar under cfg.Data.Dir, then optionally
// adds the bars fetched from a remote HTTP source, and wraps the merged
// result in a chronological feed bounded by the configured date
// range.
func loadFeed(ctx context.Context, cfg config.Config) (data.Feed, error) {
	source := data.NewCSVSource(cfg.Backtest.Symbol)
	if cfg.Data.DatetimeLayout != "" {
		source.DatetimeLayout = cfg.Data.DatetimeLayout
	}

	bars, err := data.LoadDir(ctx, source, cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("load bars from %s: %w", cfg.Data.Dir, err)
	}

	var start, end time.Time
	if cfg.Data.StartDate != "" {
		start, err = time.ParseInLocation("2006-01-02", cfg.Data.StartDate, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse data.start_date: %w", err)
		}
	}
	if cfg.Data.EndDate != "" {
		end, err = time.ParseInLocation("2006-01-02", cfg.Data.EndDate, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse data.end_date: %w", err)
		}
		end = end.Add(24 * time.Hour)
	}

	if cfg.Data.HTTPEnabled {
		timeout := cfg.Data.HTTPTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		httpSource := data.NewHTTPSource(cfg.Data.HTTPBaseURL, cfg.Data.RateLimitPerSec, 1)
		fetchFrom, fetchTo := start, end
		if fetchFrom.IsZero() {
			fetchFrom = time.Now().AddDate(-1, 0, 0)
		}
		if fetchTo.IsZero() {
			fetchTo = time.Now()
		}
		remote, err := httpSource.FetchBars(httpCtx, cfg.Backtest.Symbol, fetchFrom, fetchTo)
		if err != nil {
			return nil, fmt.Errorf("backfill bars from %s: %w", cfg.Data.HTTPBaseURL, err)
		}
		bars = append(bars, remote...)
	}

	return data.NewHistoricalFeed(bars, start, end), nil
}

func equityFloats(points []types.EquityPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = decToFloat(p.Equity)
	}
	return out
}

func decToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
