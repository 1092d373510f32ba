// Package config defines all configuration for the backtest engine.
// Config is loaded from a YAML file (default: configs/config.yaml);
// fields that have a default or appear in the file can be overridden
// via TXF_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file structure.
type Config struct {
	Backtest  BacktestConfig  `mapstructure:"backtest"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Data      DataConfig      `mapstructure:"data"`
	Report    ReportConfig    `mapstructure:"report"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	System    SystemConfig    `mapstructure:"system"`
	Strategy  StrategyConfig  `mapstructure:"strategy"`
}

// BacktestConfig tunes the simulation itself: what gets traded and at
// what cost.
//
//   - Symbol: the contract code fed to the contract registry (e.g.
//     "TXFG5"), resolved to a base family ("TX") by longest prefix.
//   - InitialCapital: starting cash balance.
//   - CommissionPerContract / TaxRate: fed into the commission model.
//   - SlippageTicks: adverse whole-tick offset applied to MARKET fills.
//   - HistoryCapacity: bars retained per symbol in the strategy
//     context's ring buffer.
type BacktestConfig struct {
	Symbol                string  `mapstructure:"symbol"`
	InitialCapital        float64 `mapstructure:"initial_capital"`
	CommissionPerContract float64 `mapstructure:"commission_per_contract"`
	TaxRate               float64 `mapstructure:"tax_rate"`
	SlippageTicks         int64   `mapstructure:"slippage_ticks"`
	HistoryCapacity       int     `mapstructure:"history_capacity"`
}

// RiskConfig sets the pre-trade, stop, and real-time limits the risk
// manager enforces. A nil stop pointer disables that stop; a zero
// MaxTotalExposure disables the total-exposure check.
type RiskConfig struct {
	MaxPositionContracts      int64    `mapstructure:"max_position_contracts"`
	MaxTotalExposure          float64  `mapstructure:"max_total_exposure"`
	MaxDrawdownPct            float64  `mapstructure:"max_drawdown_pct"`
	MaxDailyLoss              float64  `mapstructure:"max_daily_loss"`
	MarginWarnPct             float64  `mapstructure:"margin_warn_pct"`
	StopLossPoints            *int64   `mapstructure:"stop_loss_points"`
	TakeProfitPoints          *int64   `mapstructure:"take_profit_points"`
	TrailingStopPoints        *int64   `mapstructure:"trailing_stop_points"`
	TimeStopBars              *int     `mapstructure:"time_stop_bars"`
	AutoCloseBeforeSessionEnd bool     `mapstructure:"auto_close_before_session_end"`
}

// DataConfig controls where bars come from: a local CSV directory,
// plus an optional HTTP source whose bars are added to the CSV bars.
type DataConfig struct {
	Dir             string        `mapstructure:"dir"`
	DatetimeLayout  string        `mapstructure:"datetime_layout"`
	HTTPBaseURL     string        `mapstructure:"http_base_url"`
	HTTPEnabled     bool          `mapstructure:"http_enabled"`
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`
	RateLimitPerSec float64       `mapstructure:"rate_limit_per_sec"`
	StartDate       string        `mapstructure:"start_date"`
	EndDate         string        `mapstructure:"end_date"`
}

// ReportConfig controls where computed metrics and the trade/equity
// ledger are persisted.
type ReportConfig struct {
	OutputDir     string  `mapstructure:"output_dir"`
	RunID         string  `mapstructure:"run_id"`
	RiskFreeRate  float64 `mapstructure:"risk_free_rate"`
	BarsPerYear   int     `mapstructure:"bars_per_year"`
}

// LoggingConfig selects the slog handler and level.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DashboardConfig controls the websocket progress/result server.
type DashboardConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StrategyConfig selects and tunes the bundled dual moving-average
// crossover strategy run by cmd/txfbt. A custom strategy wired in by
// an embedder bypasses this section entirely.
type StrategyConfig struct {
	FastPeriod int   `mapstructure:"fast_period"`
	SlowPeriod int   `mapstructure:"slow_period"`
	Quantity   int64 `mapstructure:"quantity"`
}

// SystemConfig selects the run mode. Only Mode == "backtest" is
// implemented; "paper" and "live" are reserved for a future broker
// integration and rejected by Validate.
type SystemConfig struct {
	Mode string `mapstructure:"mode"`
}

// Load reads config from a YAML file, applying defaults first and
// allowing a field to be overridden via TXF_<GROUP>_<FIELD>
// environment variables (e.g. TXF_BACKTEST_INITIAL_CAPITAL). Only keys
// that have a default or appear in the file are looked up in the
// environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("TXF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backtest.symbol", "TXFG5")
	v.SetDefault("backtest.initial_capital", 1_000_000)
	v.SetDefault("backtest.commission_per_contract", 60)
	v.SetDefault("backtest.tax_rate", 0.00002)
	v.SetDefault("backtest.slippage_ticks", 1)
	v.SetDefault("backtest.history_capacity", 500)

	v.SetDefault("risk.max_position_contracts", 10)
	v.SetDefault("risk.max_drawdown_pct", 0.10)
	v.SetDefault("risk.max_daily_loss", 100_000)
	v.SetDefault("risk.margin_warn_pct", 0.75)
	v.SetDefault("risk.auto_close_before_session_end", false)

	v.SetDefault("data.dir", "data")
	v.SetDefault("data.datetime_layout", "2006-01-02 15:04:05")
	v.SetDefault("data.http_enabled", false)
	v.SetDefault("data.http_timeout", 10*time.Second)
	v.SetDefault("data.rate_limit_per_sec", 5.0)

	v.SetDefault("report.output_dir", "reports")
	v.SetDefault("report.risk_free_rate", 0.02)
	v.SetDefault("report.bars_per_year", 252*300)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("dashboard.enabled", false)
	v.SetDefault("dashboard.port", 8090)

	v.SetDefault("system.mode", "backtest")

	v.SetDefault("strategy.fast_period", 5)
	v.SetDefault("strategy.slow_period", 20)
	v.SetDefault("strategy.quantity", 1)
}

// Validate checks all required fields and value ranges.
func (c *Config) Validate() error {
	if c.Backtest.Symbol == "" {
		return fmt.Errorf("backtest.symbol is required")
	}
	if c.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("backtest.initial_capital must be > 0")
	}
	if c.Backtest.CommissionPerContract < 0 {
		return fmt.Errorf("backtest.commission_per_contract must be >= 0")
	}
	if c.Backtest.TaxRate < 0 {
		return fmt.Errorf("backtest.tax_rate must be >= 0")
	}
	if c.Backtest.SlippageTicks < 0 {
		return fmt.Errorf("backtest.slippage_ticks must be >= 0")
	}
	if c.Risk.MaxPositionContracts <= 0 {
		return fmt.Errorf("risk.max_position_contracts must be > 0")
	}
	if c.Risk.MaxDrawdownPct <= 0 || c.Risk.MaxDrawdownPct >= 1 {
		return fmt.Errorf("risk.max_drawdown_pct must be in (0, 1)")
	}
	if c.Risk.MaxDailyLoss < 0 {
		return fmt.Errorf("risk.max_daily_loss must be >= 0")
	}
	if c.Risk.TimeStopBars != nil && *c.Risk.TimeStopBars <= 0 {
		return fmt.Errorf("risk.time_stop_bars must be > 0 when set")
	}
	if c.Data.Dir == "" && !c.Data.HTTPEnabled {
		return fmt.Errorf("data.dir is required when data.http_enabled is false")
	}
	if c.Strategy.FastPeriod <= 0 || c.Strategy.SlowPeriod <= 0 {
		return fmt.Errorf("strategy.fast_period and strategy.slow_period must be > 0")
	}
	if c.Strategy.FastPeriod >= c.Strategy.SlowPeriod {
		return fmt.Errorf("strategy.fast_period must be less than strategy.slow_period")
	}
	if c.Strategy.Quantity <= 0 {
		return fmt.Errorf("strategy.quantity must be > 0")
	}
	switch c.System.Mode {
	case "backtest":
	case "paper", "live":
		return fmt.Errorf("system.mode %q is not implemented; only \"backtest\" is in scope", c.System.Mode)
	default:
		return fmt.Errorf("system.mode must be one of: backtest, paper, live")
	}
	return nil
}
