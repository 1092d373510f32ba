// Package risk wires the pre-trade gate, the stop engine, and the
// real-time monitor into a single orchestrator the engine loop calls
// once per bar and once per order submission.
package risk

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/txf-quant/txfbt/internal/risk/pretrade"
	"github.com/txf-quant/txfbt/internal/risk/realtime"
	"github.com/txf-quant/txfbt/internal/risk/stops"
	"github.com/txf-quant/txfbt/pkg/types"
)

// Config bundles every risk sub-component's configuration.
type Config struct {
	Limits   pretrade.LimitsConfig
	PreTrade pretrade.Config
	Stops    stops.Config
	Realtime realtime.Config
}

// Manager orchestrates pre-trade checking, stop evaluation, and
// real-time monitoring.
type Manager struct {
	preTrade   *pretrade.Checker
	stopEngine *stops.Engine
	monitor    *realtime.Monitor
	logger     *slog.Logger

	initialized bool
}

// NewManager wires a risk manager from cfg.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	limits := pretrade.NewLimitChecker(cfg.Limits)
	return &Manager{
		preTrade:   pretrade.NewChecker(cfg.PreTrade, limits),
		stopEngine: stops.NewEngine(cfg.Stops),
		monitor:    realtime.NewMonitor(cfg.Realtime),
		logger:     logger.With("component", "risk-manager"),
	}
}

// CheckPreTrade runs the pre-trade pipeline. Trading halted by the
// real-time monitor rejects every order outright, checked before any
// other condition.
func (m *Manager) CheckPreTrade(orderID string, in pretrade.CheckInput) error {
	if m.monitor.IsTradingHalted() {
		return fmt.Errorf("order %s rejected: trading halted (%s)", orderID, m.monitor.HaltReason())
	}
	return m.preTrade.Check(orderID, in)
}

// OnBar updates the real-time monitor with the latest equity/margin,
// then evaluates stops for every open position. If the monitor is
// halted, every open position is force-closed instead and stops are
// skipped. Returns the forced close orders raised this bar, if any.
func (m *Manager) OnBar(equity, usedMargin decimal.Decimal, positions []types.Position, specs map[string]types.ContractSpec, bar types.Bar) []*types.OrderRequest {
	if !m.initialized {
		m.monitor.Initialize(equity)
		m.initialized = true
	} else {
		m.monitor.Update(equity, usedMargin)
	}

	if m.monitor.ShouldForceClose() {
		m.logger.Warn("trading halted, force-closing positions", "reason", m.monitor.HaltReason())
		return m.forceCloseAll(positions, bar)
	}

	var orders []*types.OrderRequest
	for _, pos := range positions {
		if pos.IsFlat() {
			continue
		}
		spec := specs[pos.Symbol]
		if order := m.stopEngine.OnBar(pos, spec, bar); order != nil {
			orders = append(orders, order)
		}
	}
	return orders
}

func (m *Manager) forceCloseAll(positions []types.Position, bar types.Bar) []*types.OrderRequest {
	var orders []*types.OrderRequest
	for _, pos := range positions {
		if pos.IsFlat() {
			continue
		}
		orders = append(orders, &types.OrderRequest{
			ID:         fmt.Sprintf("force-close-%s-%d", pos.Symbol, bar.Timestamp.Unix()),
			Symbol:     pos.Symbol,
			Side:       pos.Side.Opposite(),
			Quantity:   pos.Quantity,
			PriceType:  types.Market,
			SubmitTime: bar.Timestamp,
		})
	}
	return orders
}

// UpdateDailyPnL forwards the current realized P&L to the pre-trade
// checker's daily-loss baseline.
func (m *Manager) UpdateDailyPnL(realizedPnL decimal.Decimal) {
	m.preTrade.UpdateDailyPnL(realizedPnL)
}

// ResetSession resets the daily-loss baseline and the sticky halted
// flag. The engine calls this whenever the bar stream crosses a
// session boundary, restoring "daily loss" to mean per-session loss
// rather than loss accumulated over the whole run.
func (m *Manager) ResetSession() {
	m.preTrade.ResetDaily()
	m.monitor.ResetSession()
}

// IsTradingHalted reports the real-time monitor's current halt state.
func (m *Manager) IsTradingHalted() bool {
	return m.monitor.IsTradingHalted()
}

// MarginWarning reports the real-time monitor's current maintenance-
// margin warning state (spec §4.6.4: equity has fallen below
// usedMargin * MarginWarnPct).
func (m *Manager) MarginWarning() bool {
	return m.monitor.MarginWarning()
}

// ClearSymbolStops drops any trailing-stop state held for symbol. The
// engine calls this once it observes a symbol's position has closed,
// so a later reopen starts the trailing extreme fresh.
func (m *Manager) ClearSymbolStops(symbol string) {
	m.stopEngine.ClearSymbol(symbol)
}
