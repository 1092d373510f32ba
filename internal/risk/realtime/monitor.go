// Package realtime implements the real-time risk monitor: peak-equity
// tracking, drawdown percentage, a daily-loss ceiling, a margin
// warning level, and a sticky trading-halted flag once any limit is
// breached.
//
// The rolling-window bookkeeping style (track a running extreme,
// evaluate against it every update) is adapted from the flow-toxicity
// tracker used elsewhere in this lineage for fill-rate monitoring.
package realtime

import (
	"github.com/shopspring/decimal"
)

// Config holds the real-time risk thresholds for a run.
type Config struct {
	MaxDrawdownPct  decimal.Decimal // e.g. 0.10 = 10%
	MaxDailyLoss    decimal.Decimal
	MarginWarnPct   decimal.Decimal // warns once equity < usedMargin * MarginWarnPct, e.g. 0.75
}

// Monitor tracks peak equity and drawdown across a run and exposes a
// sticky halted flag once any configured limit is breached.
type Monitor struct {
	cfg Config

	initialized   bool
	peakEquity    decimal.Decimal
	lastEquity    decimal.Decimal
	dayStartEquity decimal.Decimal
	halted        bool
	haltReason    string
	marginWarning bool
}

// NewMonitor creates a real-time risk monitor with the given
// thresholds.
func NewMonitor(cfg Config) *Monitor {
	return &Monitor{cfg: cfg}
}

// Initialize seeds the monitor with the starting equity. Must be
// called once before the first Update.
func (m *Monitor) Initialize(equity decimal.Decimal) {
	m.initialized = true
	m.peakEquity = equity
	m.lastEquity = equity
	m.dayStartEquity = equity
	m.halted = false
	m.haltReason = ""
}

// Update recalculates peak equity and drawdown against the latest
// total equity and used margin, and halts trading if a limit is
// breached.
func (m *Monitor) Update(equity, usedMargin decimal.Decimal) {
	if !m.initialized {
		m.Initialize(equity)
		return
	}
	m.lastEquity = equity
	if equity.GreaterThan(m.peakEquity) {
		m.peakEquity = equity
	}

	if !m.cfg.MaxDrawdownPct.IsZero() && m.peakEquity.IsPositive() {
		if m.CurrentDrawdownPct().GreaterThanOrEqual(m.cfg.MaxDrawdownPct) {
			m.halt("max_drawdown")
		}
	}

	dailyLoss := m.dayStartEquity.Sub(equity)
	if !m.cfg.MaxDailyLoss.IsZero() && dailyLoss.GreaterThanOrEqual(m.cfg.MaxDailyLoss) {
		m.halt("max_daily_loss")
	}

	if !m.cfg.MarginWarnPct.IsZero() {
		m.marginWarning = equity.LessThan(usedMargin.Mul(m.cfg.MarginWarnPct))
	}
}

func (m *Monitor) halt(reason string) {
	if m.halted {
		return
	}
	m.halted = true
	m.haltReason = reason
}

// CurrentDrawdownPct returns (peak - equity) / peak.
//
// The original implementation computed (peak - peak) / peak here,
// which is always zero — a latent bug fixed in this port.
func (m *Monitor) CurrentDrawdownPct() decimal.Decimal {
	if m.peakEquity.IsZero() {
		return decimal.Zero
	}
	return m.peakEquity.Sub(m.lastEquity).Div(m.peakEquity)
}

// IsTradingHalted reports whether a limit breach has latched the
// monitor into a halted state. Once set, it stays set until
// ResetSession is called.
func (m *Monitor) IsTradingHalted() bool {
	return m.halted
}

// HaltReason returns the reason trading was halted, or "" if not
// halted.
func (m *Monitor) HaltReason() string {
	return m.haltReason
}

// MarginWarning reports whether equity has fallen below the
// maintenance threshold (usedMargin * MarginWarnPct).
func (m *Monitor) MarginWarning() bool {
	return m.marginWarning
}

// ShouldForceClose reports whether positions should be force-closed:
// true whenever the monitor is halted.
func (m *Monitor) ShouldForceClose() bool {
	return m.halted
}

// ResetSession resets the daily-loss baseline and clears the sticky
// halted flag. The engine calls this at each session boundary so
// "daily loss" means per-session loss rather than all-time loss.
func (m *Monitor) ResetSession() {
	m.dayStartEquity = m.lastEquity
	m.halted = false
	m.haltReason = ""
}
