// Package position implements the position manager: the five-case
// fill state machine (open, add, partial close, full close, reverse),
// weighted-average cost basis, realized/unrealized P&L, margin
// tracking, and the resulting equity curve and trade ledger.
package position

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/txf-quant/txfbt/internal/contract"
	"github.com/txf-quant/txfbt/pkg/types"
)

// Manager tracks cash, open positions and realized P&L across a
// backtest run.
type Manager struct {
	registry *contract.Registry

	cash        decimal.Decimal
	realizedPnL decimal.Decimal
	positions   map[string]*types.Position

	barIndex      int
	entryBarIndex map[string]int

	equityCurve  []types.EquityPoint
	tradeRecords []types.TradeRecord
}

// NewManager creates a position manager starting with initialCash and
// no open positions.
func NewManager(registry *contract.Registry, initialCash decimal.Decimal) *Manager {
	return &Manager{
		registry:      registry,
		cash:          initialCash,
		positions:     make(map[string]*types.Position),
		entryBarIndex: make(map[string]int),
		equityCurve:   make([]types.EquityPoint, 0, 256),
		tradeRecords:  make([]types.TradeRecord, 0, 32),
	}
}

// SetBarIndex records which bar is currently being processed, so
// TradeRecord.BarsHeld can be computed when a position closes.
func (m *Manager) SetBarIndex(i int) {
	m.barIndex = i
}

// Cash returns the current cash balance.
func (m *Manager) Cash() decimal.Decimal { return m.cash }

// GetPosition returns the open position for symbol, if any.
func (m *Manager) GetPosition(symbol string) (types.Position, bool) {
	p, ok := m.positions[symbol]
	if !ok {
		return types.Position{}, false
	}
	return *p, true
}

// EquityCurve returns every equity sample taken so far.
func (m *Manager) EquityCurve() []types.EquityPoint {
	return m.equityCurve
}

// TradeRecords returns every completed round-trip trade so far.
func (m *Manager) TradeRecords() []types.TradeRecord {
	return m.tradeRecords
}

// ApplyFill updates cash, positions and realized P&L for a fill,
// dispatching to the correct one of the five state-machine cases.
func (m *Manager) ApplyFill(fill types.Fill) error {
	spec, err := m.registry.Get(fill.Symbol)
	if err != nil {
		return err
	}

	// Commission and tax are always paid out of cash immediately,
	// regardless of which case below applies.
	m.cash = m.cash.Sub(fill.Commission).Sub(fill.Tax)

	pos, exists := m.positions[fill.Symbol]
	if !exists || pos.IsFlat() {
		m.openPosition(fill, spec)
		return nil
	}

	if fill.Side == pos.Side {
		m.addToPosition(pos, fill)
		return nil
	}

	return m.reduceOrReverse(pos, fill, spec)
}

// openPosition handles case 1: no existing position, so the fill
// establishes a brand new one.
func (m *Manager) openPosition(fill types.Fill, spec types.ContractSpec) {
	margin := calculateMarginRequired(fill.Quantity, spec)
	m.positions[fill.Symbol] = &types.Position{
		Symbol:         fill.Symbol,
		Side:           fill.Side,
		Quantity:       fill.Quantity,
		AvgPrice:       fill.Price,
		MarginRequired: margin,
		EntryTime:      fill.Timestamp,
		BarsHeld:       0,
	}
	m.entryBarIndex[fill.Symbol] = m.barIndex
}

// addToPosition handles case 2: same-side fill increases an existing
// position, recomputing the weighted-average entry price.
func (m *Manager) addToPosition(pos *types.Position, fill types.Fill) {
	totalCost := pos.AvgPrice.Mul(decimal.NewFromInt(pos.Quantity)).
		Add(fill.Price.Mul(decimal.NewFromInt(fill.Quantity)))
	newQty := pos.Quantity + fill.Quantity

	pos.AvgPrice = totalCost.Div(decimal.NewFromInt(newQty))
	pos.Quantity = newQty

	spec, err := m.registry.Get(pos.Symbol)
	if err == nil {
		pos.MarginRequired = calculateMarginRequired(pos.Quantity, spec)
	}
}

// reduceOrReverse handles cases 3-5: an opposite-side fill against an
// existing position. If the fill quantity is smaller than the
// position, it's a partial close (case 3); if equal, a full close
// (case 4); if larger, the position reverses to the opposite side with
// the excess quantity (case 5).
func (m *Manager) reduceOrReverse(pos *types.Position, fill types.Fill, spec types.ContractSpec) error {
	closeQty := fill.Quantity
	if closeQty > pos.Quantity {
		closeQty = pos.Quantity
	}

	realized := calculateRealizedPnL(pos.Side, pos.AvgPrice, fill.Price, closeQty, spec.Multiplier)
	m.realizedPnL = m.realizedPnL.Add(realized)
	m.cash = m.cash.Add(realized)

	entryBar := m.entryBarIndex[pos.Symbol]
	record := types.TradeRecord{
		Symbol:     pos.Symbol,
		Side:       pos.Side,
		EntryPrice: pos.AvgPrice,
		ExitPrice:  fill.Price,
		Quantity:   closeQty,
		EntryTime:  pos.EntryTime,
		ExitTime:   fill.Timestamp,
		PnL:        realized,
		Commission: fill.Commission,
		Tax:        fill.Tax,
		BarsHeld:   m.barIndex - entryBar + 1, // entry bar through exit bar, inclusive
	}
	m.tradeRecords = append(m.tradeRecords, record)

	remaining := pos.Quantity - closeQty
	excess := fill.Quantity - closeQty

	switch {
	case remaining > 0:
		// Case 3: partial close, same side survives unchanged in price.
		pos.Quantity = remaining
		pos.MarginRequired = calculateMarginRequired(pos.Quantity, spec)
		return nil
	case excess == 0:
		// Case 4: full close, nothing remains.
		delete(m.positions, pos.Symbol)
		delete(m.entryBarIndex, pos.Symbol)
		return nil
	case excess > 0:
		// Case 5: reverse — the old side is fully closed and a new
		// position opens on the opposite side with the excess quantity.
		m.positions[pos.Symbol] = &types.Position{
			Symbol:         pos.Symbol,
			Side:           fill.Side,
			Quantity:       excess,
			AvgPrice:       fill.Price,
			MarginRequired: calculateMarginRequired(excess, spec),
			EntryTime:      fill.Timestamp,
			BarsHeld:       0,
		}
		m.entryBarIndex[pos.Symbol] = m.barIndex
		return nil
	default:
		return fmt.Errorf("position %s: invalid fill reconciliation (closeQty=%d remaining=%d excess=%d)", pos.Symbol, closeQty, remaining, excess)
	}
}

// MarkToMarket recomputes the unrealized P&L of an open position
// against the latest price. No-op if there is no open position for
// symbol.
func (m *Manager) MarkToMarket(symbol string, price decimal.Decimal) {
	pos, ok := m.positions[symbol]
	if !ok {
		return
	}
	spec, err := m.registry.Get(symbol)
	if err != nil {
		return
	}
	pos.UnrealizedPnL = calculateUnrealizedPnL(pos.Side, pos.AvgPrice, price, pos.Quantity, spec.Multiplier)
	pos.BarsHeld = m.barIndex - m.entryBarIndex[symbol]
}

// TotalEquity returns cash plus unrealized P&L across every open
// position.
func (m *Manager) TotalEquity() decimal.Decimal {
	total := m.cash
	for _, pos := range m.positions {
		total = total.Add(pos.UnrealizedPnL)
	}
	return total
}

// UsedMargin returns the sum of margin required across every open
// position.
func (m *Manager) UsedMargin() decimal.Decimal {
	total := decimal.Zero
	for _, pos := range m.positions {
		total = total.Add(pos.MarginRequired)
	}
	return total
}

// SnapshotEquity records the current total equity at timestamp.
func (m *Manager) SnapshotEquity(timestamp time.Time) {
	m.equityCurve = append(m.equityCurve, types.EquityPoint{
		Timestamp: timestamp,
		Equity:    m.TotalEquity(),
	})
}

// GetPortfolioState returns a full snapshot of cash, positions,
// equity and margin.
func (m *Manager) GetPortfolioState() types.PortfolioState {
	positions := make(map[string]*types.Position, len(m.positions))
	unrealized := decimal.Zero
	for sym, pos := range m.positions {
		cp := *pos
		positions[sym] = &cp
		unrealized = unrealized.Add(pos.UnrealizedPnL)
	}
	used := m.UsedMargin()
	equity := m.cash.Add(unrealized)
	return types.PortfolioState{
		Cash:            m.cash,
		Positions:       positions,
		TotalEquity:     equity,
		UsedMargin:      used,
		AvailableMargin: equity.Sub(used),
		RealizedPnL:     m.realizedPnL,
		UnrealizedPnL:   unrealized,
	}
}
