// Package stops implements the stop engine: stop-loss, take-profit,
// trailing-stop and time-stop checks evaluated in a fixed order with
// first-trigger-wins semantics.
package stops

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/txf-quant/txfbt/pkg/types"
)

// Config holds the optional stop parameters for a run. A nil/zero
// field disables that check.
type Config struct {
	StopLossPoints     *int64
	TakeProfitPoints   *int64
	TrailingStopPoints *int64
	TimeStopBars       *int
}

// Engine evaluates stop conditions against open positions, bar by
// bar. It tracks the best-seen price per symbol for the trailing
// stop, which must be updated on every bar before the comparison — a
// stop must be allowed to trigger on the very bar that sets a new
// extreme.
type Engine struct {
	cfg               Config
	trailingExtremes  map[string]decimal.Decimal
}

// NewEngine creates a stop engine with the given config.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:              cfg,
		trailingExtremes: make(map[string]decimal.Decimal),
	}
}

// Reset clears all trailing-stop state.
func (e *Engine) Reset() {
	e.trailingExtremes = make(map[string]decimal.Decimal)
}

// ClearSymbol drops the trailing-stop extreme tracked for symbol. The
// manager calls this whenever a position in symbol closes (full close
// or reverse), so a later reopen starts the trailing extreme fresh
// from its new average price rather than an old position's high/low.
func (e *Engine) ClearSymbol(symbol string) {
	delete(e.trailingExtremes, symbol)
}

// OnBar checks every stop condition for pos against bar, in order:
// stop-loss, take-profit, trailing-stop, time-stop. Returns a forced
// close order for the first condition that triggers, or nil if none
// do.
func (e *Engine) OnBar(pos types.Position, spec types.ContractSpec, bar types.Bar) *types.OrderRequest {
	e.updateTrailing(pos, bar)

	if e.checkStopLoss(pos, bar) {
		return e.closeOrder(pos, bar, "stop_loss")
	}
	if e.checkTakeProfit(pos, bar) {
		return e.closeOrder(pos, bar, "take_profit")
	}
	if e.checkTrailingStop(pos, bar) {
		return e.closeOrder(pos, bar, "trailing_stop")
	}
	if e.checkTimeStop(pos) {
		return e.closeOrder(pos, bar, "time_stop")
	}
	return nil
}

func (e *Engine) checkStopLoss(pos types.Position, bar types.Bar) bool {
	if e.cfg.StopLossPoints == nil {
		return false
	}
	threshold := decimal.NewFromInt(*e.cfg.StopLossPoints)
	if pos.IsLong() {
		trigger := pos.AvgPrice.Sub(threshold)
		return bar.Low.LessThanOrEqual(trigger)
	}
	trigger := pos.AvgPrice.Add(threshold)
	return bar.High.GreaterThanOrEqual(trigger)
}

func (e *Engine) checkTakeProfit(pos types.Position, bar types.Bar) bool {
	if e.cfg.TakeProfitPoints == nil {
		return false
	}
	threshold := decimal.NewFromInt(*e.cfg.TakeProfitPoints)
	if pos.IsLong() {
		trigger := pos.AvgPrice.Add(threshold)
		return bar.High.GreaterThanOrEqual(trigger)
	}
	trigger := pos.AvgPrice.Sub(threshold)
	return bar.Low.LessThanOrEqual(trigger)
}

func (e *Engine) updateTrailing(pos types.Position, bar types.Bar) {
	if e.cfg.TrailingStopPoints == nil {
		return
	}
	extreme, ok := e.trailingExtremes[pos.Symbol]
	if !ok {
		extreme = pos.AvgPrice
	}
	if pos.IsLong() {
		if bar.High.GreaterThan(extreme) {
			extreme = bar.High
		}
	} else if bar.Low.LessThan(extreme) {
		extreme = bar.Low
	}
	e.trailingExtremes[pos.Symbol] = extreme
}

func (e *Engine) checkTrailingStop(pos types.Position, bar types.Bar) bool {
	if e.cfg.TrailingStopPoints == nil {
		return false
	}
	extreme, ok := e.trailingExtremes[pos.Symbol]
	if !ok {
		return false
	}
	threshold := decimal.NewFromInt(*e.cfg.TrailingStopPoints)
	if pos.IsLong() {
		trigger := extreme.Sub(threshold)
		return bar.Low.LessThanOrEqual(trigger)
	}
	trigger := extreme.Add(threshold)
	return bar.High.GreaterThanOrEqual(trigger)
}

func (e *Engine) checkTimeStop(pos types.Position) bool {
	if e.cfg.TimeStopBars == nil {
		return false
	}
	return pos.BarsHeld >= *e.cfg.TimeStopBars
}

func (e *Engine) closeOrder(pos types.Position, bar types.Bar, reason string) *types.OrderRequest {
	return &types.OrderRequest{
		ID:         fmt.Sprintf("stop-%s-%s-%d", pos.Symbol, reason, bar.Timestamp.Unix()),
		Symbol:     pos.Symbol,
		Side:       pos.Side.Opposite(),
		Quantity:   pos.Quantity,
		PriceType:  types.Market,
		SubmitTime: bar.Timestamp,
	}
}
