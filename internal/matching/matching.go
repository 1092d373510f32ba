// Package matching implements the order matching engine: orders
// submitted during a strategy's callback for bar N are queued and can
// only fill starting with bar N+1, which rules out look-ahead bias.
package matching

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/txf-quant/txfbt/internal/commission"
	"github.com/txf-quant/txfbt/internal/contract"
	"github.com/txf-quant/txfbt/internal/position"
	"github.com/txf-quant/txfbt/internal/txerrors"
	"github.com/txf-quant/txfbt/pkg/types"
)

// FillCallback is invoked once per fill produced while processing a
// bar.
type FillCallback func(types.Fill)

// Engine holds pending orders and matches them against incoming bars.
type Engine struct {
	registry      *contract.Registry
	commission    *commission.Model
	slippageTicks int64
	pending       []types.OrderRequest
	onFill        FillCallback
}

// NewEngine creates a matching engine. slippageTicks controls the
// MARKET order fill offset in ticks (applied against the order's
// side).
func NewEngine(registry *contract.Registry, commissionModel *commission.Model, slippageTicks int64) *Engine {
	return &Engine{
		registry:      registry,
		commission:    commissionModel,
		slippageTicks: slippageTicks,
		pending:       make([]types.OrderRequest, 0, 8),
	}
}

// SetFillCallback registers the handler invoked for every fill.
func (e *Engine) SetFillCallback(cb FillCallback) {
	e.onFill = cb
}

// SubmitOrder queues an order. It will be considered starting with
// the next call to OnBar, never the bar during which it was
// submitted.
func (e *Engine) SubmitOrder(order types.OrderRequest) error {
	if order.PriceType == types.Limit && order.Price.IsZero() {
		return txerrors.NewOrderRejected(order.ID, "limit order requires a price")
	}
	if order.Quantity <= 0 {
		return txerrors.NewOrderRejected(order.ID, "quantity must be positive")
	}
	e.pending = append(e.pending, order)
	return nil
}

// CancelOrder removes a pending order by ID. Reports whether an order
// was found and removed.
func (e *Engine) CancelOrder(orderID string) bool {
	for i, o := range e.pending {
		if o.ID == orderID {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			return true
		}
	}
	return false
}

// PendingCount returns how many orders are still queued.
func (e *Engine) PendingCount() int {
	return len(e.pending)
}

// OnBar attempts to fill every pending order against bar, emitting a
// Fill via the registered callback for each match. Filled orders are
// removed from the queue; unmatched limit orders and orders for other
// symbols remain queued for the next bar. An error from matching any
// order aborts the call and leaves the queue unchanged.
func (e *Engine) OnBar(bar types.Bar) error {
	remaining := e.pending[:0:0]
	for _, order := range e.pending {
		if order.Symbol != bar.Symbol {
			remaining = append(remaining, order)
			continue
		}
		fill, filled, err := e.tryFill(order, bar)
		if err != nil {
			return err
		}
		if !filled {
			remaining = append(remaining, order)
			continue
		}
		if e.onFill != nil {
			e.onFill(fill)
		}
	}
	e.pending = remaining
	return nil
}

func (e *Engine) tryFill(order types.OrderRequest, bar types.Bar) (types.Fill, bool, error) {
	spec, err := e.registry.Get(order.Symbol)
	if err != nil {
		return types.Fill{}, false, err
	}

	var fillPrice decimal.Decimal
	switch order.PriceType {
	case types.Market:
		fillPrice = marketFillPrice(order.Side, bar.Open, spec.TickSize, e.slippageTicks)
	case types.Limit:
		price, matched := limitFillPrice(order.Side, order.Price, bar)
		if !matched {
			return types.Fill{}, false, nil
		}
		fillPrice = price
	default:
		return types.Fill{}, false, fmt.Errorf("%s: unsupported price type %s", order.ID, order.PriceType)
	}

	notional := position.CalculateNotionalValue(fillPrice, order.Quantity, spec.Multiplier)

	return types.Fill{
		OrderID:    order.ID,
		Symbol:     order.Symbol,
		Side:       order.Side,
		Price:      fillPrice,
		Quantity:   order.Quantity,
		Commission: e.commission.Commission(order.Quantity),
		Tax:        e.commission.Tax(notional),
		Timestamp:  bar.Timestamp,
	}, true, nil
}

// marketFillPrice applies slippage in ticks against the bar's open:
// buys fill above open, sells fill below open.
func marketFillPrice(side types.Side, open, tickSize decimal.Decimal, slippageTicks int64) decimal.Decimal {
	offset := tickSize.Mul(decimal.NewFromInt(slippageTicks))
	if side == types.Buy {
		return open.Add(offset)
	}
	return open.Sub(offset)
}

// limitFillPrice applies the spec's LIMIT fill rules:
//   - BUY fills when bar.Low <= limit, at min(limit, bar.Open)
//   - SELL fills when bar.High >= limit, at max(limit, bar.Open)
func limitFillPrice(side types.Side, limit decimal.Decimal, bar types.Bar) (decimal.Decimal, bool) {
	if side == types.Buy {
		if bar.Low.GreaterThan(limit) {
			return decimal.Decimal{}, false
		}
		return decimal.Min(limit, bar.Open), true
	}
	if bar.High.LessThan(limit) {
		return decimal.Decimal{}, false
	}
	return decimal.Max(limit, bar.Open), true
}
