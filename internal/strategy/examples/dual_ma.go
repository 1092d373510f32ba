// Package examples holds worked strategy implementations; cmd/txfbt
// runs DualMA. DualMA is a crossover strategy: when flat it goes long
// when the fast SMA crosses above the slow SMA and short on the
// reverse cross. Against an open position the opposite cross submits
// an order of the same Quantity, which closes the position rather
// than reversing it.
package examples

import (
	"fmt"

	"github.com/txf-quant/txfbt/internal/strategy"
	"github.com/txf-quant/txfbt/pkg/types"
)

// DualMA trades crossovers between a fast and slow simple moving
// average.
type DualMA struct {
	Symbol     string
	FastPeriod int
	SlowPeriod int
	Quantity   int64

	orderSeq  int
	lastFast  float64
	lastSlow  float64
	haveLast  bool
}

var _ strategy.Strategy = (*DualMA)(nil)

// NewDualMA creates a dual moving-average crossover strategy.
func NewDualMA(symbol string, fastPeriod, slowPeriod int, quantity int64) *DualMA {
	return &DualMA{Symbol: symbol, FastPeriod: fastPeriod, SlowPeriod: slowPeriod, Quantity: quantity}
}

// OnInit satisfies strategy.Strategy. DualMA needs no setup.
func (s *DualMA) OnInit(ctx *strategy.Context) {}

// OnStop satisfies strategy.Strategy. DualMA needs no cleanup.
func (s *DualMA) OnStop(ctx *strategy.Context) {}

// OnBar is the strategy callback invoked once per bar by the engine.
func (s *DualMA) OnBar(ctx *strategy.Context, bar types.Bar) {
	if bar.Symbol != s.Symbol {
		return
	}

	closes := ctx.Closes(s.Symbol)
	fast, fastOK := strategy.SMA(closes, s.FastPeriod)
	slow, slowOK := strategy.SMA(closes, s.SlowPeriod)
	if !fastOK || !slowOK {
		return
	}

	if s.haveLast {
		crossedUp := s.lastFast <= s.lastSlow && fast > slow
		crossedDown := s.lastFast >= s.lastSlow && fast < slow

		pos, hasPos := ctx.Position(s.Symbol)

		if crossedUp && (!hasPos || pos.IsShort()) {
			s.submit(ctx, types.Buy, bar)
		} else if crossedDown && (!hasPos || pos.IsLong()) {
			s.submit(ctx, types.Sell, bar)
		}
	}

	s.lastFast, s.lastSlow, s.haveLast = fast, slow, true
}

func (s *DualMA) submit(ctx *strategy.Context, side types.Side, bar types.Bar) {
	s.orderSeq++
	_ = ctx.SubmitOrder(types.OrderRequest{
		ID:         fmt.Sprintf("dualma-%s-%d", s.Symbol, s.orderSeq),
		Symbol:     s.Symbol,
		Side:       side,
		Quantity:   s.Quantity,
		PriceType:  types.Market,
		SubmitTime: bar.Timestamp,
	})
}
