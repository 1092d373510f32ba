// Package strategy exposes the StrategyContext surface that strategy
// callbacks use to read bar history, query positions, and submit
// orders — without ever holding a reference back into the engine.
// Order submission is injected as a callback, which keeps the
// strategy/engine object graph acyclic.
package strategy

import (
	"github.com/txf-quant/txfbt/pkg/types"
)

// DefaultHistoryCapacity is the default number of bars retained per
// symbol in the ring buffer.
const DefaultHistoryCapacity = 500

// SubmitFunc submits an order on the strategy's behalf. Passed into
// Context by the engine, rather than the Context holding a pointer
// back to the engine.
type SubmitFunc func(types.OrderRequest) error

// PositionLookup returns the current open position for a symbol, if
// any.
type PositionLookup func(symbol string) (types.Position, bool)

// Context is the read/write surface a strategy callback sees each
// bar: bounded bar history, lazily computed indicator series, open
// position queries, and order submission.
type Context struct {
	capacity    int
	histories   map[string]*ringBuffer
	closesCache map[string][]float64
	submit      SubmitFunc
	positions   PositionLookup
}

// NewContext creates a strategy context with the given per-symbol
// history capacity.
func NewContext(capacity int, positions PositionLookup, submit SubmitFunc) *Context {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &Context{
		capacity:    capacity,
		histories:   make(map[string]*ringBuffer),
		closesCache: make(map[string][]float64),
		submit:      submit,
		positions:   positions,
	}
}

// OnBar appends bar to its symbol's history and invalidates any
// cached indicator series for that symbol. Called once by the engine
// before the strategy callback runs for this bar.
func (c *Context) OnBar(bar types.Bar) {
	buf, ok := c.histories[bar.Symbol]
	if !ok {
		buf = newRingBuffer(c.capacity)
		c.histories[bar.Symbol] = buf
	}
	buf.Push(bar)
	delete(c.closesCache, bar.Symbol)
}

// Bars returns the retained bar history for symbol, oldest first.
func (c *Context) Bars(symbol string) []types.Bar {
	buf, ok := c.histories[symbol]
	if !ok {
		return nil
	}
	return buf.Slice()
}

// Latest returns the most recent bar seen for symbol.
func (c *Context) Latest(symbol string) (types.Bar, bool) {
	buf, ok := c.histories[symbol]
	if !ok || buf.size == 0 {
		return types.Bar{}, false
	}
	bars := buf.Slice()
	return bars[len(bars)-1], true
}

// Closes returns the close prices for symbol as float64, materialized
// lazily and cached until the next bar invalidates it. Indicators
// operate on float64: only cash/PnL/margin/tax paths are
// decimal-mandatory.
func (c *Context) Closes(symbol string) []float64 {
	if cached, ok := c.closesCache[symbol]; ok {
		return cached
	}
	bars := c.Bars(symbol)
	closes := make([]float64, len(bars))
	for i, b := range bars {
		f, _ := b.Close.Float64()
		closes[i] = f
	}
	c.closesCache[symbol] = closes
	return closes
}

// Position returns the current open position for symbol, if any.
func (c *Context) Position(symbol string) (types.Position, bool) {
	if c.positions == nil {
		return types.Position{}, false
	}
	return c.positions(symbol)
}

// SubmitOrder submits order via the injected callback.
func (c *Context) SubmitOrder(order types.OrderRequest) error {
	return c.submit(order)
}

// ringBuffer is a fixed-capacity FIFO of bars; once full, pushing
// overwrites the oldest entry.
type ringBuffer struct {
	data     []types.Bar
	capacity int
	size     int
	next     int // index the next Push writes to
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{data: make([]types.Bar, capacity), capacity: capacity}
}

func (r *ringBuffer) Push(bar types.Bar) {
	r.data[r.next] = bar
	r.next = (r.next + 1) % r.capacity
	if r.size < r.capacity {
		r.size++
	}
}

// Slice returns the buffered bars in oldest-to-newest order.
func (r *ringBuffer) Slice() []types.Bar {
	out := make([]types.Bar, r.size)
	start := r.next - r.size
	if start < 0 {
		start += r.capacity
	}
	for i := 0; i < r.size; i++ {
		out[i] = r.data[(start+i)%r.capacity]
	}
	return out
}
