// Package events implements a synchronous publish/subscribe bus for
// decoupled communication between backtest components. All handlers
// for an event type run synchronously, in subscription order, on the
// publishing goroutine, so replay stays fully deterministic.
package events

// Type identifies a kind of event flowing through the bus.
type Type string

const (
	Bar             Type = "bar"
	OrderSubmitted  Type = "order_submitted"
	OrderFilled     Type = "order_filled"
	OrderCancelled  Type = "order_cancelled"
	OrderRejected   Type = "order_rejected"
	PositionChanged Type = "position_changed"
	RiskBreach      Type = "risk_breach"
	SessionStart    Type = "session_start"
	SessionEnd      Type = "session_end"
)

// Event wraps a payload with its type.
type Event struct {
	Type Type
	Data any
}

// Handler reacts to a published event.
type Handler func(Event)

// Bus is a simple synchronous pub/sub dispatcher.
type Bus struct {
	handlers map[Type][]Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Type][]Handler)}
}

// Subscribe registers a handler for a given event type. Handlers run
// in the order they were subscribed.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.handlers[t] = append(b.handlers[t], h)
}

// Publish dispatches data to every handler registered for t, in
// subscription order, synchronously.
func (b *Bus) Publish(t Type, data any) {
	for _, h := range b.handlers[t] {
		h(Event{Type: t, Data: data})
	}
}

// Clear removes every subscription.
func (b *Bus) Clear() {
	b.handlers = make(map[Type][]Handler)
}
