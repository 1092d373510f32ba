package api

import "time"

// DashboardEvent is the wrapper for every event broadcast over the
// websocket hub.
type DashboardEvent struct {
	Type      string      `json:"type"` // "progress", "fill", "order", "risk_breach", "result"
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// FillEvent notifies dashboard clients of a completed fill.
type FillEvent struct {
	OrderID    string  `json:"order_id"`
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Price      float64 `json:"price"`
	Quantity   int64   `json:"quantity"`
	Commission float64 `json:"commission"`
	Tax        float64 `json:"tax"`
}

// OrderEvent notifies dashboard clients of order submission,
// rejection, or cancellation.
type OrderEvent struct {
	OrderID string `json:"order_id"`
	Symbol  string `json:"symbol"`
	Status  string `json:"status"` // "SUBMITTED", "REJECTED", "CANCELLED"
	Reason  string `json:"reason,omitempty"`
}

// RiskBreachEvent notifies dashboard clients of a drawdown, daily-loss,
// or margin breach.
type RiskBreachEvent struct {
	Reason string `json:"reason"`
}

// NewFillEvent builds a FillEvent from the engine's internal Fill view.
func NewFillEvent(orderID, symbol, side string, price float64, qty int64, commission, tax float64) FillEvent {
	return FillEvent{
		OrderID:    orderID,
		Symbol:     symbol,
		Side:       side,
		Price:      price,
		Quantity:   qty,
		Commission: commission,
		Tax:        tax,
	}
}

// NewOrderEvent builds an OrderEvent.
func NewOrderEvent(orderID, symbol, status, reason string) OrderEvent {
	return OrderEvent{OrderID: orderID, Symbol: symbol, Status: status, Reason: reason}
}

// NewRiskBreachEvent builds a RiskBreachEvent.
func NewRiskBreachEvent(reason string) RiskBreachEvent {
	return RiskBreachEvent{Reason: reason}
}
