// Package types holds the data vocabulary shared by every package in
// the backtest engine: bars, orders, fills, positions, trade records
// and the portfolio snapshot. All monetary and price fields use
// decimal.Decimal; only downstream statistics are allowed to use
// float64.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order or position.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// PriceType selects how an order is matched.
type PriceType string

const (
	Market PriceType = "MARKET"
	Limit  PriceType = "LIMIT"
)

// OrderStatus tracks the lifecycle of a submitted order.
type OrderStatus string

const (
	OrderPending         OrderStatus = "PENDING"
	OrderSubmitted       OrderStatus = "SUBMITTED"
	OrderFilled          OrderStatus = "FILLED"
	OrderPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderCancelled       OrderStatus = "CANCELLED"
	OrderFailed          OrderStatus = "FAILED"
)

// SessionType identifies which Taiwan futures trading session a bar
// or timestamp belongs to.
type SessionType string

const (
	SessionDay   SessionType = "DAY"   // 日盤 08:45-13:45
	SessionNight SessionType = "NIGHT" // 夜盤 15:00-05:00 next day
)

// Bar is a single OHLCV candle.
type Bar struct {
	Symbol       string
	Timestamp    time.Time
	Open         decimal.Decimal
	High         decimal.Decimal
	Low          decimal.Decimal
	Close        decimal.Decimal
	Volume       int64
	OpenInterest int64
	Session      SessionType
}

// OrderRequest is an order submitted by a strategy. Immutable once
// created.
type OrderRequest struct {
	ID         string
	Symbol     string
	Side       Side
	Quantity   int64
	PriceType  PriceType
	Price      decimal.Decimal // required for Limit orders
	StopPrice  decimal.Decimal // reserved for stop orders raised internally
	SubmitTime time.Time
}

// Fill is a confirmed execution against an OrderRequest.
type Fill struct {
	OrderID    string
	Symbol     string
	Side       Side
	Price      decimal.Decimal
	Quantity   int64
	Commission decimal.Decimal
	Tax        decimal.Decimal
	Timestamp  time.Time
}

// Position is the open position in a single symbol.
type Position struct {
	Symbol         string
	Side           Side
	Quantity       int64
	AvgPrice       decimal.Decimal
	UnrealizedPnL  decimal.Decimal
	MarginRequired decimal.Decimal
	EntryTime      time.Time
	BarsHeld       int
}

// IsLong reports whether the position is a long position.
func (p Position) IsLong() bool { return p.Side == Buy }

// IsShort reports whether the position is a short position.
func (p Position) IsShort() bool { return p.Side == Sell }

// IsFlat reports whether there is no open position.
func (p Position) IsFlat() bool { return p.Quantity == 0 }

// TradeRecord is a completed round-trip (entry + exit) trade, used for
// reporting.
type TradeRecord struct {
	Symbol     string
	Side       Side
	EntryPrice decimal.Decimal
	ExitPrice  decimal.Decimal
	Quantity   int64
	EntryTime  time.Time
	ExitTime   time.Time
	PnL        decimal.Decimal
	Commission decimal.Decimal
	Tax        decimal.Decimal
	BarsHeld   int
}

// PortfolioState is a snapshot of the entire portfolio at a point in
// time.
type PortfolioState struct {
	Cash            decimal.Decimal
	Positions       map[string]*Position
	TotalEquity     decimal.Decimal
	UsedMargin      decimal.Decimal
	AvailableMargin decimal.Decimal
	RealizedPnL     decimal.Decimal
	UnrealizedPnL   decimal.Decimal
}

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Timestamp time.Time
	Equity    decimal.Decimal
}

// TradingSession is a named time-of-day window.
type TradingSession struct {
	Start time.Time // only hour/minute are meaningful
	End   time.Time
	Name  string
}

// ContractSpec describes a futures contract family (e.g. TX, MTX).
type ContractSpec struct {
	Symbol            string
	Name              string
	Multiplier        decimal.Decimal
	TickSize          decimal.Decimal
	Currency          string
	InitialMargin     decimal.Decimal
	MaintenanceMargin decimal.Decimal
	DaySession        TradingSession
	NightSession      *TradingSession
}

// TickValue is the currency value of a single tick move.
func (c ContractSpec) TickValue() decimal.Decimal {
	return c.TickSize.Mul(c.Multiplier)
}
