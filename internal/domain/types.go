// Package domain defines the core value types shared across the tradewatch
// system: market data bars and tickers, strategy signals, orders, positions,
// and derived account snapshots.
package domain

import "time"

// ---------------------------------------------------------------------------
// Market data
// ---------------------------------------------------------------------------

// Bar is a single OHLCV candle for one symbol, ordered by Timestamp.
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Ticker is the latest observed price and rolling base volume for a symbol.
type Ticker struct {
	Price  float64
	Volume float64
}

// Observation is the normalized input handed to every strategy: one price
// (and volume) reading for an exchange/symbol pair. PrevPrice carries the
// previously stored price when one exists; HasPrev distinguishes a genuine
// zero from "no history yet".
type Observation struct {
	Exchange  string
	Symbol    string
	Price     float64
	Volume    float64
	PrevPrice float64
	HasPrev   bool
	Timestamp time.Time
}

// ---------------------------------------------------------------------------
// Signals
// ---------------------------------------------------------------------------

// SignalAction is the trading action suggested by a signal.
type SignalAction string

const (
	ActionBuy  SignalAction = "buy"
	ActionSell SignalAction = "sell"
	// ActionNone marks notification-only signals that carry no trade intent.
	ActionNone SignalAction = "none"
)

// Signal is a single strategy emission. Amount and AvgPrice are zero when the
// strategy leaves sizing to the caller. Signals are never persisted directly;
// only the order that results from acting on one is.
type Signal struct {
	Exchange    string
	Symbol      string
	Action      SignalAction
	Amount      float64
	AvgPrice    float64
	Step        int
	Strategy    string
	OldPrice    float64
	NewPrice    float64
	OldVolume   float64
	NewVolume   float64
	PercentDiff float64
	Direction   string
	Timestamp   time.Time
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// OrderSide is the direction of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType distinguishes market from limit orders.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusClosed    OrderStatus = "closed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is one filled (or emulated) order. Orders are append-only: once
// written to the store they are never mutated, and their CreatedAt ordering
// defines the ledger replay order.
type Order struct {
	ID        int64
	Strategy  string
	Exchange  string
	Symbol    string
	Type      OrderType
	Side      OrderSide
	Amount    float64
	Price     float64
	Status    OrderStatus
	CreatedAt time.Time
}

// ---------------------------------------------------------------------------
// Positions and account state
// ---------------------------------------------------------------------------

// Position is the derived net position for one symbol. Amount is signed:
// positive for long, negative for short. AvgPrice is the quantity-weighted
// average entry price of the open side and is meaningful only while Amount is
// non-zero; flat positions are removed from maps rather than zeroed.
type Position struct {
	Amount   float64
	AvgPrice float64
}

// Long reports whether the position is net long.
func (p Position) Long() bool { return p.Amount > 0 }

// AccountSnapshot is the account state derived by replaying the order log
// against a price map. It is a pure function of its inputs and is recomputed
// on demand, never mutated in place.
type AccountSnapshot struct {
	Cash          float64
	Equity        float64
	Positions     map[string]Position
	UnrealizedPnL float64
	RealizedPnL   float64
}
