// Package broker defines the internal entity model shared by the gateway
// client, the simulated provider, and the journal. The gateway speaks a
// PascalCase external schema with nested sub-objects; everything in this
// package is the normalized internal form.
package broker

import (
	"encoding/json"
	"time"
)

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// OrderType identifies how an order is priced and triggered.
type OrderType string

const (
	Market    OrderType = "market"
	Limit     OrderType = "limit"
	Stop      OrderType = "stop"
	StopLimit OrderType = "stop_limit"
)

// OrderStatus is the normalized form of the provider's order status.
// Unrecognized provider values are passed through unchanged.
type OrderStatus string

const (
	Filled  OrderStatus = "filled"
	Working OrderStatus = "working"
	Parked  OrderStatus = "parked"
)

// PositionStatus is the normalized form of the provider's position status.
type PositionStatus string

const (
	Open    PositionStatus = "open"
	Closed  PositionStatus = "closed"
	Closing PositionStatus = "closing"
	Partial PositionStatus = "partial"
	Locked  PositionStatus = "locked"
)

// Account is a read-only snapshot of a trading account. It is re-fetched on
// every call; nothing is cached between calls.
type Account struct {
	ID       string
	Key      string
	Active   bool
	Currency string
}

// Position is an open (or closing) position.
//
// Raw is a diagnostic back-reference to the provider record the position was
// normalized from. It is never serialized, never participates in comparisons
// (compare positions by ID), and exists only for diagnostics and for the
// source-order lookup after an order submission.
type Position struct {
	ID        string
	Uic       int
	ClientID  string
	AccountID string
	OrderID   string
	Status    PositionStatus
	Quantity  float64
	Price     float64
	Value     float64
	Currency  string

	Raw json.RawMessage `json:"-"`
}

// NetPosition is the per-instrument aggregate of all positions. OrderID is
// set only when the net consists of a single position, where the gateway
// names that position's source order; multi-position aggregates leave it
// empty.
type NetPosition struct {
	ID        string
	Uic       int
	ClientID  string
	AccountID string
	OrderID   string
	Status    PositionStatus
	Quantity  float64
	Price     float64
	Value     float64
	Currency  string
	AssetType string

	Raw json.RawMessage `json:"-"`
}

// ClosedPosition is a position that has been fully closed. Status is always
// Closed; Value carries the realized profit/loss.
type ClosedPosition struct {
	ID        string
	Uic       int
	ClientID  string
	AccountID string
	OrderID   string
	Status    PositionStatus
	Quantity  float64
	Price     float64
	Value     float64
	Currency  string

	Raw json.RawMessage `json:"-"`
}

// Order is a working, parked, or filled order.
type Order struct {
	ID                string
	Time              time.Time
	Uic               int
	Side              Side
	OrderType         OrderType
	Status            OrderStatus
	Price             float64
	Quantity          float64
	ClientID          string
	AccountID         string
	ExchangeID        string
	AssetType         string
	ExternalReference string

	Raw json.RawMessage `json:"-"`
}

// Balance is the account's cash and margin snapshot.
type Balance struct {
	CashBalance     float64
	CashAvailable   float64
	TotalValue      float64
	MarginUsed      float64
	MarginAvailable float64
	UnrealizedPnL   float64
	Currency        string
}

// Exposure is the net exposure to a single instrument.
type Exposure struct {
	Uic       int
	AssetType string
	Quantity  float64
	Currency  string
}
