// Package journal records order submissions and their resolved outcomes to
// CSV or SQLite. It is an audit trail, not a cache: the client never reads
// state back from the journal.
package journal

import (
	"time"

	"github.com/rustyeddy/saxo/broker"
)

// OrderRecord is one submitted order and how it resolved: a working order, a
// synchronously executed position, or a synthesized fallback.
type OrderRecord struct {
	ID         string // journal row id (ULID)
	Time       time.Time
	AccountKey string
	Uic        int
	Side       string
	OrderType  string
	Quantity   float64
	Price      float64
	OrderID    string // provider-assigned order id
	Outcome    string // "order" or "position"
	ResolvedID string // order id or position id the submission resolved to
}

// Journal is an append-only sink for order records.
type Journal interface {
	RecordOrder(OrderRecord) error
	Close() error
}

// FromOutcome builds an OrderRecord from a submission and its resolution.
func FromOutcome(accountKey string, req broker.OrderRequest, outcome broker.OrderOutcome, rowID string) OrderRecord {
	rec := OrderRecord{
		ID:         rowID,
		Time:       time.Now().UTC(),
		AccountKey: accountKey,
		Uic:        req.Uic,
		Side:       string(req.Side),
		OrderType:  string(req.OrderType),
		Quantity:   req.Quantity,
		Outcome:    string(outcome.Kind),
	}
	if req.Price != nil {
		rec.Price = *req.Price
	}
	switch outcome.Kind {
	case broker.OutcomePosition:
		rec.OrderID = outcome.Position.OrderID
		rec.ResolvedID = outcome.Position.ID
	default:
		rec.OrderID = outcome.Order.ID
		rec.ResolvedID = outcome.Order.ID
	}
	return rec
}
