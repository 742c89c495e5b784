package saxo

import (
	"context"
	"time"

	"github.com/rustyeddy/saxo/broker"
)

// ClosedPositionsOptions narrows a closed-positions listing. AccountKey
// scopes the listing to one account; From/To bound the closing time.
type ClosedPositionsOptions struct {
	AccountKey string
	From       time.Time
	To         time.Time
}

// Account is a trading account with its operations bound to the owning
// client's session. It is a snapshot: the identifying fields are re-fetched
// on every Accounts call, never cached.
type Account struct {
	broker.Account

	client *Client
}

// Balance fetches the account's cash and margin snapshot. Failures
// propagate; balance is not a lenient read.
func (a Account) Balance(ctx context.Context) (broker.Balance, error) {
	return a.client.accountBalance(ctx, a.Key)
}

// Positions lists the account's open positions, empty on failure.
func (a Account) Positions(ctx context.Context) []broker.Position {
	positions, err := a.client.accountPositions(ctx, a.Key)
	if err != nil {
		return []broker.Position{}
	}
	return positions
}

// Orders lists the account's open orders, empty on failure.
func (a Account) Orders(ctx context.Context) []broker.Order {
	orders, err := a.client.accountOrders(ctx, a.Key)
	if err != nil {
		return []broker.Order{}
	}
	return orders
}

// Buy submits a buy order and resolves its outcome (see Client.createOrder's
// reconciliation sequence).
func (a Account) Buy(ctx context.Context, req broker.OrderRequest) (broker.OrderOutcome, error) {
	req.Side = broker.Buy
	return a.client.createOrder(ctx, a.Key, req)
}

// Sell submits a sell order and resolves its outcome.
func (a Account) Sell(ctx context.Context, req broker.OrderRequest) (broker.OrderOutcome, error) {
	req.Side = broker.Sell
	return a.client.createOrder(ctx, a.Key, req)
}

// ModifyOrder changes the price and/or quantity of a working order. The
// target must appear in the account's current order list; otherwise the call
// fails with *broker.OrderNotFoundError without touching the gateway's
// modify endpoint.
func (a Account) ModifyOrder(ctx context.Context, orderID string, changes broker.OrderChanges) error {
	return a.client.modifyOrder(ctx, a.Key, orderID, changes)
}

// CancelOrder cancels a single order. Cancelling an order the gateway no
// longer knows is not an error worth special handling here; the gateway
// answers the DELETE either way.
func (a Account) CancelOrder(ctx context.Context, orderID string) error {
	return a.client.cancelOrder(ctx, a.Key, orderID)
}

// CancelAllOrders cancels every order for one instrument on this account.
func (a Account) CancelAllOrders(ctx context.Context, assetType string, uic int) error {
	return a.client.cancelAllOrders(ctx, a.Key, assetType, uic)
}

// PreCheck validates an order against the gateway without placing it.
func (a Account) PreCheck(ctx context.Context, req broker.OrderRequest) (broker.PreCheckResult, error) {
	return a.client.PreCheckOrder(ctx, a.Key, req)
}
