package saxo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/rustyeddy/saxo/broker"
)

const defaultAssetType = "FxSpot"

// orderPlacement is the gateway's order-creation (and modification) body.
type orderPlacement struct {
	AccountKey                   string         `json:"AccountKey"`
	Uic                          int            `json:"Uic"`
	AssetType                    string         `json:"AssetType"`
	BuySell                      string         `json:"BuySell"`
	Amount                       float64        `json:"Amount"`
	OrderType                    string         `json:"OrderType"`
	OrderPrice                   *float64       `json:"OrderPrice,omitempty"`
	StopLimitPrice               *float64       `json:"StopLimitPrice,omitempty"`
	OrderDuration                *orderDuration `json:"OrderDuration,omitempty"`
	ManualOrder                  bool           `json:"ManualOrder"`
	ExternalReference            string         `json:"ExternalReference,omitempty"`
	IsForceOpen                  *bool          `json:"IsForceOpen,omitempty"`
	TrailingStopDistanceToMarket *float64       `json:"TrailingStopDistanceToMarket,omitempty"`
	TrailingStopStep             *float64       `json:"TrailingStopStep,omitempty"`
}

type orderDuration struct {
	DurationType string `json:"DurationType"`
}

type orderModification struct {
	OrderID    string   `json:"OrderId"`
	AccountKey string   `json:"AccountKey"`
	Uic        int      `json:"Uic"`
	AssetType  string   `json:"AssetType"`
	OrderType  string   `json:"OrderType"`
	OrderPrice *float64 `json:"OrderPrice,omitempty"`
	Amount     *float64 `json:"Amount,omitempty"`
}

type orderCreatedBody struct {
	OrderID string `json:"OrderId"`
}

// validateOrderRequest enforces the order-type/price rules before anything
// touches the network. Violations are caller defects, not provider errors.
func validateOrderRequest(req broker.OrderRequest) error {
	switch req.OrderType {
	case broker.Market:
		if req.Price != nil || req.StopLimit != nil {
			return &broker.ValidationError{Msg: "market orders cannot carry a price"}
		}
	case broker.Stop:
		if req.StopLimit == nil {
			return &broker.ValidationError{Msg: "stop orders require a stop-limit price"}
		}
	case broker.Limit, broker.StopLimit:
		if req.Price == nil {
			return &broker.ValidationError{Msg: fmt.Sprintf("%s orders require a price", req.OrderType)}
		}
	default:
		return &broker.ValidationError{Msg: fmt.Sprintf("invalid order type %q", req.OrderType)}
	}
	return nil
}

// buildPlacement translates an OrderRequest into the gateway's shape.
// Market orders carry no duration; everything else defaults to
// GoodTillCancel. Optional fields are forwarded only when provided.
func buildPlacement(accountKey string, req broker.OrderRequest) orderPlacement {
	assetType := req.AssetType
	if assetType == "" {
		assetType = defaultAssetType
	}
	manual := true
	if req.ManualOrder != nil {
		manual = *req.ManualOrder
	}
	body := orderPlacement{
		AccountKey:                   accountKey,
		Uic:                          req.Uic,
		AssetType:                    assetType,
		BuySell:                      sideToProvider[req.Side],
		Amount:                       req.Quantity,
		OrderType:                    orderTypeToProvider[req.OrderType],
		OrderPrice:                   req.Price,
		StopLimitPrice:               req.StopLimit,
		ManualOrder:                  manual,
		ExternalReference:            req.ExternalReference,
		IsForceOpen:                  req.IsForceOpen,
		TrailingStopDistanceToMarket: req.TrailingStopDistanceToMarket,
		TrailingStopStep:             req.TrailingStopStep,
	}
	if req.OrderType != broker.Market {
		body.OrderDuration = &orderDuration{DurationType: "GoodTillCancel"}
	}
	return body
}

// createOrder submits an order and resolves its final identity.
//
// The gateway gives no synchronous confirmation of what became of an accepted
// order: it may still be working, or it may have executed immediately and
// turned into a position. The resolution sequence is:
//
//  1. fetch the order by id — still pending, return it as an Order;
//  2. on a failed fetch, scan the account's positions for one whose source
//     order id matches the submission — executed, return the Position;
//  3. otherwise synthesize a working Order from the submitted parameters.
//
// Once the gateway has returned an order id the call never fails the caller,
// even when the gateway's own confirmation is unavailable.
func (c *Client) createOrder(ctx context.Context, accountKey string, req broker.OrderRequest) (broker.OrderOutcome, error) {
	if err := validateOrderRequest(req); err != nil {
		return broker.OrderOutcome{}, err
	}

	raw, err := c.tr.post(ctx, "/trade/v2/orders", buildPlacement(accountKey, req))
	if err != nil {
		return broker.OrderOutcome{}, err
	}
	var created orderCreatedBody
	if raw != nil {
		if err := json.Unmarshal(raw, &created); err != nil {
			return broker.OrderOutcome{}, &broker.SubmissionError{Detail: "unreadable creation response"}
		}
	}
	if created.OrderID == "" {
		return broker.OrderOutcome{}, &broker.SubmissionError{Detail: "response carried no order id"}
	}

	return c.resolveSubmission(ctx, accountKey, created.OrderID, req), nil
}

func (c *Client) resolveSubmission(ctx context.Context, accountKey, orderID string, req broker.OrderRequest) broker.OrderOutcome {
	if ord, err := c.fetchOrder(ctx, orderID); err == nil {
		return broker.OrderOutcome{Kind: broker.OutcomeOrder, Order: &ord}
	}

	// The order is gone, which the gateway uses to mean "executed
	// immediately". Find the position it became.
	if pos, ok := c.findPositionBySourceOrder(ctx, accountKey, orderID); ok {
		return broker.OrderOutcome{Kind: broker.OutcomePosition, Position: &pos}
	}

	// Degraded fallback: neither confirmation is available, so report the
	// order as working from what was submitted.
	synth := synthesizeOrder(orderID, accountKey, c.session.ClientID, req)
	return broker.OrderOutcome{Kind: broker.OutcomeOrder, Order: &synth}
}

func (c *Client) fetchOrder(ctx context.Context, orderID string) (broker.Order, error) {
	raw, err := c.tr.get(ctx, fmt.Sprintf("/trade/v2/orders/%s/%s", c.session.ClientKey, orderID), nil)
	if err != nil {
		return broker.Order{}, err
	}
	ord, err := normalizeOrder(raw)
	if err != nil {
		return broker.Order{}, err
	}
	if ord.ID == "" {
		return broker.Order{}, fmt.Errorf("order %s not in response", orderID)
	}
	return ord, nil
}

// findPositionBySourceOrder scans the account's positions for the one whose
// raw provider record names orderID as its source order. The lookup reads the
// back-referenced record, not the normalized field.
func (c *Client) findPositionBySourceOrder(ctx context.Context, accountKey, orderID string) (broker.Position, bool) {
	positions, err := c.accountPositions(ctx, accountKey)
	if err != nil {
		return broker.Position{}, false
	}
	for _, pos := range positions {
		var rec struct {
			PositionBase struct {
				SourceOrderID string `json:"SourceOrderId"`
			} `json:"PositionBase"`
		}
		if err := json.Unmarshal(pos.Raw, &rec); err != nil {
			continue
		}
		if rec.PositionBase.SourceOrderID == orderID {
			return pos, true
		}
	}
	return broker.Position{}, false
}

func synthesizeOrder(orderID, accountKey, clientID string, req broker.OrderRequest) broker.Order {
	assetType := req.AssetType
	if assetType == "" {
		assetType = defaultAssetType
	}
	ord := broker.Order{
		ID:                orderID,
		Time:              time.Now().UTC(),
		Uic:               req.Uic,
		Side:              req.Side,
		OrderType:         req.OrderType,
		Status:            broker.Working,
		Quantity:          req.Quantity,
		ClientID:          clientID,
		AccountID:         accountKey,
		AssetType:         assetType,
		ExternalReference: req.ExternalReference,
	}
	if req.Price != nil {
		ord.Price = *req.Price
	}
	return ord
}

// modifyOrder PATCHes price/quantity changes onto a working order. The
// gateway's modify endpoint needs the order's full type context, so the
// current order list is consulted first; a target missing from it fails with
// OrderNotFoundError before any PATCH goes out.
func (c *Client) modifyOrder(ctx context.Context, accountKey, orderID string, changes broker.OrderChanges) error {
	orders, err := c.accountOrders(ctx, accountKey)
	if err != nil {
		return err
	}
	var current *broker.Order
	for i := range orders {
		if orders[i].ID == orderID {
			current = &orders[i]
			break
		}
	}
	if current == nil {
		return &broker.OrderNotFoundError{OrderID: orderID}
	}

	body := orderModification{
		OrderID:    orderID,
		AccountKey: accountKey,
		Uic:        current.Uic,
		AssetType:  current.AssetType,
		OrderType:  orderTypeToProvider[current.OrderType],
		OrderPrice: changes.Price,
		Amount:     changes.Quantity,
	}
	_, err = c.tr.patch(ctx, "/trade/v2/orders", body)
	return err
}

func (c *Client) cancelOrder(ctx context.Context, accountKey, orderID string) error {
	params := url.Values{"AccountKey": {accountKey}}
	_, err := c.tr.delete(ctx, "/trade/v2/orders/"+orderID, params)
	return err
}

func (c *Client) cancelAllOrders(ctx context.Context, accountKey, assetType string, uic int) error {
	if assetType == "" {
		assetType = defaultAssetType
	}
	params := url.Values{
		"AccountKey": {accountKey},
		"AssetType":  {assetType},
		"Uic":        {fmt.Sprintf("%d", uic)},
	}
	_, err := c.tr.delete(ctx, "/trade/v2/orders", params)
	return err
}

// PreCheckOrder asks the gateway to validate an order without placing it.
// Unlike the read-list operations this propagates failures.
func (c *Client) PreCheckOrder(ctx context.Context, accountKey string, req broker.OrderRequest) (broker.PreCheckResult, error) {
	if err := validateOrderRequest(req); err != nil {
		return broker.PreCheckResult{}, err
	}
	raw, err := c.tr.post(ctx, "/trade/v2/orders/precheck", buildPlacement(accountKey, req))
	if err != nil {
		return broker.PreCheckResult{}, err
	}
	return normalizePreCheck(raw)
}
