package saxo

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rustyeddy/saxo/broker"
)

// The gateway nests conceptually equivalent values under different names per
// entity kind (open price lives in PositionBase.OpenPrice for positions but
// NetPositionBase.AverageOpenPrice for net positions; current value comes from
// PositionView.CurrentPrice, NetPositionView.MarketValue, or
// PositionView.ProfitLoss depending on the kind). Each kind therefore gets
// its own payload struct and conversion; nothing is mapped generically.

type positionBody struct {
	PositionID   string       `json:"PositionId"`
	PositionBase positionBase `json:"PositionBase"`
	PositionView positionView `json:"PositionView"`
}

type positionBase struct {
	Uic           int     `json:"Uic"`
	ClientID      string  `json:"ClientId"`
	AccountID     string  `json:"AccountId"`
	SourceOrderID string  `json:"SourceOrderId"`
	Amount        float64 `json:"Amount"`
	OpenPrice     float64 `json:"OpenPrice"`
	Status        string  `json:"Status"`
	Currency      string  `json:"Currency"`
}

type positionView struct {
	CurrentPrice float64 `json:"CurrentPrice"`
	ProfitLoss   float64 `json:"ProfitLoss"`
}

type netPositionBody struct {
	NetPositionID   string          `json:"NetPositionId"`
	NetPositionBase netPositionBase `json:"NetPositionBase"`
	NetPositionView netPositionView `json:"NetPositionView"`
}

type netPositionBase struct {
	Uic              int     `json:"Uic"`
	ClientID         string  `json:"ClientId"`
	AccountID        string  `json:"AccountId"`
	SourceOrderID    string  `json:"SourceOrderId"`
	Amount           float64 `json:"Amount"`
	AverageOpenPrice float64 `json:"AverageOpenPrice"`
	Status           string  `json:"Status"`
	Currency         string  `json:"Currency"`
	AssetType        string  `json:"AssetType"`
}

type netPositionView struct {
	MarketValue float64 `json:"MarketValue"`
}

type orderBody struct {
	OrderID           string  `json:"OrderId"`
	OrderTime         string  `json:"OrderTime"`
	Uic               int     `json:"Uic"`
	BuySell           string  `json:"BuySell"`
	OpenOrderType     string  `json:"OpenOrderType"`
	Status            string  `json:"Status"`
	Price             float64 `json:"Price"`
	Amount            float64 `json:"Amount"`
	ClientID          string  `json:"ClientId"`
	AccountID         string  `json:"AccountId"`
	ExchangeID        string  `json:"ExchangeId"`
	AssetType         string  `json:"AssetType"`
	ExternalReference string  `json:"ExternalReference"`
}

type balanceBody struct {
	CashBalance                  float64 `json:"CashBalance"`
	CashAvailableForTrading      float64 `json:"CashAvailableForTrading"`
	TotalValue                   float64 `json:"TotalValue"`
	MarginUsedByCurrentPositions float64 `json:"MarginUsedByCurrentPositions"`
	MarginAvailableForTrading    float64 `json:"MarginAvailableForTrading"`
	UnrealizedPositionsValue     float64 `json:"UnrealizedPositionsValue"`
	Currency                     string  `json:"Currency"`
}

type exposureBody struct {
	Uic       int     `json:"Uic"`
	AssetType string  `json:"AssetType"`
	Amount    float64 `json:"Amount"`
	Currency  string  `json:"Currency"`
}

type preCheckBody struct {
	EstimatedCashRequired *float64 `json:"EstimatedCashRequired"`
	MarginImpact          *float64 `json:"MarginImpact"`
	Commissions           *float64 `json:"Commissions"`
	Currency              *string  `json:"Currency"`
}

// listEnvelope is the gateway's wrapper around every collection response.
type listEnvelope struct {
	Data []json.RawMessage `json:"Data"`
}

// Enum translations. Unrecognized provider values pass through unchanged;
// new provider enum members must not break existing callers.

var orderTypeFromProvider = map[string]broker.OrderType{
	"Market":    broker.Market,
	"Limit":     broker.Limit,
	"Stop":      broker.Stop,
	"StopLimit": broker.StopLimit,
}

var orderTypeToProvider = map[broker.OrderType]string{
	broker.Market:    "Market",
	broker.Limit:     "Limit",
	broker.Stop:      "Stop",
	broker.StopLimit: "StopLimit",
}

var orderStatusFromProvider = map[string]broker.OrderStatus{
	"Filled":  broker.Filled,
	"Working": broker.Working,
	"Parked":  broker.Parked,
}

var sideFromProvider = map[string]broker.Side{
	"Buy":  broker.Buy,
	"Sell": broker.Sell,
}

var sideToProvider = map[broker.Side]string{
	broker.Buy:  "Buy",
	broker.Sell: "Sell",
}

var positionStatusFromProvider = map[string]broker.PositionStatus{
	"Open":    broker.Open,
	"Closed":  broker.Closed,
	"Closing": broker.Closing,
	"Partial": broker.Partial,
	"Locked":  broker.Locked,
}

func normalizeOrderType(s string) broker.OrderType {
	if t, ok := orderTypeFromProvider[s]; ok {
		return t
	}
	return broker.OrderType(s)
}

func normalizeOrderStatus(s string) broker.OrderStatus {
	if t, ok := orderStatusFromProvider[s]; ok {
		return t
	}
	return broker.OrderStatus(s)
}

func normalizeSide(s string) broker.Side {
	if t, ok := sideFromProvider[s]; ok {
		return t
	}
	return broker.Side(s)
}

func normalizePositionStatus(s string) broker.PositionStatus {
	if t, ok := positionStatusFromProvider[s]; ok {
		return t
	}
	return broker.PositionStatus(s)
}

func normalizePosition(raw json.RawMessage) (broker.Position, error) {
	var body positionBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return broker.Position{}, fmt.Errorf("decode position: %w", err)
	}
	return broker.Position{
		ID:        body.PositionID,
		Uic:       body.PositionBase.Uic,
		ClientID:  body.PositionBase.ClientID,
		AccountID: body.PositionBase.AccountID,
		OrderID:   body.PositionBase.SourceOrderID,
		Status:    normalizePositionStatus(body.PositionBase.Status),
		Quantity:  body.PositionBase.Amount,
		Price:     body.PositionBase.OpenPrice,
		Value:     body.PositionView.CurrentPrice,
		Currency:  body.PositionBase.Currency,
		Raw:       raw,
	}, nil
}

func normalizeNetPosition(raw json.RawMessage) (broker.NetPosition, error) {
	var body netPositionBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return broker.NetPosition{}, fmt.Errorf("decode net position: %w", err)
	}
	return broker.NetPosition{
		ID:        body.NetPositionID,
		Uic:       body.NetPositionBase.Uic,
		ClientID:  body.NetPositionBase.ClientID,
		AccountID: body.NetPositionBase.AccountID,
		OrderID:   body.NetPositionBase.SourceOrderID,
		Status:    normalizePositionStatus(body.NetPositionBase.Status),
		Quantity:  body.NetPositionBase.Amount,
		Price:     body.NetPositionBase.AverageOpenPrice,
		Value:     body.NetPositionView.MarketValue,
		Currency:  body.NetPositionBase.Currency,
		AssetType: body.NetPositionBase.AssetType,
		Raw:       raw,
	}, nil
}

func normalizeClosedPosition(raw json.RawMessage) (broker.ClosedPosition, error) {
	var body positionBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return broker.ClosedPosition{}, fmt.Errorf("decode closed position: %w", err)
	}
	return broker.ClosedPosition{
		ID:        body.PositionID,
		Uic:       body.PositionBase.Uic,
		ClientID:  body.PositionBase.ClientID,
		AccountID: body.PositionBase.AccountID,
		OrderID:   body.PositionBase.SourceOrderID,
		Status:    broker.Closed,
		Quantity:  body.PositionBase.Amount,
		Price:     body.PositionBase.OpenPrice,
		Value:     body.PositionView.ProfitLoss,
		Currency:  body.PositionBase.Currency,
		Raw:       raw,
	}, nil
}

func normalizeOrder(raw json.RawMessage) (broker.Order, error) {
	var body orderBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return broker.Order{}, fmt.Errorf("decode order: %w", err)
	}
	var orderTime time.Time
	if body.OrderTime != "" {
		t, err := time.Parse(time.RFC3339, body.OrderTime)
		if err != nil {
			return broker.Order{}, fmt.Errorf("parse order time %q: %w", body.OrderTime, err)
		}
		orderTime = t
	}
	return broker.Order{
		ID:                body.OrderID,
		Time:              orderTime,
		Uic:               body.Uic,
		Side:              normalizeSide(body.BuySell),
		OrderType:         normalizeOrderType(body.OpenOrderType),
		Status:            normalizeOrderStatus(body.Status),
		Price:             body.Price,
		Quantity:          body.Amount,
		ClientID:          body.ClientID,
		AccountID:         body.AccountID,
		ExchangeID:        body.ExchangeID,
		AssetType:         body.AssetType,
		ExternalReference: body.ExternalReference,
		Raw:               raw,
	}, nil
}

func normalizeBalance(raw json.RawMessage) (broker.Balance, error) {
	var body balanceBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return broker.Balance{}, fmt.Errorf("decode balance: %w", err)
	}
	return broker.Balance{
		CashBalance:     body.CashBalance,
		CashAvailable:   body.CashAvailableForTrading,
		TotalValue:      body.TotalValue,
		MarginUsed:      body.MarginUsedByCurrentPositions,
		MarginAvailable: body.MarginAvailableForTrading,
		UnrealizedPnL:   body.UnrealizedPositionsValue,
		Currency:        body.Currency,
	}, nil
}

func normalizeExposure(raw json.RawMessage) (broker.Exposure, error) {
	var body exposureBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return broker.Exposure{}, fmt.Errorf("decode exposure: %w", err)
	}
	return broker.Exposure{
		Uic:       body.Uic,
		AssetType: body.AssetType,
		Quantity:  body.Amount,
		Currency:  body.Currency,
	}, nil
}

func normalizePreCheck(raw json.RawMessage) (broker.PreCheckResult, error) {
	var body preCheckBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return broker.PreCheckResult{}, fmt.Errorf("decode precheck: %w", err)
	}
	return broker.PreCheckResult{
		EstimatedCashRequired: body.EstimatedCashRequired,
		MarginImpact:          body.MarginImpact,
		Commissions:           body.Commissions,
		Currency:              body.Currency,
	}, nil
}

// decodeList unwraps the gateway's {"Data": [...]} collection envelope.
func decodeList(raw json.RawMessage) ([]json.RawMessage, error) {
	var env listEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode list envelope: %w", err)
	}
	return env.Data, nil
}

// errorShape covers the gateway's two mutually exclusive error payloads: a
// top-level {ErrorCode, Message, ModelState} and a nested
// {ErrorInfo: {ErrorCode, Message}}.
type errorShape struct {
	ErrorCode  string         `json:"ErrorCode"`
	Message    string         `json:"Message"`
	ModelState map[string]any `json:"ModelState"`
	ErrorInfo  *struct {
		ErrorCode string `json:"ErrorCode"`
		Message   string `json:"Message"`
	} `json:"ErrorInfo"`
}

// classifyError returns an *broker.APIError when the payload matches one of
// the provider's error shapes, nil otherwise. Any payload that matches
// neither shape is a successful result and passes through unchanged.
func classifyError(payload []byte) *broker.APIError {
	if len(payload) == 0 {
		return nil
	}
	var shape errorShape
	if err := json.Unmarshal(payload, &shape); err != nil {
		return nil
	}
	if shape.ErrorCode != "" {
		return &broker.APIError{
			Code:       shape.ErrorCode,
			Message:    shape.Message,
			ModelState: shape.ModelState,
		}
	}
	if shape.ErrorInfo != nil && shape.ErrorInfo.ErrorCode != "" {
		return &broker.APIError{
			Code:    shape.ErrorInfo.ErrorCode,
			Message: shape.ErrorInfo.Message,
		}
	}
	return nil
}
