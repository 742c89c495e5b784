package saxo

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rustyeddy/saxo/broker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePosition(t *testing.T) {
	raw := json.RawMessage(`{
		"PositionId": "81000001",
		"PositionBase": {
			"Uic": 21,
			"ClientId": "90001",
			"AccountId": "ACC-1",
			"SourceOrderId": "76000001",
			"Amount": 10000,
			"OpenPrice": 1.0850,
			"Status": "Open",
			"Currency": "USD"
		},
		"PositionView": {
			"CurrentPrice": 1.0900,
			"ProfitLoss": 50
		}
	}`)

	pos, err := normalizePosition(raw)
	require.NoError(t, err)

	assert.Equal(t, "81000001", pos.ID)
	assert.Equal(t, 21, pos.Uic)
	assert.Equal(t, "90001", pos.ClientID)
	assert.Equal(t, "ACC-1", pos.AccountID)
	assert.Equal(t, "76000001", pos.OrderID)
	assert.Equal(t, broker.Open, pos.Status)
	assert.Equal(t, 10000.0, pos.Quantity)
	assert.Equal(t, 1.0850, pos.Price)
	assert.Equal(t, 1.0900, pos.Value)
	assert.Equal(t, "USD", pos.Currency)
	assert.JSONEq(t, string(raw), string(pos.Raw))
}

func TestNormalizeNetPosition(t *testing.T) {
	// Net positions name the open price and current value differently from
	// positions.
	raw := json.RawMessage(`{
		"NetPositionId": "NP-21",
		"NetPositionBase": {
			"Uic": 21,
			"ClientId": "90001",
			"AccountId": "ACC-1",
			"SourceOrderId": "76000001",
			"Amount": 15000,
			"AverageOpenPrice": 1.0860,
			"Status": "Open",
			"Currency": "USD",
			"AssetType": "FxSpot"
		},
		"NetPositionView": {
			"MarketValue": 16350
		}
	}`)

	np, err := normalizeNetPosition(raw)
	require.NoError(t, err)

	assert.Equal(t, "NP-21", np.ID)
	assert.Equal(t, "76000001", np.OrderID)
	assert.Equal(t, 1.0860, np.Price)
	assert.Equal(t, 16350.0, np.Value)
	assert.Equal(t, "FxSpot", np.AssetType)
}

func TestNormalizeNetPosition_AggregateHasNoSourceOrder(t *testing.T) {
	// Multi-position aggregates carry no source order; the field stays empty.
	np, err := normalizeNetPosition(json.RawMessage(`{
		"NetPositionId": "NP-22",
		"NetPositionBase": {"Uic": 22, "Amount": 20000, "Status": "Open"},
		"NetPositionView": {"MarketValue": 25000}
	}`))
	require.NoError(t, err)
	assert.Empty(t, np.OrderID)
}

func TestNormalizeClosedPosition(t *testing.T) {
	raw := json.RawMessage(`{
		"PositionId": "81000002",
		"PositionBase": {
			"Uic": 22,
			"Amount": 5000,
			"OpenPrice": 1.2500,
			"Status": "Closing",
			"Currency": "USD"
		},
		"PositionView": {
			"CurrentPrice": 1.2600,
			"ProfitLoss": 50
		}
	}`)

	cp, err := normalizeClosedPosition(raw)
	require.NoError(t, err)

	// Closed positions are closed whatever the record's status says, and
	// their value is the realized profit/loss.
	assert.Equal(t, broker.Closed, cp.Status)
	assert.Equal(t, 50.0, cp.Value)
	assert.Equal(t, 1.2500, cp.Price)
}

func TestNormalizeOrder(t *testing.T) {
	raw := json.RawMessage(`{
		"OrderId": "76000001",
		"OrderTime": "2026-08-30T10:15:00Z",
		"Uic": 21,
		"BuySell": "Buy",
		"OpenOrderType": "Limit",
		"Status": "Working",
		"Price": 1.0850,
		"Amount": 10000,
		"ClientId": "90001",
		"AccountId": "ACC-1",
		"ExchangeId": "SIM",
		"AssetType": "FxSpot",
		"ExternalReference": "ref-1"
	}`)

	ord, err := normalizeOrder(raw)
	require.NoError(t, err)

	assert.Equal(t, "76000001", ord.ID)
	assert.Equal(t, time.Date(2026, 8, 30, 10, 15, 0, 0, time.UTC), ord.Time)
	assert.Equal(t, broker.Buy, ord.Side)
	assert.Equal(t, broker.Limit, ord.OrderType)
	assert.Equal(t, broker.Working, ord.Status)
	assert.Equal(t, 1.0850, ord.Price)
	assert.Equal(t, 10000.0, ord.Quantity)
	assert.Equal(t, "SIM", ord.ExchangeID)
	assert.Equal(t, "ref-1", ord.ExternalReference)
}

func TestNormalizeOrder_BadTime(t *testing.T) {
	_, err := normalizeOrder(json.RawMessage(`{"OrderId":"1","OrderTime":"yesterday"}`))
	require.Error(t, err)
}

func TestEnumPassThrough(t *testing.T) {
	// Unknown provider enum members survive unchanged so new gateway values
	// cannot break callers.
	assert.Equal(t, broker.OrderType("TrailingStop"), normalizeOrderType("TrailingStop"))
	assert.Equal(t, broker.OrderStatus("PendingReview"), normalizeOrderStatus("PendingReview"))
	assert.Equal(t, broker.Side("Hold"), normalizeSide("Hold"))
	assert.Equal(t, broker.PositionStatus("Disputed"), normalizePositionStatus("Disputed"))

	// Known members map to the normalized constants.
	assert.Equal(t, broker.StopLimit, normalizeOrderType("StopLimit"))
	assert.Equal(t, broker.Parked, normalizeOrderStatus("Parked"))
	assert.Equal(t, broker.Sell, normalizeSide("Sell"))
	assert.Equal(t, broker.Locked, normalizePositionStatus("Locked"))
}

func TestNormalizeBalance(t *testing.T) {
	bal, err := normalizeBalance(json.RawMessage(`{
		"CashBalance": 100000,
		"CashAvailableForTrading": 98000,
		"TotalValue": 100500,
		"MarginUsedByCurrentPositions": 2000,
		"MarginAvailableForTrading": 98500,
		"UnrealizedPositionsValue": 500,
		"Currency": "USD"
	}`))
	require.NoError(t, err)

	assert.Equal(t, 100000.0, bal.CashBalance)
	assert.Equal(t, 98000.0, bal.CashAvailable)
	assert.Equal(t, 100500.0, bal.TotalValue)
	assert.Equal(t, 2000.0, bal.MarginUsed)
	assert.Equal(t, 98500.0, bal.MarginAvailable)
	assert.Equal(t, 500.0, bal.UnrealizedPnL)
	assert.Equal(t, "USD", bal.Currency)
}

func TestDecodeList(t *testing.T) {
	items, err := decodeList(json.RawMessage(`{"Data":[{"a":1},{"a":2}]}`))
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = decodeList(json.RawMessage(`{"Data":[]}`))
	require.NoError(t, err)
	assert.Empty(t, items)

	// A missing Data member is an empty collection, not an error.
	items, err = decodeList(json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestClassifyError(t *testing.T) {
	t.Run("top level shape", func(t *testing.T) {
		apiErr := classifyError([]byte(`{
			"ErrorCode": "InvalidModelState",
			"Message": "bad order",
			"ModelState": {"Amount": "must be positive"}
		}`))
		require.NotNil(t, apiErr)
		assert.Equal(t, "InvalidModelState", apiErr.Code)
		assert.Equal(t, "bad order", apiErr.Message)
		assert.Equal(t, "must be positive", apiErr.ModelState["Amount"])
	})

	t.Run("nested shape", func(t *testing.T) {
		apiErr := classifyError([]byte(`{"ErrorInfo":{"ErrorCode":"OrderNotFound","Message":"gone"}}`))
		require.NotNil(t, apiErr)
		assert.Equal(t, "OrderNotFound", apiErr.Code)
		assert.Equal(t, "gone", apiErr.Message)
	})

	t.Run("successful payloads pass through", func(t *testing.T) {
		assert.Nil(t, classifyError(nil))
		assert.Nil(t, classifyError([]byte(`{}`)))
		assert.Nil(t, classifyError([]byte(`{"OrderId":"76000001"}`)))
		assert.Nil(t, classifyError([]byte(`{"Data":[]}`)))
		assert.Nil(t, classifyError([]byte(`not json`)))
	})
}
