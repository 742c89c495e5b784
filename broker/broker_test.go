package broker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderOutcome(t *testing.T) {
	order := OrderOutcome{Kind: OutcomeOrder, Order: &Order{ID: "76000001"}}
	assert.False(t, order.IsPosition())

	position := OrderOutcome{Kind: OutcomePosition, Position: &Position{ID: "81000001"}}
	assert.True(t, position.IsPosition())
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "authentication: login failed",
		(&AuthError{Reason: AuthLoginFailed}).Error())
	assert.Equal(t, "authentication: no auth code: redirect carried no code parameter",
		(&AuthError{Reason: AuthNoAuthCode, Detail: "redirect carried no code parameter"}).Error())
	assert.Equal(t, "invalid order: stop orders require a stop-limit price",
		(&ValidationError{Msg: "stop orders require a stop-limit price"}).Error())
	assert.Equal(t, "api error OrderNotFound: order not found",
		(&APIError{Code: "OrderNotFound", Message: "order not found"}).Error())
	assert.Equal(t, "order 76000001 not found",
		(&OrderNotFoundError{OrderID: "76000001"}).Error())
	assert.Equal(t, "http 502: bad gateway",
		(&TransportError{StatusCode: 502, Body: "bad gateway"}).Error())
}

func TestAuthErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &AuthError{Reason: AuthTokenExchangeFailed, Err: cause}
	assert.ErrorIs(t, err, cause)
}
