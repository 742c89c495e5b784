package broker

import "fmt"

// AuthReason classifies which step of the login flow failed.
type AuthReason string

const (
	AuthUnexpectedRedirect  AuthReason = "unexpected redirect"
	AuthLoginFailed         AuthReason = "login failed"
	AuthNoAuthCode          AuthReason = "no auth code"
	AuthTokenExchangeFailed AuthReason = "token exchange failed"
)

// AuthError reports a failed step of the login flow. Any AuthError aborts
// client construction entirely; there is no partial client state and no retry.
type AuthError struct {
	Reason AuthReason
	Detail string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("authentication: %s: %s", e.Reason, e.Detail)
	}
	return fmt.Sprintf("authentication: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ValidationError reports malformed order parameters. It is raised before any
// network call is made.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "invalid order: " + e.Msg }

// APIError is a classified provider error payload.
type APIError struct {
	Code       string
	Message    string
	ModelState map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %s: %s", e.Code, e.Message)
}

// OrderNotFoundError reports that a modify or cancel target is absent from
// the provider's current order list. No mutation is attempted in that case.
type OrderNotFoundError struct {
	OrderID string
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order %s not found", e.OrderID)
}

// SubmissionError reports that the provider accepted an order request but
// returned no order identifier.
type SubmissionError struct {
	Detail string
}

func (e *SubmissionError) Error() string {
	return "order submission failed: " + e.Detail
}

// TransportError is a non-2xx response whose payload could not be classified
// as a provider error.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}
