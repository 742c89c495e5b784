package broker

// OrderRequest describes a new order before submission. Side is set by the
// Buy/Sell entry points; optional fields are passed to the provider only when
// present.
type OrderRequest struct {
	Uic       int
	Side      Side
	Quantity  float64
	OrderType OrderType

	// Price is required for limit and stop-limit orders and forbidden for
	// market orders.
	Price *float64

	// StopLimit is the stop trigger price, required for stop orders.
	StopLimit *float64

	// AssetType defaults to FxSpot when empty.
	AssetType string

	ExternalReference string

	// ManualOrder defaults to true when nil.
	ManualOrder *bool

	IsForceOpen *bool

	TrailingStopDistanceToMarket *float64
	TrailingStopStep             *float64
}

// OrderChanges holds the modifiable fields of a working order. Nil fields are
// left untouched.
type OrderChanges struct {
	Price    *float64
	Quantity *float64
}

// PreCheckResult is the provider's pre-trade estimate. The provider may return
// any subset of these fields, so all are optional.
type PreCheckResult struct {
	EstimatedCashRequired *float64
	MarginImpact          *float64
	Commissions           *float64
	Currency              *string
}
