package broker

// OutcomeKind discriminates the two possible results of an order submission.
type OutcomeKind string

const (
	OutcomeOrder    OutcomeKind = "order"
	OutcomePosition OutcomeKind = "position"
)

// OrderOutcome is the resolved identity of a just-submitted order. The
// provider may execute an order synchronously, in which case the submission
// resolves to the resulting position instead of a working order. Callers must
// branch on Kind; exactly one of Order and Position is set.
type OrderOutcome struct {
	Kind     OutcomeKind
	Order    *Order
	Position *Position
}

// IsPosition reports whether the submission executed synchronously.
func (o OrderOutcome) IsPosition() bool { return o.Kind == OutcomePosition }
