package purchase

// Status enumerates the purchase request lifecycle states.
type Status string

const (
	StatusPending          Status = "pending"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusCancelled        Status = "cancelled"
	StatusPaymentPending   Status = "payment_pending"
	StatusPaymentCompleted Status = "payment_completed"
)

// transitions is the closed edge set of the lifecycle graph. Every guarded
// write in the workflow checks against it; states absent from the map are
// terminal.
var transitions = map[Status][]Status{
	StatusPending:        {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:       {StatusPaymentPending, StatusCancelled},
	StatusPaymentPending: {StatusPaymentCompleted, StatusCancelled},
}

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled,
		StatusPaymentPending, StatusPaymentCompleted:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanTransitionTo reports whether the edge s -> next exists in the graph.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
