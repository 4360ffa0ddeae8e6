package purchase

import "testing"

func TestStatusGraphEdges(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusPaymentPending, false},
		{StatusPending, StatusPaymentCompleted, false},
		{StatusApproved, StatusPaymentPending, true},
		{StatusApproved, StatusCancelled, true},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusPending, false},
		{StatusPaymentPending, StatusPaymentCompleted, true},
		{StatusPaymentPending, StatusCancelled, true},
		{StatusPaymentPending, StatusPending, false},
		{StatusPaymentCompleted, StatusCancelled, false},
		{StatusRejected, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestNoTransitionRevertsToPending(t *testing.T) {
	for from := range transitions {
		if from.CanTransitionTo(StatusPending) {
			t.Errorf("graph allows %s -> pending", from)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	terminal := []Status{StatusRejected, StatusCancelled, StatusPaymentCompleted}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}

	open := []Status{StatusPending, StatusApproved, StatusPaymentPending}
	for _, s := range open {
		if s.Terminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

func TestStatusValid(t *testing.T) {
	if Status("signed").Valid() {
		t.Errorf("unknown status reported valid")
	}
	if Status("signed").Terminal() {
		t.Errorf("unknown status reported terminal")
	}
	if !StatusPaymentPending.Valid() {
		t.Errorf("payment_pending reported invalid")
	}
}
