package domain

import (
	"errors"
	"testing"
)

func TestTransition(t *testing.T) {
	cases := []struct {
		name    string
		from    Status
		action  Action
		want    Status
		wantErr error
	}{
		{"approve pending", StatusPending, ActionApprove, StatusApproved, nil},
		{"reject pending", StatusPending, ActionReject, StatusRejected, nil},
		{"approve approved", StatusApproved, ActionApprove, StatusApproved, ErrAlreadyReviewed},
		{"reject approved", StatusApproved, ActionReject, StatusApproved, ErrAlreadyReviewed},
		{"approve rejected", StatusRejected, ActionApprove, StatusRejected, ErrAlreadyReviewed},
		{"reject rejected", StatusRejected, ActionReject, StatusRejected, ErrAlreadyReviewed},
		{"unknown action", StatusPending, Action("escalate"), StatusPending, ErrInvalidAction},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Transition(tc.from, tc.action)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Fatalf("state = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() {
		t.Fatal("pending must not be terminal")
	}
	if !StatusApproved.Terminal() || !StatusRejected.Terminal() {
		t.Fatal("approved and rejected must be terminal")
	}
}
