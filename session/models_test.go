package session_test

import (
	"testing"

	"github.com/xraph/escrow/id"
	"github.com/xraph/escrow/session"
)

func TestStatusTransitions(t *testing.T) {
	all := []session.Status{
		session.StatusOpened,
		session.StatusStarted,
		session.StatusClosing,
		session.StatusClosed,
		session.StatusClaimedNoStart,
		session.StatusClaimedStall,
	}

	allowed := map[session.Status][]session.Status{
		session.StatusOpened:  {session.StatusStarted, session.StatusClosing, session.StatusClaimedNoStart},
		session.StatusStarted: {session.StatusClosing, session.StatusClaimedStall},
		session.StatusClosing: {session.StatusClosed},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	tests := []struct {
		status   session.Status
		terminal bool
	}{
		{session.StatusOpened, false},
		{session.StatusStarted, false},
		{session.StatusClosing, false},
		{session.StatusClosed, true},
		{session.StatusClaimedNoStart, true},
		{session.StatusClaimedStall, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Terminal(); got != tt.terminal {
				t.Errorf("Terminal(%s) = %v, want %v", tt.status, got, tt.terminal)
			}
		})
	}
}

func TestKeyString(t *testing.T) {
	user := id.NewUserID()
	a := session.Key{User: user, Nonce: 1}
	b := session.Key{User: user, Nonce: 2}

	if a.String() == b.String() {
		t.Error("distinct nonces must produce distinct key strings")
	}
	if a.String() != (session.Key{User: user, Nonce: 1}).String() {
		t.Error("key string must be deterministic")
	}
}
