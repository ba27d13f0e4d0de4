package session

import (
	"fmt"

	"github.com/xraph/escrow/id"
	"github.com/xraph/escrow/types"
)

type Status string

const (
	StatusOpened         Status = "opened"
	StatusStarted        Status = "started"
	StatusClosing        Status = "closing"
	StatusClosed         Status = "closed"
	StatusClaimedNoStart Status = "claimed_no_start"
	StatusClaimedStall   Status = "claimed_stall"
)

// validTransitions is the session state machine. Closing is a user-initiated
// grace state before final settlement; the three terminal states are
// disjoint, so a session records exactly one of clean close, no-start claim,
// or stall claim.
var validTransitions = map[Status][]Status{
	StatusOpened:  {StatusStarted, StatusClosing, StatusClaimedNoStart},
	StatusStarted: {StatusClosing, StatusClaimedStall},
	StatusClosing: {StatusClosed},
}

// Terminal reports whether no further transition exists from s. Terminal
// sessions are never mutated again.
func (s Status) Terminal() bool {
	return len(validTransitions[s]) == 0
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Key identifies a session: the opening user plus a user-chosen nonce, so one
// user can run many sessions without coordination.
type Key struct {
	User  id.UserID `json:"user"`
	Nonce uint64    `json:"nonce"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s#%d", k.User, k.Nonce)
}

// Session is one escrow engagement between a user and a provider under a
// settlement mode. Coverage and ReservedCollateral are fixed at open;
// EscrowBalance and TotalSpent move as permits redeem and funds arrive.
type Session struct {
	types.Entity
	Key                `json:"key"`
	Provider           id.ProviderID `json:"provider"`
	Mode               id.ModeID     `json:"mode"`
	Status             Status        `json:"status"`
	EscrowBalance      types.Amount  `json:"escrow_balance"`
	MaxSpend           types.Amount  `json:"max_spend"`
	TotalSpent         types.Amount  `json:"total_spent"`
	Coverage           types.Amount  `json:"coverage"`
	ReservedCollateral types.Amount  `json:"reserved_collateral"`
	StartDeadline      types.Tick    `json:"start_deadline"`
	LastActivity       types.Tick    `json:"last_activity"`
	PermitNonce        uint64        `json:"permit_nonce"`
	PermitKey          []byte        `json:"permit_key"`
}
