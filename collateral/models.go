package collateral

import (
	"errors"
	"fmt"

	"github.com/xraph/escrow/id"
	"github.com/xraph/escrow/types"
)

var (
	ErrZeroAmount            = errors.New("collateral: amount must be positive")
	ErrNotFound              = errors.New("collateral: position not found")
	ErrInsufficient          = errors.New("collateral: insufficient free collateral")
	ErrNoReservation         = errors.New("collateral: no matching reservation")
	ErrReservationExists     = errors.New("collateral: reservation already exists")
	ErrPayoutExceedsReserved = errors.New("collateral: payout exceeds reserved amount")
	ErrUnauthorized          = errors.New("collateral: caller not authorized")
	ErrReservedExceedsTotal  = errors.New("collateral: reserved exceeds total")
)

// Key identifies a provider's position. Positions are per (provider, mode):
// the same provider posts collateral separately for each settlement mode it
// serves.
type Key struct {
	Provider id.ProviderID `json:"provider"`
	Mode     id.ModeID     `json:"mode"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Provider, k.Mode)
}

// Position is a provider's collateral account for one mode. Reserved is the
// portion locked against open sessions and never exceeds Total. Positions are
// never deleted; a fully withdrawn position persists at zero.
type Position struct {
	types.Entity
	Key
	Total    types.Amount `json:"total"`
	Reserved types.Amount `json:"reserved"`
	Receipt  id.ReceiptID `json:"receipt"`
}

// Free returns the collateral available for new reservations or withdrawal.
func (p *Position) Free() types.Amount {
	if p.Reserved > p.Total {
		return 0
	}
	return p.Total - p.Reserved
}

// CheckInvariant reports corrupted balances. A position that fails this check
// must abort the enclosing operation unpersisted.
func (p *Position) CheckInvariant() error {
	if p.Reserved > p.Total {
		return fmt.Errorf("%w: position %s has reserved %s > total %s",
			ErrReservedExceedsTotal, p.Key, p.Reserved, p.Total)
	}
	return nil
}

// Reservation records the exact amount a position has locked for one session.
// Session is the canonical string form of the session key; at most one live
// reservation exists per session, and release or slash must match it.
type Reservation struct {
	types.Entity
	Position Key          `json:"position"`
	Session  string       `json:"session"`
	Amount   types.Amount `json:"amount"`
}
