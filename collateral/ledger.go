package collateral

import (
	"context"
	"errors"
	"sync"

	"github.com/xraph/escrow/id"
	"github.com/xraph/escrow/types"
)

// Authority is the capability required for the session-driven mutations
// (Reserve, Release, SlashAndPay). NewLedger issues exactly one; the
// settlement engine holds it. Deposit and Withdraw stay open because
// providers call them directly.
type Authority struct {
	ledger *Ledger
}

// Ledger tracks provider collateral positions and the per-session
// reservations locked against them. Every operation re-reads the position
// from the store, validates all preconditions, and only then persists.
type Ledger struct {
	mu    sync.Mutex
	store Store
}

// NewLedger creates a Ledger over the given store and issues its single
// mutation authority.
func NewLedger(s Store) (*Ledger, Authority) {
	l := &Ledger{store: s}
	return l, Authority{ledger: l}
}

func (l *Ledger) authorize(auth Authority) error {
	if auth.ledger != l {
		return ErrUnauthorized
	}
	return nil
}

// Deposit credits a provider's position, creating it on first use. The first
// deposit mints the position's receipt handle.
func (l *Ledger) Deposit(ctx context.Context, key Key, amount types.Amount) (*Position, error) {
	if amount.IsZero() {
		return nil, ErrZeroAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.store.GetPosition(ctx, key)
	if errors.Is(err, ErrNotFound) {
		p = &Position{
			Entity:  types.NewEntity(),
			Key:     key,
			Receipt: id.NewReceiptID(),
		}
	} else if err != nil {
		return nil, err
	}

	total, err := p.Total.CheckedAdd(amount)
	if err != nil {
		return nil, err
	}
	p.Total = total
	p.Touch()

	if err := p.CheckInvariant(); err != nil {
		return nil, err
	}
	if err := l.store.PutPosition(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Withdraw debits free collateral. The reserved portion is untouchable until
// the sessions holding it settle.
func (l *Ledger) Withdraw(ctx context.Context, key Key, amount types.Amount) (*Position, error) {
	if amount.IsZero() {
		return nil, ErrZeroAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.store.GetPosition(ctx, key)
	if err != nil {
		return nil, err
	}

	total, err := p.Total.CheckedSub(amount)
	if err != nil || total < p.Reserved {
		return nil, ErrInsufficient
	}
	p.Total = total
	p.Touch()

	if err := p.CheckInvariant(); err != nil {
		return nil, err
	}
	if err := l.store.PutPosition(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Reserve locks amount against the position for one session. Fails when the
// free balance is short or the session already holds a reservation.
func (l *Ledger) Reserve(ctx context.Context, auth Authority, key Key, session string, amount types.Amount) error {
	if err := l.authorize(auth); err != nil {
		return err
	}
	if amount.IsZero() {
		return ErrZeroAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.store.GetPosition(ctx, key)
	if err != nil {
		return err
	}
	if _, err := l.store.GetReservation(ctx, key, session); err == nil {
		return ErrReservationExists
	} else if !errors.Is(err, ErrNoReservation) {
		return err
	}

	reserved, err := p.Reserved.CheckedAdd(amount)
	if err != nil || reserved > p.Total {
		return ErrInsufficient
	}
	p.Reserved = reserved
	p.Touch()

	if err := p.CheckInvariant(); err != nil {
		return err
	}
	if err := l.store.PutPosition(ctx, p); err != nil {
		return err
	}
	return l.store.PutReservation(ctx, &Reservation{
		Entity:   types.NewEntity(),
		Position: key,
		Session:  session,
		Amount:   amount,
	})
}

// Release unlocks a session's reservation back into the free balance. The
// amount must match the recorded reservation exactly; a reservation can be
// released once.
func (l *Ledger) Release(ctx context.Context, auth Authority, key Key, session string, amount types.Amount) error {
	if err := l.authorize(auth); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	res, err := l.store.GetReservation(ctx, key, session)
	if err != nil {
		return err
	}
	if res.Amount != amount {
		return ErrNoReservation
	}

	p, err := l.store.GetPosition(ctx, key)
	if err != nil {
		return err
	}
	reserved, err := p.Reserved.CheckedSub(amount)
	if err != nil {
		return ErrReservedExceedsTotal
	}
	p.Reserved = reserved
	p.Touch()

	if err := p.CheckInvariant(); err != nil {
		return err
	}
	if err := l.store.PutPosition(ctx, p); err != nil {
		return err
	}
	return l.store.DeleteReservation(ctx, key, session)
}

// SlashAndPay consumes a session's reservation and removes the amount from
// the position entirely, returning the settlement instruction that pays it
// to the beneficiary.
func (l *Ledger) SlashAndPay(ctx context.Context, auth Authority, key Key, session string, amount types.Amount, beneficiary id.ID) (types.Transfer, error) {
	if err := l.authorize(auth); err != nil {
		return types.Transfer{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	res, err := l.store.GetReservation(ctx, key, session)
	if err != nil {
		return types.Transfer{}, err
	}
	if amount > res.Amount {
		return types.Transfer{}, ErrPayoutExceedsReserved
	}

	p, err := l.store.GetPosition(ctx, key)
	if err != nil {
		return types.Transfer{}, err
	}
	reserved, err := p.Reserved.CheckedSub(res.Amount)
	if err != nil {
		return types.Transfer{}, ErrReservedExceedsTotal
	}
	total, err := p.Total.CheckedSub(amount)
	if err != nil {
		return types.Transfer{}, ErrReservedExceedsTotal
	}
	p.Reserved = reserved
	p.Total = total
	p.Touch()

	if err := p.CheckInvariant(); err != nil {
		return types.Transfer{}, err
	}
	if err := l.store.PutPosition(ctx, p); err != nil {
		return types.Transfer{}, err
	}
	if err := l.store.DeleteReservation(ctx, key, session); err != nil {
		return types.Transfer{}, err
	}
	return types.Transfer{To: beneficiary, Amount: amount}, nil
}

// Position returns the current state of a provider's position.
func (l *Ledger) Position(ctx context.Context, key Key) (*Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.GetPosition(ctx, key)
}
