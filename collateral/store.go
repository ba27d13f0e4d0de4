package collateral

import "context"

// Store is the persistence surface the Ledger requires. The module's unified
// store satisfies it; the method set is deliberately narrow so drivers cannot
// skip the read-before-write discipline the Ledger relies on.
type Store interface {
	GetPosition(ctx context.Context, key Key) (*Position, error)
	PutPosition(ctx context.Context, p *Position) error
	GetReservation(ctx context.Context, position Key, session string) (*Reservation, error)
	PutReservation(ctx context.Context, r *Reservation) error
	DeleteReservation(ctx context.Context, position Key, session string) error
}
