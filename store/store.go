package store

import (
	"context"

	"github.com/xraph/escrow/collateral"
	"github.com/xraph/escrow/id"
	"github.com/xraph/escrow/session"
)

// Store is the unified storage interface for all escrow entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts. The collateral method set matches
// collateral.Store so any Store also serves the collateral ledger directly.
type Store interface {
	// Session methods
	CreateSession(ctx context.Context, s *session.Session) error
	GetSession(ctx context.Context, key session.Key) (*session.Session, error)
	ListSessions(ctx context.Context, user id.UserID, opts session.ListOpts) ([]*session.Session, error)
	UpdateSession(ctx context.Context, s *session.Session) error

	// Collateral position methods
	GetPosition(ctx context.Context, key collateral.Key) (*collateral.Position, error)
	PutPosition(ctx context.Context, p *collateral.Position) error
	ListPositions(ctx context.Context, provider id.ProviderID) ([]*collateral.Position, error)

	// Reservation methods
	GetReservation(ctx context.Context, position collateral.Key, sessionKey string) (*collateral.Reservation, error)
	PutReservation(ctx context.Context, r *collateral.Reservation) error
	DeleteReservation(ctx context.Context, position collateral.Key, sessionKey string) error
	ListReservations(ctx context.Context, position collateral.Key) ([]*collateral.Reservation, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
