package session

import (
	"context"

	"github.com/xraph/escrow/id"
)

type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, key Key) (*Session, error)
	List(ctx context.Context, user id.UserID, opts ListOpts) ([]*Session, error)
	Update(ctx context.Context, s *Session) error
}

type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
