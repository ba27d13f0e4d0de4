package memory

import (
	"context"
	"sync"

	"github.com/xraph/escrow"
	"github.com/xraph/escrow/collateral"
	"github.com/xraph/escrow/id"
	"github.com/xraph/escrow/session"
)

type reservationKey struct {
	position collateral.Key
	session  string
}

// Store is the in-memory driver. Every read returns a copy so callers can
// validate and mutate freely without touching stored state until they write
// back; a failed operation therefore persists nothing.
type Store struct {
	mu sync.RWMutex

	// Session storage
	sessions map[session.Key]*session.Session

	// Collateral storage
	positions    map[collateral.Key]*collateral.Position
	reservations map[reservationKey]*collateral.Reservation
}

func New() *Store {
	return &Store{
		sessions:     make(map[session.Key]*session.Session),
		positions:    make(map[collateral.Key]*collateral.Position),
		reservations: make(map[reservationKey]*collateral.Reservation),
	}
}

// Session Store implementation
func (s *Store) CreateSession(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.Key]; exists {
		return escrow.ErrSessionExists
	}
	cp := *sess
	s.sessions[sess.Key] = &cp
	return nil
}

func (s *Store) GetSession(_ context.Context, key session.Key) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sess, ok := s.sessions[key]; ok {
		cp := *sess
		return &cp, nil
	}
	return nil, escrow.ErrSessionNotFound
}

func (s *Store) ListSessions(_ context.Context, user id.UserID, opts session.ListOpts) ([]*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*session.Session, 0)
	for _, sess := range s.sessions {
		if sess.User == user {
			if opts.Status == "" || sess.Status == opts.Status {
				cp := *sess
				result = append(result, &cp)
			}
		}
	}

	// Apply limit/offset
	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

func (s *Store) UpdateSession(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.Key]; !exists {
		return escrow.ErrSessionNotFound
	}
	cp := *sess
	s.sessions[sess.Key] = &cp
	return nil
}

// Collateral position implementation
func (s *Store) GetPosition(_ context.Context, key collateral.Key) (*collateral.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.positions[key]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, collateral.ErrNotFound
}

func (s *Store) PutPosition(_ context.Context, p *collateral.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.positions[p.Key] = &cp
	return nil
}

func (s *Store) ListPositions(_ context.Context, provider id.ProviderID) ([]*collateral.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*collateral.Position, 0)
	for _, p := range s.positions {
		if p.Provider == provider {
			cp := *p
			result = append(result, &cp)
		}
	}
	return result, nil
}

// Reservation implementation
func (s *Store) GetReservation(_ context.Context, position collateral.Key, sessionKey string) (*collateral.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.reservations[reservationKey{position, sessionKey}]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, collateral.ErrNoReservation
}

func (s *Store) PutReservation(_ context.Context, r *collateral.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *r
	s.reservations[reservationKey{r.Position, r.Session}] = &cp
	return nil
}

func (s *Store) DeleteReservation(_ context.Context, position collateral.Key, sessionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.reservations, reservationKey{position, sessionKey})
	return nil
}

func (s *Store) ListReservations(_ context.Context, position collateral.Key) ([]*collateral.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*collateral.Reservation, 0)
	for k, r := range s.reservations {
		if k.position == position {
			cp := *r
			result = append(result, &cp)
		}
	}
	return result, nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}
