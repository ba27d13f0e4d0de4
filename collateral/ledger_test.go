package collateral_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/escrow/collateral"
	"github.com/xraph/escrow/id"
)

// memStore is a minimal in-memory Store for exercising the Ledger in
// isolation from the unified store drivers.
type memStore struct {
	positions    map[collateral.Key]*collateral.Position
	reservations map[collateral.Key]map[string]*collateral.Reservation
}

func newMemStore() *memStore {
	return &memStore{
		positions:    make(map[collateral.Key]*collateral.Position),
		reservations: make(map[collateral.Key]map[string]*collateral.Reservation),
	}
}

func (s *memStore) GetPosition(_ context.Context, key collateral.Key) (*collateral.Position, error) {
	p, ok := s.positions[key]
	if !ok {
		return nil, collateral.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) PutPosition(_ context.Context, p *collateral.Position) error {
	cp := *p
	s.positions[p.Key] = &cp
	return nil
}

func (s *memStore) GetReservation(_ context.Context, key collateral.Key, session string) (*collateral.Reservation, error) {
	r, ok := s.reservations[key][session]
	if !ok {
		return nil, collateral.ErrNoReservation
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) PutReservation(_ context.Context, r *collateral.Reservation) error {
	if s.reservations[r.Position] == nil {
		s.reservations[r.Position] = make(map[string]*collateral.Reservation)
	}
	cp := *r
	s.reservations[r.Position][r.Session] = &cp
	return nil
}

func (s *memStore) DeleteReservation(_ context.Context, key collateral.Key, session string) error {
	delete(s.reservations[key], session)
	return nil
}

func testKey() collateral.Key {
	return collateral.Key{Provider: id.NewProviderID(), Mode: id.NewModeID()}
}

func TestDepositCreatesPosition(t *testing.T) {
	ctx := context.Background()
	l, _ := collateral.NewLedger(newMemStore())
	key := testKey()

	p, err := l.Deposit(ctx, key, 500)
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if p.Total != 500 || p.Reserved != 0 {
		t.Errorf("got total=%d reserved=%d, want 500/0", p.Total, p.Reserved)
	}
	if p.Receipt.IsNil() {
		t.Error("first deposit should mint a receipt")
	}

	receipt := p.Receipt
	p, err = l.Deposit(ctx, key, 250)
	if err != nil {
		t.Fatalf("second Deposit failed: %v", err)
	}
	if p.Total != 750 {
		t.Errorf("got total=%d, want 750", p.Total)
	}
	if p.Receipt != receipt {
		t.Error("receipt must be stable across deposits")
	}
}

func TestDepositZeroAmount(t *testing.T) {
	l, _ := collateral.NewLedger(newMemStore())
	if _, err := l.Deposit(context.Background(), testKey(), 0); !errors.Is(err, collateral.ErrZeroAmount) {
		t.Errorf("expected ErrZeroAmount, got %v", err)
	}
}

func TestWithdrawBound(t *testing.T) {
	ctx := context.Background()
	l, auth := collateral.NewLedger(newMemStore())
	key := testKey()

	if _, err := l.Deposit(ctx, key, 1000); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if err := l.Reserve(ctx, auth, key, "sess-1", 300); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}

	// Free balance is 700; withdrawing more must fail without touching state.
	if _, err := l.Withdraw(ctx, key, 701); !errors.Is(err, collateral.ErrInsufficient) {
		t.Fatalf("expected ErrInsufficient, got %v", err)
	}
	p, err := l.Withdraw(ctx, key, 700)
	if err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if p.Total != 300 || p.Reserved != 300 {
		t.Errorf("got total=%d reserved=%d, want 300/300", p.Total, p.Reserved)
	}
}

func TestWithdrawUnknownPosition(t *testing.T) {
	l, _ := collateral.NewLedger(newMemStore())
	if _, err := l.Withdraw(context.Background(), testKey(), 1); !errors.Is(err, collateral.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReserveInsufficientFree(t *testing.T) {
	ctx := context.Background()
	l, auth := collateral.NewLedger(newMemStore())
	key := testKey()

	if _, err := l.Deposit(ctx, key, 100); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if err := l.Reserve(ctx, auth, key, "sess-1", 101); !errors.Is(err, collateral.ErrInsufficient) {
		t.Fatalf("expected ErrInsufficient, got %v", err)
	}

	// Reserving the whole balance is allowed.
	if err := l.Reserve(ctx, auth, key, "sess-1", 100); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	p, _ := l.Position(ctx, key)
	if p.Free() != 0 {
		t.Errorf("expected zero free collateral, got %d", p.Free())
	}
}

func TestReserveDuplicateSession(t *testing.T) {
	ctx := context.Background()
	l, auth := collateral.NewLedger(newMemStore())
	key := testKey()

	if _, err := l.Deposit(ctx, key, 1000); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if err := l.Reserve(ctx, auth, key, "sess-1", 100); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	if err := l.Reserve(ctx, auth, key, "sess-1", 100); !errors.Is(err, collateral.ErrReservationExists) {
		t.Errorf("expected ErrReservationExists, got %v", err)
	}
}

func TestReleaseExactlyOnce(t *testing.T) {
	ctx := context.Background()
	l, auth := collateral.NewLedger(newMemStore())
	key := testKey()

	if _, err := l.Deposit(ctx, key, 1000); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if err := l.Reserve(ctx, auth, key, "sess-1", 300); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}

	// Wrong amount does not match the reservation.
	if err := l.Release(ctx, auth, key, "sess-1", 200); !errors.Is(err, collateral.ErrNoReservation) {
		t.Fatalf("expected ErrNoReservation for amount mismatch, got %v", err)
	}

	if err := l.Release(ctx, auth, key, "sess-1", 300); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	p, _ := l.Position(ctx, key)
	if p.Reserved != 0 || p.Total != 1000 {
		t.Errorf("got total=%d reserved=%d, want 1000/0", p.Total, p.Reserved)
	}

	// A second release of the same reservation must fail.
	if err := l.Release(ctx, auth, key, "sess-1", 300); !errors.Is(err, collateral.ErrNoReservation) {
		t.Errorf("expected ErrNoReservation on double release, got %v", err)
	}
}

func TestSlashAndPay(t *testing.T) {
	ctx := context.Background()
	l, auth := collateral.NewLedger(newMemStore())
	key := testKey()
	user := id.NewUserID()

	if _, err := l.Deposit(ctx, key, 1000); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if err := l.Reserve(ctx, auth, key, "sess-1", 300); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}

	if _, err := l.SlashAndPay(ctx, auth, key, "sess-1", 301, user); !errors.Is(err, collateral.ErrPayoutExceedsReserved) {
		t.Fatalf("expected ErrPayoutExceedsReserved, got %v", err)
	}

	tr, err := l.SlashAndPay(ctx, auth, key, "sess-1", 300, user)
	if err != nil {
		t.Fatalf("SlashAndPay failed: %v", err)
	}
	if tr.To != user || tr.Amount != 300 {
		t.Errorf("got transfer %+v, want 300 to %s", tr, user)
	}

	p, _ := l.Position(ctx, key)
	if p.Total != 700 || p.Reserved != 0 {
		t.Errorf("got total=%d reserved=%d, want 700/0", p.Total, p.Reserved)
	}

	// The reservation is consumed.
	if _, err := l.SlashAndPay(ctx, auth, key, "sess-1", 300, user); !errors.Is(err, collateral.ErrNoReservation) {
		t.Errorf("expected ErrNoReservation after slash, got %v", err)
	}
}

func TestPartialSlashFreesRemainder(t *testing.T) {
	ctx := context.Background()
	l, auth := collateral.NewLedger(newMemStore())
	key := testKey()

	if _, err := l.Deposit(ctx, key, 1000); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if err := l.Reserve(ctx, auth, key, "sess-1", 300); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}

	if _, err := l.SlashAndPay(ctx, auth, key, "sess-1", 100, id.NewUserID()); err != nil {
		t.Fatalf("SlashAndPay failed: %v", err)
	}
	p, _ := l.Position(ctx, key)
	if p.Total != 900 || p.Reserved != 0 {
		t.Errorf("got total=%d reserved=%d, want 900/0", p.Total, p.Reserved)
	}
}

func TestAuthorityRequired(t *testing.T) {
	ctx := context.Background()
	l, _ := collateral.NewLedger(newMemStore())
	_, otherAuth := collateral.NewLedger(newMemStore())
	key := testKey()

	if _, err := l.Deposit(ctx, key, 1000); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}

	var zero collateral.Authority
	if err := l.Reserve(ctx, zero, key, "sess-1", 100); !errors.Is(err, collateral.ErrUnauthorized) {
		t.Errorf("Reserve with zero authority: expected ErrUnauthorized, got %v", err)
	}
	if err := l.Reserve(ctx, otherAuth, key, "sess-1", 100); !errors.Is(err, collateral.ErrUnauthorized) {
		t.Errorf("Reserve with foreign authority: expected ErrUnauthorized, got %v", err)
	}
	if err := l.Release(ctx, zero, key, "sess-1", 100); !errors.Is(err, collateral.ErrUnauthorized) {
		t.Errorf("Release: expected ErrUnauthorized, got %v", err)
	}
	if _, err := l.SlashAndPay(ctx, zero, key, "sess-1", 100, id.NewUserID()); !errors.Is(err, collateral.ErrUnauthorized) {
		t.Errorf("SlashAndPay: expected ErrUnauthorized, got %v", err)
	}
}

func TestInvariantHolds(t *testing.T) {
	ctx := context.Background()
	l, auth := collateral.NewLedger(newMemStore())
	key := testKey()

	if _, err := l.Deposit(ctx, key, 500); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	sessions := []string{"a", "b", "c", "d", "e"}
	for _, s := range sessions {
		_ = l.Reserve(ctx, auth, key, s, 150)
		p, err := l.Position(ctx, key)
		if err != nil {
			t.Fatalf("Position failed: %v", err)
		}
		if p.Reserved > p.Total {
			t.Fatalf("invariant broken: reserved %d > total %d", p.Reserved, p.Total)
		}
	}
	p, _ := l.Position(ctx, key)
	if p.Reserved != 450 {
		t.Errorf("expected 3 reservations of 150 to fit, got reserved=%d", p.Reserved)
	}
}
