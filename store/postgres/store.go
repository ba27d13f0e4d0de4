package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	escrow "github.com/xraph/escrow"
	"github.com/xraph/escrow/collateral"
	"github.com/xraph/escrow/id"
	"github.com/xraph/escrow/session"
	escrowstore "github.com/xraph/escrow/store"
)

// compile-time interface check
var _ escrowstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("escrow/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("escrow/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Session Store ====================

func (s *Store) CreateSession(ctx context.Context, sess *session.Session) error {
	m := toSessionModel(sess)
	res, err := s.pg.NewInsert(m).
		OnConflict("(key) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return escrow.ErrSessionExists
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, key session.Key) (*session.Session, error) {
	m := new(sessionModel)
	err := s.pg.NewSelect(m).
		Where("key = $1", key.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, escrow.ErrSessionNotFound
		}
		return nil, err
	}
	return fromSessionModel(m)
}

func (s *Store) ListSessions(ctx context.Context, user id.UserID, opts session.ListOpts) ([]*session.Session, error) {
	var models []sessionModel
	q := s.pg.NewSelect(&models).Where("user_id = $1", user.String())

	argIdx := 1
	if opts.Status != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("status = $%d", argIdx), string(opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*session.Session, len(models))
	for i := range models {
		sess, err := fromSessionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = sess
	}
	return result, nil
}

func (s *Store) UpdateSession(ctx context.Context, sess *session.Session) error {
	m := toSessionModel(sess)
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return escrow.ErrSessionNotFound
	}
	return nil
}

// ==================== Position Store ====================

func (s *Store) GetPosition(ctx context.Context, key collateral.Key) (*collateral.Position, error) {
	m := new(positionModel)
	err := s.pg.NewSelect(m).
		Where("key = $1", key.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, collateral.ErrNotFound
		}
		return nil, err
	}
	return fromPositionModel(m)
}

func (s *Store) PutPosition(ctx context.Context, p *collateral.Position) error {
	m := toPositionModel(p)
	m.UpdatedAt = now()
	_, err := s.pg.NewInsert(m).
		OnConflict("(key) DO UPDATE").
		Set("total = EXCLUDED.total").
		Set("reserved = EXCLUDED.reserved").
		Set("receipt = EXCLUDED.receipt").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) ListPositions(ctx context.Context, provider id.ProviderID) ([]*collateral.Position, error) {
	var models []positionModel
	err := s.pg.NewSelect(&models).
		Where("provider_id = $1", provider.String()).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*collateral.Position, len(models))
	for i := range models {
		p, err := fromPositionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

// ==================== Reservation Store ====================

func (s *Store) GetReservation(ctx context.Context, position collateral.Key, sessionKey string) (*collateral.Reservation, error) {
	m := new(reservationModel)
	err := s.pg.NewSelect(m).
		Where("key = $1", reservationPK(position, sessionKey)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, collateral.ErrNoReservation
		}
		return nil, err
	}
	return fromReservationModel(m)
}

func (s *Store) PutReservation(ctx context.Context, r *collateral.Reservation) error {
	m := toReservationModel(r)
	m.UpdatedAt = now()
	_, err := s.pg.NewInsert(m).
		OnConflict("(key) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) DeleteReservation(ctx context.Context, position collateral.Key, sessionKey string) error {
	_, err := s.pg.NewDelete((*reservationModel)(nil)).
		Where("key = $1", reservationPK(position, sessionKey)).
		Exec(ctx)
	return err
}

func (s *Store) ListReservations(ctx context.Context, position collateral.Key) ([]*collateral.Reservation, error) {
	var models []reservationModel
	err := s.pg.NewSelect(&models).
		Where("position_key = $1", position.String()).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*collateral.Reservation, len(models))
	for i := range models {
		r, err := fromReservationModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
