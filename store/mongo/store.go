package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	escrow "github.com/xraph/escrow"
	"github.com/xraph/escrow/collateral"
	"github.com/xraph/escrow/id"
	"github.com/xraph/escrow/session"
	escrowstore "github.com/xraph/escrow/store"
)

// Collection name constants.
const (
	colSessions     = "escrow_sessions"
	colPositions    = "escrow_positions"
	colReservations = "escrow_reservations"
)

// compile-time interface check
var _ escrowstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all escrow collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("escrow/mongo: migrate %s indexes: %w", col, err)
		}
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

	// The canonical key is the _id, so a duplicate open surfaces as a
	// write conflict rather than a second document.
	var existing sessionModel
	err := s.mdb.NewFind(&existing).
		Filter(bson.M{"_id": m.Key}).
		Scan(ctx)
	if err == nil {
		return escrow.ErrSessionExists
	}
	if !isNoDocuments(err) {
		return fmt.Errorf("escrow/mongo: create session: %w", err)
	}

	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("escrow/mongo: create session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, key session.Key) (*session.Session, error) {
	var m sessionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": key.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, escrow.ErrSessionNotFound
		}
		return nil, fmt.Errorf("escrow/mongo: get session: %w", err)
	}
	return fromSessionModel(&m)
}

func (s *Store) ListSessions(ctx context.Context, user id.UserID, opts session.ListOpts) ([]*session.Session, error) {
	var models []sessionModel

	filter := bson.M{"user_id": user.String()}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("escrow/mongo: list sessions: %w", err)
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

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Key}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("escrow/mongo: update session: %w", err)
	}
	if res.MatchedCount() == 0 {
		return escrow.ErrSessionNotFound
	}
	return nil
}

// ==================== Position Store ====================

func (s *Store) GetPosition(ctx context.Context, key collateral.Key) (*collateral.Position, error) {
	var m positionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": key.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, collateral.ErrNotFound
		}
		return nil, fmt.Errorf("escrow/mongo: get position: %w", err)
	}
	return fromPositionModel(&m)
}

func (s *Store) PutPosition(ctx context.Context, p *collateral.Position) error {
	m := toPositionModel(p)
	m.UpdatedAt = now()

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Key}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":         m.Key,
			"provider_id": m.ProviderID,
			"mode_id":     m.ModeID,
			"total":       m.Total,
			"reserved":    m.Reserved,
			"receipt":     m.Receipt,
			"created_at":  m.CreatedAt,
			"updated_at":  m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("escrow/mongo: put position: %w", err)
	}
	return nil
}

func (s *Store) ListPositions(ctx context.Context, provider id.ProviderID) ([]*collateral.Position, error) {
	var models []positionModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"provider_id": provider.String()}).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("escrow/mongo: list positions: %w", err)
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
	var m reservationModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": reservationPK(position, sessionKey)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, collateral.ErrNoReservation
		}
		return nil, fmt.Errorf("escrow/mongo: get reservation: %w", err)
	}
	return fromReservationModel(&m)
}

func (s *Store) PutReservation(ctx context.Context, r *collateral.Reservation) error {
	m := toReservationModel(r)
	m.UpdatedAt = now()

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Key}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":          m.Key,
			"position_key": m.PositionKey,
			"provider_id":  m.ProviderID,
			"mode_id":      m.ModeID,
			"session_key":  m.SessionKey,
			"amount":       m.Amount,
			"created_at":   m.CreatedAt,
			"updated_at":   m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("escrow/mongo: put reservation: %w", err)
	}
	return nil
}

func (s *Store) DeleteReservation(ctx context.Context, position collateral.Key, sessionKey string) error {
	_, err := s.mdb.NewDelete((*reservationModel)(nil)).
		Filter(bson.M{"_id": reservationPK(position, sessionKey)}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("escrow/mongo: delete reservation: %w", err)
	}
	return nil
}

func (s *Store) ListReservations(ctx context.Context, position collateral.Key) ([]*collateral.Reservation, error) {
	var models []reservationModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"position_key": position.String()}).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("escrow/mongo: list reservations: %w", err)
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

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all escrow collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colSessions: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "provider_id", Value: 1}}},
		},
		colPositions: {
			{Keys: bson.D{{Key: "provider_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{
				Keys:    bson.D{{Key: "provider_id", Value: 1}, {Key: "mode_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colReservations: {
			{Keys: bson.D{{Key: "position_key", Value: 1}}},
			{Keys: bson.D{{Key: "session_key", Value: 1}}},
		},
	}
}
