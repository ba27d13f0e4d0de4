package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/escrow/collateral"
	"github.com/xraph/escrow/id"
	"github.com/xraph/escrow/session"
	"github.com/xraph/escrow/types"
)

// ==================== Session models ====================

type sessionModel struct {
	grove.BaseModel `grove:"table:escrow_sessions"`

	Key                string    `grove:"key,pk"`
	UserID             string    `grove:"user_id"`
	Nonce              int64     `grove:"nonce"`
	ProviderID         string    `grove:"provider_id"`
	ModeID             string    `grove:"mode_id"`
	Status             string    `grove:"status"`
	EscrowBalance      int64     `grove:"escrow_balance"`
	MaxSpend           int64     `grove:"max_spend"`
	TotalSpent         int64     `grove:"total_spent"`
	Coverage           int64     `grove:"coverage"`
	ReservedCollateral int64     `grove:"reserved_collateral"`
	StartDeadline      int64     `grove:"start_deadline"`
	LastActivity       int64     `grove:"last_activity"`
	PermitNonce        int64     `grove:"permit_nonce"`
	PermitKey          []byte    `grove:"permit_key"`
	CreatedAt          time.Time `grove:"created_at"`
	UpdatedAt          time.Time `grove:"updated_at"`
}

func toSessionModel(s *session.Session) *sessionModel {
	return &sessionModel{
		Key:                s.Key.String(),
		UserID:             s.User.String(),
		Nonce:              int64(s.Key.Nonce),
		ProviderID:         s.Provider.String(),
		ModeID:             s.Mode.String(),
		Status:             string(s.Status),
		EscrowBalance:      int64(s.EscrowBalance),
		MaxSpend:           int64(s.MaxSpend),
		TotalSpent:         int64(s.TotalSpent),
		Coverage:           int64(s.Coverage),
		ReservedCollateral: int64(s.ReservedCollateral),
		StartDeadline:      int64(s.StartDeadline),
		LastActivity:       int64(s.LastActivity),
		PermitNonce:        int64(s.PermitNonce),
		PermitKey:          s.PermitKey,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func fromSessionModel(m *sessionModel) (*session.Session, error) {
	userID, err := id.ParseUserID(m.UserID)
	if err != nil {
		return nil, err
	}
	providerID, err := id.ParseProviderID(m.ProviderID)
	if err != nil {
		return nil, err
	}
	modeID, err := id.ParseModeID(m.ModeID)
	if err != nil {
		return nil, err
	}

	return &session.Session{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Key:                session.Key{User: userID, Nonce: uint64(m.Nonce)},
		Provider:           providerID,
		Mode:               modeID,
		Status:             session.Status(m.Status),
		EscrowBalance:      types.Amount(m.EscrowBalance),
		MaxSpend:           types.Amount(m.MaxSpend),
		TotalSpent:         types.Amount(m.TotalSpent),
		Coverage:           types.Amount(m.Coverage),
		ReservedCollateral: types.Amount(m.ReservedCollateral),
		StartDeadline:      types.Tick(m.StartDeadline),
		LastActivity:       types.Tick(m.LastActivity),
		PermitNonce:        uint64(m.PermitNonce),
		PermitKey:          m.PermitKey,
	}, nil
}

// ==================== Position models ====================

type positionModel struct {
	grove.BaseModel `grove:"table:escrow_positions"`

	Key        string    `grove:"key,pk"`
	ProviderID string    `grove:"provider_id"`
	ModeID     string    `grove:"mode_id"`
	Total      int64     `grove:"total"`
	Reserved   int64     `grove:"reserved"`
	Receipt    string    `grove:"receipt"`
	CreatedAt  time.Time `grove:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"`
}

func toPositionModel(p *collateral.Position) *positionModel {
	return &positionModel{
		Key:        p.Key.String(),
		ProviderID: p.Provider.String(),
		ModeID:     p.Mode.String(),
		Total:      int64(p.Total),
		Reserved:   int64(p.Reserved),
		Receipt:    p.Receipt.String(),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func fromPositionModel(m *positionModel) (*collateral.Position, error) {
	providerID, err := id.ParseProviderID(m.ProviderID)
	if err != nil {
		return nil, err
	}
	modeID, err := id.ParseModeID(m.ModeID)
	if err != nil {
		return nil, err
	}
	receipt, err := id.ParseReceiptID(m.Receipt)
	if err != nil {
		return nil, err
	}

	return &collateral.Position{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Key:      collateral.Key{Provider: providerID, Mode: modeID},
		Total:    types.Amount(m.Total),
		Reserved: types.Amount(m.Reserved),
		Receipt:  receipt,
	}, nil
}

// ==================== Reservation models ====================

type reservationModel struct {
	grove.BaseModel `grove:"table:escrow_reservations"`

	Key         string    `grove:"key,pk"`
	PositionKey string    `grove:"position_key"`
	ProviderID  string    `grove:"provider_id"`
	ModeID      string    `grove:"mode_id"`
	SessionKey  string    `grove:"session_key"`
	Amount      int64     `grove:"amount"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

// reservationPK is the storage key for one reservation: a position can hold
// at most one live reservation per session.
func reservationPK(position collateral.Key, sessionKey string) string {
	return position.String() + "|" + sessionKey
}

func toReservationModel(r *collateral.Reservation) *reservationModel {
	return &reservationModel{
		Key:         reservationPK(r.Position, r.Session),
		PositionKey: r.Position.String(),
		ProviderID:  r.Position.Provider.String(),
		ModeID:      r.Position.Mode.String(),
		SessionKey:  r.Session,
		Amount:      int64(r.Amount),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func fromReservationModel(m *reservationModel) (*collateral.Reservation, error) {
	providerID, err := id.ParseProviderID(m.ProviderID)
	if err != nil {
		return nil, err
	}
	modeID, err := id.ParseModeID(m.ModeID)
	if err != nil {
		return nil, err
	}

	return &collateral.Reservation{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Position: collateral.Key{Provider: providerID, Mode: modeID},
		Session:  m.SessionKey,
		Amount:   types.Amount(m.Amount),
	}, nil
}
