package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the escrow store.
var Migrations = migrate.NewGroup("escrow")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_escrow_sessions",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS escrow_sessions (
    key                 TEXT PRIMARY KEY,
    user_id             TEXT NOT NULL DEFAULT '',
    nonce               BIGINT NOT NULL DEFAULT 0,
    provider_id         TEXT NOT NULL DEFAULT '',
    mode_id             TEXT NOT NULL DEFAULT '',
    status              TEXT NOT NULL DEFAULT 'opened',
    escrow_balance      BIGINT NOT NULL DEFAULT 0,
    max_spend           BIGINT NOT NULL DEFAULT 0,
    total_spent         BIGINT NOT NULL DEFAULT 0,
    coverage            BIGINT NOT NULL DEFAULT 0,
    reserved_collateral BIGINT NOT NULL DEFAULT 0,
    start_deadline      BIGINT NOT NULL DEFAULT 0,
    last_activity       BIGINT NOT NULL DEFAULT 0,
    permit_nonce        BIGINT NOT NULL DEFAULT 0,
    permit_key          BYTEA,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_escrow_sessions_user ON escrow_sessions (user_id);
CREATE INDEX IF NOT EXISTS idx_escrow_sessions_status ON escrow_sessions (user_id, status);
CREATE INDEX IF NOT EXISTS idx_escrow_sessions_provider ON escrow_sessions (provider_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS escrow_sessions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_escrow_positions",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS escrow_positions (
    key         TEXT PRIMARY KEY,
    provider_id TEXT NOT NULL DEFAULT '',
    mode_id     TEXT NOT NULL DEFAULT '',
    total       BIGINT NOT NULL DEFAULT 0,
    reserved    BIGINT NOT NULL DEFAULT 0,
    receipt     TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT escrow_positions_reserved_bound CHECK (reserved >= 0 AND reserved <= total)
);

CREATE INDEX IF NOT EXISTS idx_escrow_positions_provider ON escrow_positions (provider_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS escrow_positions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_escrow_reservations",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS escrow_reservations (
    key          TEXT PRIMARY KEY,
    position_key TEXT NOT NULL DEFAULT '',
    provider_id  TEXT NOT NULL DEFAULT '',
    mode_id      TEXT NOT NULL DEFAULT '',
    session_key  TEXT NOT NULL DEFAULT '',
    amount       BIGINT NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_escrow_reservations_position ON escrow_reservations (position_key);
CREATE INDEX IF NOT EXISTS idx_escrow_reservations_session ON escrow_reservations (session_key);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS escrow_reservations`)
				return err
			},
		},
	)
}
