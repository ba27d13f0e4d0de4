// Package plugin provides an extensible plugin system for the escrow engine.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import "context"

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Session lifecycle hooks
// ──────────────────────────────────────────────────

// OnSessionOpened is called after a session opens and its collateral reserve
// is locked.
type OnSessionOpened interface {
	Plugin
	OnSessionOpened(ctx context.Context, sess interface{}) error
}

// OnSessionFunded is called when escrow is added to a session.
type OnSessionFunded interface {
	Plugin
	OnSessionFunded(ctx context.Context, sess interface{}, amount uint64) error
}

// OnSessionStarted is called when the provider acknowledges a session.
type OnSessionStarted interface {
	Plugin
	OnSessionStarted(ctx context.Context, sess interface{}) error
}

// OnSessionClosed is called when a session reaches its Closed state and the
// remaining escrow is refunded.
type OnSessionClosed interface {
	Plugin
	OnSessionClosed(ctx context.Context, sess interface{}, refunded uint64) error
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnPermitRedeemed is called after a permit moves escrow to the provider.
type OnPermitRedeemed interface {
	Plugin
	OnPermitRedeemed(ctx context.Context, sess interface{}, amount, nonce uint64) error
}

// OnClaimPaid is called when a claim slashes reserved collateral to the user.
// Kind is the terminal status the session reached.
type OnClaimPaid interface {
	Plugin
	OnClaimPaid(ctx context.Context, sess interface{}, kind string, slashed uint64) error
}

// ──────────────────────────────────────────────────
// Collateral hooks
// ──────────────────────────────────────────────────

// OnCollateralDeposited is called when a provider credits a position.
type OnCollateralDeposited interface {
	Plugin
	OnCollateralDeposited(ctx context.Context, position interface{}, amount uint64) error
}

// OnCollateralWithdrawn is called when a provider debits free collateral.
type OnCollateralWithdrawn interface {
	Plugin
	OnCollateralWithdrawn(ctx context.Context, position interface{}, amount uint64) error
}

// OnCollateralReserved is called when a session locks part of a position.
type OnCollateralReserved interface {
	Plugin
	OnCollateralReserved(ctx context.Context, sessionKey string, amount uint64) error
}

// OnCollateralReleased is called when a reservation unlocks cleanly.
type OnCollateralReleased interface {
	Plugin
	OnCollateralReleased(ctx context.Context, sessionKey string, amount uint64) error
}
