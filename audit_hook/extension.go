// Package audithook bridges escrow lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/escrow/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnSessionOpened       = (*Extension)(nil)
	_ plugin.OnSessionFunded       = (*Extension)(nil)
	_ plugin.OnSessionStarted      = (*Extension)(nil)
	_ plugin.OnSessionClosed       = (*Extension)(nil)
	_ plugin.OnPermitRedeemed      = (*Extension)(nil)
	_ plugin.OnClaimPaid           = (*Extension)(nil)
	_ plugin.OnCollateralDeposited = (*Extension)(nil)
	_ plugin.OnCollateralWithdrawn = (*Extension)(nil)
	_ plugin.OnCollateralReserved  = (*Extension)(nil)
	_ plugin.OnCollateralReleased  = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly; callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges escrow lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Session lifecycle hooks
// ──────────────────────────────────────────────────

// OnSessionOpened implements plugin.OnSessionOpened.
func (e *Extension) OnSessionOpened(ctx context.Context, sess interface{}) error {
	return e.record(ctx, ActionSessionOpened, SeverityInfo, OutcomeSuccess,
		ResourceSession, resourceID(sess), CategorySettlement, nil,
		"event", "session_opened",
	)
}

// OnSessionFunded implements plugin.OnSessionFunded.
func (e *Extension) OnSessionFunded(ctx context.Context, sess interface{}, amount uint64) error {
	return e.record(ctx, ActionSessionFunded, SeverityInfo, OutcomeSuccess,
		ResourceSession, resourceID(sess), CategoryCustody, nil,
		"event", "session_funded",
		"amount", amount,
	)
}

// OnSessionStarted implements plugin.OnSessionStarted.
func (e *Extension) OnSessionStarted(ctx context.Context, sess interface{}) error {
	return e.record(ctx, ActionSessionStarted, SeverityInfo, OutcomeSuccess,
		ResourceSession, resourceID(sess), CategorySettlement, nil,
		"event", "session_started",
	)
}

// OnSessionClosed implements plugin.OnSessionClosed.
func (e *Extension) OnSessionClosed(ctx context.Context, sess interface{}, refunded uint64) error {
	return e.record(ctx, ActionSessionClosed, SeverityInfo, OutcomeSuccess,
		ResourceSession, resourceID(sess), CategorySettlement, nil,
		"event", "session_closed",
		"refunded", refunded,
	)
}

// ──────────────────────────────────────────────────
// Permit hooks
// ──────────────────────────────────────────────────

// OnPermitRedeemed implements plugin.OnPermitRedeemed.
func (e *Extension) OnPermitRedeemed(ctx context.Context, sess interface{}, amount, nonce uint64) error {
	return e.record(ctx, ActionPermitRedeemed, SeverityInfo, OutcomeSuccess,
		ResourcePermit, resourceID(sess), CategorySettlement, nil,
		"event", "permit_redeemed",
		"amount", amount,
		"nonce", nonce,
	)
}

// ──────────────────────────────────────────────────
// Claim hooks
// ──────────────────────────────────────────────────

// OnClaimPaid implements plugin.OnClaimPaid.
func (e *Extension) OnClaimPaid(ctx context.Context, sess interface{}, kind string, slashed uint64) error {
	action := ActionClaimNoStart
	if kind == "claimed_stall" {
		action = ActionClaimStall
	}
	return e.record(ctx, action, SeverityWarning, OutcomeSuccess,
		ResourceClaim, resourceID(sess), CategoryDispute, nil,
		"event", "claim_paid",
		"kind", kind,
		"slashed", slashed,
	)
}

// ──────────────────────────────────────────────────
// Collateral hooks
// ──────────────────────────────────────────────────

// OnCollateralDeposited implements plugin.OnCollateralDeposited.
func (e *Extension) OnCollateralDeposited(ctx context.Context, position interface{}, amount uint64) error {
	return e.record(ctx, ActionCollateralDeposited, SeverityInfo, OutcomeSuccess,
		ResourceCollateral, resourceID(position), CategoryCustody, nil,
		"event", "collateral_deposited",
		"amount", amount,
	)
}

// OnCollateralWithdrawn implements plugin.OnCollateralWithdrawn.
func (e *Extension) OnCollateralWithdrawn(ctx context.Context, position interface{}, amount uint64) error {
	return e.record(ctx, ActionCollateralWithdrawn, SeverityInfo, OutcomeSuccess,
		ResourceCollateral, resourceID(position), CategoryCustody, nil,
		"event", "collateral_withdrawn",
		"amount", amount,
	)
}

// OnCollateralReserved implements plugin.OnCollateralReserved.
func (e *Extension) OnCollateralReserved(ctx context.Context, sessionKey string, amount uint64) error {
	return e.record(ctx, ActionCollateralReserved, SeverityInfo, OutcomeSuccess,
		ResourceCollateral, sessionKey, CategoryCustody, nil,
		"event", "collateral_reserved",
		"amount", amount,
	)
}

// OnCollateralReleased implements plugin.OnCollateralReleased.
func (e *Extension) OnCollateralReleased(ctx context.Context, sessionKey string, amount uint64) error {
	return e.record(ctx, ActionCollateralReleased, SeverityInfo, OutcomeSuccess,
		ResourceCollateral, sessionKey, CategoryCustody, nil,
		"event", "collateral_released",
		"amount", amount,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// resourceID pulls a stable identifier out of a hook payload when it exposes
// one. Hook payloads are interface{} so plugins stay decoupled from the
// engine's types.
func resourceID(payload interface{}) string {
	type keyed interface{ String() string }
	if k, ok := payload.(keyed); ok {
		return k.String()
	}
	return ""
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
