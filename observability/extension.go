// Package observability provides a metrics extension for the escrow engine
// that records lifecycle event counts via a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/escrow/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnInit                = (*MetricsExtension)(nil)
	_ plugin.OnSessionOpened       = (*MetricsExtension)(nil)
	_ plugin.OnSessionFunded       = (*MetricsExtension)(nil)
	_ plugin.OnSessionStarted      = (*MetricsExtension)(nil)
	_ plugin.OnSessionClosed       = (*MetricsExtension)(nil)
	_ plugin.OnPermitRedeemed      = (*MetricsExtension)(nil)
	_ plugin.OnClaimPaid           = (*MetricsExtension)(nil)
	_ plugin.OnCollateralDeposited = (*MetricsExtension)(nil)
	_ plugin.OnCollateralWithdrawn = (*MetricsExtension)(nil)
	_ plugin.OnCollateralReserved  = (*MetricsExtension)(nil)
	_ plugin.OnCollateralReleased  = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as an engine plugin to automatically track settlement metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Session metrics
	SessionOpened  Counter
	SessionStarted Counter
	SessionClosed  Counter
	SessionFunded  Counter
	EscrowDeposit  Histogram
	CloseRefund    Histogram

	// Permit metrics
	PermitRedeemed Counter
	PermitAmount   Histogram

	// Claim metrics
	ClaimNoStart Counter
	ClaimStall   Counter
	ClaimSlashed Histogram

	// Collateral metrics
	CollateralDeposited Counter
	CollateralWithdrawn Counter
	CollateralReserved  Counter
	CollateralReleased  Counter
	ReserveSize         Histogram

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Session metrics
		SessionOpened:  factory.Counter("escrow.session.opened"),
		SessionStarted: factory.Counter("escrow.session.started"),
		SessionClosed:  factory.Counter("escrow.session.closed"),
		SessionFunded:  factory.Counter("escrow.session.funded"),
		EscrowDeposit:  factory.Histogram("escrow.session.funded_amount"),
		CloseRefund:    factory.Histogram("escrow.session.refund_amount"),

		// Permit metrics
		PermitRedeemed: factory.Counter("escrow.permit.redeemed"),
		PermitAmount:   factory.Histogram("escrow.permit.amount"),

		// Claim metrics
		ClaimNoStart: factory.Counter("escrow.claim.no_start"),
		ClaimStall:   factory.Counter("escrow.claim.stall"),
		ClaimSlashed: factory.Histogram("escrow.claim.slashed_amount"),

		// Collateral metrics
		CollateralDeposited: factory.Counter("escrow.collateral.deposited"),
		CollateralWithdrawn: factory.Counter("escrow.collateral.withdrawn"),
		CollateralReserved:  factory.Counter("escrow.collateral.reserved"),
		CollateralReleased:  factory.Counter("escrow.collateral.released"),
		ReserveSize:         factory.Histogram("escrow.collateral.reserve_size"),

		// Error metrics
		StoreErrors:  factory.Counter("escrow.store.errors"),
		PluginErrors: factory.Counter("escrow.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Session lifecycle hooks
// ──────────────────────────────────────────────────

// OnSessionOpened implements plugin.OnSessionOpened.
func (m *MetricsExtension) OnSessionOpened(_ context.Context, _ interface{}) error {
	m.SessionOpened.Inc()
	return nil
}

// OnSessionFunded implements plugin.OnSessionFunded.
func (m *MetricsExtension) OnSessionFunded(_ context.Context, _ interface{}, amount uint64) error {
	m.SessionFunded.Inc()
	m.EscrowDeposit.Observe(float64(amount))
	return nil
}

// OnSessionStarted implements plugin.OnSessionStarted.
func (m *MetricsExtension) OnSessionStarted(_ context.Context, _ interface{}) error {
	m.SessionStarted.Inc()
	return nil
}

// OnSessionClosed implements plugin.OnSessionClosed.
func (m *MetricsExtension) OnSessionClosed(_ context.Context, _ interface{}, refunded uint64) error {
	m.SessionClosed.Inc()
	m.CloseRefund.Observe(float64(refunded))
	return nil
}

// ──────────────────────────────────────────────────
// Permit hooks
// ──────────────────────────────────────────────────

// OnPermitRedeemed implements plugin.OnPermitRedeemed.
func (m *MetricsExtension) OnPermitRedeemed(_ context.Context, _ interface{}, amount uint64, _ uint64) error {
	m.PermitRedeemed.Inc()
	m.PermitAmount.Observe(float64(amount))
	return nil
}

// ──────────────────────────────────────────────────
// Claim hooks
// ──────────────────────────────────────────────────

// OnClaimPaid implements plugin.OnClaimPaid.
func (m *MetricsExtension) OnClaimPaid(_ context.Context, _ interface{}, kind string, slashed uint64) error {
	switch kind {
	case "claimed_stall":
		m.ClaimStall.Inc()
	default:
		m.ClaimNoStart.Inc()
	}
	m.ClaimSlashed.Observe(float64(slashed))
	return nil
}

// ──────────────────────────────────────────────────
// Collateral hooks
// ──────────────────────────────────────────────────

// OnCollateralDeposited implements plugin.OnCollateralDeposited.
func (m *MetricsExtension) OnCollateralDeposited(_ context.Context, _ interface{}, _ uint64) error {
	m.CollateralDeposited.Inc()
	return nil
}

// OnCollateralWithdrawn implements plugin.OnCollateralWithdrawn.
func (m *MetricsExtension) OnCollateralWithdrawn(_ context.Context, _ interface{}, _ uint64) error {
	m.CollateralWithdrawn.Inc()
	return nil
}

// OnCollateralReserved implements plugin.OnCollateralReserved.
func (m *MetricsExtension) OnCollateralReserved(_ context.Context, _ string, amount uint64) error {
	m.CollateralReserved.Inc()
	m.ReserveSize.Observe(float64(amount))
	return nil
}

// OnCollateralReleased implements plugin.OnCollateralReleased.
func (m *MetricsExtension) OnCollateralReleased(_ context.Context, _ string, _ uint64) error {
	m.CollateralReleased.Inc()
	return nil
}
