package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onSessionOpened       []OnSessionOpened
	onSessionFunded       []OnSessionFunded
	onSessionStarted      []OnSessionStarted
	onSessionClosed       []OnSessionClosed
	onPermitRedeemed      []OnPermitRedeemed
	onClaimPaid           []OnClaimPaid
	onCollateralDeposited []OnCollateralDeposited
	onCollateralWithdrawn []OnCollateralWithdrawn
	onCollateralReserved  []OnCollateralReserved
	onCollateralReleased  []OnCollateralReleased
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnSessionOpened); ok {
		r.onSessionOpened = append(r.onSessionOpened, v)
	}
	if v, ok := p.(OnSessionFunded); ok {
		r.onSessionFunded = append(r.onSessionFunded, v)
	}
	if v, ok := p.(OnSessionStarted); ok {
		r.onSessionStarted = append(r.onSessionStarted, v)
	}
	if v, ok := p.(OnSessionClosed); ok {
		r.onSessionClosed = append(r.onSessionClosed, v)
	}
	if v, ok := p.(OnPermitRedeemed); ok {
		r.onPermitRedeemed = append(r.onPermitRedeemed, v)
	}
	if v, ok := p.(OnClaimPaid); ok {
		r.onClaimPaid = append(r.onClaimPaid, v)
	}
	if v, ok := p.(OnCollateralDeposited); ok {
		r.onCollateralDeposited = append(r.onCollateralDeposited, v)
	}
	if v, ok := p.(OnCollateralWithdrawn); ok {
		r.onCollateralWithdrawn = append(r.onCollateralWithdrawn, v)
	}
	if v, ok := p.(OnCollateralReserved); ok {
		r.onCollateralReserved = append(r.onCollateralReserved, v)
	}
	if v, ok := p.(OnCollateralReleased); ok {
		r.onCollateralReleased = append(r.onCollateralReleased, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnSessionOpened)(nil)).Elem(), "OnSessionOpened")
	checkInterface(reflect.TypeOf((*OnSessionStarted)(nil)).Elem(), "OnSessionStarted")
	checkInterface(reflect.TypeOf((*OnSessionClosed)(nil)).Elem(), "OnSessionClosed")
	checkInterface(reflect.TypeOf((*OnPermitRedeemed)(nil)).Elem(), "OnPermitRedeemed")
	checkInterface(reflect.TypeOf((*OnClaimPaid)(nil)).Elem(), "OnClaimPaid")
	checkInterface(reflect.TypeOf((*OnCollateralDeposited)(nil)).Elem(), "OnCollateralDeposited")
	checkInterface(reflect.TypeOf((*OnCollateralWithdrawn)(nil)).Elem(), "OnCollateralWithdrawn")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSessionOpened emits a session opened event.
func (r *Registry) EmitSessionOpened(ctx context.Context, sess interface{}) {
	r.mu.RLock()
	plugins := r.onSessionOpened
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSessionOpened(ctx, sess)
		}); err != nil {
			r.logger.Warn("plugin OnSessionOpened failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSessionFunded emits a session funded event.
func (r *Registry) EmitSessionFunded(ctx context.Context, sess interface{}, amount uint64) {
	r.mu.RLock()
	plugins := r.onSessionFunded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSessionFunded(ctx, sess, amount)
		}); err != nil {
			r.logger.Warn("plugin OnSessionFunded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSessionStarted emits a session started event.
func (r *Registry) EmitSessionStarted(ctx context.Context, sess interface{}) {
	r.mu.RLock()
	plugins := r.onSessionStarted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSessionStarted(ctx, sess)
		}); err != nil {
			r.logger.Warn("plugin OnSessionStarted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSessionClosed emits a session closed event.
func (r *Registry) EmitSessionClosed(ctx context.Context, sess interface{}, refunded uint64) {
	r.mu.RLock()
	plugins := r.onSessionClosed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSessionClosed(ctx, sess, refunded)
		}); err != nil {
			r.logger.Warn("plugin OnSessionClosed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPermitRedeemed emits a permit redeemed event.
func (r *Registry) EmitPermitRedeemed(ctx context.Context, sess interface{}, amount, nonce uint64) {
	r.mu.RLock()
	plugins := r.onPermitRedeemed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPermitRedeemed(ctx, sess, amount, nonce)
		}); err != nil {
			r.logger.Warn("plugin OnPermitRedeemed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitClaimPaid emits a claim paid event.
func (r *Registry) EmitClaimPaid(ctx context.Context, sess interface{}, kind string, slashed uint64) {
	r.mu.RLock()
	plugins := r.onClaimPaid
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnClaimPaid(ctx, sess, kind, slashed)
		}); err != nil {
			r.logger.Warn("plugin OnClaimPaid failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCollateralDeposited emits a collateral deposited event.
func (r *Registry) EmitCollateralDeposited(ctx context.Context, position interface{}, amount uint64) {
	r.mu.RLock()
	plugins := r.onCollateralDeposited
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCollateralDeposited(ctx, position, amount)
		}); err != nil {
			r.logger.Warn("plugin OnCollateralDeposited failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCollateralWithdrawn emits a collateral withdrawn event.
func (r *Registry) EmitCollateralWithdrawn(ctx context.Context, position interface{}, amount uint64) {
	r.mu.RLock()
	plugins := r.onCollateralWithdrawn
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCollateralWithdrawn(ctx, position, amount)
		}); err != nil {
			r.logger.Warn("plugin OnCollateralWithdrawn failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCollateralReserved emits a collateral reserved event.
func (r *Registry) EmitCollateralReserved(ctx context.Context, sessionKey string, amount uint64) {
	r.mu.RLock()
	plugins := r.onCollateralReserved
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCollateralReserved(ctx, sessionKey, amount)
		}); err != nil {
			r.logger.Warn("plugin OnCollateralReserved failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCollateralReleased emits a collateral released event.
func (r *Registry) EmitCollateralReleased(ctx context.Context, sessionKey string, amount uint64) {
	r.mu.RLock()
	plugins := r.onCollateralReleased
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCollateralReleased(ctx, sessionKey, amount)
		}); err != nil {
			r.logger.Warn("plugin OnCollateralReleased failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins must never block a settlement operation.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
