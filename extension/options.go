package extension

import (
	escrow "github.com/xraph/escrow"
	"github.com/xraph/escrow/mode"
	"github.com/xraph/escrow/plugin"
	"github.com/xraph/escrow/store"
)

// Option configures the escrow Forge extension.
type Option func(*Extension)

// WithStore sets the store for the escrow engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithModeRegistry sets the insurance mode registry for the engine.
func WithModeRegistry(r mode.Registry) Option {
	return func(e *Extension) {
		e.modes = r
	}
}

// WithEngineOption passes an escrow.Option through to the underlying engine.
func WithEngineOption(opt escrow.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers an engine plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, escrow.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents HTTP route registration.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for escrow routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithStartWindow sets the provider acknowledgement window in ticks.
func WithStartWindow(ticks uint64) Option {
	return func(e *Extension) { e.config.StartWindow = ticks }
}

// WithStallWindow sets the provider inactivity window in ticks.
func WithStallWindow(ticks uint64) Option {
	return func(e *Extension) { e.config.StallWindow = ticks }
}

// WithModeTimelock sets the activation timelock for new insurance modes.
func WithModeTimelock(ticks uint64) Option {
	return func(e *Extension) { e.config.ModeTimelock = ticks }
}

// WithGroveDatabase sets the name of the grove.DB to resolve from the DI container.
// The extension will auto-construct the appropriate store backend (postgres/sqlite/mongo)
// based on the grove driver type. Pass an empty string to use the default (unnamed) grove.DB.
func WithGroveDatabase(name string) Option {
	return func(e *Extension) {
		e.config.GroveDatabase = name
		e.useGrove = true
	}
}
