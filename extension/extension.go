// Package extension provides the Forge extension adapter for the escrow engine.
//
// It implements the forge.Extension interface to integrate the engine
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.escrow" or "escrow" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	escrow "github.com/xraph/escrow"
	"github.com/xraph/escrow/mode"
	"github.com/xraph/escrow/store"
	"github.com/xraph/escrow/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "escrow"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Escrow and collateral settlement engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the escrow engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *escrow.Engine
	store      store.Store
	modes      mode.Registry
	engineOpts []escrow.Option
	useGrove   bool
}

// New creates a new escrow Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying escrow engine.
// This is nil until Register is called.
func (e *Extension) Engine() *escrow.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the escrow engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	// Use an in-process mode registry if none was provided.
	if e.modes == nil {
		e.modes = mode.NewMemoryRegistry(e.config.ModeTimelock)
	}

	// Build engine options from resolved config.
	opts := e.buildEngineOpts()

	eng := escrow.New(e.store, e.modes, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*escrow.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("escrow: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("escrow: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs escrow.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []escrow.Option {
	opts := make([]escrow.Option, 0, len(e.engineOpts)+2)

	// Apply config-derived options.
	if e.config.StartWindow > 0 {
		opts = append(opts, escrow.WithStartWindow(e.config.StartWindow))
	}
	if e.config.StallWindow > 0 {
		opts = append(opts, escrow.WithStallWindow(e.config.StallWindow))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("escrow: configuration is required but not found in config files; " +
				"ensure 'extensions.escrow' or 'escrow' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("escrow: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("start_window", e.config.StartWindow),
		forge.F("stall_window", e.config.StallWindow),
		forge.F("mode_timelock", e.config.ModeTimelock),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.escrow" first (namespaced pattern).
	if cm.IsSet("extensions.escrow") {
		if err := cm.Bind("extensions.escrow", &cfg); err == nil {
			e.Logger().Debug("escrow: loaded config from file",
				forge.F("key", "extensions.escrow"),
			)
			return cfg, true
		}
		e.Logger().Warn("escrow: failed to bind extensions.escrow config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "escrow" key.
	if cm.IsSet("escrow") {
		if err := cm.Bind("escrow", &cfg); err == nil {
			e.Logger().Debug("escrow: loaded config from file",
				forge.F("key", "escrow"),
			)
			return cfg, true
		}
		e.Logger().Warn("escrow: failed to bind escrow config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.StartWindow == 0 {
		cfg.StartWindow = defaults.StartWindow
	}
	if cfg.StallWindow == 0 {
		cfg.StallWindow = defaults.StallWindow
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.BasePath == "" && programmaticConfig.BasePath != "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}

	// Window fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.StartWindow == 0 && programmaticConfig.StartWindow != 0 {
		yamlConfig.StartWindow = programmaticConfig.StartWindow
	}
	if yamlConfig.StallWindow == 0 && programmaticConfig.StallWindow != 0 {
		yamlConfig.StallWindow = programmaticConfig.StallWindow
	}
	if yamlConfig.ModeTimelock == 0 && programmaticConfig.ModeTimelock != 0 {
		yamlConfig.ModeTimelock = programmaticConfig.ModeTimelock
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
