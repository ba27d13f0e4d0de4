package extension

// Config holds the escrow extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.escrow" or "escrow" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for escrow routes (default: "/escrow").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// StartWindow is the number of ticks a provider has to acknowledge a
	// session before the user may claim no-start (default: 300).
	StartWindow uint64 `json:"start_window" mapstructure:"start_window" yaml:"start_window"`

	// StallWindow is the number of ticks of provider inactivity after which
	// the user may claim a stall on a started session (default: 900).
	StallWindow uint64 `json:"stall_window" mapstructure:"stall_window" yaml:"stall_window"`

	// ModeTimelock is the number of ticks a newly added insurance mode must
	// wait before it can be activated (default: 0, no timelock).
	ModeTimelock uint64 `json:"mode_timelock" mapstructure:"mode_timelock" yaml:"mode_timelock"`

	// GroveDatabase is the name of a grove.DB registered in the DI container.
	// When set, the extension resolves this named database and auto-constructs
	// the appropriate store based on the driver type (pg/sqlite/mongo).
	// When empty and WithGroveDatabase was called, the default (unnamed) DB is used.
	GroveDatabase string `json:"grove_database" mapstructure:"grove_database" yaml:"grove_database"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		StartWindow: 300,
		StallWindow: 900,
	}
}
