// Package config defines the ledstory run configuration and its loader.
//
// Values are layered from defaults, an optional YAML file and LEDSTORY_*
// environment variables. Command-line flags are applied last by the CLI.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// DataDir holds the history and energy spreadsheets.
	DataDir string `koanf:"data_dir" validate:"required"`

	// AssetDir holds the story images.
	AssetDir string `koanf:"asset_dir" validate:"required"`

	// OutDir receives charts, the page and the manifest.
	OutDir string `koanf:"out_dir" validate:"required"`

	// Story is a CUE story file; empty selects the built-in story.
	Story string `koanf:"story"`

	// Snapshot is the sqlite market snapshot path.
	Snapshot string `koanf:"snapshot" validate:"required"`

	// Offline reads the market series from the snapshot instead of fetching.
	Offline bool `koanf:"offline"`

	Provider ProviderConfig `koanf:"provider"`
	Log      LogConfig      `koanf:"log"`

	// MetricsFile, when set, receives a Prometheus textfile after each build.
	MetricsFile string `koanf:"metrics_file"`

	Serve ServeConfig `koanf:"serve"`
}

// ProviderConfig configures the market data HTTP client.
type ProviderConfig struct {
	BaseURL   string        `koanf:"base_url" validate:"required,url"`
	Timeout   time.Duration `koanf:"timeout" validate:"gt=0"`
	UserAgent string        `koanf:"user_agent"`
}

// LogConfig selects verbosity and output encoding.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=console json"`
}

// ServeConfig configures the preview server.
type ServeConfig struct {
	Addr           string   `koanf:"addr" validate:"required"`
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		DataDir:  "data",
		AssetDir: "assets",
		OutDir:   "out",
		Snapshot: "data/market.db",
		Provider: ProviderConfig{
			BaseURL: "https://query1.finance.yahoo.com",
			Timeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Serve: ServeConfig{
			Addr:           "127.0.0.1:8080",
			AllowedOrigins: []string{"*"},
		},
	}
}
