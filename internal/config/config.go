// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and CREMLING_ environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// metricNameSegment is what Prometheus accepts as a namespace or subsystem.
var metricNameSegment = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CatalogPath points at a CSV catalog. Empty uses the bundled one.
	CatalogPath string `koanf:"catalog_path"`

	// LikesDBPath is the SQLite file for the like counter. Empty keeps it in memory.
	LikesDBPath string `koanf:"likes_db_path"`

	// MaxSessions bounds live planning sessions; the oldest is evicted. 0 is unbounded.
	MaxSessions int `koanf:"max_sessions"`

	// MaxPartySize caps the party size a session accepts.
	MaxPartySize int `koanf:"max_party_size"`

	// MaxUploadBytes caps an uploaded catalog body.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// PartyTiers lists the tiers a session may pick for its party.
	PartyTiers []int `koanf:"party_tiers"`

	// MetricsEnabled turns Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsNamespace and MetricsSubsystem prefix every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsRefreshInterval is how often background gauges are refreshed, e.g. "5s".
	MetricsRefreshInterval time.Duration `koanf:"metrics_refresh_interval"`

	// MetricsLabels are constant labels added to every series. YAML only.
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		MaxSessions:    1000,
		MaxPartySize:   10,
		MaxUploadBytes: 1 << 20,
		PartyTiers:     []int{1, 2, 3},

		MetricsEnabled:         true,
		MetricsNamespace:       "cremling",
		MetricsSubsystem:       "planner",
		MetricsRefreshInterval: 5 * time.Second,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("config.validate: addr must not be empty: %w", ErrInvalidConfig)
	case c.MaxSessions < 0:
		return fmt.Errorf("config.validate: max_sessions must not be negative: %w", ErrInvalidConfig)
	case c.MaxPartySize < 1:
		return fmt.Errorf("config.validate: max_party_size must be at least 1: %w", ErrInvalidConfig)
	case c.MaxUploadBytes < 1:
		return fmt.Errorf("config.validate: max_upload_bytes must be positive: %w", ErrInvalidConfig)
	case len(c.PartyTiers) == 0:
		return fmt.Errorf("config.validate: party_tiers must not be empty: %w", ErrInvalidConfig)
	case !metricNameSegment.MatchString(c.MetricsNamespace):
		return fmt.Errorf("config.validate: invalid metrics_namespace %q: %w", c.MetricsNamespace, ErrInvalidConfig)
	case !metricNameSegment.MatchString(c.MetricsSubsystem):
		return fmt.Errorf("config.validate: invalid metrics_subsystem %q: %w", c.MetricsSubsystem, ErrInvalidConfig)
	case c.MetricsRefreshInterval <= 0:
		return fmt.Errorf("config.validate: metrics_refresh_interval must be positive: %w", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("config.validate: unknown log_format %q: %w", c.LogFormat, ErrInvalidConfig)
	}
	return nil
}
