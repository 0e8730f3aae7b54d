// Package config handles configuration loading, validation, and management for forcify.
package config

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"forcify/internal/logging"
	"forcify/pkg/forcify"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete forcify configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Platform identifies the input platform for dialect detection, as a
	// user-agent string or GOOS name. Empty means the running GOOS.
	Platform string `toml:"platform" json:"platform,omitempty" yaml:"platform,omitempty"`

	// Force holds the default recognizer options applied to new instances.
	Force forcify.Overrides `toml:"force" json:"force" yaml:"force"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// Metrics configuration.
	Metrics MetricsConfig `toml:"metrics" json:"metrics" yaml:"metrics"`

	// Feed configuration for raw event sources.
	Feed FeedConfig `toml:"feed" json:"feed" yaml:"feed"`

	// mu protects concurrent access to the config.
	mu sync.RWMutex `toml:"-" json:"-" yaml:"-"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: text or json.
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is stdout, stderr, file or both.
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file when Output includes a file.
	FilePath string `toml:"file_path" json:"file_path,omitempty" yaml:"file_path,omitempty"`

	// MaxSizeMB is the size at which the log file rotates.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is how many rotated files are kept.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
}

// MetricsConfig holds metrics endpoint configuration.
type MetricsConfig struct {
	// Enabled turns on metrics collection.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Addr is the listen address of the Prometheus endpoint, e.g. ":9464".
	// Empty disables the endpoint while still collecting.
	Addr string `toml:"addr" json:"addr,omitempty" yaml:"addr,omitempty"`
}

// FeedConfig holds raw event source configuration.
type FeedConfig struct {
	// Device is the Linux input device read by "forcify watch".
	Device string `toml:"device" json:"device,omitempty" yaml:"device,omitempty"`

	// Grab requests exclusive access to Device.
	Grab bool `toml:"grab" json:"grab" yaml:"grab"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Feed: FeedConfig{
			Device: "/dev/input/event0",
		},
	}
}

// Settings resolves the force options over the library defaults.
func (c *Config) Settings() forcify.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settingsLocked()
}

func (c *Config) settingsLocked() forcify.Settings {
	return forcify.Resolve(forcify.LibraryDefaults(), c.Force)
}

// LoggerConfig converts the logging section for the logging package.
func (c *Config) LoggerConfig() *logging.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	lc := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Logging.Level); err == nil {
		lc.Level = level
	}
	if format, err := logging.ParseFormat(c.Logging.Format); err == nil {
		lc.Format = format
	}
	if c.Logging.Output != "" {
		lc.Output = c.Logging.Output
	}
	if c.Logging.FilePath != "" {
		lc.FilePath = c.Logging.FilePath
	}
	if c.Logging.MaxSizeMB > 0 {
		lc.MaxSize = int64(c.Logging.MaxSizeMB)
	}
	lc.MaxBackups = c.Logging.MaxBackups
	return lc
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables are prefixed with FORCIFY_. Malformed values are ignored.
func (c *Config) ApplyEnvOverrides() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := envInt("FORCIFY_LONG_PRESS_DELAY_MS"); ok {
		c.Force.LongPressDelayMs = &v
	}
	if v, ok := envInt("FORCIFY_LONG_PRESS_DURATION_MS"); ok {
		c.Force.LongPressDurationMs = &v
	}
	if v, ok := envBool("FORCIFY_FALLBACK_TO_LONGPRESS"); ok {
		c.Force.FallbackToLongPress = &v
	}
	if v, ok := envBool("FORCIFY_SHIM_WEIRD_BROWSER"); ok {
		c.Force.ShimWeirdBrowser = &v
	}

	if v := os.Getenv("FORCIFY_PLATFORM"); v != "" {
		c.Platform = v
	}
	if v := os.Getenv("FORCIFY_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("FORCIFY_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
	if v := os.Getenv("FORCIFY_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("FORCIFY_DEVICE"); v != "" {
		c.Feed.Device = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// Clone returns a copy of the configuration. Override pointers are shared;
// they are never written through.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return &Config{
		Version:  c.Version,
		Platform: c.Platform,
		Force:    c.Force,
		Logging:  c.Logging,
		Metrics:  c.Metrics,
		Feed:     c.Feed,
	}
}
