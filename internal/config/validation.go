package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateForce(c)...)
	errs = append(errs, validateLogging(&c.Logging)...)

	if c.Metrics.Addr != "" && !strings.Contains(c.Metrics.Addr, ":") {
		errs = append(errs, ValidationError{
			Field:   "metrics.addr",
			Message: fmt.Sprintf("listen address %q must be host:port", c.Metrics.Addr),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateForce(c *Config) ValidationErrors {
	var errs ValidationErrors
	f := c.Force

	nonNegative := func(field string, v *int) {
		if v != nil && *v < 0 {
			errs = append(errs, ValidationError{Field: field, Message: "cannot be negative"})
		}
	}
	nonNegative("force.long_press_delay_ms", f.LongPressDelayMs)
	nonNegative("force.long_press_duration_ms", f.LongPressDurationMs)

	if f.TickIntervalMs != nil && *f.TickIntervalMs < 1 {
		errs = append(errs, ValidationError{
			Field:   "force.tick_interval_ms",
			Message: "must be at least 1 ms",
		})
	}
	if f.ShimMinSamples != nil && *f.ShimMinSamples < 1 {
		errs = append(errs, ValidationError{
			Field:   "force.shim_min_samples",
			Message: "must be at least 1",
		})
	}
	if f.ShimConstantForce != nil && (*f.ShimConstantForce <= 0 || *f.ShimConstantForce > 1) {
		errs = append(errs, ValidationError{
			Field:   "force.shim_constant_force",
			Message: "must be within (0, 1]",
		})
	}

	s := c.settingsLocked()
	if s.HardwareForceMax <= s.HardwareForceMin {
		errs = append(errs, ValidationError{
			Field:   "force.hardware_force_max",
			Message: fmt.Sprintf("must be greater than hardware_force_min (%g)", s.HardwareForceMin),
		})
	}
	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr", "file", "both":
		// an empty file_path falls back to the platform log path
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid log output: %q (valid: stdout, stderr, file, both)", l.Output),
		})
	}

	if l.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "max size must be at least 1 MB",
		})
	}
	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "max backups cannot be negative",
		})
	}

	return errs
}
