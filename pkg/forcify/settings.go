package forcify

import (
	"sync"
	"time"
)

// Settings is the resolved configuration of one instance. It is a value
// type and never changes once an instance is built.
type Settings struct {
	// LongPressDelay is how long a press must be held before emulated force
	// starts rising.
	LongPressDelay time.Duration `json:"long_press_delay"`

	// LongPressDuration is the span of the emulated ramp from 0 to 1.
	LongPressDuration time.Duration `json:"long_press_duration"`

	// FallbackToLongPress permits emulation when no real force is available.
	FallbackToLongPress bool `json:"fallback_to_long_press"`

	// ShimWeirdBrowser enables rejection of implausible raw force readings.
	ShimWeirdBrowser bool `json:"shim_weird_browser"`

	// ShimConstantForce is the raw reading treated as fake.
	ShimConstantForce float64 `json:"shim_constant_force"`

	// ShimFractionalOnAndroid rejects constant readings strictly inside
	// (0,1) on Android.
	ShimFractionalOnAndroid bool `json:"shim_fractional_on_android"`

	// ShimMinSamples is how many identical fractional samples are needed
	// before the reading is considered constant.
	ShimMinSamples int `json:"shim_min_samples"`

	// HardwareForceMin and HardwareForceMax bound raw hardware readings.
	HardwareForceMin float64 `json:"hardware_force_min"`
	HardwareForceMax float64 `json:"hardware_force_max"`

	// TickInterval is the spacing of progressive ramp events.
	TickInterval time.Duration `json:"tick_interval"`
}

// LibraryDefaults returns the built-in settings.
func LibraryDefaults() Settings {
	return Settings{
		LongPressDelay:          200 * time.Millisecond,
		LongPressDuration:       100 * time.Millisecond,
		FallbackToLongPress:     true,
		ShimWeirdBrowser:        true,
		ShimConstantForce:       1,
		ShimFractionalOnAndroid: true,
		ShimMinSamples:          1,
		HardwareForceMin:        0,
		HardwareForceMax:        1,
		TickInterval:            16 * time.Millisecond,
	}
}

// Overrides is a partial Settings. Nil fields inherit from the layer below.
// Durations are in milliseconds so the struct decodes from config files.
type Overrides struct {
	LongPressDelayMs        *int     `toml:"long_press_delay_ms,omitempty" json:"long_press_delay_ms,omitempty" yaml:"long_press_delay_ms,omitempty"`
	LongPressDurationMs     *int     `toml:"long_press_duration_ms,omitempty" json:"long_press_duration_ms,omitempty" yaml:"long_press_duration_ms,omitempty"`
	FallbackToLongPress     *bool    `toml:"fallback_to_longpress,omitempty" json:"fallback_to_longpress,omitempty" yaml:"fallback_to_longpress,omitempty"`
	ShimWeirdBrowser        *bool    `toml:"shim_weird_browser,omitempty" json:"shim_weird_browser,omitempty" yaml:"shim_weird_browser,omitempty"`
	ShimConstantForce       *float64 `toml:"shim_constant_force,omitempty" json:"shim_constant_force,omitempty" yaml:"shim_constant_force,omitempty"`
	ShimFractionalOnAndroid *bool    `toml:"shim_fractional_on_android,omitempty" json:"shim_fractional_on_android,omitempty" yaml:"shim_fractional_on_android,omitempty"`
	ShimMinSamples          *int     `toml:"shim_min_samples,omitempty" json:"shim_min_samples,omitempty" yaml:"shim_min_samples,omitempty"`
	HardwareForceMin        *float64 `toml:"hardware_force_min,omitempty" json:"hardware_force_min,omitempty" yaml:"hardware_force_min,omitempty"`
	HardwareForceMax        *float64 `toml:"hardware_force_max,omitempty" json:"hardware_force_max,omitempty" yaml:"hardware_force_max,omitempty"`
	TickIntervalMs          *int     `toml:"tick_interval_ms,omitempty" json:"tick_interval_ms,omitempty" yaml:"tick_interval_ms,omitempty"`
}

// Resolve layers o over base. Neither argument is modified.
func Resolve(base Settings, o Overrides) Settings {
	s := base
	if o.LongPressDelayMs != nil {
		s.LongPressDelay = time.Duration(*o.LongPressDelayMs) * time.Millisecond
	}
	if o.LongPressDurationMs != nil {
		s.LongPressDuration = time.Duration(*o.LongPressDurationMs) * time.Millisecond
	}
	if o.FallbackToLongPress != nil {
		s.FallbackToLongPress = *o.FallbackToLongPress
	}
	if o.ShimWeirdBrowser != nil {
		s.ShimWeirdBrowser = *o.ShimWeirdBrowser
	}
	if o.ShimConstantForce != nil {
		s.ShimConstantForce = *o.ShimConstantForce
	}
	if o.ShimFractionalOnAndroid != nil {
		s.ShimFractionalOnAndroid = *o.ShimFractionalOnAndroid
	}
	if o.ShimMinSamples != nil {
		s.ShimMinSamples = *o.ShimMinSamples
	}
	if o.HardwareForceMin != nil {
		s.HardwareForceMin = *o.HardwareForceMin
	}
	if o.HardwareForceMax != nil {
		s.HardwareForceMax = *o.HardwareForceMax
	}
	if o.TickIntervalMs != nil {
		s.TickInterval = time.Duration(*o.TickIntervalMs) * time.Millisecond
	}
	return s
}

// Merge returns o with every non-nil field of src applied over it.
func (o Overrides) Merge(src Overrides) Overrides {
	if src.LongPressDelayMs != nil {
		o.LongPressDelayMs = src.LongPressDelayMs
	}
	if src.LongPressDurationMs != nil {
		o.LongPressDurationMs = src.LongPressDurationMs
	}
	if src.FallbackToLongPress != nil {
		o.FallbackToLongPress = src.FallbackToLongPress
	}
	if src.ShimWeirdBrowser != nil {
		o.ShimWeirdBrowser = src.ShimWeirdBrowser
	}
	if src.ShimConstantForce != nil {
		o.ShimConstantForce = src.ShimConstantForce
	}
	if src.ShimFractionalOnAndroid != nil {
		o.ShimFractionalOnAndroid = src.ShimFractionalOnAndroid
	}
	if src.ShimMinSamples != nil {
		o.ShimMinSamples = src.ShimMinSamples
	}
	if src.HardwareForceMin != nil {
		o.HardwareForceMin = src.HardwareForceMin
	}
	if src.HardwareForceMax != nil {
		o.HardwareForceMax = src.HardwareForceMax
	}
	if src.TickIntervalMs != nil {
		o.TickIntervalMs = src.TickIntervalMs
	}
	return o
}

// Ptr returns a pointer to v. It keeps Overrides literals short.
func Ptr[T any](v T) *T { return &v }

var (
	defaultsMu sync.RWMutex
	defaults   = LibraryDefaults()
)

// Configure merges o into the process-wide defaults. Instances that already
// exist keep the settings they were built with.
func Configure(o Overrides) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaults = Resolve(defaults, o)
}

// Defaults returns the current process-wide defaults.
func Defaults() Settings {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	return defaults
}

// ResetDefaults restores the library defaults.
func ResetDefaults() {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaults = LibraryDefaults()
}

// ReplaceDefaults sets the process-wide defaults to o layered over the
// library defaults, discarding earlier Configure calls.
func ReplaceDefaults(o Overrides) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaults = Resolve(LibraryDefaults(), o)
}
