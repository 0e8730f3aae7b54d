// Package forcify turns heterogeneous touch, mouse and hardware force input
// into a single normalized "force" signal.
//
// Each bound surface gets an Instance. Raw events are fed to
// Instance.Dispatch, which routes them to one of three recognizers:
//
//   - touch: touchstart/touchmove/touchend, trusting real touch force when
//     it looks genuine and emulating it from a long-press ramp otherwise
//   - hardware: hardwareforcewillbegin/hardwareforcechanged, reporting the
//     platform's own force readings
//   - press: mousedown/mouseup, emulating force from a long-press ramp on
//     platforms without any pressure sensing
//
// Handlers registered with On("force", ...) receive an Event whose Force is
// always within [0,1].
package forcify

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
)

// ErrInvalidSurface is returned by New when no usable surface is given.
var ErrInvalidSurface = errors.New("forcify: invalid surface")

// Surface is the input-receiving target an instance is bound to. The
// instance stores its id on the surface so feeds can find it again.
type Surface interface {
	BindForceID(id uint64)
}

// IdentifiedSurface is a Surface that reports the id bound to it.
type IdentifiedSurface interface {
	Surface
	ForceID() uint64
}

// Handle is a minimal IdentifiedSurface for callers without their own
// surface type.
type Handle struct {
	Name string
	id   atomic.Uint64
}

// NewHandle creates a named Handle.
func NewHandle(name string) *Handle { return &Handle{Name: name} }

func (h *Handle) BindForceID(id uint64) { h.id.Store(id) }
func (h *Handle) ForceID() uint64       { return h.id.Load() }

// Option configures an instance at construction.
type Option func(*options)

type options struct {
	overrides Overrides
	registry  *Registry
	clock     Clock
	logger    *slog.Logger
	recorder  Recorder
}

// WithOverrides layers o over the process-wide defaults for this instance.
// Repeated calls merge.
func WithOverrides(o Overrides) Option {
	return func(opts *options) { opts.overrides = opts.overrides.Merge(o) }
}

// WithRegistry replaces the process-wide detection registry.
func WithRegistry(r *Registry) Option {
	return func(opts *options) { opts.registry = r }
}

// WithClock replaces the real clock.
func WithClock(c Clock) Option {
	return func(opts *options) { opts.clock = c }
}

// WithLogger sets the logger used for handler failures and diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(opts *options) { opts.logger = l }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(opts *options) { opts.recorder = r }
}

var (
	lastID atomic.Uint64

	cacheMu sync.RWMutex
	cache   = make(map[uint64]*Instance)
)

// New binds a new instance to surface.
//
// The instance id is assigned before the instance is published, and the
// resolved settings are fixed for the instance's lifetime.
func New(surface Surface, opts ...Option) (*Instance, error) {
	if isNilSurface(surface) {
		return nil, ErrInvalidSurface
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = Global()
	}
	if o.clock == nil {
		o.clock = RealClock()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.recorder == nil {
		o.recorder = nopRecorder{}
	}

	settings := Resolve(Defaults(), o.overrides)
	if settings.TickInterval <= 0 {
		settings.TickInterval = LibraryDefaults().TickInterval
	}

	id := lastID.Add(1)
	inst := &Instance{
		id:       id,
		surface:  surface,
		settings: settings,
		registry: o.registry,
		clock:    o.clock,
		recorder: o.recorder,
		handlers: make(map[string][]Handler),
	}
	inst.logger = o.logger.With(slog.Uint64("instance", id))

	surface.BindForceID(id)

	cacheMu.Lock()
	cache[id] = inst
	cacheMu.Unlock()

	return inst, nil
}

// MustNew is New that panics on error.
func MustNew(surface Surface, opts ...Option) *Instance {
	inst, err := New(surface, opts...)
	if err != nil {
		panic(fmt.Sprintf("forcify.MustNew: %v", err))
	}
	return inst
}

func isNilSurface(s Surface) bool {
	if s == nil {
		return true
	}
	v := reflect.ValueOf(s)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// Lookup returns the live instance with the given id.
func Lookup(id uint64) (*Instance, bool) {
	cacheMu.RLock()
	defer cacheMu.RUnlock()
	inst, ok := cache[id]
	return inst, ok
}

// ForSurface returns the live instance bound to s.
func ForSurface(s IdentifiedSurface) (*Instance, bool) {
	if isNilSurface(s) {
		return nil, false
	}
	id := s.ForceID()
	if id == 0 {
		return nil, false
	}
	return Lookup(id)
}

// Delegate dispatches ev to the instance bound to s. It reports false when
// s has no live instance.
func Delegate(s IdentifiedSurface, ev RawEvent) bool {
	inst, ok := ForSurface(s)
	if !ok {
		return false
	}
	inst.Dispatch(ev)
	return true
}

// Release stops inst's ramp timer and removes it from the lookup table.
// Its id is never handed out again.
func Release(inst *Instance) {
	if inst == nil {
		return
	}
	inst.mu.Lock()
	inst.released = true
	inst.clearGesture()
	inst.mu.Unlock()

	cacheMu.Lock()
	delete(cache, inst.id)
	cacheMu.Unlock()
}
