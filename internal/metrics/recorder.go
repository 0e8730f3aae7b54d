package metrics

import (
	"time"

	"forcify/pkg/forcify"
)

// ForceRecorder records engine activity into a Registry. It implements
// forcify.Recorder.
type ForceRecorder struct {
	registry *Registry

	Ignored        *Counter
	Shimmed        *Counter
	HandlerPanics  *Counter
	ActiveGestures *Gauge
	HoldSeconds    *Histogram
}

var _ forcify.Recorder = (*ForceRecorder)(nil)

// NewForceRecorder registers the forcify metrics on registry.
func NewForceRecorder(registry *Registry) *ForceRecorder {
	if registry == nil {
		registry = Default()
	}

	return &ForceRecorder{
		registry: registry,
		Ignored: registry.RegisterCounter(
			"ignored_events_total",
			"Raw events dropped by the dispatcher",
			nil,
		),
		Shimmed: registry.RegisterCounter(
			"shimmed_readings_total",
			"Raw touch force readings rejected as implausible",
			nil,
		),
		HandlerPanics: registry.RegisterCounter(
			"handler_panics_total",
			"Force handlers that panicked",
			nil,
		),
		ActiveGestures: registry.RegisterGauge(
			"active_gestures",
			"Gestures currently tracked",
			nil,
		),
		HoldSeconds: registry.RegisterHistogram(
			"gesture_hold_seconds",
			"How long gestures were held",
			nil,
			HoldBuckets,
		),
	}
}

// Emitted returns the counter for force events of one source and phase.
func (r *ForceRecorder) Emitted(src forcify.Source, phase forcify.Phase) *Counter {
	return r.registry.RegisterCounter(
		"force_events_total",
		"Force events emitted to handlers",
		Labels{"source": string(src), "phase": string(phase)},
	)
}

func (r *ForceRecorder) ForceEmitted(src forcify.Source, phase forcify.Phase) {
	r.Emitted(src, phase).Inc()
}

func (r *ForceRecorder) EventIgnored(forcify.EventType) { r.Ignored.Inc() }
func (r *ForceRecorder) ReadingShimmed()                { r.Shimmed.Inc() }
func (r *ForceRecorder) HandlerPanicked()               { r.HandlerPanics.Inc() }
func (r *ForceRecorder) GestureStarted(forcify.Source)  { r.ActiveGestures.Inc() }

func (r *ForceRecorder) GestureEnded(_ forcify.Source, held time.Duration) {
	r.ActiveGestures.Dec()
	r.HoldSeconds.ObserveDuration(held)
}
