package forcify

import "time"

// EventType names a raw native input event.
type EventType string

// Raw event types understood by the dispatcher.
const (
	TouchStart  EventType = "touchstart"
	TouchMove   EventType = "touchmove"
	TouchEnd    EventType = "touchend"
	TouchCancel EventType = "touchcancel"

	HardwareForceWillBegin EventType = "hardwareforcewillbegin"
	HardwareForceChanged   EventType = "hardwareforcechanged"

	MouseDown EventType = "mousedown"
	MouseMove EventType = "mousemove"
	MouseUp   EventType = "mouseup"
)

// RawEvent is a native input event as delivered by a feed.
type RawEvent struct {
	Type EventType `json:"type" yaml:"type"`

	// Time is when the event happened. The zero value means "now" according
	// to the instance clock.
	Time time.Time `json:"time,omitempty" yaml:"time,omitempty"`

	// TouchID identifies the contact for touch events.
	TouchID int `json:"touch_id,omitempty" yaml:"touch_id,omitempty"`

	// Force is the raw force reported by the platform, if HasForce is set.
	Force    float64 `json:"force,omitempty" yaml:"force,omitempty"`
	HasForce bool    `json:"has_force,omitempty" yaml:"has_force,omitempty"`

	// PreventDefault suppresses the platform's default action. Optional.
	PreventDefault func() `json:"-" yaml:"-"`
}

// Source is the recognizer that produced a force event.
type Source string

const (
	SourceTouch    Source = "touch"
	SourceHardware Source = "hardware"
	SourcePress    Source = "press"
)

// Phase is the position of an event within its gesture.
type Phase string

const (
	PhaseBegan   Phase = "began"
	PhaseChanged Phase = "changed"
	PhaseEnded   Phase = "ended"
)

// EventForce is the only event name that handlers are invoked for.
const EventForce = "force"

// Event is the unified force event passed to handlers.
type Event struct {
	Force      float64   `json:"force"`
	Source     Source    `json:"source"`
	Phase      Phase     `json:"phase"`
	InstanceID uint64    `json:"instance_id"`
	Time       time.Time `json:"time"`

	// Emulated is set when Force came from the long-press ramp.
	Emulated bool `json:"emulated"`

	Instance *Instance `json:"-"`
}

// Terminal reports whether e closes its gesture.
func (e Event) Terminal() bool { return e.Phase == PhaseEnded }

// Handler receives force events.
type Handler func(Event)
