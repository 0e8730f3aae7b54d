package forcify

import "log/slog"

// Kind is the recognizer a raw event is routed to.
type Kind int

const (
	KindNone Kind = iota
	KindTouch
	KindHardware
	KindPress
)

// Source returns the payload source reported by recognizers of this kind.
func (k Kind) Source() Source {
	switch k {
	case KindTouch:
		return SourceTouch
	case KindHardware:
		return SourceHardware
	case KindPress:
		return SourcePress
	default:
		return ""
	}
}

func (k Kind) String() string {
	if s := k.Source(); s != "" {
		return string(s)
	}
	return "none"
}

// recognizer is one input dialect's state machine. handle runs with the
// instance lock held.
type recognizer interface {
	handle(in *Instance, ev RawEvent)
}

var recognizers = [...]recognizer{
	KindTouch:    touchRecognizer{},
	KindHardware: hardwareRecognizer{},
	KindPress:    pressRecognizer{},
}

// Classify maps a raw event type to its recognizer kind.
func Classify(t EventType) (Kind, bool) {
	switch t {
	case TouchStart, TouchMove, TouchEnd, TouchCancel:
		return KindTouch, true
	case HardwareForceWillBegin, HardwareForceChanged:
		return KindHardware, true
	case MouseDown, MouseMove, MouseUp:
		return KindPress, true
	default:
		return KindNone, false
	}
}

// Dispatch feeds one raw event to inst.
func Dispatch(inst *Instance, ev RawEvent) {
	inst.Dispatch(ev)
}

// Dispatch feeds one raw event to the instance. Unknown event types are
// ignored. Mouse events are dropped once hardware force has been seen on
// this platform, so a force-capable surface never also emulates.
func (in *Instance) Dispatch(ev RawEvent) {
	if ev.PreventDefault != nil {
		ev.PreventDefault()
	}

	kind, ok := Classify(ev.Type)
	if !ok {
		in.ignore(ev, "unrecognized event type")
		return
	}

	switch kind {
	case KindHardware:
		in.registry.MarkHardwareForce()
	case KindPress:
		if in.registry.HardwareForceObserved() {
			in.ignore(ev, "hardware force present")
			return
		}
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if in.released {
		return
	}
	if kind == KindHardware && in.pressing() {
		// the matching mouseup will be dropped from now on
		in.endPress(in.eventTime(ev))
	}
	recognizers[kind].handle(in, ev)
}

func (in *Instance) ignore(ev RawEvent, reason string) {
	in.recorder.EventIgnored(ev.Type)
	in.logger.Debug("event ignored",
		slog.String("type", string(ev.Type)),
		slog.String("reason", reason),
	)
}
