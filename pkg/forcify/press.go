package forcify

import "time"

// pressRecognizer emulates force from how long a mouse button is held.
type pressRecognizer struct{}

func (pressRecognizer) handle(in *Instance, ev RawEvent) {
	now := in.eventTime(ev)

	switch ev.Type {
	case MouseDown:
		if !in.settings.FallbackToLongPress {
			return
		}
		in.begin(KindPress, now)
		in.g.emulated = true
		in.g.force = in.rampAt(now)
		in.startTicker(now)
		in.emit(PhaseBegan, now)

	case MouseMove:
		if !in.pressing() {
			return
		}
		in.g.force = in.rampAt(now)
		in.emit(PhaseChanged, now)

	case MouseUp:
		if !in.pressing() {
			return
		}
		in.endPress(now)
	}
}

// endPress emits the terminal event of the active press at its ramp value.
// Caller holds in.mu.
func (in *Instance) endPress(now time.Time) {
	in.g.force = in.rampAt(now)
	in.stopTimer()
	in.emit(PhaseEnded, now)
	in.finish(now)
}

func (in *Instance) pressing() bool {
	return in.g.active && in.g.kind == KindPress
}
