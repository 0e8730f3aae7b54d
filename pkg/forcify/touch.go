package forcify

import "log/slog"

type touchRecognizer struct{}

func (touchRecognizer) handle(in *Instance, ev RawEvent) {
	now := in.eventTime(ev)

	switch ev.Type {
	case TouchStart:
		in.begin(KindTouch, now)
		in.g.touchID = ev.TouchID

		if ev.HasForce && ev.Force > 0 && in.trustRawForce(ev.Force) {
			in.g.force = Clamp(ev.Force)
			in.emit(PhaseBegan, now)
			return
		}
		if !in.settings.FallbackToLongPress {
			// nothing to report for this contact
			in.finish(now)
			return
		}
		in.g.emulated = true
		in.g.force = in.rampAt(now)
		in.startTicker(now)
		in.emit(PhaseBegan, now)

	case TouchMove:
		if !in.ownsTouch(ev) {
			return
		}
		if !in.g.emulated && ev.HasForce && ev.Force > 0 {
			if in.trustRawForce(ev.Force) {
				in.g.force = Clamp(ev.Force)
				in.emit(PhaseChanged, now)
				return
			}
			if !in.settings.FallbackToLongPress {
				in.g.force = 0
				in.emit(PhaseChanged, now)
				return
			}
			in.g.emulated = true
			in.startTicker(now)
		}
		if in.g.emulated {
			in.g.force = in.rampAt(now)
		}
		in.emit(PhaseChanged, now)

	case TouchEnd, TouchCancel:
		if !in.ownsTouch(ev) {
			return
		}
		switch {
		case ev.Type == TouchCancel:
			in.g.force = 0
		case in.g.emulated:
			in.g.force = in.rampAt(now)
		}
		in.stopTimer()
		in.emit(PhaseEnded, now)
		in.finish(now)
	}
}

// ownsTouch reports whether ev belongs to the active touch contact.
func (in *Instance) ownsTouch(ev RawEvent) bool {
	return in.g.active && in.g.kind == KindTouch && in.g.touchID == ev.TouchID
}

// trustRawForce runs the weird-browser shim over one raw touch reading and
// reports whether the reading can be used as-is. A rejected reading switches
// the gesture to emulation for the rest of its life.
func (in *Instance) trustRawForce(raw float64) bool {
	g := &in.g
	s := in.settings

	varied := g.samples > 0 && raw != g.lastRaw
	if varied {
		g.sameRaw = 1
	} else {
		g.sameRaw++
	}
	g.samples++
	g.lastRaw = raw

	switch {
	case !s.ShimWeirdBrowser:
		return true
	case g.shimmed:
		return false
	case in.registry.RealForceObserved():
		return true
	case varied:
		in.registry.MarkTouchForce()
		return true
	case raw == s.ShimConstantForce && g.sameRaw >= s.ShimMinSamples:
		in.shim(raw, "constant force")
		return false
	case s.ShimFractionalOnAndroid && in.registry.OSFamily() == OSAndroid &&
		raw > 0 && raw < 1 && g.sameRaw >= s.ShimMinSamples:
		in.shim(raw, "constant fractional force")
		return false
	default:
		return true
	}
}

func (in *Instance) shim(raw float64, reason string) {
	in.g.shimmed = true
	in.registry.MarkWeirdBrowser()
	in.recorder.ReadingShimmed()
	in.logger.Debug("raw force rejected",
		slog.Float64("force", raw),
		slog.String("reason", reason),
	)
}
