package forcify

// hardwareRecognizer reports force from platforms with a real force API.
// Readings are trusted as-is; no ramp is involved.
type hardwareRecognizer struct{}

func (hardwareRecognizer) handle(in *Instance, ev RawEvent) {
	now := in.eventTime(ev)
	force := in.hardwareForce(ev)

	switch ev.Type {
	case HardwareForceWillBegin:
		in.begin(KindHardware, now)
		in.g.force = force
		in.emit(PhaseBegan, now)

	case HardwareForceChanged:
		if !in.g.active || in.g.kind != KindHardware {
			if force <= 0 {
				return
			}
			in.begin(KindHardware, now)
			in.g.force = force
			in.emit(PhaseBegan, now)
			return
		}
		if force <= 0 {
			in.g.force = 0
			in.emit(PhaseEnded, now)
			in.finish(now)
			return
		}
		in.g.force = force
		in.emit(PhaseChanged, now)
	}
}

func (in *Instance) hardwareForce(ev RawEvent) float64 {
	if !ev.HasForce {
		return 0
	}
	return Normalize(ev.Force, in.settings.HardwareForceMin, in.settings.HardwareForceMax)
}
