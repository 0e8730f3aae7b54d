package forcify

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Instance is the recognizer bound to one surface.
//
// Dispatch, state transitions and handler invocation for one instance are
// serialized. Handlers may call On but must not dispatch into the same
// instance synchronously.
type Instance struct {
	id       uint64
	surface  Surface
	settings Settings
	registry *Registry
	clock    Clock
	logger   *slog.Logger
	recorder Recorder

	hmu      sync.RWMutex
	handlers map[string][]Handler

	mu       sync.Mutex
	g        gesture
	timer    Timer
	gen      uint64
	released bool
}

// gesture is the single tracked contact of an instance.
type gesture struct {
	active   bool
	kind     Kind
	touchID  int
	start    time.Time
	force    float64
	emulated bool

	// raw force history for the shim
	samples int
	lastRaw float64
	sameRaw int
	shimmed bool
}

// ID returns the instance id.
func (in *Instance) ID() uint64 { return in.id }

// Surface returns the surface the instance is bound to.
func (in *Instance) Surface() Surface { return in.surface }

// Settings returns the resolved configuration.
func (in *Instance) Settings() Settings { return in.settings }

// Registry returns the detection registry the instance consults.
func (in *Instance) Registry() *Registry { return in.registry }

// Active reports whether a gesture is in progress.
func (in *Instance) Active() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.g.active
}

// On registers h for event. Handlers run in registration order. Only
// "force" events are emitted; other names are accepted and never fire.
func (in *Instance) On(event string, h Handler) *Instance {
	if h == nil {
		return in
	}
	in.hmu.Lock()
	in.handlers[event] = append(in.handlers[event], h)
	in.hmu.Unlock()
	return in
}

// OnForce is shorthand for On(EventForce, h).
func (in *Instance) OnForce(h Handler) *Instance {
	return in.On(EventForce, h)
}

// emit invokes the force handlers with the current gesture state.
// Caller holds in.mu.
func (in *Instance) emit(phase Phase, now time.Time) {
	e := Event{
		Force:      Clamp(in.g.force),
		Source:     in.g.kind.Source(),
		Phase:      phase,
		InstanceID: in.id,
		Time:       now,
		Emulated:   in.g.emulated,
		Instance:   in,
	}
	in.recorder.ForceEmitted(e.Source, phase)

	in.hmu.RLock()
	handlers := append([]Handler(nil), in.handlers[EventForce]...)
	in.hmu.RUnlock()

	for i, h := range handlers {
		in.invoke(i, h, e)
	}
}

func (in *Instance) invoke(i int, h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			in.recorder.HandlerPanicked()
			in.logger.Error("force handler panicked",
				slog.Int("handler", i),
				slog.String("source", string(e.Source)),
				slog.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	h(e)
}

// begin clears any previous gesture and starts tracking a new one.
// Caller holds in.mu.
func (in *Instance) begin(kind Kind, now time.Time) {
	in.finish(now)
	in.g = gesture{active: true, kind: kind, start: now}
	in.recorder.GestureStarted(kind.Source())
}

// finish records the end of the active gesture and resets to idle.
// Caller holds in.mu.
func (in *Instance) finish(now time.Time) {
	if in.g.active {
		in.recorder.GestureEnded(in.g.kind.Source(), now.Sub(in.g.start))
	}
	in.clearGesture()
}

// clearGesture cancels the ticker and forgets the active gesture.
// Caller holds in.mu.
func (in *Instance) clearGesture() {
	in.stopTimer()
	in.g = gesture{}
}

func (in *Instance) stopTimer() {
	in.gen++
	if in.timer != nil {
		in.timer.Stop()
		in.timer = nil
	}
}

// rampAt returns the emulated force of the active gesture at now.
func (in *Instance) rampAt(now time.Time) float64 {
	return Ramp(now.Sub(in.g.start), in.settings.LongPressDelay, in.settings.LongPressDuration)
}

// startTicker schedules progressive ramp events for the active gesture.
// The first tick lands when the delay elapses. Caller holds in.mu.
func (in *Instance) startTicker(now time.Time) {
	in.stopTimer()
	wait := in.g.start.Add(in.settings.LongPressDelay).Sub(now)
	if wait < 0 {
		wait = 0
	}
	in.schedule(wait)
}

func (in *Instance) schedule(d time.Duration) {
	gen := in.gen
	in.timer = in.clock.AfterFunc(d, func() { in.tick(gen) })
}

func (in *Instance) tick(gen uint64) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if gen != in.gen || !in.g.active || !in.g.emulated {
		return
	}
	in.timer = nil
	now := in.clock.Now()
	in.g.force = in.rampAt(now)
	in.emit(PhaseChanged, now)

	// a handler may not re-enter, so gen is still ours here
	if in.g.force < 1 {
		in.schedule(in.settings.TickInterval)
	}
}

// eventTime returns the event timestamp, defaulting to the clock.
func (in *Instance) eventTime(ev RawEvent) time.Time {
	if ev.Time.IsZero() {
		return in.clock.Now()
	}
	return ev.Time
}
