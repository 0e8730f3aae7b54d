package forcify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// collector records every force event an instance emits.
type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) handle(e Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *collector) all() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func (c *collector) phase(p Phase) []Event {
	var out []Event
	for _, e := range c.all() {
		if e.Phase == p {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	inst     *Instance
	clock    *FakeClock
	registry *Registry
	events   *collector
}

func newFixture(t *testing.T, platform string, o Overrides) *fixture {
	t.Helper()
	f := &fixture{
		clock:    NewFakeClock(epoch),
		registry: NewRegistry(platform),
		events:   &collector{},
	}
	inst, err := New(NewHandle(t.Name()),
		WithClock(f.clock),
		WithRegistry(f.registry),
		WithOverrides(Overrides{LongPressDelayMs: Ptr(200), LongPressDurationMs: Ptr(100)}),
		WithOverrides(o),
	)
	require.NoError(t, err)
	t.Cleanup(func() { Release(inst) })
	inst.On(EventForce, f.events.handle)
	f.inst = inst
	return f
}

func (f *fixture) send(typ EventType) {
	f.inst.Dispatch(RawEvent{Type: typ})
}

func (f *fixture) touch(typ EventType, id int, force float64) {
	f.inst.Dispatch(RawEvent{Type: typ, TouchID: id, Force: force, HasForce: force != 0})
}

func TestPressShortHoldEndsAtZero(t *testing.T) {
	f := newFixture(t, "linux", Overrides{})

	f.send(MouseDown)
	f.clock.Advance(150 * time.Millisecond)
	f.send(MouseUp)

	ended := f.events.phase(PhaseEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, 0.0, ended[0].Force)
	assert.Equal(t, SourcePress, ended[0].Source)
	assert.True(t, ended[0].Emulated)
	assert.Empty(t, f.events.phase(PhaseChanged))
	assert.False(t, f.inst.Active())
	assert.Equal(t, 0, f.clock.Pending())
}

func TestPressLongHoldSaturates(t *testing.T) {
	f := newFixture(t, "linux", Overrides{})

	f.send(MouseDown)
	f.clock.Advance(350 * time.Millisecond)
	f.send(MouseUp)

	ended := f.events.phase(PhaseEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, 1.0, ended[0].Force)

	changed := f.events.phase(PhaseChanged)
	require.NotEmpty(t, changed)
	prev := 0.0
	for _, e := range changed {
		assert.GreaterOrEqual(t, e.Force, prev)
		prev = e.Force
	}
	assert.Equal(t, 1.0, changed[len(changed)-1].Force)

	// ticking stops once saturated
	n := len(changed)
	f.clock.Advance(time.Second)
	assert.Len(t, f.events.phase(PhaseChanged), n)
}

func TestPressMoveReportsRamp(t *testing.T) {
	f := newFixture(t, "linux", Overrides{TickIntervalMs: Ptr(1000)})

	f.send(MouseDown)
	f.clock.Advance(250 * time.Millisecond)
	f.send(MouseMove)

	changed := f.events.phase(PhaseChanged)
	require.NotEmpty(t, changed)
	assert.InDelta(t, 0.5, changed[len(changed)-1].Force, 1e-9)
}

func TestSecondGestureCancelsFirstTimer(t *testing.T) {
	f := newFixture(t, "linux", Overrides{})

	f.send(MouseDown)
	f.clock.Advance(100 * time.Millisecond)
	f.send(MouseDown)
	assert.Equal(t, 1, f.clock.Pending())

	// the first gesture would have ticked at 200ms
	f.clock.Advance(150 * time.Millisecond)
	assert.Empty(t, f.events.phase(PhaseChanged))

	f.send(MouseUp)
	ended := f.events.phase(PhaseEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, 0.0, ended[0].Force)
}

func TestHardwareForceBypassesPress(t *testing.T) {
	f := newFixture(t, "darwin", Overrides{})
	f.registry.MarkHardwareForce()

	f.send(MouseDown)
	f.clock.Advance(time.Second)
	f.send(MouseUp)

	assert.Empty(t, f.events.all())
	assert.Equal(t, 0, f.clock.Pending())
}

func TestHardwareSignalEndsActivePress(t *testing.T) {
	f := newFixture(t, "darwin", Overrides{})

	f.send(MouseDown)
	f.clock.Advance(250 * time.Millisecond)
	f.inst.Dispatch(RawEvent{Type: HardwareForceChanged, Force: 0, HasForce: true})

	ended := f.events.phase(PhaseEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, SourcePress, ended[0].Source)
	assert.InDelta(t, 0.5, ended[0].Force, 1e-9)
	assert.False(t, f.inst.Active())
	assert.Equal(t, 0, f.clock.Pending())

	f.clock.Advance(time.Second)
	f.send(MouseUp)
	assert.Len(t, f.events.phase(PhaseEnded), 1)
	assert.False(t, f.inst.Active())
}

func TestHardwareBeginReplacesActivePress(t *testing.T) {
	f := newFixture(t, "darwin", Overrides{})

	f.send(MouseDown)
	f.clock.Advance(50 * time.Millisecond)
	f.inst.Dispatch(RawEvent{Type: HardwareForceWillBegin, Force: 0.3, HasForce: true})

	events := f.events.all()
	require.Len(t, events, 3)
	assert.Equal(t, PhaseEnded, events[1].Phase)
	assert.Equal(t, SourcePress, events[1].Source)
	assert.Equal(t, 0.0, events[1].Force)
	assert.Equal(t, PhaseBegan, events[2].Phase)
	assert.Equal(t, SourceHardware, events[2].Source)
}

func TestHardwareEventMarksRegistry(t *testing.T) {
	f := newFixture(t, "darwin", Overrides{})

	f.inst.Dispatch(RawEvent{Type: HardwareForceWillBegin, Force: 0.1, HasForce: true})
	assert.True(t, f.registry.HardwareForceObserved())

	// press emulation on a second surface sharing the registry is now off
	other, err := New(NewHandle("other"), WithClock(f.clock), WithRegistry(f.registry))
	require.NoError(t, err)
	defer Release(other)
	var got collector
	other.OnForce(got.handle)
	other.Dispatch(RawEvent{Type: MouseDown})
	f.clock.Advance(time.Second)
	other.Dispatch(RawEvent{Type: MouseUp})
	assert.Empty(t, got.all())
}

func TestFallbackDisabledEmitsNothing(t *testing.T) {
	f := newFixture(t, "windows", Overrides{FallbackToLongPress: Ptr(false)})

	for _, hold := range []time.Duration{50 * time.Millisecond, 250 * time.Millisecond, 5 * time.Second} {
		f.send(MouseDown)
		f.clock.Advance(hold)
		f.send(MouseMove)
		f.send(MouseUp)
	}
	f.touch(TouchStart, 1, 0)
	f.clock.Advance(time.Second)
	f.touch(TouchEnd, 1, 0)

	assert.Empty(t, f.events.all())
}

func TestHardwareRecognizer(t *testing.T) {
	f := newFixture(t, "darwin", Overrides{})

	f.inst.Dispatch(RawEvent{Type: HardwareForceWillBegin, Force: 0.2, HasForce: true})
	f.inst.Dispatch(RawEvent{Type: HardwareForceChanged, Force: 0.6, HasForce: true})
	f.inst.Dispatch(RawEvent{Type: HardwareForceChanged, Force: 1.7, HasForce: true})
	assert.True(t, f.inst.Active())
	f.inst.Dispatch(RawEvent{Type: HardwareForceChanged, Force: 0, HasForce: true})

	events := f.events.all()
	require.Len(t, events, 4)
	assert.Equal(t, PhaseBegan, events[0].Phase)
	assert.InDelta(t, 0.2, events[0].Force, 1e-9)
	assert.InDelta(t, 0.6, events[1].Force, 1e-9)
	assert.Equal(t, 1.0, events[2].Force)
	assert.Equal(t, PhaseEnded, events[3].Phase)
	assert.Equal(t, 0.0, events[3].Force)
	for _, e := range events {
		assert.Equal(t, SourceHardware, e.Source)
		assert.False(t, e.Emulated)
	}
	assert.False(t, f.inst.Active())
	assert.Equal(t, 0, f.clock.Pending())
}

func TestHardwareRecognizerNormalizesRange(t *testing.T) {
	f := newFixture(t, "darwin", Overrides{HardwareForceMin: Ptr(1.0), HardwareForceMax: Ptr(3.0)})

	// changed without will-begin starts tracking implicitly
	f.inst.Dispatch(RawEvent{Type: HardwareForceChanged, Force: 2, HasForce: true})

	events := f.events.all()
	require.Len(t, events, 1)
	assert.Equal(t, PhaseBegan, events[0].Phase)
	assert.InDelta(t, 0.5, events[0].Force, 1e-9)
}

func TestHardwareIdleZeroIsIgnored(t *testing.T) {
	f := newFixture(t, "darwin", Overrides{})
	f.inst.Dispatch(RawEvent{Type: HardwareForceChanged, Force: 0, HasForce: true})
	assert.Empty(t, f.events.all())
	assert.True(t, f.registry.HardwareForceObserved())
}

func TestTouchEmulation(t *testing.T) {
	f := newFixture(t, "linux", Overrides{TickIntervalMs: Ptr(1000)})

	f.touch(TouchStart, 7, 0)
	f.clock.Advance(250 * time.Millisecond)
	f.touch(TouchMove, 7, 0)
	f.clock.Advance(20 * time.Millisecond)
	f.touch(TouchEnd, 7, 0)

	events := f.events.all()
	require.Len(t, events, 4) // began, tick at 200ms, move, end
	assert.Equal(t, PhaseBegan, events[0].Phase)
	assert.Equal(t, 0.0, events[0].Force)
	assert.InDelta(t, 0.5, events[2].Force, 1e-9)
	assert.Equal(t, PhaseEnded, events[3].Phase)
	assert.InDelta(t, 0.7, events[3].Force, 1e-9)
	for _, e := range events {
		assert.Equal(t, SourceTouch, e.Source)
		assert.True(t, e.Emulated)
	}
}

func TestTouchQuickTapEndsAtZero(t *testing.T) {
	f := newFixture(t, "linux", Overrides{})

	f.touch(TouchStart, 1, 0)
	f.clock.Advance(80 * time.Millisecond)
	f.touch(TouchEnd, 1, 0)

	ended := f.events.phase(PhaseEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, 0.0, ended[0].Force)
}

func TestTouchIgnoresForeignContact(t *testing.T) {
	f := newFixture(t, "linux", Overrides{})

	f.touch(TouchStart, 1, 0)
	f.touch(TouchMove, 2, 0)
	f.touch(TouchEnd, 2, 0)
	assert.True(t, f.inst.Active())
	assert.Len(t, f.events.all(), 1)
}

func TestTouchCancelEndsAtZero(t *testing.T) {
	f := newFixture(t, "linux", Overrides{})

	f.touch(TouchStart, 1, 0)
	f.clock.Advance(400 * time.Millisecond)
	f.touch(TouchCancel, 1, 0)

	ended := f.events.phase(PhaseEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, 0.0, ended[0].Force)
	assert.False(t, f.inst.Active())
}

func TestShimReplacesConstantOne(t *testing.T) {
	f := newFixture(t, "Mozilla/5.0 (Linux; Android 13; Pixel 7)", Overrides{TickIntervalMs: Ptr(1000)})

	f.touch(TouchStart, 1, 1)
	assert.True(t, f.registry.WeirdBrowserObserved())
	f.clock.Advance(250 * time.Millisecond)
	f.touch(TouchMove, 1, 1)
	f.touch(TouchEnd, 1, 1)

	events := f.events.all()
	require.NotEmpty(t, events)
	assert.Equal(t, 0.0, events[0].Force)
	for _, e := range events {
		assert.True(t, e.Emulated)
		assert.Less(t, e.Force, 1.0)
	}
	assert.InDelta(t, 0.5, events[len(events)-1].Force, 1e-9)
}

func TestShimDisabledTrustsRawForce(t *testing.T) {
	f := newFixture(t, "linux", Overrides{ShimWeirdBrowser: Ptr(false)})

	f.touch(TouchStart, 1, 1)
	f.touch(TouchEnd, 1, 0)

	events := f.events.all()
	require.Len(t, events, 2)
	assert.Equal(t, 1.0, events[0].Force)
	assert.False(t, events[0].Emulated)
	assert.Equal(t, 1.0, events[1].Force)
	assert.False(t, f.registry.WeirdBrowserObserved())
}

func TestShimSkippedOnceHardwareObserved(t *testing.T) {
	f := newFixture(t, "linux", Overrides{})
	f.registry.MarkHardwareForce()

	f.touch(TouchStart, 1, 1)
	events := f.events.all()
	require.Len(t, events, 1)
	assert.Equal(t, 1.0, events[0].Force)
	assert.False(t, events[0].Emulated)
}

func TestShimFractionalOnAndroid(t *testing.T) {
	f := newFixture(t, "Mozilla/5.0 (Linux; U; Android 4.4.2; Nexus 5)", Overrides{})

	f.touch(TouchStart, 1, 0.4)
	events := f.events.all()
	require.Len(t, events, 1)
	assert.True(t, events[0].Emulated)
	assert.Equal(t, 0.0, events[0].Force)
	assert.True(t, f.registry.WeirdBrowserObserved())
}

func TestShimFractionalNeedsSamples(t *testing.T) {
	f := newFixture(t, "android", Overrides{ShimMinSamples: Ptr(2)})

	f.touch(TouchStart, 1, 0.4)
	f.touch(TouchMove, 1, 0.4)

	events := f.events.all()
	require.Len(t, events, 2)
	assert.False(t, events[0].Emulated)
	assert.InDelta(t, 0.4, events[0].Force, 1e-9)
	assert.True(t, events[1].Emulated)
}

func TestShimConstantNeedsSamples(t *testing.T) {
	f := newFixture(t, "linux", Overrides{ShimMinSamples: Ptr(2)})

	f.touch(TouchStart, 1, 1)
	assert.False(t, f.registry.WeirdBrowserObserved())
	f.touch(TouchMove, 1, 1)
	assert.True(t, f.registry.WeirdBrowserObserved())

	events := f.events.all()
	require.Len(t, events, 2)
	assert.False(t, events[0].Emulated)
	assert.Equal(t, 1.0, events[0].Force)
	assert.True(t, events[1].Emulated)
	assert.Equal(t, 0.0, events[1].Force)
}

func TestVaryingTouchForceIsTrusted(t *testing.T) {
	f := newFixture(t, "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)", Overrides{})

	f.touch(TouchStart, 1, 0.3)
	f.touch(TouchMove, 1, 0.55)
	f.touch(TouchMove, 1, 0.8)
	f.touch(TouchEnd, 1, 0)

	assert.True(t, f.registry.TouchForceObserved())
	assert.False(t, f.registry.WeirdBrowserObserved())
	events := f.events.all()
	require.Len(t, events, 4)
	assert.InDelta(t, 0.3, events[0].Force, 1e-9)
	assert.InDelta(t, 0.55, events[1].Force, 1e-9)
	assert.InDelta(t, 0.8, events[2].Force, 1e-9)
	assert.InDelta(t, 0.8, events[3].Force, 1e-9)
	for _, e := range events {
		assert.False(t, e.Emulated)
	}
}

func TestUnknownEventIsIgnored(t *testing.T) {
	f := newFixture(t, "linux", Overrides{})

	prevented := 0
	f.inst.Dispatch(RawEvent{Type: "wheel", PreventDefault: func() { prevented++ }})
	f.inst.Dispatch(RawEvent{Type: MouseDown, PreventDefault: func() { prevented++ }})

	assert.Equal(t, 2, prevented)
	assert.Len(t, f.events.all(), 1)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		typ  EventType
		want Kind
		ok   bool
	}{
		{TouchStart, KindTouch, true},
		{TouchMove, KindTouch, true},
		{TouchEnd, KindTouch, true},
		{TouchCancel, KindTouch, true},
		{HardwareForceWillBegin, KindHardware, true},
		{HardwareForceChanged, KindHardware, true},
		{MouseDown, KindPress, true},
		{MouseMove, KindPress, true},
		{MouseUp, KindPress, true},
		{"keydown", KindNone, false},
	}
	for _, tc := range tests {
		got, ok := Classify(tc.typ)
		assert.Equal(t, tc.want, got, tc.typ)
		assert.Equal(t, tc.ok, ok, tc.typ)
	}
}

func TestDispatchUsesEventTime(t *testing.T) {
	f := newFixture(t, "linux", Overrides{})

	f.inst.Dispatch(RawEvent{Type: MouseDown, Time: epoch})
	f.inst.Dispatch(RawEvent{Type: MouseUp, Time: epoch.Add(260 * time.Millisecond)})

	ended := f.events.phase(PhaseEnded)
	require.Len(t, ended, 1)
	assert.InDelta(t, 0.6, ended[0].Force, 1e-9)
	assert.Equal(t, epoch.Add(260*time.Millisecond), ended[0].Time)
}
