package forcify

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsMissingSurface(t *testing.T) {
	_, err := New(nil)
	assert.True(t, errors.Is(err, ErrInvalidSurface))

	var h *Handle
	_, err = New(h)
	assert.ErrorIs(t, err, ErrInvalidSurface)

	assert.Panics(t, func() { MustNew(nil) })
}

func TestNewAssignsUniqueIDs(t *testing.T) {
	seen := make(map[uint64]bool)
	var last uint64
	for i := 0; i < 50; i++ {
		h := NewHandle("surface")
		inst, err := New(h, WithRegistry(NewRegistry("linux")))
		require.NoError(t, err)

		assert.False(t, seen[inst.ID()], "id %d reused", inst.ID())
		assert.Greater(t, inst.ID(), last)
		assert.Equal(t, inst.ID(), h.ForceID())
		seen[inst.ID()] = true
		last = inst.ID()

		Release(inst)
	}
}

func TestLookupAndForSurface(t *testing.T) {
	h := NewHandle("pad")
	inst, err := New(h, WithRegistry(NewRegistry("linux")))
	require.NoError(t, err)

	got, ok := Lookup(inst.ID())
	require.True(t, ok)
	assert.Same(t, inst, got)

	got, ok = ForSurface(h)
	require.True(t, ok)
	assert.Same(t, inst, got)
	assert.Same(t, h, got.Surface())

	_, ok = ForSurface(NewHandle("unbound"))
	assert.False(t, ok)

	Release(inst)
	_, ok = Lookup(inst.ID())
	assert.False(t, ok)
}

func TestHandlersRunInRegistrationOrder(t *testing.T) {
	f := newFixture(t, "linux", Overrides{})

	var order []string
	ret := f.inst.
		On(EventForce, func(Event) { order = append(order, "first") }).
		On(EventForce, func(Event) { order = append(order, "second") })
	assert.Same(t, f.inst, ret)

	f.inst.emitForTest(0.3)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestEmitWithoutHandlers(t *testing.T) {
	inst, err := New(NewHandle("quiet"), WithRegistry(NewRegistry("linux")), WithClock(NewFakeClock(epoch)))
	require.NoError(t, err)
	defer Release(inst)

	assert.NotPanics(t, func() {
		inst.Dispatch(RawEvent{Type: MouseDown})
		inst.Dispatch(RawEvent{Type: MouseUp})
	})
}

func TestUnknownEventNameNeverFires(t *testing.T) {
	f := newFixture(t, "linux", Overrides{})

	fired := false
	f.inst.On("deepclick", func(Event) { fired = true })
	f.send(MouseDown)
	f.clock.Advance(time.Second)
	f.send(MouseUp)

	assert.False(t, fired)
	assert.NotEmpty(t, f.events.all())
}

func TestHandlerPanicIsIsolated(t *testing.T) {
	var logs bytes.Buffer
	rec := &countingRecorder{}
	clock := NewFakeClock(epoch)
	inst, err := New(NewHandle("faulty"),
		WithRegistry(NewRegistry("linux")),
		WithClock(clock),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		WithRecorder(rec),
	)
	require.NoError(t, err)
	defer Release(inst)

	var after collector
	inst.OnForce(func(Event) { panic("boom") })
	inst.OnForce(after.handle)

	inst.Dispatch(RawEvent{Type: MouseDown})
	clock.Advance(500 * time.Millisecond)
	inst.Dispatch(RawEvent{Type: MouseUp})

	// every emission reached the second handler
	all := after.all()
	require.NotEmpty(t, all)
	assert.True(t, all[len(all)-1].Terminal())
	assert.Equal(t, len(all), rec.panics)

	// no stuck gesture or dangling timer
	assert.False(t, inst.Active())
	assert.Equal(t, 0, clock.Pending())
	assert.True(t, strings.Contains(logs.String(), "force handler panicked"))
}

func TestReleaseStopsTicker(t *testing.T) {
	f := newFixture(t, "linux", Overrides{})

	f.send(MouseDown)
	require.Equal(t, 1, f.clock.Pending())
	Release(f.inst)
	assert.Equal(t, 0, f.clock.Pending())

	n := len(f.events.all())
	f.clock.Advance(time.Second)
	f.send(MouseUp)
	assert.Len(t, f.events.all(), n)
}

func TestDelegate(t *testing.T) {
	h := NewHandle("delegated")
	clock := NewFakeClock(epoch)
	inst, err := New(h, WithRegistry(NewRegistry("linux")), WithClock(clock))
	require.NoError(t, err)

	var got collector
	inst.OnForce(got.handle)

	assert.True(t, Delegate(h, RawEvent{Type: MouseDown}))
	clock.Advance(400 * time.Millisecond)
	assert.True(t, Delegate(h, RawEvent{Type: MouseUp}))
	require.NotEmpty(t, got.all())

	Release(inst)
	assert.False(t, Delegate(h, RawEvent{Type: MouseDown}))
	assert.False(t, Delegate(NewHandle("never bound"), RawEvent{Type: MouseDown}))
}

func TestRecorderSeesGestureLifecycle(t *testing.T) {
	rec := &countingRecorder{}
	clock := NewFakeClock(epoch)
	inst, err := New(NewHandle("metered"),
		WithRegistry(NewRegistry("linux")),
		WithClock(clock),
		WithRecorder(rec),
	)
	require.NoError(t, err)
	defer Release(inst)

	inst.Dispatch(RawEvent{Type: MouseDown})
	clock.Advance(250 * time.Millisecond)
	inst.Dispatch(RawEvent{Type: MouseUp})
	inst.Dispatch(RawEvent{Type: "scroll"})

	assert.Equal(t, 1, rec.started)
	assert.Equal(t, 1, rec.ended)
	assert.Equal(t, 250*time.Millisecond, rec.held)
	assert.Equal(t, 1, rec.ignored)
	assert.Greater(t, rec.emitted, 1)
}

func TestRecorderBalancesReplacedGesture(t *testing.T) {
	rec := &countingRecorder{}
	clock := NewFakeClock(epoch)
	inst, err := New(NewHandle("replaced"),
		WithRegistry(NewRegistry("linux")),
		WithClock(clock),
		WithRecorder(rec),
	)
	require.NoError(t, err)
	defer Release(inst)

	inst.Dispatch(RawEvent{Type: TouchStart, TouchID: 1})
	clock.Advance(50 * time.Millisecond)
	inst.Dispatch(RawEvent{Type: TouchStart, TouchID: 2})
	inst.Dispatch(RawEvent{Type: TouchEnd, TouchID: 2})

	assert.Equal(t, 2, rec.started)
	assert.Equal(t, 2, rec.ended)
}

type countingRecorder struct {
	emitted, ignored, shimmed, panics, started, ended int
	held                                              time.Duration
}

func (r *countingRecorder) ForceEmitted(Source, Phase) { r.emitted++ }
func (r *countingRecorder) EventIgnored(EventType)     { r.ignored++ }
func (r *countingRecorder) ReadingShimmed()            { r.shimmed++ }
func (r *countingRecorder) HandlerPanicked()           { r.panics++ }
func (r *countingRecorder) GestureStarted(Source)      { r.started++ }
func (r *countingRecorder) GestureEnded(_ Source, d time.Duration) {
	r.ended++
	r.held = d
}

// emitForTest pushes a single changed event through the handler chain.
func (in *Instance) emitForTest(force float64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.g.kind = KindPress
	in.g.force = force
	in.emit(PhaseChanged, in.clock.Now())
}
