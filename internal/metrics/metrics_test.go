package metrics

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forcify/pkg/forcify"
)

func TestLabelsString(t *testing.T) {
	assert.Equal(t, "", Labels{}.String())
	assert.Equal(t, `{a="1",b="2"}`, Labels{"b": "2", "a": "1"}.String())
}

func TestRegistryReturnsExistingMetric(t *testing.T) {
	r := NewRegistry("test")
	a := r.RegisterCounter("hits_total", "hits", Labels{"k": "v"})
	b := r.RegisterCounter("hits_total", "hits", Labels{"k": "v"})
	c := r.RegisterCounter("hits_total", "hits", Labels{"k": "w"})

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestHistogramBuckets(t *testing.T) {
	h := NewHistogram("hold", "hold", nil, []float64{1, 2})
	h.Observe(0.5)
	h.Observe(1)
	h.Observe(1.5)
	h.Observe(10)

	assert.Equal(t, uint64(4), h.Count())
	assert.InDelta(t, 13.0, h.Sum(), 1e-9)

	var buf bytes.Buffer
	r := NewRegistry("")
	r.histograms["hold"] = h
	require.NoError(t, r.WritePrometheus(&buf))
	out := buf.String()
	assert.Contains(t, out, `hold_bucket{le="1"} 2`)
	assert.Contains(t, out, `hold_bucket{le="2"} 3`)
	assert.Contains(t, out, `hold_bucket{le="+Inf"} 4`)
}

func TestForceRecorderWithEngine(t *testing.T) {
	reg := NewRegistry("forcify")
	rec := NewForceRecorder(reg)
	clock := forcify.NewFakeClock(time.Unix(0, 0))

	inst, err := forcify.New(forcify.NewHandle("metrics"),
		forcify.WithRegistry(forcify.NewRegistry("linux")),
		forcify.WithClock(clock),
		forcify.WithRecorder(rec),
		forcify.WithOverrides(forcify.Overrides{TickIntervalMs: forcify.Ptr(1000)}),
	)
	require.NoError(t, err)
	defer forcify.Release(inst)
	inst.OnForce(func(forcify.Event) { panic("handler bug") })

	inst.Dispatch(forcify.RawEvent{Type: forcify.MouseDown})
	assert.Equal(t, int64(1), rec.ActiveGestures.Value())
	clock.Advance(300 * time.Millisecond)
	inst.Dispatch(forcify.RawEvent{Type: forcify.MouseUp})
	inst.Dispatch(forcify.RawEvent{Type: "contextmenu"})

	assert.Equal(t, int64(0), rec.ActiveGestures.Value())
	assert.Equal(t, uint64(1), rec.HoldSeconds.Count())
	assert.Equal(t, uint64(1), rec.Ignored.Value())
	assert.Equal(t, uint64(1), rec.Emitted(forcify.SourcePress, forcify.PhaseBegan).Value())
	assert.Equal(t, uint64(1), rec.Emitted(forcify.SourcePress, forcify.PhaseEnded).Value())
	assert.Equal(t, uint64(3), rec.HandlerPanics.Value())
}

func TestHTTPHandler(t *testing.T) {
	reg := NewRegistry("forcify")
	rec := NewForceRecorder(reg)
	rec.ReadingShimmed()

	srv := httptest.NewServer(reg.HTTPHandler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))
	assert.Contains(t, buf.String(), "forcify_shimmed_readings_total 1")
	assert.Contains(t, buf.String(), "# TYPE forcify_active_gestures gauge")
}
