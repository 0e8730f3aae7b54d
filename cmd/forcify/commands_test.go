package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forcify/pkg/forcify"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestEventPrinterText(t *testing.T) {
	var buf bytes.Buffer
	p := newEventPrinter(&buf, epoch, false)

	p.print(forcify.Event{
		Force:    0.5,
		Source:   forcify.SourcePress,
		Phase:    forcify.PhaseChanged,
		Time:     epoch.Add(250 * time.Millisecond),
		Emulated: true,
	})

	line := buf.String()
	assert.Contains(t, line, "250.0ms")
	assert.Contains(t, line, "press")
	assert.Contains(t, line, "changed")
	assert.Contains(t, line, "0.500")
	assert.Contains(t, line, "(emulated)")
}

func TestEventPrinterJSON(t *testing.T) {
	var buf bytes.Buffer
	p := newEventPrinter(&buf, epoch, true)

	p.print(forcify.Event{Force: 1, Source: forcify.SourceTouch, Phase: forcify.PhaseEnded, InstanceID: 4})

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 1.0, got["force"])
	assert.Equal(t, "touch", got["source"])
	assert.Equal(t, "ended", got["phase"])
	assert.Equal(t, 4.0, got["instance_id"])
}

func TestInstanceSinkRebuildsBetweenGestures(t *testing.T) {
	clock := forcify.NewFakeClock(epoch)
	builds := 0
	sink, err := newInstanceSink(func() (*forcify.Instance, error) {
		builds++
		return forcify.New(forcify.NewHandle("sink"),
			forcify.WithClock(clock),
			forcify.WithRegistry(forcify.NewRegistry("linux")),
		)
	})
	require.NoError(t, err)
	defer sink.Close()

	first := sink.Instance()
	sink.Dispatch(forcify.RawEvent{Type: forcify.MouseDown})
	sink.MarkStale()

	// mid-gesture: no swap
	sink.Dispatch(forcify.RawEvent{Type: forcify.MouseMove})
	assert.Same(t, first, sink.Instance())

	sink.Dispatch(forcify.RawEvent{Type: forcify.MouseUp})
	assert.Same(t, first, sink.Instance())

	sink.Dispatch(forcify.RawEvent{Type: forcify.MouseDown})
	assert.NotSame(t, first, sink.Instance())
	assert.Equal(t, 2, builds)

	_, ok := forcify.Lookup(first.ID())
	assert.False(t, ok, "replaced instance should be released")
}

func TestPrintDetection(t *testing.T) {
	var buf bytes.Buffer
	printDetection(&buf, forcify.Detection{OSFamily: forcify.OSAndroid, TouchForceObserved: true})
	assert.True(t, strings.HasPrefix(buf.String(), "detection: os=android"))
	assert.Contains(t, buf.String(), "touch=true")
}
