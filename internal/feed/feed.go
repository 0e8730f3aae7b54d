// Package feed produces raw input events for forcify instances from
// scripted gestures, gio pointer events and Linux input devices.
package feed

import (
	"errors"

	"forcify/pkg/forcify"
)

// ErrUnsupported is returned when a feed is not available on this platform.
var ErrUnsupported = errors.New("feed: not supported on this platform")

// Sink receives raw events. *forcify.Instance satisfies it.
type Sink interface {
	Dispatch(ev forcify.RawEvent)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev forcify.RawEvent)

// Dispatch calls f(ev).
func (f SinkFunc) Dispatch(ev forcify.RawEvent) { f(ev) }
