package forcify

import "time"

// Recorder observes engine activity, typically for metrics.
type Recorder interface {
	ForceEmitted(src Source, phase Phase)
	EventIgnored(t EventType)
	ReadingShimmed()
	HandlerPanicked()
	GestureStarted(src Source)
	GestureEnded(src Source, held time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ForceEmitted(Source, Phase)         {}
func (nopRecorder) EventIgnored(EventType)             {}
func (nopRecorder) ReadingShimmed()                    {}
func (nopRecorder) HandlerPanicked()                   {}
func (nopRecorder) GestureStarted(Source)              {}
func (nopRecorder) GestureEnded(Source, time.Duration) {}
