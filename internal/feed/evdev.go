package feed

import (
	"encoding/binary"
	"log/slog"
	"time"

	"forcify/pkg/forcify"
)

// Linux input event types and codes from linux/input-event-codes.h.
const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02
	evAbs = 0x03

	synReport  = 0
	synDropped = 3

	btnLeft  = 0x110
	btnTouch = 0x14a

	relX = 0x00
	relY = 0x01

	absX              = 0x00
	absY              = 0x01
	absPressure       = 0x18
	absMTPositionX    = 0x35
	absMTPositionY    = 0x36
	absMTTrackingID   = 0x39
	absMTPressure     = 0x3a
	trackingIDRelease = -1
)

// InputEvent is a decoded struct input_event.
type InputEvent struct {
	Time  time.Time
	Type  uint16
	Code  uint16
	Value int32
}

// AbsRange is the reported range of an absolute axis.
type AbsRange struct {
	Min, Max int32
}

// Valid reports whether the axis has a usable range.
func (r AbsRange) Valid() bool { return r.Max > r.Min }

// normalize maps v into [0,1] over the range.
func (r AbsRange) normalize(v int32) float64 {
	return forcify.Normalize(float64(v), float64(r.Min), float64(r.Max))
}

// evdevDecoder turns input_event frames into raw forcify events. State is
// accumulated until SYN_REPORT, which flushes one frame.
type evdevDecoder struct {
	pressure AbsRange

	touching bool
	touchID  int
	force    float64
	hasForce bool

	buttonDown bool

	// pending frame
	touchChange int // +1 down, -1 up
	touchMoved  bool
	forceMoved  bool
	buttonEdge  int
	relMoved    bool
	dropped     bool
}

func newEvdevDecoder(pressure AbsRange) *evdevDecoder {
	return &evdevDecoder{pressure: pressure}
}

// feed consumes one input event and returns any raw events completed by it.
func (d *evdevDecoder) feed(ie InputEvent) []forcify.RawEvent {
	switch ie.Type {
	case evKey:
		switch ie.Code {
		case btnTouch:
			if ie.Value != 0 {
				d.touchChange = 1
			} else {
				d.touchChange = -1
			}
		case btnLeft:
			if ie.Value != 0 {
				d.buttonEdge = 1
			} else {
				d.buttonEdge = -1
			}
		}

	case evAbs:
		switch ie.Code {
		case absPressure, absMTPressure:
			if d.pressure.Valid() {
				d.force = d.pressure.normalize(ie.Value)
				d.hasForce = true
				d.forceMoved = true
			}
		case absX, absY, absMTPositionX, absMTPositionY:
			d.touchMoved = true
		case absMTTrackingID:
			// only the first contact is tracked
			if ie.Value != trackingIDRelease && !d.touching {
				d.touchID = int(ie.Value)
			}
		}

	case evRel:
		if ie.Code == relX || ie.Code == relY {
			d.relMoved = true
		}

	case evSyn:
		switch ie.Code {
		case synDropped:
			d.dropped = true
		case synReport:
			return d.flush(ie.Time)
		}
	}
	return nil
}

func (d *evdevDecoder) flush(t time.Time) []forcify.RawEvent {
	var out []forcify.RawEvent
	defer d.resetFrame()

	// The kernel discarded events; whatever is in progress is unreliable.
	if d.dropped {
		if d.touching {
			out = append(out, forcify.RawEvent{Type: forcify.TouchCancel, Time: t, TouchID: d.touchID})
			d.touching = false
		}
		if d.buttonDown {
			out = append(out, forcify.RawEvent{Type: forcify.MouseUp, Time: t})
			d.buttonDown = false
		}
		d.hasForce = false
		return out
	}

	switch {
	case d.touchChange > 0 && !d.touching:
		d.touching = true
		out = append(out, d.touchEvent(forcify.TouchStart, t))
	case d.touchChange < 0 && d.touching:
		d.touching = false
		out = append(out, d.touchEvent(forcify.TouchEnd, t))
		d.hasForce = false
	case d.touching && (d.touchMoved || d.forceMoved):
		out = append(out, d.touchEvent(forcify.TouchMove, t))
	}

	switch {
	case d.buttonEdge > 0 && !d.buttonDown:
		d.buttonDown = true
		out = append(out, forcify.RawEvent{Type: forcify.MouseDown, Time: t})
	case d.buttonEdge < 0 && d.buttonDown:
		d.buttonDown = false
		out = append(out, forcify.RawEvent{Type: forcify.MouseUp, Time: t})
	case d.buttonDown && d.relMoved:
		out = append(out, forcify.RawEvent{Type: forcify.MouseMove, Time: t})
	}
	return out
}

func (d *evdevDecoder) touchEvent(typ forcify.EventType, t time.Time) forcify.RawEvent {
	ev := forcify.RawEvent{Type: typ, Time: t, TouchID: d.touchID}
	if d.hasForce {
		ev.Force = d.force
		ev.HasForce = true
	}
	return ev
}

func (d *evdevDecoder) resetFrame() {
	d.touchChange = 0
	d.touchMoved = false
	d.forceMoved = false
	d.buttonEdge = 0
	d.relMoved = false
	d.dropped = false
}

// decodeInputEvent parses one struct input_event. word is the size of a
// timeval field on the running architecture (8 on 64-bit, 4 on 32-bit).
func decodeInputEvent(b []byte, word int) InputEvent {
	var sec, usec int64
	if word == 8 {
		sec = int64(binary.NativeEndian.Uint64(b[0:8]))
		usec = int64(binary.NativeEndian.Uint64(b[8:16]))
	} else {
		sec = int64(int32(binary.NativeEndian.Uint32(b[0:4])))
		usec = int64(int32(binary.NativeEndian.Uint32(b[4:8])))
	}
	off := 2 * word
	return InputEvent{
		Time:  time.Unix(sec, usec*int64(time.Microsecond)),
		Type:  binary.NativeEndian.Uint16(b[off : off+2]),
		Code:  binary.NativeEndian.Uint16(b[off+2 : off+4]),
		Value: int32(binary.NativeEndian.Uint32(b[off+4 : off+8])),
	}
}

// EvdevOption configures an EvdevReader.
type EvdevOption func(*evdevOptions)

type evdevOptions struct {
	grab   bool
	logger *slog.Logger
}

// WithGrab requests exclusive access to the device.
func WithGrab(grab bool) EvdevOption {
	return func(o *evdevOptions) { o.grab = grab }
}

// WithEvdevLogger sets the reader's logger.
func WithEvdevLogger(l *slog.Logger) EvdevOption {
	return func(o *evdevOptions) { o.logger = l }
}

func applyEvdevOptions(opts []EvdevOption) evdevOptions {
	o := evdevOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
