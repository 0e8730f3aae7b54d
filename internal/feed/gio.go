package feed

import (
	"time"

	"gioui.org/io/pointer"

	"forcify/pkg/forcify"
)

// FromGio converts a gio pointer event to a raw event. base is the wall
// time matching a zero pointer.Event.Time. Events with no forcify
// counterpart (enter, leave, scroll, secondary buttons) return false.
//
// gio does not report contact pressure, so touch events never carry force
// and always take the long-press path.
func FromGio(e pointer.Event, base time.Time) (forcify.RawEvent, bool) {
	ev := forcify.RawEvent{Time: base.Add(e.Time)}

	switch e.Source {
	case pointer.Touch:
		ev.TouchID = int(e.PointerID)
		switch e.Kind {
		case pointer.Press:
			ev.Type = forcify.TouchStart
		case pointer.Drag, pointer.Move:
			ev.Type = forcify.TouchMove
		case pointer.Release:
			ev.Type = forcify.TouchEnd
		case pointer.Cancel:
			ev.Type = forcify.TouchCancel
		default:
			return forcify.RawEvent{}, false
		}

	case pointer.Mouse:
		switch e.Kind {
		case pointer.Press:
			if !e.Buttons.Contain(pointer.ButtonPrimary) {
				return forcify.RawEvent{}, false
			}
			ev.Type = forcify.MouseDown
		case pointer.Drag, pointer.Move:
			ev.Type = forcify.MouseMove
		case pointer.Release, pointer.Cancel:
			ev.Type = forcify.MouseUp
		default:
			return forcify.RawEvent{}, false
		}

	default:
		return forcify.RawEvent{}, false
	}

	return ev, true
}

// GioKinds is the pointer filter mask covering every kind FromGio maps.
const GioKinds = pointer.Press | pointer.Drag | pointer.Move | pointer.Release | pointer.Cancel
