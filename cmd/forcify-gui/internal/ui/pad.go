package ui

import (
	"fmt"
	"image"
	"sync"
	"time"

	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"forcify/cmd/forcify-gui/internal/theme"
	"forcify/internal/feed"
	"forcify/pkg/forcify"
)

// Pad is a press area driving a forcify instance and showing its force.
type Pad struct {
	theme *theme.Theme
	inst  *forcify.Instance

	// base maps gio event times onto wall time.
	base time.Time

	mu   sync.Mutex
	last forcify.Event
}

// NewPad binds a pad to inst. invalidate is called whenever a new force
// event arrives, possibly from a timer goroutine.
func NewPad(t *theme.Theme, inst *forcify.Instance, invalidate func()) *Pad {
	p := &Pad{theme: t, inst: inst}
	inst.On(forcify.EventForce, func(e forcify.Event) {
		p.mu.Lock()
		p.last = e
		p.mu.Unlock()
		if invalidate != nil {
			invalidate()
		}
	})
	return p
}

// Last returns the most recent force event.
func (p *Pad) Last() forcify.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *Pad) handle(e pointer.Event) {
	if p.base.IsZero() {
		p.base = time.Now().Add(-e.Time)
	}
	if raw, ok := feed.FromGio(e, p.base); ok {
		p.inst.Dispatch(raw)
	}
}

// Layout renders the pad and dispatches its pointer input.
func (p *Pad) Layout(gtx layout.Context) layout.Dimensions {
	for {
		ev, ok := gtx.Event(pointer.Filter{Target: p, Kinds: feed.GioKinds})
		if !ok {
			break
		}
		if pe, ok := ev.(pointer.Event); ok {
			p.handle(pe)
		}
	}

	paint.Fill(gtx.Ops, p.theme.Palette.Background)
	last := p.Last()

	return layout.UniformInset(p.theme.Metrics.Padding).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				title := material.H6(p.theme.Theme, "Press and hold")
				title.Color = p.theme.Palette.Text
				title.TextSize = p.theme.Metrics.FontTitle
				return title.Layout(gtx)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
			layout.Flexed(1, p.layoutSurface),
			layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return p.layoutBar(gtx, last.Force)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				l := material.Body1(p.theme.Theme, describe(last))
				l.Color = p.theme.Palette.TextMuted
				return l.Layout(gtx)
			}),
		)
	})
}

func (p *Pad) layoutSurface(gtx layout.Context) layout.Dimensions {
	size := gtx.Constraints.Max
	r := image.Rectangle{Max: size}
	radius := gtx.Dp(p.theme.Metrics.CornerRadius)

	paint.FillShape(gtx.Ops, p.theme.Palette.Surface, clip.UniformRRect(r, radius).Op(gtx.Ops))

	area := clip.Rect(r).Push(gtx.Ops)
	event.Op(gtx.Ops, p)
	area.Pop()

	return layout.Dimensions{Size: size}
}

func (p *Pad) layoutBar(gtx layout.Context, force float64) layout.Dimensions {
	height := gtx.Dp(p.theme.Metrics.BarHeight)
	width := gtx.Constraints.Max.X
	radius := gtx.Dp(p.theme.Metrics.CornerRadius)

	track := image.Rect(0, 0, width, height)
	paint.FillShape(gtx.Ops, p.theme.Palette.Surface, clip.UniformRRect(track, radius).Op(gtx.Ops))

	if filled := int(float64(width) * forcify.Clamp(force)); filled > 0 {
		bar := image.Rect(0, 0, filled, height)
		paint.FillShape(gtx.Ops, p.theme.ForceColor(force), clip.UniformRRect(bar, radius).Op(gtx.Ops))
	}
	return layout.Dimensions{Size: image.Pt(width, height)}
}

func describe(e forcify.Event) string {
	if e.Source == "" {
		return "force 0.00"
	}
	s := fmt.Sprintf("force %.2f  %s %s", e.Force, e.Source, e.Phase)
	if e.Emulated {
		s += " (emulated)"
	}
	return s
}
