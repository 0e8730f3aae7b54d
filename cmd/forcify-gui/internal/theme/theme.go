package theme

import (
	"image/color"
	"runtime"

	"gioui.org/unit"
	"gioui.org/widget/material"

	"forcify/pkg/forcify"
)

// Palette defines the pad colors.
type Palette struct {
	Background color.NRGBA
	Surface    color.NRGBA
	Text       color.NRGBA
	TextMuted  color.NRGBA
	Light      color.NRGBA // bar color at zero force
	Full       color.NRGBA // bar color at full force
}

// Metrics defines sizes.
type Metrics struct {
	CornerRadius unit.Dp
	Padding      unit.Dp
	BarHeight    unit.Dp
	FontTitle    unit.Sp
}

// Theme wraps the material theme with pad styling.
type Theme struct {
	*material.Theme
	Palette Palette
	Metrics Metrics
}

// NewTheme creates a theme matching the running OS.
func NewTheme(mtheme *material.Theme) *Theme {
	t := &Theme{Theme: mtheme}

	t.Palette = Palette{
		Background: color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF},
		Surface:    color.NRGBA{R: 0x2C, G: 0x2C, B: 0x2C, A: 0xFF},
		Text:       color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		TextMuted:  color.NRGBA{R: 0xA0, G: 0xA0, B: 0xA0, A: 0xFF},
		Light:      color.NRGBA{R: 0x00, G: 0x78, B: 0xD4, A: 0xFF},
		Full:       color.NRGBA{R: 0xE8, G: 0x11, B: 0x23, A: 0xFF},
	}
	t.Metrics = Metrics{
		CornerRadius: unit.Dp(4),
		Padding:      unit.Dp(16),
		BarHeight:    unit.Dp(24),
		FontTitle:    unit.Sp(20),
	}

	if runtime.GOOS == "darwin" {
		t.Palette.Background = color.NRGBA{R: 0x1E, G: 0x1E, B: 0x1E, A: 0xFF}
		t.Palette.Surface = color.NRGBA{R: 0x26, G: 0x26, B: 0x26, A: 0xFF}
		t.Palette.Light = color.NRGBA{R: 0x0A, G: 0x84, B: 0xFF, A: 0xFF}
		t.Palette.Full = color.NRGBA{R: 0xFF, G: 0x45, B: 0x3A, A: 0xFF}
		t.Metrics.CornerRadius = unit.Dp(10)
		t.Metrics.Padding = unit.Dp(20)
	}
	return t
}

// ForceColor blends Light into Full by force.
func (t *Theme) ForceColor(force float64) color.NRGBA {
	f := forcify.Clamp(force)
	mix := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*f)
	}
	l, h := t.Palette.Light, t.Palette.Full
	return color.NRGBA{R: mix(l.R, h.R), G: mix(l.G, h.G), B: mix(l.B, h.B), A: 0xFF}
}
