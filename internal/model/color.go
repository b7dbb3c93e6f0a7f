package model

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a display color with components in [0,1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// RGBA8 returns the color as 8-bit channel values.
func (c Color) RGBA8() [4]uint8 {
	return [4]uint8{
		uint8(clamp01(c.R)*255 + 0.5),
		uint8(clamp01(c.G)*255 + 0.5),
		uint8(clamp01(c.B)*255 + 0.5),
		uint8(clamp01(c.A)*255 + 0.5),
	}
}

// Gradient is a two-color ramp over t in [0,1].
type Gradient struct {
	Start Color `json:"start"`
	End   Color `json:"end"`
}

// At interpolates the gradient. t is clamped to [0,1]; t=0 yields exactly
// Start and t=1 exactly End.
func (g Gradient) At(t float64) Color {
	t = clamp01(t)
	if t == 0 {
		return g.Start
	}
	if t == 1 {
		return g.End
	}
	a := colorful.Color{R: g.Start.R, G: g.Start.G, B: g.Start.B}
	b := colorful.Color{R: g.End.R, G: g.End.G, B: g.End.B}
	m := a.BlendRgb(b, t)
	return Color{
		R: m.R,
		G: m.G,
		B: m.B,
		A: g.Start.A + (g.End.A-g.Start.A)*t,
	}
}

// IndexT maps a sequence index to the gradient parameter. A single-element
// sequence maps to t=0 to avoid dividing by zero.
func IndexT(i, count int) float64 {
	if count <= 1 {
		return 0
	}
	return float64(i) / float64(count-1)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
