// Package settings resolves the per-channel display configuration. A
// Snapshot is immutable once resolved; the registry compares snapshots by
// value to decide how much of a channel's scene state must be rebuilt.
package settings

import (
	"fmt"

	"github.com/fieldview/fieldview/internal/model"
)

// Mode selects how a pose sequence is drawn. Exactly one mode is active for
// a channel at a time.
type Mode uint8

const (
	ModeAxis Mode = iota
	ModeArrow
	ModeLine
)

func (m Mode) String() string {
	switch m {
	case ModeAxis:
		return "axis"
	case ModeArrow:
		return "arrow"
	case ModeLine:
		return "line"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "axis":
		return ModeAxis, nil
	case "arrow":
		return ModeArrow, nil
	case "line":
		return ModeLine, nil
	}
	return ModeAxis, fmt.Errorf("unknown display mode %q", s)
}

// Snapshot is a fully-resolved per-channel display configuration.
type Snapshot struct {
	Mode        Mode
	AxisScale   float64
	ArrowScale  float64
	LineWidth   float64
	Gradient    model.Gradient
	Visible     bool
	ShowTrolley bool
}

// Partial overlays a subset of snapshot fields; nil fields fall through to
// the next configuration layer.
type Partial struct {
	Mode          *Mode
	AxisScale     *float64
	ArrowScale    *float64
	LineWidth     *float64
	GradientStart *model.Color
	GradientEnd   *model.Color
	Visible       *bool
	ShowTrolley   *bool
}

// IsZero reports whether the partial overrides nothing.
func (p Partial) IsZero() bool {
	return p.Mode == nil && p.AxisScale == nil && p.ArrowScale == nil &&
		p.LineWidth == nil && p.GradientStart == nil && p.GradientEnd == nil &&
		p.Visible == nil && p.ShowTrolley == nil
}

// Hard-coded defaults, the final fallback of the resolution chain.
const (
	DefaultAxisScale  = 0.4
	DefaultArrowScale = 0.3
	DefaultLineWidth  = 0.05
)

// Defaults returns the built-in snapshot: axis mode, fixed scale/width,
// fixed gradient, visibility off, trolley rendering off.
func Defaults() Snapshot {
	return Snapshot{
		Mode:       ModeAxis,
		AxisScale:  DefaultAxisScale,
		ArrowScale: DefaultArrowScale,
		LineWidth:  DefaultLineWidth,
		Gradient: model.Gradient{
			Start: model.Color{R: 0.48, G: 0.78, B: 0.18, A: 1},
			End:   model.Color{R: 0.09, G: 0.38, B: 0.76, A: 1},
		},
		Visible:     false,
		ShowTrolley: false,
	}
}

// Resolve merges configuration layers over the built-in defaults. Later
// layers win on field conflicts. It is a pure function: callers may resolve
// on every update and rely on value comparison of the results.
func Resolve(base Snapshot, layers ...Partial) Snapshot {
	s := base
	for _, p := range layers {
		if p.Mode != nil {
			s.Mode = *p.Mode
		}
		if p.AxisScale != nil {
			s.AxisScale = *p.AxisScale
		}
		if p.ArrowScale != nil {
			s.ArrowScale = *p.ArrowScale
		}
		if p.LineWidth != nil {
			s.LineWidth = *p.LineWidth
		}
		if p.GradientStart != nil {
			s.Gradient.Start = *p.GradientStart
		}
		if p.GradientEnd != nil {
			s.Gradient.End = *p.GradientEnd
		}
		if p.Visible != nil {
			s.Visible = *p.Visible
		}
		if p.ShowTrolley != nil {
			s.ShowTrolley = *p.ShowTrolley
		}
	}
	return s
}

// PoolFieldsEqual compares the field group whose change forces the pools of
// the previously active mode to be released and rebuilt.
func (s Snapshot) PoolFieldsEqual(o Snapshot) bool {
	return s.Mode == o.Mode && s.ShowTrolley == o.ShowTrolley
}

// AppearanceEqual compares the field group that can be applied to live
// children in place, without a rebuild.
func (s Snapshot) AppearanceEqual(o Snapshot) bool {
	return s.AxisScale == o.AxisScale &&
		s.ArrowScale == o.ArrowScale &&
		s.LineWidth == o.LineWidth &&
		s.Gradient == o.Gradient &&
		s.Visible == o.Visible
}
