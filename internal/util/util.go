// Package util provides small helpers shared across the fieldview packages.
package util

import (
	"fmt"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/fieldview/fieldview/internal/model"
)

// ParseHexColor parses "#rrggbb" or "#rrggbbaa" into a model.Color.
// Six-digit colors get full alpha.
func ParseHexColor(s string) (model.Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return model.Color{}, fmt.Errorf("hex color %q must start with '#'", s)
	}
	alpha := 1.0
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:9], 16, 8)
		if err != nil {
			return model.Color{}, fmt.Errorf("hex color %q has invalid alpha: %w", s, err)
		}
		alpha = float64(a) / 255
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return model.Color{}, fmt.Errorf("parsing hex color %q: %w", s, err)
	}
	return model.Color{R: c.R, G: c.G, B: c.B, A: alpha}, nil
}

// FormatHexColor renders a color back to "#rrggbbaa" form.
func FormatHexColor(c model.Color) string {
	v := c.RGBA8()
	return fmt.Sprintf("#%02x%02x%02x%02x", v[0], v[1], v[2], v[3])
}
