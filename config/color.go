package config

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/lucasb-eyer/go-colorful"
)

// ParseColor parses "#rgb", "#rrggbb" or "#rrggbbaa" into a straight-alpha
// color. The leading '#' is optional.
func ParseColor(s string) (gputypes.Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	alpha := 1.0
	switch len(s) {
	case 4, 7:
	case 9:
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return gputypes.Color{}, fmt.Errorf("%w: color %q: %v", ErrInvalid, s, err)
		}
		alpha = float64(a) / 255
		s = s[:7]
	default:
		return gputypes.Color{}, fmt.Errorf("%w: color %q is not #rgb, #rrggbb or #rrggbbaa", ErrInvalid, s)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return gputypes.Color{}, fmt.Errorf("%w: color %q: %v", ErrInvalid, s, err)
	}
	c = c.Clamped()
	return gputypes.Color{R: c.R, G: c.G, B: c.B, A: alpha}, nil
}

// NRGBA converts a straight-alpha color to 8-bit.
func NRGBA(c gputypes.Color) color.NRGBA {
	to8 := func(v float64) uint8 { return uint8(v*255 + 0.5) }
	return color.NRGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: to8(c.A)}
}
