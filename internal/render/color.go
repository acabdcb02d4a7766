package render

import (
	"strings"

	"github.com/gogpu/gg"
)

var namedColors = map[string]gg.RGBA{
	"black":  gg.Black,
	"white":  gg.White,
	"red":    gg.RGB(1, 0, 0),
	"green":  gg.RGB(0, 0.5, 0),
	"blue":   gg.RGB(0, 0, 1),
	"yellow": gg.RGB(1, 1, 0),
	"orange": gg.RGB(1, 0.647, 0),
	"purple": gg.RGB(0.5, 0, 0.5),
	"gray":   gg.RGB(0.5, 0.5, 0.5),
}

// ParseColor reads a "#rgb", "#rrggbb", "#rrggbbaa" or named color.
// Anything else is black.
func ParseColor(s string) gg.RGBA {
	s = strings.TrimSpace(strings.ToLower(s))
	if c, ok := namedColors[s]; ok {
		return c
	}
	if strings.HasPrefix(s, "#") {
		return gg.Hex(s)
	}
	return gg.Black
}
