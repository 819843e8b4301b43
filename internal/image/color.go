package imagepkg

import (
	"image/color"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

var ErrInvalidColor = zerr.New("invalid color")

// Named colours used across the layouts.
var (
	White       = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	Black       = color.NRGBA{A: 255}
	LightGray   = color.NRGBA{R: 211, G: 211, B: 211, A: 255}
	Gray        = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	Transparent = color.NRGBA{}
)

// WithAlpha returns c with its alpha set to the given fraction.
func WithAlpha(c color.NRGBA, alpha float64) color.NRGBA {
	c.A = uint8(alpha*255 + 0.5)
	return c
}

// ParseColor parses #RGB, #RRGGBB and #RRGGBBAA. The leading # is optional.
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, zerr.With(zerr.Wrap(ErrInvalidColor, "parse color"), "value", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, zerr.With(zerr.Wrap(ErrInvalidColor, "parse color"), "value", s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// ParseColorOr returns fallback when s does not parse.
func ParseColorOr(s string, fallback color.NRGBA) color.NRGBA {
	c, err := ParseColor(s)
	if err != nil {
		return fallback
	}
	return c
}
