package imagepkg

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"regexp"
	"strings"

	"go.trai.ch/zerr"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const ellipsis = "..."

// Align positions text relative to the x coordinate passed to Face.Draw.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// TextBounds is the ink box of a string relative to its baseline origin. Top
// is negative for glyphs that rise above the baseline.
type TextBounds struct {
	Left, Top, Right, Bottom float64
}

func (b TextBounds) Width() float64  { return b.Right - b.Left }
func (b TextBounds) Height() float64 { return b.Bottom - b.Top }
func (b TextBounds) MidY() float64   { return (b.Top + b.Bottom) / 2 }

// Face is a sized font. It is not safe for concurrent use.
type Face struct {
	font *opentype.Font
	face font.Face
	size float64
}

// NewFace sizes f at size pixels.
func NewFace(f *opentype.Font, size float64) (*Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "create font face"), "size", size)
	}
	return &Face{font: f, face: face, size: size}, nil
}

// MustFace is NewFace for sizes known to be valid. A face that cannot be
// created falls back to measuring and drawing nothing.
func MustFace(f *opentype.Font, size float64) *Face {
	face, err := NewFace(f, size)
	if err != nil {
		return &Face{font: f, size: size}
	}
	return face
}

func (f *Face) Size() float64 { return f.size }

// Resize returns a face of the same font at another size.
func (f *Face) Resize(size float64) *Face {
	return MustFace(f.font, size)
}

// Ascent is the distance from the top of the line to the baseline.
func (f *Face) Ascent() float64 {
	if f.face == nil {
		return 0
	}
	return fromFixed(f.face.Metrics().Ascent)
}

// Descent is the distance from the baseline to the bottom of the line.
func (f *Face) Descent() float64 {
	if f.face == nil {
		return 0
	}
	return fromFixed(f.face.Metrics().Descent)
}

// LineHeight is the recommended baseline-to-baseline distance.
func (f *Face) LineHeight() float64 {
	if f.face == nil {
		return 0
	}
	return fromFixed(f.face.Metrics().Height)
}

// Measure returns the advance width of s.
func (f *Face) Measure(s string) float64 {
	if f.face == nil || s == "" {
		return 0
	}
	return fromFixed(font.MeasureString(f.face, s))
}

// Bounds returns the ink box of s.
func (f *Face) Bounds(s string) TextBounds {
	if f.face == nil || s == "" {
		return TextBounds{}
	}
	b, _ := font.BoundString(f.face, s)
	return TextBounds{
		Left:   fromFixed(b.Min.X),
		Top:    fromFixed(b.Min.Y),
		Right:  fromFixed(b.Max.X),
		Bottom: fromFixed(b.Max.Y),
	}
}

// Draw renders s with its baseline at y.
func (f *Face) Draw(dst draw.Image, s string, x, y float64, c color.Color, align Align) {
	if f.face == nil || s == "" {
		return
	}
	switch align {
	case AlignCenter:
		x -= f.Measure(s) / 2
	case AlignRight:
		x -= f.Measure(s)
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: f.face,
		Dot:  fixed.Point26_6{X: toFixed(x), Y: toFixed(y)},
	}
	d.DrawString(s)
}

// DrawTop renders s so the top of its ink sits at y.
func (f *Face) DrawTop(dst draw.Image, s string, x, y float64, c color.Color, align Align) {
	f.Draw(dst, s, x, y-f.Bounds(s).Top, c, align)
}

// Truncate shortens s rune by rune until it fits maxWidth with an ellipsis
// appended. Strings that already fit are returned unchanged.
func (f *Face) Truncate(s string, maxWidth float64) string {
	if f.Measure(s) <= maxWidth {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		if f.Measure(string(runes)+ellipsis) <= maxWidth {
			break
		}
	}
	return string(runes) + ellipsis
}

var wordPattern = regexp.MustCompile(`(?i)([a-z0-9]+|[^a-z0-9])`)

// SplitLines breaks s into at most two lines of maxWidth, moving to the next
// line at word boundaries. Overlong lines are truncated with an ellipsis and
// empty lines are dropped.
func (f *Face) SplitLines(s string, maxWidth float64) []string {
	var lines [2]strings.Builder
	current := 0
	for _, token := range wordPattern.FindAllString(s, -1) {
		if f.Measure(lines[current].String()+token) > maxWidth {
			current++
		}
		if current >= len(lines) {
			lines[len(lines)-1].WriteString(token)
			break
		}
		lines[current].WriteString(token)
	}

	out := make([]string, 0, len(lines))
	for i := range lines {
		line := lines[i].String()
		if line == "" {
			continue
		}
		out = append(out, f.Truncate(line, maxWidth))
	}
	return out
}

// Fit returns the largest face no bigger than f whose measurement of s stays
// within maxWidth, stepping down one pixel at a time to minSize.
func (f *Face) Fit(s string, maxWidth, minSize float64) *Face {
	face := f
	w := face.Measure(s)
	if w <= maxWidth {
		return face
	}
	size := math.Floor(face.size * maxWidth / w)
	for size > minSize {
		face = face.Resize(size)
		if face.Measure(s) <= maxWidth {
			return face
		}
		size--
	}
	return face.Resize(minSize)
}

func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}
