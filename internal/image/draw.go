package imagepkg

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/vector"
)

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522847498

// Point is a sub-pixel coordinate.
type Point struct {
	X, Y float32
}

// RectF is a sub-pixel rectangle.
type RectF struct {
	X, Y, W, H float32
}

// Rect converts an integer rectangle.
func Rect(r image.Rectangle) RectF {
	return RectF{X: float32(r.Min.X), Y: float32(r.Min.Y), W: float32(r.Dx()), H: float32(r.Dy())}
}

// Bounds returns the smallest integer rectangle covering r.
func (r RectF) Bounds() image.Rectangle {
	return image.Rect(
		int(math.Floor(float64(r.X))),
		int(math.Floor(float64(r.Y))),
		int(math.Ceil(float64(r.X+r.W))),
		int(math.Ceil(float64(r.Y+r.H))),
	)
}

// Radii holds per-corner radii in clockwise order from the top left.
type Radii struct {
	TopLeft, TopRight, BottomRight, BottomLeft float32
}

// Uniform returns equal radii on every corner.
func Uniform(r float32) Radii {
	return Radii{r, r, r, r}
}

// RoundRectMask rasterises a w×h rounded rectangle into an alpha mask.
func RoundRectMask(w, h int, radii Radii) *image.Alpha {
	return roundRectMask(RectF{W: float32(w), H: float32(h)}, image.Rect(0, 0, w, h), radii)
}

func roundRectMask(r RectF, bounds image.Rectangle, radii Radii) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	if mask.Rect.Empty() {
		return mask
	}
	ox := r.X - float32(bounds.Min.X)
	oy := r.Y - float32(bounds.Min.Y)

	limit := min(r.W, r.H) / 2
	tl := min(radii.TopLeft, limit)
	tr := min(radii.TopRight, limit)
	br := min(radii.BottomRight, limit)
	bl := min(radii.BottomLeft, limit)

	z := vector.NewRasterizer(mask.Rect.Dx(), mask.Rect.Dy())
	x0, y0, x1, y1 := ox, oy, ox+r.W, oy+r.H
	z.MoveTo(x0+tl, y0)
	z.LineTo(x1-tr, y0)
	if tr > 0 {
		z.CubeTo(x1-tr+tr*kappa, y0, x1, y0+tr-tr*kappa, x1, y0+tr)
	}
	z.LineTo(x1, y1-br)
	if br > 0 {
		z.CubeTo(x1, y1-br+br*kappa, x1-br+br*kappa, y1, x1-br, y1)
	}
	z.LineTo(x0+bl, y1)
	if bl > 0 {
		z.CubeTo(x0+bl-bl*kappa, y1, x0, y1-bl+bl*kappa, x0, y1-bl)
	}
	z.LineTo(x0, y0+tl)
	if tl > 0 {
		z.CubeTo(x0, y0+tl-tl*kappa, x0+tl-tl*kappa, y0, x0+tl, y0)
	}
	z.ClosePath()
	z.Draw(mask, mask.Rect, image.Opaque, image.Point{})
	return mask
}

// FillRect paints src over r.
func FillRect(dst draw.Image, r image.Rectangle, src image.Image) {
	draw.Draw(dst, r, src, r.Min, draw.Over)
}

// FillRoundRect paints src over a rounded rectangle. Gradients and other
// sources are sampled in dst coordinates.
func FillRoundRect(dst draw.Image, r RectF, radii Radii, src image.Image) {
	bounds := r.Bounds()
	mask := roundRectMask(r, bounds, radii)
	draw.DrawMask(dst, bounds, src, bounds.Min, mask, image.Point{}, draw.Over)
}

// FillPolygon paints src over the closed polygon through pts.
func FillPolygon(dst draw.Image, pts []Point, src image.Image) {
	if len(pts) < 3 {
		return
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	bounds := RectF{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}.Bounds()
	if bounds.Empty() {
		return
	}

	z := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	ox, oy := float32(bounds.Min.X), float32(bounds.Min.Y)
	z.MoveTo(pts[0].X-ox, pts[0].Y-oy)
	for _, p := range pts[1:] {
		z.LineTo(p.X-ox, p.Y-oy)
	}
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	z.Draw(mask, mask.Rect, image.Opaque, image.Point{})
	draw.DrawMask(dst, bounds, src, bounds.Min, mask, image.Point{}, draw.Over)
}

// DrawImage composites img with its top-left corner at pt.
func DrawImage(dst draw.Image, img image.Image, pt image.Point) {
	if img == nil {
		return
	}
	b := img.Bounds()
	draw.Draw(dst, image.Rectangle{Min: pt, Max: pt.Add(b.Size())}, img, b.Min, draw.Over)
}

// DrawImageRounded composites img clipped to a rounded rectangle of its own
// size.
func DrawImageRounded(dst draw.Image, img image.Image, pt image.Point, radii Radii) {
	if img == nil {
		return
	}
	b := img.Bounds()
	mask := RoundRectMask(b.Dx(), b.Dy(), radii)
	draw.DrawMask(dst, image.Rectangle{Min: pt, Max: pt.Add(b.Size())}, img, b.Min, mask, image.Point{}, draw.Over)
}

// DrawImageScaled resizes img to w×h and composites it at pt.
func DrawImageScaled(dst draw.Image, img image.Image, pt image.Point, w, h int) {
	if img == nil || w <= 0 || h <= 0 {
		return
	}
	if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}
	DrawImage(dst, img, pt)
}

// BlurRoundRect replaces the pixels under a rounded rectangle with a blurred
// copy of themselves.
func BlurRoundRect(dst *image.RGBA, r RectF, radii Radii, sigma float64) {
	bounds := r.Bounds().Intersect(dst.Rect)
	if bounds.Empty() {
		return
	}
	margin := int(math.Ceil(sigma * 3))
	src := bounds.Inset(-margin).Intersect(dst.Rect)
	blurred := imaging.Blur(dst.SubImage(src), sigma)

	mask := roundRectMask(r, bounds, radii)
	draw.DrawMask(dst, bounds, blurred, bounds.Min.Sub(src.Min), mask, image.Point{}, draw.Over)
}

// Stop is one colour stop of a gradient. Offset runs from 0 to 1.
type Stop struct {
	Offset float64
	Color  color.NRGBA
}

// Stops spreads colours evenly from 0 to 1.
func Stops(colors ...color.NRGBA) []Stop {
	stops := make([]Stop, len(colors))
	for i, c := range colors {
		if len(colors) > 1 {
			stops[i].Offset = float64(i) / float64(len(colors)-1)
		}
		stops[i].Color = c
	}
	return stops
}

func sample(stops []Stop, t float64) color.NRGBA {
	if len(stops) == 0 {
		return Transparent
	}
	if t <= stops[0].Offset {
		return stops[0].Color
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if t > b.Offset {
			continue
		}
		span := b.Offset - a.Offset
		if span <= 0 {
			return b.Color
		}
		f := (t - a.Offset) / span
		return color.NRGBA{
			R: lerp8(a.Color.R, b.Color.R, f),
			G: lerp8(a.Color.G, b.Color.G, f),
			B: lerp8(a.Color.B, b.Color.B, f),
			A: lerp8(a.Color.A, b.Color.A, f),
		}
	}
	return stops[len(stops)-1].Color
}

func lerp8(a, b uint8, f float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*f + 0.5)
}

var infinite = image.Rect(-1<<30, -1<<30, 1<<30, 1<<30)

// LinearGradient is an unbounded image interpolating its stops along the
// line from (X0, Y0) to (X1, Y1). Colours are clamped past either end.
type LinearGradient struct {
	X0, Y0, X1, Y1 float64
	Stops          []Stop
}

func (g *LinearGradient) ColorModel() color.Model { return color.NRGBAModel }

func (g *LinearGradient) Bounds() image.Rectangle { return infinite }

func (g *LinearGradient) At(x, y int) color.Color {
	dx, dy := g.X1-g.X0, g.Y1-g.Y0
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return sample(g.Stops, 0)
	}
	px, py := float64(x)+0.5-g.X0, float64(y)+0.5-g.Y0
	return sample(g.Stops, (px*dx+py*dy)/l2)
}

// VerticalGradient runs top to bottom across r.
func VerticalGradient(r image.Rectangle, colors ...color.NRGBA) *LinearGradient {
	cx := float64(r.Min.X+r.Max.X) / 2
	return &LinearGradient{X0: cx, Y0: float64(r.Min.Y), X1: cx, Y1: float64(r.Max.Y), Stops: Stops(colors...)}
}

// HorizontalGradient runs left to right from x0 to x1.
func HorizontalGradient(x0, x1 float64, colors ...color.NRGBA) *LinearGradient {
	return &LinearGradient{X0: x0, X1: x1, Stops: Stops(colors...)}
}

// RadialGradient is an unbounded image interpolating its stops outward from
// the centre.
type RadialGradient struct {
	CX, CY, Radius float64
	Stops          []Stop
}

func (g *RadialGradient) ColorModel() color.Model { return color.NRGBAModel }

func (g *RadialGradient) Bounds() image.Rectangle { return infinite }

func (g *RadialGradient) At(x, y int) color.Color {
	if g.Radius <= 0 {
		return sample(g.Stops, 1)
	}
	dx, dy := float64(x)+0.5-g.CX, float64(y)+0.5-g.CY
	return sample(g.Stops, math.Hypot(dx, dy)/g.Radius)
}

// CornerRadialGradient centres on r and reaches its last stop at the corners.
func CornerRadialGradient(r image.Rectangle, colors ...color.NRGBA) *RadialGradient {
	cx := float64(r.Min.X+r.Max.X) / 2
	cy := float64(r.Min.Y+r.Max.Y) / 2
	return &RadialGradient{
		CX:     cx,
		CY:     cy,
		Radius: math.Hypot(float64(r.Dx())/2, float64(r.Dy())/2),
		Stops:  Stops(colors...),
	}
}

// Solid is shorthand for a uniform source.
func Solid(c color.Color) *image.Uniform {
	return image.NewUniform(c)
}

// RotateClockwise rotates img by deg degrees, growing the canvas to fit.
func RotateClockwise(img image.Image, deg float64) *image.NRGBA {
	return imaging.Rotate(img, -deg, Transparent)
}
