package imagepkg

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

var (
	overlayBase    = color.NRGBA{R: 14, G: 14, B: 14, A: 255}
	overlayAccent  = color.NRGBA{R: 30, G: 30, B: 30, A: 255}
	discordBlurple = color.NRGBA{R: 88, G: 101, B: 242, A: 255}
	creatorCodeInk = color.NRGBA{R: 178, G: 165, B: 255, A: 255}
)

// ItemCardOverlay is the dark text plate at the bottom of a locker card. A
// non-nil icon is tilted and placed in the bottom right corner.
func ItemCardOverlay(width int, icon image.Image) *image.RGBA {
	const height = 65
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	FillRect(img, img.Rect, Solid(overlayBase))

	if icon != nil {
		tilted := imaging.Resize(RotateClockwise(icon, -20), 47, 47, imaging.Linear)
		DrawImage(img, tilted, image.Pt(width-45, height-35))
	}

	w, h := float32(width), float32(height)
	FillPolygon(img, []Point{{0, h - 29}, {w, h - 29}, {w, h - 25}, {0, h - 24}}, Solid(overlayAccent))
	FillRect(img, image.Rect(0, 0, width, height-29), Solid(overlayAccent))
	return img
}

// RarityStripe is the slanted colour band above the card overlay.
func RarityStripe(width int, c color.NRGBA) *image.RGBA {
	const height = 14
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	w, h := float32(width), float32(height)
	FillPolygon(img, []Point{{0, h - 5}, {w, 0}, {w, h - 6}, {0, h}}, Solid(c))
	return img
}

// DiscordBox draws a username next to the Discord logo, shrinking the text
// until it fits 459 pixels at the given scale.
func DiscordBox(face *Face, logo image.Image, username string, scale float64) *image.RGBA {
	pad := (10 + 2*15 + 50) * scale
	face = face.Resize(25 * scale)

	width := int(math.Min(face.Bounds(username).Width()+pad, 459*scale))
	height := int(62 * scale)
	img := image.NewRGBA(image.Rect(0, 0, max(width, 1), max(height, 1)))

	r := float32(15 * scale)
	FillRoundRect(img, Rect(img.Rect), Uniform(r), Solid(discordBlurple))

	logoW := int(50 * scale)
	if logo != nil {
		b := logo.Bounds()
		logoH := int(float64(b.Dy()) * float64(logoW) / float64(b.Dx()))
		DrawImageScaled(img, logo, image.Pt(int(10*scale), (height-logoH)/2), logoW, logoH)
	}

	for face.Size() > 1 && face.Bounds(username).Width()+pad > float64(width) {
		face = face.Resize(face.Size() - 1)
	}
	bounds := face.Bounds(username)
	face.Draw(img, username, (10+15)*scale+float64(logoW), float64(height)/2-bounds.MidY(), White, AlignLeft)
	return img
}

// Pill draws text on a rounded label no wider than maxWidth.
func Pill(face *Face, text string, background, ink color.NRGBA, maxWidth int) *image.RGBA {
	const (
		height  = 34
		padding = 13
	)
	bounds := face.Bounds(text)
	width := min(2*padding+int(bounds.Width()), maxWidth)
	img := image.NewRGBA(image.Rect(0, 0, max(width, 1), height))
	FillRoundRect(img, Rect(img.Rect), Uniform(20), Solid(background))

	text = face.Truncate(text, float64(maxWidth-2*padding))
	bounds = face.Bounds(text)
	face.Draw(img, text, padding, height/2-bounds.MidY(), ink, AlignLeft)
	return img
}

// CreatorCodeBox renders "title · code" on a white pill, shrinking the text
// until the box fits maxWidth.
func CreatorCodeBox(face *Face, title, code string, maxWidth float64) *image.RGBA {
	title = " " + title + " · "
	code += " "

	width := face.Measure(title) + face.Measure(code)
	height := 150.0
	for width > maxWidth && face.Size() > 1 {
		face = face.Resize(face.Size() - 1)
		width = face.Measure(title) + face.Measure(code)
		height--
	}

	img := image.NewRGBA(image.Rect(0, 0, max(int(width), 1), max(int(height), 1)))
	FillRoundRect(img, Rect(img.Rect), Uniform(100), Solid(White))

	y := (height-face.LineHeight())/2 + face.Ascent()
	face.Draw(img, title, 0, y, Black, AlignLeft)
	face.Draw(img, code, float64(img.Rect.Dx()), y, creatorCodeInk, AlignRight)
	return img
}

// LogoBadge is a logo, a divider and a caption on one line.
func LogoBadge(face *Face, logo image.Image, caption string, scale float64) *image.RGBA {
	face = face.Resize(40 * scale)
	bounds := face.Bounds(caption)

	textX := (50 + 10 + 5 + 10) * scale
	width := int(textX + bounds.Width())
	height := int(50 * scale)
	img := image.NewRGBA(image.Rect(0, 0, max(width, 1), max(height, 1)))

	if logo != nil {
		DrawImageScaled(img, logo, image.Point{}, height, height)
	}
	FillRoundRect(img, RectF{
		X: float32((50 + 10) * scale),
		Y: float32((float64(height) - 40*scale) / 2),
		W: float32(5 * scale),
		H: float32(40 * scale),
	}, Uniform(float32(3*scale)), Solid(White))

	face.Draw(img, caption, textX, (float64(height)+bounds.Height())/2, White, AlignLeft)
	return img
}

// ProgressBar fills a rounded bar from x with a horizontal gradient. Nonzero
// progress is drawn at least minWidth wide.
func ProgressBar(dst *image.RGBA, x, y, maxWidth, height float64, progress float64, minWidth float64, from, to color.NRGBA) {
	progress = math.Max(0, math.Min(progress, 1))
	width := math.Trunc(maxWidth * progress)
	if width <= 0 {
		return
	}
	width = math.Max(width, minWidth)
	FillRoundRect(dst,
		RectF{X: float32(x), Y: float32(y), W: float32(width), H: float32(height)},
		Uniform(10),
		HorizontalGradient(x, x+width, from, to),
	)
}

// QuestionMark draws a centred "?" placeholder used when item art is missing.
func QuestionMark(dst *image.RGBA, face *Face) {
	b := dst.Rect
	bounds := face.Bounds("?")
	face.Draw(dst, "?", float64(b.Min.X+b.Max.X)/2, float64(b.Min.Y+b.Max.Y)/2+bounds.Height()/2, White, AlignCenter)
}
