package pipeline

import (
	"context"
	"image"
	"image/color"

	imagepkg "github.com/youruser/imageapi/internal/image"
	"github.com/youruser/imageapi/internal/model"
	"go.trai.ch/zerr"
)

const (
	progressWidth    = 568
	progressHeight   = 30
	progressBarWidth = 500

	// Map coordinates span this many world units on each axis, centred on
	// the origin.
	worldSpan      = 300000
	worldHalfSpan  = worldSpan / 2
	markerXCorrect = 60
	markerPattern  = "Assets/Images/Map/Markers/*.png"
)

// ErrMapNotFound is returned by Drop when no map exists for the locale.
var ErrMapNotFound = zerr.Wrap(model.ErrInvalidInput, "map not found")

// ProgressBar renders a standalone labelled progress bar. It is not cached.
func (p *Pipeline) ProgressBar(_ context.Context, bar *model.ProgressBar) (*imagepkg.Surface, error) {
	if err := bar.Validate(); err != nil {
		return nil, err
	}
	surface, err := imagepkg.NewSurface(progressWidth, progressHeight)
	if err != nil {
		return nil, zerr.Wrap(err, "progress bar canvas")
	}
	dst := surface.Image()

	imagepkg.FillRoundRect(dst, imagepkg.RectF{X: 0, Y: 5, W: progressBarWidth, H: 20},
		imagepkg.Uniform(10), imagepkg.Solid(imagepkg.WithAlpha(imagepkg.White, 0.3)))
	from, to := barColors(bar.GradientColors)
	imagepkg.ProgressBar(dst, 0, 5, progressBarWidth, 20, bar.Progress, 20, from, to)

	text := p.face(fontSegoe, 20)
	text.Draw(dst, bar.Text, progressBarWidth+5, progressHeight/2-text.Bounds(bar.Text).MidY(), imagepkg.White, imagepkg.AlignLeft)

	if bar.BarText != "" {
		small := p.face(fontSegoe, 15)
		b := small.Bounds(bar.BarText)
		small.Draw(dst, bar.BarText, (progressBarWidth-b.Width())/2, progressHeight/2-b.MidY(), imagepkg.White, imagepkg.AlignLeft)
	}
	return surface, nil
}

// Drop marks a landing spot on the locale's map with a random marker.
func (p *Pipeline) Drop(_ context.Context, drop *model.Drop) (*imagepkg.Surface, error) {
	if err := drop.Validate(); err != nil {
		return nil, err
	}
	locale := normalizeLocale(drop.Locale)
	mapImg, ok := p.dataImage("map/" + locale + ".png")
	if !ok {
		return nil, zerr.With(zerr.Wrap(ErrMapNotFound, "load map"), "locale", locale)
	}

	surface, err := imagepkg.FromImage(mapImg)
	if err != nil {
		return nil, zerr.Wrap(err, "drop canvas")
	}
	dst := surface.Image()
	w, h := float64(surface.Width()), float64(surface.Height())

	mx := (drop.X+worldHalfSpan)/worldSpan*w - markerXCorrect
	my := (drop.Y + worldHalfSpan) / worldSpan * h

	if marker := p.randomMarker(); marker != nil {
		b := marker.Bounds()
		imagepkg.DrawImage(dst, marker, image.Pt(int(mx)-b.Dx()/2, int(my)-b.Dy()))
	} else {
		imagepkg.FillRoundRect(dst, imagepkg.RectF{X: float32(mx) - 10, Y: float32(my) - 20, W: 20, H: 20},
			imagepkg.Uniform(10), imagepkg.Solid(color.NRGBA{R: 255, G: 60, B: 60, A: 255}))
	}
	return surface, nil
}

func (p *Pipeline) randomMarker() image.Image {
	markers := p.assets.Glob(markerPattern)
	if len(markers) == 0 {
		return nil
	}
	return p.bitmap(markers[p.pick(len(markers))])
}
