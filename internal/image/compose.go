package imagepkg

import (
	"image"

	"github.com/disintegration/imaging"
)

// ArtFit selects how entry art is placed on its card.
type ArtFit int

const (
	// FitDefault scales art to the card's longer side, centring horizontal
	// overflow.
	FitDefault ArtFit = iota
	// FitCenterVertical centres vertical overflow instead.
	FitCenterVertical
	// FitCover places a square rounded cover with a margin.
	FitCover
)

// ComposeEntryArt draws art onto a card-sized dst. Lift moves the art up by a
// fraction of its height, used by wide cards to keep subjects in frame.
func ComposeEntryArt(dst *image.RGBA, art image.Image, fit ArtFit, lift float64) {
	if art == nil {
		return
	}
	card := dst.Rect
	ab := art.Bounds()
	if ab.Empty() || card.Empty() {
		return
	}

	if fit == FitCover {
		const margin, side = 10, 236
		cover := imaging.Resize(art, side, side, imaging.Lanczos)
		DrawImageRounded(dst, cover, card.Min.Add(image.Pt(margin, margin)), Uniform(10))
		return
	}

	ratio := float64(ab.Dx()) / float64(ab.Dy())
	var w, h int
	if card.Dx() > card.Dy() {
		w = card.Dx()
		h = int(float64(card.Dx()) / ratio)
	} else {
		w = int(float64(card.Dy()) * ratio)
		h = card.Dy()
	}
	if w <= 0 || h <= 0 {
		return
	}
	resized := imaging.Resize(art, w, h, imaging.Lanczos)

	switch {
	case fit == FitCenterVertical:
		y := (h - card.Dy()) / 2
		crop := imaging.Crop(resized, image.Rect(0, y, w, y+card.Dy()))
		DrawImage(dst, crop, card.Min)
	case w > card.Dx():
		x := (w - card.Dx()) / 2
		crop := imaging.Crop(resized, image.Rect(x, 0, x+card.Dx(), h))
		DrawImage(dst, crop, card.Min)
	default:
		DrawImage(dst, resized, card.Min.Add(image.Pt(0, -int(float64(h)*lift))))
	}
}
