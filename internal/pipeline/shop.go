package pipeline

import (
	"context"
	"image"
	"image/color"
	"math"

	imagepkg "github.com/youruser/imageapi/internal/image"
	"github.com/youruser/imageapi/internal/layout"
	"github.com/youruser/imageapi/internal/model"
	"go.trai.ch/zerr"
)

// Shop text sizes.
const (
	titleFontSize       = 200
	dateFontSize        = 50
	sectionNameFontSize = 43
	entryNameFontSize   = 27
	entryPriceFontSize  = 21
	bannerFontSize      = 17
	creatorCodeFontSize = 100
)

const (
	bitmapVBucks   = "Assets/Images/Shop/vbucks_icon.png"
	bitmapAdBanner = "Assets/Images/Shop/ad_banner.png"

	cardRadius        = 20
	backgroundRadius  = 50
	sectionPadding    = 50
	wideCardLift      = 0.08
	strikeAlpha       = 0.6
	regularPriceSpace = 9
)

var (
	shopGradientTop    = color.NRGBA{R: 44, G: 154, B: 234, A: 255}
	shopGradientBottom = color.NRGBA{R: 14, G: 53, B: 147, A: 255}
	artGradientInner   = color.NRGBA{R: 129, G: 207, B: 250, A: 255}
	artGradientOuter   = color.NRGBA{R: 52, G: 136, B: 217, A: 255}
)

// Shop renders the whole item shop. The caller owns the returned surface.
// force rebuilds the base, locale and final artifacts even when cached.
func (p *Pipeline) Shop(ctx context.Context, shop *model.Shop, locale string, force bool) (*imagepkg.Surface, error) {
	if err := shop.Validate(); err != nil {
		return nil, err
	}
	locale = normalizeLocale(locale)

	baseFP := shopBaseFingerprint(shop.Sections)
	base, err := p.artifact(ctx, Key(StageBase, KindShop, baseFP), p.ttl, force, func(ctx context.Context) (*Artifact, error) {
		return p.buildShopBase(ctx, shop.Sections, func(sections []layout.Section) (*layout.Plan, error) {
			return layout.PlanSections(sections, p.dims)
		})
	})
	if err != nil {
		return nil, err
	}
	defer base.Release()

	localeFP := shopLocaleFingerprint(baseFP, locale, shop.Title, shop.Date, shop.Sections)
	loc, err := p.artifact(ctx, Key(StageLocale, KindShop, locale, localeFP), p.ttl, force, func(context.Context) (*Artifact, error) {
		return p.buildShopLocale(base, shop.Sections, func(dst *image.RGBA) {
			p.drawShopHeader(dst, shop.Title, shop.Date)
		})
	})
	if err != nil {
		return nil, err
	}
	defer loc.Release()

	finalFP := shopFinalFingerprint(localeFP, shop)
	final, err := p.artifact(ctx, Key(StageFinal, KindShop, finalFP), p.ttl, force, func(context.Context) (*Artifact, error) {
		return p.buildShopFinal(shop, loc)
	})
	if err != nil {
		return nil, err
	}
	defer final.Release()

	return final.Surface.Clone(), nil
}

// ShopSection renders one section on its own canvas. Only the base and locale
// stages are cached.
func (p *Pipeline) ShopSection(ctx context.Context, section *model.ShopSection, locale string, force bool) (*imagepkg.Surface, error) {
	if err := section.Validate(); err != nil {
		return nil, err
	}
	locale = normalizeLocale(locale)
	sections := []model.ShopSection{*section}

	baseFP := shopBaseFingerprint(sections)
	base, err := p.artifact(ctx, Key(StageBase, KindShopSection, section.ID, baseFP), p.ttl, force, func(ctx context.Context) (*Artifact, error) {
		return p.buildShopBase(ctx, sections, func(s []layout.Section) (*layout.Plan, error) {
			return layout.PlanSingle(s[0], p.dims, sectionPadding)
		})
	})
	if err != nil {
		return nil, err
	}
	defer base.Release()

	localeFP := shopLocaleFingerprint(baseFP, locale, "", "", sections)
	loc, err := p.artifact(ctx, Key(StageLocale, KindShopSection, locale, section.ID, localeFP), p.ttl, force, func(context.Context) (*Artifact, error) {
		return p.buildShopLocale(base, sections, nil)
	})
	if err != nil {
		return nil, err
	}
	defer loc.Release()

	out, err := imagepkg.NewSurface(loc.Surface.Width(), loc.Surface.Height())
	if err != nil {
		return nil, zerr.Wrap(err, "shop section canvas")
	}
	dst := out.Image()
	background(dst, nil, imagepkg.VerticalGradient(dst.Rect, shopGradientTop, shopGradientBottom), backgroundRadius)
	imagepkg.DrawImage(dst, loc.Surface.Image(), image.Point{})
	return out, nil
}

// buildShopBase downloads entry art, plans the layout and draws every card.
func (p *Pipeline) buildShopBase(
	ctx context.Context,
	sections []model.ShopSection,
	plan func([]layout.Section) (*layout.Plan, error),
) (*Artifact, error) {
	pl, err := plan(layoutSections(sections))
	if err != nil {
		return nil, zerr.Wrap(err, "plan shop layout")
	}

	images, err := p.prefetchEntryImages(ctx, sections)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, s := range images {
			s.Release()
		}
	}()

	surface, err := imagepkg.NewSurface(pl.Width, pl.Height)
	if err != nil {
		return nil, zerr.Wrap(err, "shop canvas")
	}
	dst := surface.Image()
	vbucks := p.bitmap(bitmapVBucks)
	plus := p.face(fontRegular74, 35)

	for i := range sections {
		sp := pl.Sections[i]
		for j := range sections[i].Entries {
			e := &sections[i].Entries[j]
			ep := sp.Entries[j]
			var art image.Image
			if s := images[e.ID]; s != nil {
				art = s.Image()
			}
			card := p.drawShopCard(e, art, ep.Card.Dx(), ep.Card.Dy(), vbucks, plus)
			imagepkg.DrawImageRounded(dst, card, ep.Card.Min, imagepkg.Uniform(cardRadius))
		}
	}
	return &Artifact{Surface: surface, Plan: pl}, nil
}

func layoutSections(sections []model.ShopSection) []layout.Section {
	out := make([]layout.Section, len(sections))
	for i := range sections {
		s := &sections[i]
		ls := layout.Section{ID: s.ID, HasName: s.Name != "", Entries: make([]layout.Entry, len(s.Entries))}
		for j := range s.Entries {
			e := &s.Entries[j]
			ls.Entries[j] = layout.Entry{ID: e.ID, Size: e.Size, HasBanner: e.Banner != nil}
		}
		out[i] = ls
	}
	return out
}

// drawShopCard paints the background, art, text shadow and currency icon of
// one entry.
func (p *Pipeline) drawShopCard(e *model.ShopEntry, art image.Image, w, h int, vbucks image.Image, plus *imagepkg.Face) *image.RGBA {
	card := image.NewRGBA(image.Rect(0, 0, w, h))
	track := e.ImageType == model.ImageTypeTrack

	switch {
	case len(e.BackgroundColors) > 0:
		imagepkg.FillRect(card, card.Rect, cardBackground(card.Rect, e.BackgroundColors))
	case track:
		imagepkg.FillRect(card, card.Rect, imagepkg.Solid(imagepkg.WithAlpha(imagepkg.Black, 0.3)))
	case e.ImageURL == "":
		imagepkg.FillRect(card, card.Rect, imagepkg.CornerRadialGradient(card.Rect, artGradientInner, artGradientOuter))
	}

	fit, lift := imagepkg.FitDefault, 0.0
	switch {
	case track && e.ImageURL == "":
		fit = imagepkg.FitCover
	case e.ImageType == model.ImageTypeCarBundle:
		fit = imagepkg.FitCenterVertical
	case e.Size >= 3:
		lift = wideCardLift
	}
	imagepkg.ComposeEntryArt(card, art, fit, lift)

	fh := float64(h)
	switch {
	case e.TextBackgroundColor != "":
		c := imagepkg.ParseColorOr(e.TextBackgroundColor, imagepkg.Black)
		imagepkg.FillRect(card, card.Rect, &imagepkg.LinearGradient{
			X0: float64(w) / 2, Y0: fh, X1: float64(w) / 2, Y1: fh * 0.7,
			Stops: imagepkg.Stops(c, imagepkg.WithAlpha(c, 0)),
		})
	case track:
		c := imagepkg.WithAlpha(imagepkg.Black, 0.8)
		imagepkg.FillRect(card, card.Rect, &imagepkg.LinearGradient{
			X0: float64(w) / 2, Y0: fh, X1: float64(w) / 2, Y1: fh * 0.6,
			Stops: imagepkg.Stops(c, imagepkg.WithAlpha(c, 0)),
		})
	}

	if vbucks != nil {
		imagepkg.DrawImage(card, vbucks, image.Pt(13, h-vbucks.Bounds().Dy()-11))
	}
	if e.IsSpecial {
		plus.Draw(card, "+", float64(w-18), fh-plus.Descent()+3, imagepkg.White, imagepkg.AlignRight)
	}
	return card
}

// cardBackground maps one to three colours to a fill. Three colours run from
// the first through the third to the second.
func cardBackground(r image.Rectangle, colors []string) image.Image {
	parsed := make([]color.NRGBA, len(colors))
	for i, c := range colors {
		parsed[i] = imagepkg.ParseColorOr(c, imagepkg.Black)
	}
	switch len(parsed) {
	case 1:
		return imagepkg.Solid(parsed[0])
	case 2:
		return imagepkg.VerticalGradient(r, parsed[0], parsed[1])
	default:
		return imagepkg.VerticalGradient(r, parsed[0], parsed[2], parsed[1])
	}
}

// buildShopLocale copies the base artifact and draws section names, entry
// names, prices and banners. header, when set, draws the shop title.
func (p *Pipeline) buildShopLocale(base *Artifact, sections []model.ShopSection, header func(*image.RGBA)) (*Artifact, error) {
	surface := base.Surface.Clone()
	dst := surface.Image()
	if header != nil {
		header(dst)
	}

	sectionFace := p.face(fontBoldItalic86, sectionNameFontSize)
	nameFace := p.face(fontMedium75, entryNameFontSize)
	priceFace := p.face(fontMedium75, entryPriceFontSize)
	bannerFace := p.face(fontBoldItalic76, bannerFontSize)

	for i := range sections {
		s := &sections[i]
		sp, ok := base.Plan.Section(s.ID)
		if !ok {
			continue
		}
		if sp.Name != nil {
			sectionFace.Draw(dst, s.Name, float64(sp.Name.X), float64(sp.Name.Y)+sectionFace.Ascent(), imagepkg.White, imagepkg.AlignLeft)
		}
		for j := range s.Entries {
			if j >= len(sp.Entries) {
				break
			}
			drawEntryText(dst, &s.Entries[j], sp.Entries[j], nameFace, priceFace, bannerFace)
		}
	}
	return &Artifact{Surface: surface, Plan: base.Plan}, nil
}

func (p *Pipeline) drawShopHeader(dst *image.RGBA, title, date string) {
	titleFace := p.face(fontBold86, titleFontSize)
	dateFace := p.face(fontBoldItalic86, dateFontSize)
	pad := float64(p.dims.HorizontalPadding)

	titleWidth := titleFace.Measure(title)
	titleFace.Draw(dst, title, pad, 50+titleFace.Ascent(), imagepkg.White, imagepkg.AlignLeft)

	x := math.Max(pad+titleWidth/2, pad+dateFace.Measure(date)/2)
	dateFace.Draw(dst, date, x, 313+dateFace.Ascent(), imagepkg.White, imagepkg.AlignCenter)
}

func drawEntryText(dst *image.RGBA, e *model.ShopEntry, ep layout.EntryPlacement, nameFace, priceFace, bannerFace *imagepkg.Face) {
	lines := nameFace.SplitLines(e.Name, float64(ep.Name.MaxWidth))
	nx, ny := float64(ep.Name.X), float64(ep.Name.Y)
	if len(lines) > 1 {
		b := nameFace.Bounds(lines[0])
		nameFace.Draw(dst, lines[0], nx, ny+b.Height()-33, imagepkg.White, imagepkg.AlignLeft)
	}
	if len(lines) > 0 {
		last := lines[len(lines)-1]
		nameFace.Draw(dst, last, nx, ny+nameFace.Bounds(last).Height(), imagepkg.White, imagepkg.AlignLeft)
	}

	px, py := float64(ep.Price.X), float64(ep.Price.Y)-priceFace.Descent()
	priceFace.Draw(dst, e.FinalPrice, px, py, imagepkg.White, imagepkg.AlignLeft)
	if e.Discounted() {
		faded := imagepkg.WithAlpha(imagepkg.White, strikeAlpha)
		ox := px + priceFace.Measure(e.FinalPrice) + regularPriceSpace
		priceFace.Draw(dst, e.RegularPrice, ox, py, faded, imagepkg.AlignLeft)

		x0, y0 := float32(ox-4), float32(py-9)
		x1, y1 := float32(ox+priceFace.Measure(e.RegularPrice)+2), float32(py-6)
		imagepkg.FillPolygon(dst, []imagepkg.Point{{X: x0, Y: y0 - 1}, {X: x1, Y: y1 - 1}, {X: x1, Y: y1 + 1}, {X: x0, Y: y0 + 1}}, imagepkg.Solid(faded))
	}

	if e.Banner != nil && ep.Banner != nil && len(e.Banner.Colors) >= 2 {
		bg := imagepkg.ParseColorOr(e.Banner.Colors[0], imagepkg.White)
		ink := imagepkg.ParseColorOr(e.Banner.Colors[1], imagepkg.Black)
		pill := imagepkg.Pill(bannerFace, e.Banner.Text, bg, ink, ep.Banner.MaxWidth)
		imagepkg.DrawImage(dst, pill, image.Pt(ep.Banner.X, ep.Banner.Y))
	}
}

// buildShopFinal paints the background, the locale artifact and the creator
// code overlay onto a new surface.
func (p *Pipeline) buildShopFinal(shop *model.Shop, loc *Artifact) (*Artifact, error) {
	w, h := loc.Surface.Width(), loc.Surface.Height()
	surface, err := imagepkg.NewSurface(w, h)
	if err != nil {
		return nil, zerr.Wrap(err, "shop final canvas")
	}
	dst := surface.Image()

	bg, _ := p.dataImage(shop.BackgroundImagePath)
	background(dst, bg, imagepkg.VerticalGradient(dst.Rect, shopGradientTop, shopGradientBottom), backgroundRadius)
	imagepkg.DrawImage(dst, loc.Surface.Image(), image.Point{})

	if shop.HasCreatorCode() {
		pad := p.dims.HorizontalPadding
		titleWidth := p.face(fontBold86, titleFontSize).Measure(shop.Title)
		maxWidth := float64(w) - float64(3*pad) - titleWidth

		box := imagepkg.CreatorCodeBox(p.face(fontBold76, creatorCodeFontSize), shop.CreatorCodeTitle, shop.CreatorCode, maxWidth)
		imagepkg.DrawImage(dst, box, image.Pt(w-pad-box.Rect.Dx(), pad))

		if ad := p.bitmap(bitmapAdBanner); ad != nil {
			b := ad.Bounds()
			imagepkg.DrawImage(dst, ad, image.Pt(w-pad-50-b.Dx(), pad-b.Dy()/2))
		}
	}
	return &Artifact{Surface: surface, Plan: loc.Plan}, nil
}
