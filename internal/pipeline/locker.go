package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	imagepkg "github.com/youruser/imageapi/internal/image"
	"github.com/youruser/imageapi/internal/layout"
	"github.com/youruser/imageapi/internal/model"
	"github.com/youruser/imageapi/internal/util"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Locker card geometry.
const (
	itemWidth        = 256
	itemHeight       = 313
	itemOverlayTop   = itemHeight - 65
	itemGap          = 25
	lockerPadding    = 50
	lockerMinColumns = 5
	resizedHost      = "fortnite-api.com"
	resizedSuffix    = "_256"
)

const (
	bitmapLockerIcon = "Assets/Images/Locker/Icon.png"
	lockerBadgeText  = "EASYFNSTATS.COM"
)

var (
	lockerGradientTop    = shopGradientTop
	lockerGradientBottom = shopGradientBottom
)

// Locker renders a grid of item cards under the player name. The caller owns
// the returned surface.
func (p *Pipeline) Locker(ctx context.Context, locker *model.Locker) (*imagepkg.Surface, error) {
	if err := locker.Validate(); err != nil {
		return nil, err
	}
	locale := normalizeLocale(locker.Locale)

	cards := make([]*Artifact, len(locker.Items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallel)
	for i := range locker.Items {
		g.Go(func() error {
			a, err := p.lockerItem(gctx, &locker.Items[i], locale)
			if err != nil {
				return err
			}
			cards[i] = a
			return nil
		})
	}
	err := g.Wait()
	defer releaseAll(cards)
	if err != nil {
		return nil, zerr.Wrap(err, "render locker items")
	}
	return p.buildLockerFinal(locker, cards)
}

// lockerItem returns the text-bearing card of one item, building the base and
// locale artifacts on a miss.
func (p *Pipeline) lockerItem(ctx context.Context, it *model.LockerItem, locale string) (*Artifact, error) {
	baseFP := lockerItemBaseFingerprint(it)
	base, err := p.artifact(ctx, Key(StageBase, KindLocker, it.ID, baseFP), p.ttl, false, func(ctx context.Context) (*Artifact, error) {
		return p.buildLockerItemBase(ctx, it)
	})
	if err != nil {
		return nil, err
	}
	defer base.Release()

	localeFP := lockerItemLocaleFingerprint(baseFP, locale, it)
	return p.artifact(ctx, Key(StageLocale, KindLocker, locale, it.ID, localeFP), p.ttl, false, func(context.Context) (*Artifact, error) {
		return p.buildLockerItemLocale(base, it), nil
	})
}

func (p *Pipeline) buildLockerItemBase(ctx context.Context, it *model.LockerItem) (*Artifact, error) {
	surface, err := imagepkg.NewSurface(itemWidth, itemHeight)
	if err != nil {
		return nil, zerr.Wrap(err, "locker card canvas")
	}
	dst := surface.Image()

	if bg := p.bitmap("Assets/Images/Locker/RarityBackgrounds/" + it.Rarity + ".png"); bg != nil {
		imagepkg.DrawImageScaled(dst, bg, image.Point{}, itemWidth, itemHeight)
	}

	art, err := p.itemImage(ctx, it)
	if err != nil {
		surface.Release()
		return nil, err
	}
	if art != nil {
		imagepkg.DrawImageScaled(dst, art, image.Point{}, itemWidth, itemWidth)
	} else {
		imagepkg.QuestionMark(dst, p.face(fontBold86, itemWidth))
	}

	var icon image.Image
	if it.SourceType != model.SourceOther {
		icon = p.bitmap("Assets/Images/Locker/Source/" + it.SourceType.AssetName() + ".png")
	}
	imagepkg.DrawImage(dst, imagepkg.ItemCardOverlay(itemWidth, icon), image.Pt(0, itemOverlayTop))
	stripe := imagepkg.RarityStripe(itemWidth, imagepkg.ParseColorOr(it.RarityColor, imagepkg.Gray))
	imagepkg.DrawImage(dst, stripe, image.Pt(0, itemOverlayTop-14+5))

	return &Artifact{Surface: surface}, nil
}

func (p *Pipeline) buildLockerItemLocale(base *Artifact, it *model.LockerItem) *Artifact {
	surface := base.Surface.Clone()
	dst := surface.Image()
	rarity := imagepkg.ParseColorOr(it.RarityColor, imagepkg.Gray)

	name := p.face(fontFortnite, 18)
	text := it.Name
	nb := name.Bounds(text)
	name.Draw(dst, name.Truncate(text, itemWidth-10), itemWidth/2, itemHeight-59+nb.Height(), imagepkg.White, imagepkg.AlignCenter)

	small := p.face(fontFortnite, 15)
	db := small.Bounds(it.Description)
	small.Draw(dst, small.Truncate(it.Description, itemWidth-10), itemWidth/2, itemHeight-42+db.Height(), rarity, imagepkg.AlignCenter)

	right := float64(itemWidth - 42)
	if it.SourceType == model.SourceOther {
		right = itemWidth - 10
	}
	sb := small.Bounds(it.Source)
	small.Draw(dst, it.Source, right, itemHeight-sb.Height()+8, imagepkg.White, imagepkg.AlignRight)

	return &Artifact{Surface: surface}
}

// itemImage loads the item art from the disk cache or downloads it. A nil
// image without error means the art is unavailable.
func (p *Pipeline) itemImage(ctx context.Context, it *model.LockerItem) (image.Image, error) {
	var file string
	if p.itemDir != "" {
		file = filepath.Join(p.itemDir, it.ID+".png")
		if util.FileExists(file) {
			img, err := imaging.Open(file)
			if err == nil {
				return img, nil
			}
			p.logger.Warn("cached item image unreadable", "item", it.ID, "path", file, "error", err)
		}
	}
	if it.ImageURL == "" {
		return nil, nil
	}

	img, err := p.fetcher.Fetch(ctx, resizedImageURL(it.ImageURL))
	if err != nil && util.StatusCode(err) == http.StatusNotFound {
		img, err = p.fetcher.Fetch(ctx, it.ImageURL)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.logger.Warn("item image unavailable", "item", it.ID, "url", it.ImageURL, "error", err)
		return nil, nil
	}

	if b := img.Bounds(); b.Dx() != itemWidth || b.Dy() != itemWidth {
		img = imaging.Resize(img, itemWidth, itemWidth, imaging.Lanczos)
	}
	if file != "" {
		p.saveItemImage(file, img)
	}
	return img, nil
}

func (p *Pipeline) saveItemImage(file string, img image.Image) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		p.logger.Warn("encode item image", "path", file, "error", err)
		return
	}
	if err := util.WriteFileAtomic(file, buf.Bytes()); err != nil {
		p.logger.Warn("store item image", "path", file, "error", err)
	}
}

// resizedImageURL points fortnite-api.com image URLs at their 256 pixel
// variant by suffixing the file name. Other URLs are returned unchanged.
func resizedImageURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || !strings.EqualFold(u.Hostname(), resizedHost) {
		return raw
	}
	dir, file := path.Split(u.Path)
	if file == "" {
		return raw
	}
	ext := path.Ext(file)
	stem := strings.TrimSuffix(file, ext)
	if strings.HasSuffix(stem, resizedSuffix) {
		return raw
	}
	u.Path = dir + stem + resizedSuffix + ext
	return u.String()
}

// buildLockerFinal lays the item cards out on a near-square grid. The header
// and footer scale with the number of rows.
func (p *Pipeline) buildLockerFinal(locker *model.Locker, cards []*Artifact) (*imagepkg.Surface, error) {
	grid := layout.Grid(len(cards), lockerMinColumns)
	ui := 1 + float64(grid.Rows)*0.15
	nameSize := int(64 * ui)
	footer := int(80 * ui)

	w := lockerPadding + itemWidth*grid.Columns + itemGap*(grid.Columns-1) + lockerPadding
	h := lockerPadding + nameSize + lockerPadding + grid.Rows*itemHeight + (grid.Rows-1)*itemGap + footer

	surface, err := imagepkg.NewSurface(w, h)
	if err != nil {
		return nil, zerr.Wrap(err, "locker canvas")
	}
	dst := surface.Image()
	imagepkg.FillRect(dst, dst.Rect, imagepkg.VerticalGradient(dst.Rect, lockerGradientTop, lockerGradientBottom))

	iconSize := int(50 * ui)
	if icon := p.bitmap(bitmapLockerIcon); icon != nil {
		imagepkg.DrawImageScaled(dst, icon, image.Pt(lockerPadding, lockerPadding), iconSize, iconSize)
	}
	imagepkg.FillRoundRect(dst, imagepkg.RectF{
		X: float32(float64(lockerPadding+iconSize) + 5*ui),
		Y: 57,
		W: float32(5 * ui),
		H: float32(50 * ui),
	}, imagepkg.Uniform(float32(3*ui)), imagepkg.Solid(imagepkg.White))

	segoe := p.face(fontSegoe, float64(nameSize))
	segoe.DrawTop(dst, locker.PlayerName, float64(lockerPadding+iconSize)+15*ui, 58, imagepkg.White, imagepkg.AlignLeft)

	if locker.UserName != "" {
		box := imagepkg.DiscordBox(segoe, p.bitmap(bitmapDiscordLogo), locker.UserName, ui)
		imagepkg.DrawImage(dst, box, image.Pt(w-lockerPadding-box.Rect.Dx(), 39))
	}

	top := lockerPadding + nameSize + lockerPadding
	for i, c := range cards {
		col, row := grid.Cell(i)
		pt := image.Pt(lockerPadding+col*(itemWidth+itemGap), top+row*(itemHeight+itemGap))
		imagepkg.DrawImage(dst, c.Surface.Image(), pt)
	}

	badge := imagepkg.LogoBadge(p.face(fontPoppins, 40), p.bitmap(bitmapLogo), lockerBadgeText, ui)
	bw, bh := badge.Rect.Dx(), badge.Rect.Dy()
	imagepkg.DrawImage(dst, badge, image.Pt((w-bw)/2, h-(footer+bh)/2))
	return surface, nil
}
