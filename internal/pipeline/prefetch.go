package pipeline

import (
	"context"
	"image"

	imagepkg "github.com/youruser/imageapi/internal/image"
	"github.com/youruser/imageapi/internal/model"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// placeholderSize is the side of the blank image used when an entry image
// cannot be downloaded.
const placeholderSize = 512

// prefetchEntryImages downloads the art of every entry in parallel. Entries
// sharing an id and source share one download. The returned surfaces are
// retained and must be released with releaseAll.
func (p *Pipeline) prefetchEntryImages(ctx context.Context, sections []model.ShopSection) (map[string]*imagepkg.Surface, error) {
	type job struct {
		id, url string
	}
	var jobs []job
	seen := make(map[string]struct{})
	for i := range sections {
		for j := range sections[i].Entries {
			e := &sections[i].Entries[j]
			if _, ok := seen[e.ID]; ok {
				continue
			}
			seen[e.ID] = struct{}{}
			jobs = append(jobs, job{id: e.ID, url: e.ImageSource()})
		}
	}

	results := make([]*imagepkg.Surface, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallel)
	for i, j := range jobs {
		g.Go(func() error {
			s, err := p.entryImage(gctx, j.id, j.url)
			if err != nil {
				return err
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		releaseAll(results)
		return nil, zerr.Wrap(err, "prefetch entry images")
	}

	out := make(map[string]*imagepkg.Surface, len(jobs))
	for i, j := range jobs {
		out[j.id] = results[i]
	}
	return out, nil
}

// entryImage returns the cached download of url. A failed download yields a
// transparent placeholder so the entry still gets a card.
func (p *Pipeline) entryImage(ctx context.Context, id, url string) (*imagepkg.Surface, error) {
	key := Key(StageImage, KindShop, id, urlFingerprint(url))
	return GetOrBuild(ctx, p.locks, p.images, key, p.ttl, false, traced(p.tracer, key, func(ctx context.Context) (*imagepkg.Surface, error) {
		img, err := p.fetcher.Fetch(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Warn("entry image unavailable, using placeholder", "entry", id, "url", url, "error", err)
			img = image.NewNRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
		}
		return imagepkg.FromImage(img)
	}))
}
