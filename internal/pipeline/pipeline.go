// Package pipeline renders shop, locker and stats images in cached stages.
//
// Every request type runs up to three stages. The base stage draws the
// structure that only depends on identities and sizes, the locale stage adds
// text on a copy of the base, and the final stage adds per-request overlays on
// a copy of the locale artifact. Base and locale artifacts are cached under
// content fingerprints and built at most once at a time per key.
package pipeline

import (
	"context"
	"image"
	"log/slog"
	"math/rand/v2"
	"path"
	"runtime"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/youruser/imageapi/internal/cache"
	imagepkg "github.com/youruser/imageapi/internal/image"
	"github.com/youruser/imageapi/internal/keylock"
	"github.com/youruser/imageapi/internal/layout"
	"github.com/youruser/imageapi/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/youruser/imageapi/internal/pipeline"

// Font files used by the layouts.
const (
	fontRegular74    = "Assets/Fonts/Fortnite-74Regular.otf"
	fontMedium75     = "Assets/Fonts/Fortnite-75Medium.otf"
	fontBold76       = "Assets/Fonts/Fortnite-76Bold.otf"
	fontBoldItalic76 = "Assets/Fonts/Fortnite-76BoldItalic.otf"
	fontBold86       = "Assets/Fonts/Fortnite-86Bold.otf"
	fontBoldItalic86 = "Assets/Fonts/Fortnite-86BoldItalic.otf"
	fontFortnite     = "Assets/Fonts/Fortnite.ttf"
	fontSegoe        = "Assets/Fonts/Segoe.ttf"
	fontPoppins      = "Assets/Fonts/Poppins.ttf"
)

const (
	bitmapDiscordLogo = "Assets/Images/DiscordLogo.png"
	bitmapLogo        = "Assets/Images/Logo.png"
	dataImagesDir     = "data/images"
)

// Options tune a Pipeline. Zero values select the defaults.
type Options struct {
	// TTL bounds the lifetime of shop and locker artifacts. Stats templates
	// never expire.
	TTL time.Duration
	// LockPoolSize is the number of idle key locks kept around.
	LockPoolSize int
	// PrefetchConcurrency bounds parallel image downloads and locker card
	// builds. The default is half the CPUs, at least one.
	PrefetchConcurrency int
	// ItemCacheDir stores downloaded locker item images. Empty disables the
	// disk cache.
	ItemCacheDir string
	Dimensions   *layout.Dimensions
	Logger       *slog.Logger
	Tracer       trace.Tracer
}

// Pipeline owns the artifact caches and the key locks. It is safe for
// concurrent use.
type Pipeline struct {
	assets  Assets
	fetcher Fetcher

	locks     *keylock.Pool
	artifacts *cache.Cache[*Artifact]
	images    *cache.Cache[*imagepkg.Surface]

	dims     layout.Dimensions
	ttl      time.Duration
	parallel int
	itemDir  string
	logger   *slog.Logger
	tracer   trace.Tracer
	pick     func(n int) int
}

// New builds a pipeline drawing with assets and downloading with fetcher.
func New(assets Assets, fetcher Fetcher, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	poolSize := opts.LockPoolSize
	if poolSize <= 0 {
		poolSize = keylock.DefaultPoolSize
	}
	parallel := opts.PrefetchConcurrency
	if parallel <= 0 {
		parallel = max(runtime.NumCPU()/2, 1)
	}
	dims := layout.DefaultShopDimensions()
	if opts.Dimensions != nil {
		dims = *opts.Dimensions
	}

	onEvict := func(key string, _ any, reason cache.EvictionReason) {
		logger.Debug("cache eviction", "key", key, "reason", reason.String())
	}
	return &Pipeline{
		assets:  assets,
		fetcher: fetcher,
		locks:   keylock.New(poolSize),
		artifacts: cache.New(
			cache.WithLogger[*Artifact](logger),
			cache.WithEvictionCallback(func(key string, v *Artifact, r cache.EvictionReason) { onEvict(key, v, r) }),
		),
		images: cache.New(
			cache.WithLogger[*imagepkg.Surface](logger),
			cache.WithEvictionCallback(func(key string, v *imagepkg.Surface, r cache.EvictionReason) { onEvict(key, v, r) }),
		),
		dims:     dims,
		ttl:      ttl,
		parallel: parallel,
		itemDir:  opts.ItemCacheDir,
		logger:   logger,
		tracer:   tracer,
		pick:     rand.IntN,
	}
}

// Sweep evicts every expired artifact and downloaded image.
func (p *Pipeline) Sweep() int {
	return p.artifacts.Sweep() + p.images.Sweep()
}

// Run sweeps expired entries every interval until ctx is done.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) {
	go p.images.Run(ctx, interval)
	p.artifacts.Run(ctx, interval)
}

// Close releases every cached surface.
func (p *Pipeline) Close() {
	p.artifacts.Clear()
	p.images.Clear()
}

// CacheLen reports the number of cached artifacts and images.
func (p *Pipeline) CacheLen() (artifacts, images int) {
	return p.artifacts.Len(), p.images.Len()
}

// artifact runs GetOrBuild on the artifact cache inside a trace span.
func (p *Pipeline) artifact(
	ctx context.Context,
	key string,
	ttl time.Duration,
	force bool,
	build func(context.Context) (*Artifact, error),
) (*Artifact, error) {
	return GetOrBuild(ctx, p.locks, p.artifacts, key, ttl, force, traced(p.tracer, key, build))
}

func traced[V any](tracer trace.Tracer, key string, build func(context.Context) (V, error)) func(context.Context) (V, error) {
	return func(ctx context.Context) (V, error) {
		stage, _, _ := strings.Cut(key, ":")
		ctx, span := tracer.Start(ctx, "pipeline.build."+stage, trace.WithAttributes(attribute.String("cache.key", key)))
		defer span.End()

		v, err := build(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return v, err
	}
}

// face sizes the font at path. Faces are not shared between goroutines.
func (p *Pipeline) face(fontPath string, size float64) *imagepkg.Face {
	return imagepkg.MustFace(p.assets.Font(fontPath), size)
}

func (p *Pipeline) bitmap(assetPath string) image.Image {
	img, _ := p.assets.Bitmap(assetPath)
	return img
}

// dataImage loads a user supplied image below the data directory. Paths are
// confined to that directory.
func (p *Pipeline) dataImage(rel string) (image.Image, bool) {
	if strings.TrimSpace(rel) == "" {
		return nil, false
	}
	return p.assets.Bitmap(dataImagesDir + path.Clean("/"+rel))
}

// background paints img scaled to dst, or the gradient when img is nil, both
// clipped to a rounded rectangle.
func background(dst *image.RGBA, img image.Image, gradient image.Image, radius float32) {
	if img != nil {
		scaled := imaging.Resize(img, dst.Rect.Dx(), dst.Rect.Dy(), imaging.Lanczos)
		imagepkg.DrawImageRounded(dst, scaled, dst.Rect.Min, imagepkg.Uniform(radius))
		return
	}
	imagepkg.FillRoundRect(dst, imagepkg.Rect(dst.Rect), imagepkg.Uniform(radius), gradient)
}

func normalizeLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if locale == "" {
		return model.DefaultLocale
	}
	return locale
}

// releaseAll releases every non-nil value.
func releaseAll[T any, P interface {
	*T
	cache.Resource
}](vs []P) {
	for _, v := range vs {
		if v != nil {
			v.Release()
		}
	}
}
