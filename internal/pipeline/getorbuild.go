package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/youruser/imageapi/internal/cache"
	imagepkg "github.com/youruser/imageapi/internal/image"
	"github.com/youruser/imageapi/internal/keylock"
	"github.com/youruser/imageapi/internal/layout"
)

// Stage names the build step an artifact belongs to.
type Stage string

const (
	StageBase   Stage = "base"
	StageLocale Stage = "locale"
	StageFinal  Stage = "final"
	StageImage  Stage = "image"
)

// Kind names the request type an artifact belongs to.
type Kind string

const (
	KindShop        Kind = "shop"
	KindShopSection Kind = "shop-section"
	KindLocker      Kind = "locker"
	KindStats       Kind = "stats"
)

// Key builds a cache key. Parts are joined in order, so callers put the
// fingerprint last.
func Key(stage Stage, kind Kind, parts ...string) string {
	var b strings.Builder
	b.WriteString(string(stage))
	b.WriteByte(':')
	b.WriteString(string(kind))
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}

// Artifact is a rendered stage output. Plan is set for shop templates and
// shared read-only by every holder.
type Artifact struct {
	Surface *imagepkg.Surface
	Plan    *layout.Plan
}

func (a *Artifact) Retain()  { a.Surface.Retain() }
func (a *Artifact) Release() { a.Surface.Release() }

// GetOrBuild returns the value cached under key, building and publishing it
// under the key lock on a miss. The returned value is retained for the caller.
//
// With force set the cache is not consulted, but the build still runs under
// the key lock. A failed or cancelled build publishes nothing.
func GetOrBuild[V cache.Resource](
	ctx context.Context,
	locks *keylock.Pool,
	c *cache.Cache[V],
	key string,
	ttl time.Duration,
	force bool,
	build func(context.Context) (V, error),
) (V, error) {
	var zero V
	if !force {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
	}

	h, err := locks.Acquire(ctx, key)
	if err != nil {
		return zero, err
	}
	defer h.Unlock()

	if !force {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
	}

	v, err := build(ctx)
	if err != nil {
		return zero, err
	}
	if err := ctx.Err(); err != nil {
		v.Release()
		return zero, err
	}

	v.Retain()
	c.Set(key, v, ttl)
	return v, nil
}
