package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youruser/imageapi/internal/cache"
	"github.com/youruser/imageapi/internal/keylock"
	"github.com/youruser/imageapi/internal/pipeline"
)

type resource struct {
	id       int
	refs     atomic.Int32
	released atomic.Int32
}

func newResource(id int) *resource {
	r := &resource{id: id}
	r.refs.Store(1)
	return r
}

func (r *resource) Retain() { r.refs.Add(1) }

func (r *resource) Release() {
	r.released.Add(1)
	r.refs.Add(-1)
}

type builder struct {
	calls atomic.Int32
}

func (b *builder) build(context.Context) (*resource, error) {
	return newResource(int(b.calls.Add(1))), nil
}

func TestKey(t *testing.T) {
	assert.Equal(t, "base:shop:abc", pipeline.Key(pipeline.StageBase, pipeline.KindShop, "abc"))
	assert.Equal(t, "locale:locker:en:item:fp", pipeline.Key(pipeline.StageLocale, pipeline.KindLocker, "en", "item", "fp"))
	assert.NotEqual(t,
		pipeline.Key(pipeline.StageBase, pipeline.KindShop, "x"),
		pipeline.Key(pipeline.StageLocale, pipeline.KindShop, "x"),
	)
}

func TestGetOrBuild_CachesAndRetains(t *testing.T) {
	c := cache.New[*resource]()
	locks := keylock.New(4)
	var b builder

	first, err := pipeline.GetOrBuild(t.Context(), locks, c, "k", time.Minute, false, b.build)
	require.NoError(t, err)
	second, err := pipeline.GetOrBuild(t.Context(), locks, c, "k", time.Minute, false, b.build)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), b.calls.Load())
	assert.Equal(t, int32(3), first.refs.Load())

	first.Release()
	second.Release()
	c.Clear()
	assert.Equal(t, int32(0), first.refs.Load())
}

func TestGetOrBuild_SingleFlight(t *testing.T) {
	c := cache.New[*resource]()
	locks := keylock.New(4)

	var calls atomic.Int32
	gate := make(chan struct{})
	build := func(context.Context) (*resource, error) {
		calls.Add(1)
		<-gate
		return newResource(1), nil
	}

	const n = 16
	var wg sync.WaitGroup
	results := make([]*resource, n)
	for i := range n {
		wg.Go(func() {
			r, err := pipeline.GetOrBuild(t.Context(), locks, c, "same", time.Minute, false, build)
			assert.NoError(t, err)
			results[i] = r
		})
	}
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, int32(n+1), results[0].refs.Load())
}

func TestGetOrBuild_NoCrossKeyBlocking(t *testing.T) {
	c := cache.New[*resource]()
	locks := keylock.New(4)

	gate := make(chan struct{})
	defer close(gate)
	started := make(chan struct{})
	go func() {
		_, _ = pipeline.GetOrBuild(context.Background(), locks, c, "slow", time.Minute, false, func(context.Context) (*resource, error) {
			close(started)
			<-gate
			return newResource(1), nil
		})
	}()
	<-started

	done := make(chan struct{})
	go func() {
		defer close(done)
		var b builder
		r, err := pipeline.GetOrBuild(t.Context(), locks, c, "fast", time.Minute, false, b.build)
		assert.NoError(t, err)
		r.Release()
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("build of an unrelated key was blocked")
	}
}

func TestGetOrBuild_ForceReplacesAndReleasesOld(t *testing.T) {
	c := cache.New[*resource]()
	locks := keylock.New(4)
	var b builder

	old, err := pipeline.GetOrBuild(t.Context(), locks, c, "k", time.Minute, false, b.build)
	require.NoError(t, err)
	old.Release()

	fresh, err := pipeline.GetOrBuild(t.Context(), locks, c, "k", time.Minute, true, b.build)
	require.NoError(t, err)
	defer fresh.Release()

	assert.NotSame(t, old, fresh)
	assert.Equal(t, int32(2), b.calls.Load())
	assert.Equal(t, int32(0), old.refs.Load())
	assert.Equal(t, int32(2), old.released.Load())

	cached, ok := c.Get("k")
	require.True(t, ok)
	assert.Same(t, fresh, cached)
	cached.Release()
}

func TestGetOrBuild_FailedBuildPublishesNothing(t *testing.T) {
	c := cache.New[*resource]()
	locks := keylock.New(4)
	boom := errors.New("boom")

	_, err := pipeline.GetOrBuild(t.Context(), locks, c, "k", time.Minute, false, func(context.Context) (*resource, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestGetOrBuild_CancelledBuildPublishesNothing(t *testing.T) {
	c := cache.New[*resource]()
	locks := keylock.New(4)
	ctx, cancel := context.WithCancel(t.Context())

	var built *resource
	_, err := pipeline.GetOrBuild(ctx, locks, c, "k", time.Minute, false, func(context.Context) (*resource, error) {
		built = newResource(1)
		cancel()
		return built, nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int32(0), built.refs.Load())

	var b builder
	r, err := pipeline.GetOrBuild(t.Context(), locks, c, "k", time.Minute, false, b.build)
	require.NoError(t, err)
	r.Release()
	assert.Equal(t, int32(1), b.calls.Load())
}

func TestGetOrBuild_CancelledWhileWaitingForLock(t *testing.T) {
	c := cache.New[*resource]()
	locks := keylock.New(4)

	gate := make(chan struct{})
	started := make(chan struct{})
	go func() {
		r, _ := pipeline.GetOrBuild(context.Background(), locks, c, "k", time.Minute, false, func(context.Context) (*resource, error) {
			close(started)
			<-gate
			return newResource(1), nil
		})
		if r != nil {
			r.Release()
		}
	}()
	<-started

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	_, err := pipeline.GetOrBuild(ctx, locks, c, "k", time.Minute, false, func(context.Context) (*resource, error) {
		t.Error("waiter must not build")
		return nil, nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	close(gate)
}

func TestGetOrBuild_ExpiredEntryIsRebuilt(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := cache.New[*resource]()
		locks := keylock.New(4)
		var b builder

		first, err := pipeline.GetOrBuild(t.Context(), locks, c, "k", time.Minute, false, b.build)
		require.NoError(t, err)
		first.Release()

		time.Sleep(2 * time.Minute)

		second, err := pipeline.GetOrBuild(t.Context(), locks, c, "k", time.Minute, false, b.build)
		require.NoError(t, err)
		defer second.Release()

		assert.NotSame(t, first, second)
		assert.Equal(t, int32(2), b.calls.Load())
		assert.Equal(t, int32(0), first.refs.Load())
	})
}
