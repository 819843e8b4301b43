// Package cache implements an expiring key/value store for values that own
// memory which must be freed explicitly when they leave the cache.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTTL is the absolute lifetime of per-request images.
const DefaultTTL = 10 * time.Minute

// Resource is a reference-counted value. The cache holds one reference for as
// long as the value is published and hands a fresh reference to every Get.
type Resource interface {
	Retain()
	Release()
}

// EvictionReason tells an EvictionFunc why a value left the cache.
type EvictionReason int

const (
	Replaced EvictionReason = iota + 1
	Expired
	Removed
	Cleared
)

func (r EvictionReason) String() string {
	switch r {
	case Replaced:
		return "replaced"
	case Expired:
		return "expired"
	case Removed:
		return "removed"
	case Cleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// EvictionFunc observes evictions. It runs before the cache drops its
// reference to the value.
type EvictionFunc[V Resource] func(key string, value V, reason EvictionReason)

type entry[V Resource] struct {
	value     V
	createdAt time.Time
	expiresAt time.Time
}

func (e *entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Cache is safe for concurrent use.
type Cache[V Resource] struct {
	mu      sync.RWMutex
	entries map[string]*entry[V]
	onEvict EvictionFunc[V]
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Cache.
type Option[V Resource] func(*Cache[V])

// WithEvictionCallback registers fn to observe every eviction.
func WithEvictionCallback[V Resource](fn EvictionFunc[V]) Option[V] {
	return func(c *Cache[V]) {
		c.onEvict = fn
	}
}

// WithLogger sets the logger used to report failing release hooks.
func WithLogger[V Resource](logger *slog.Logger) Option[V] {
	return func(c *Cache[V]) {
		c.logger = logger
	}
}

// New creates an empty cache.
func New[V Resource](opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		entries: make(map[string]*entry[V]),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a retained reference to the value stored under key. The caller
// must Release it. Expired entries are evicted and reported as a miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	now := c.now()

	c.mu.RLock()
	e, ok := c.entries[key]
	if ok && !e.expired(now) {
		e.value.Retain()
		v := e.value
		c.mu.RUnlock()
		return v, true
	}
	c.mu.RUnlock()

	if ok {
		c.expire(key, e)
	}
	var zero V
	return zero, false
}

// Set publishes value under key and takes over the caller's reference. A zero
// ttl never expires. A value previously stored under key is released after
// the new one is visible.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	now := c.now()
	e := &entry[V]{value: value, createdAt: now}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}

	c.mu.Lock()
	old, ok := c.entries[key]
	c.entries[key] = e
	c.mu.Unlock()

	if ok {
		c.evict(key, old.value, Replaced)
	}
}

// Remove evicts key. It reports whether a value was present.
func (c *Cache[V]) Remove(key string) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	if ok {
		c.evict(key, e.value, Removed)
	}
	return ok
}

// Sweep evicts every expired entry and returns how many were removed.
func (c *Cache[V]) Sweep() int {
	now := c.now()

	type victim struct {
		key   string
		value V
	}
	var victims []victim

	c.mu.Lock()
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			victims = append(victims, victim{key: key, value: e.value})
		}
	}
	c.mu.Unlock()

	for _, v := range victims {
		c.evict(v.key, v.value, Expired)
	}
	return len(victims)
}

// Run sweeps expired entries every interval until ctx is done.
func (c *Cache[V]) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Clear evicts everything.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[string]*entry[V])
	c.mu.Unlock()

	for key, e := range entries {
		c.evict(key, e.value, Cleared)
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[V]) expire(key string, e *entry[V]) {
	c.mu.Lock()
	current, ok := c.entries[key]
	removed := ok && current == e
	if removed {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	if removed {
		c.evict(key, e.value, Expired)
	}
}

func (c *Cache[V]) evict(key string, value V, reason EvictionReason) {
	if c.onEvict != nil {
		c.guard(key, reason, func() { c.onEvict(key, value, reason) })
	}
	c.guard(key, reason, value.Release)
}

// guard keeps a panicking hook from failing the cache operation that
// triggered the eviction.
func (c *Cache[V]) guard(key string, reason EvictionReason, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("cache eviction hook panicked",
				"key", key,
				"reason", reason.String(),
				"panic", r,
			)
		}
	}()
	fn()
}
