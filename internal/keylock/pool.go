// Package keylock provides one mutual-exclusion lock per string key, backed by
// a bounded pool of reusable lock primitives.
package keylock

import (
	"context"
	"sync"
)

// DefaultPoolSize matches the number of lock primitives kept around between
// bursts of distinct keys.
const DefaultPoolSize = 64

// Pool hands out per-key locks. Locks for different keys never block each
// other; callers for the same key are served in arrival order.
type Pool struct {
	mu    sync.Mutex
	locks map[string]*keyLock
	free  []*keyLock
	size  int
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

// Handle is a held lock. Unlock must be called on every exit path.
type Handle struct {
	pool *Pool
	key  string
	lock *keyLock
	once sync.Once
}

// New creates a pool that keeps at most size idle lock primitives. The pool
// is filled up front.
func New(size int) *Pool {
	if size < 0 {
		size = 0
	}
	p := &Pool{
		locks: make(map[string]*keyLock),
		free:  make([]*keyLock, 0, size),
		size:  size,
	}
	for range size {
		p.free = append(p.free, newKeyLock())
	}
	return p
}

func newKeyLock() *keyLock {
	return &keyLock{sem: make(chan struct{}, 1)}
}

// Acquire blocks until the lock for key is held or ctx is done.
func (p *Pool) Acquire(ctx context.Context, key string) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	l, ok := p.locks[key]
	if !ok {
		l = p.take()
		p.locks[key] = l
	}
	l.refs++
	p.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
		return &Handle{pool: p, key: key, lock: l}, nil
	case <-ctx.Done():
		p.release(key, l)
		return nil, ctx.Err()
	}
}

// Unlock releases the lock. Calling it more than once is a no-op.
func (h *Handle) Unlock() {
	h.once.Do(func() {
		<-h.lock.sem
		h.pool.release(h.key, h.lock)
	})
}

// take must be called with p.mu held.
func (p *Pool) take() *keyLock {
	if n := len(p.free); n > 0 {
		l := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		return l
	}
	return newKeyLock()
}

func (p *Pool) release(key string, l *keyLock) {
	p.mu.Lock()
	defer p.mu.Unlock()

	l.refs--
	if l.refs > 0 {
		return
	}
	delete(p.locks, key)
	if len(p.free) < p.size {
		p.free = append(p.free, l)
	}
}

// Active returns the number of keys that currently have a holder or waiter.
func (p *Pool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}

// Idle returns the number of pooled lock primitives ready for reuse.
func (p *Pool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}
