package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Memory is an in-memory cache with TTL-based expiration.
//
// It is the fast tier of a Manager but is also usable on its own as a
// process-local Cache. Expired entries are removed lazily on access and
// periodically by a background janitor goroutine.
type Memory[V any] struct {
	items   map[string]Entry[V]
	opts    *memoryOptions
	onEvict func(key string, value V)
	done    chan struct{}
	mu      sync.Mutex
	closed  bool
}

// NewMemory creates a new in-memory cache.
//
// Example:
//
//	c := cache.NewMemory[string](
//	    cache.WithMemoryDefaultTTL(5 * time.Minute),
//	    cache.WithMemoryCleanupInterval(30 * time.Second),
//	)
//	defer c.Close()
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	o := defaultMemoryOptions()
	for _, opt := range opts {
		opt(o)
	}

	m := &Memory[V]{
		items: make(map[string]Entry[V]),
		opts:  o,
		done:  make(chan struct{}),
	}

	if o.cleanupInterval > 0 {
		go m.janitor()
	}

	return m
}

// SetEvictCallback sets a callback function that is called when items
// are removed from the cache. This includes TTL expiration, manual deletion
// and clearing, but not overwrites.
func (m *Memory[V]) SetEvictCallback(fn func(key string, value V)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEvict = fn
}

// Get retrieves a value by key.
// Returns ErrNotFound if the key does not exist or has expired.
func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok {
		var zero V
		return zero, ErrNotFound
	}

	if e.Expired(m.opts.clock.Now()) {
		m.remove(key, e)
		var zero V
		return zero, ErrNotFound
	}

	return e.Value, nil
}

// Set stores a value with the given TTL.
// TTL semantics: positive = expires after duration, zero = use default TTL,
// negative = ErrInvalidTTL.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	ttl, err := resolveTTL(key, ttl, m.opts.defaultTTL)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	m.items[key] = newEntry(value, m.opts.clock.Now(), ttl)
	return nil
}

// Put stores a prepared entry as is, keeping its timestamps.
// Used for promoting durable-tier hits without extending their lifetime.
func (m *Memory[V]) Put(key string, e Entry[V]) error {
	if key == "" {
		return ErrEmptyKey
	}
	if !e.ExpiresAt.After(e.CreatedAt) {
		return ErrInvalidTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	m.items[key] = e
	return nil
}

// Entry returns the stored entry for key without checking or enforcing expiry.
func (m *Memory[V]) Entry(key string) (Entry[V], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	return e, ok
}

// Delete removes a key from the cache.
func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if e, ok := m.items[key]; ok {
		m.remove(key, e)
	}

	return nil
}

// Has checks whether a key exists and has not expired.
func (m *Memory[V]) Has(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok {
		return false, nil
	}

	if e.Expired(m.opts.clock.Now()) {
		m.remove(key, e)
		return false, nil
	}

	return true, nil
}

// Clear removes all entries from the cache.
func (m *Memory[V]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if m.onEvict != nil {
		for key, e := range m.items {
			m.onEvict(key, e.Value)
		}
	}

	m.items = make(map[string]Entry[V])

	return nil
}

// Keys returns all stored keys, including expired ones not yet swept, in sorted order.
func (m *Memory[V]) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.items))
	for key := range m.items {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Snapshot returns a copy of all stored entries.
func (m *Memory[V]) Snapshot() map[string]Entry[V] {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]Entry[V], len(m.items))
	for key, e := range m.items {
		out[key] = e
	}
	return out
}

// DeleteExpired removes all expired entries and returns how many were removed.
func (m *Memory[V]) DeleteExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.opts.clock.Now()
	removed := 0
	for key, e := range m.items {
		if e.Expired(now) {
			m.remove(key, e)
			removed++
		}
	}
	return removed
}

// Close stops the background janitor goroutine and marks the cache as closed.
// Close is idempotent.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true
	close(m.done)

	return nil
}

// janitor periodically removes expired entries.
func (m *Memory[V]) janitor() {
	ticker := m.opts.clock.Ticker(m.opts.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.DeleteExpired()
		}
	}
}

// remove deletes a key and triggers the eviction callback.
// Caller must hold the mutex.
func (m *Memory[V]) remove(key string, e Entry[V]) {
	delete(m.items, key)

	if m.onEvict != nil {
		m.onEvict(key, e.Value)
	}
}

// resolveTTL validates the key and maps a zero TTL to the default.
func resolveTTL(key string, ttl, def time.Duration) (time.Duration, error) {
	if key == "" {
		return 0, ErrEmptyKey
	}
	if ttl < 0 {
		return 0, ErrInvalidTTL
	}
	if ttl == 0 {
		ttl = def
	}
	if ttl <= 0 {
		return 0, ErrInvalidTTL
	}
	return ttl, nil
}

var _ Cache[any] = (*Memory[any])(nil)
