package cache

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Manager is the two-tier cache used by every data-consuming caller.
//
// Reads are served from the in-process fast tier and fall back to the durable
// tier, promoting durable hits into the fast tier. Writes go to the fast tier
// first and then, best effort, to the durable tier. A durable tier failure is
// logged and swallowed: the fast tier stays authoritative for the lifetime of
// the process, the durable tier only matters after a restart.
//
// A Manager is meant to be created once by the application's composition root
// and shared by all callers.
type Manager[V any] struct {
	fast      *Memory[V]
	durable   Durable
	marshaler Marshaler[V]
	opts      *managerOptions
	done      chan struct{}
	locks     keyLocks
	flights   singleflight.Group
	preloads  sync.WaitGroup
	mu        sync.Mutex
	closing   bool
	closed    atomic.Bool
}

// NewManager creates a Manager over the given durable tier.
// A nil durable tier yields a fast-tier-only cache.
//
// Example:
//
//	store := durable.NewMemory(durable.WithCapacity(5 << 20))
//	c := cache.NewManager[[]Product](store,
//	    cache.WithDefaultTTL(15*time.Minute),
//	    cache.WithCleanupInterval(5*time.Minute),
//	    cache.WithLogger(log),
//	)
//	defer c.Close()
func NewManager[V any](durable Durable, opts ...ManagerOption) *Manager[V] {
	o := defaultManagerOptions()
	for _, opt := range opts {
		opt(o)
	}

	marshaler, ok := o.marshaler.(Marshaler[V])
	if !ok {
		if o.marshaler != nil {
			o.logger.Warn("cache: marshaler does not match value type, using JSON")
		}
		marshaler = JSONMarshaler[V]()
	}

	m := &Manager[V]{
		fast: NewMemory[V](
			WithMemoryClock(o.clock),
			WithMemoryDefaultTTL(o.defaultTTL),
			WithMemoryCleanupInterval(0),
		),
		durable:   durable,
		marshaler: marshaler,
		opts:      o,
		done:      make(chan struct{}),
	}

	if o.cleanupInterval > 0 {
		go m.janitor()
	}

	return m
}

// Get returns the live value for key.
//
// Lookup order: fast tier, then durable tier. A durable hit is promoted into
// the fast tier with its original expiry. A stale entry found in either tier
// is removed from both. Durable read failures and corrupt payloads count as
// misses. Returns ErrNotFound on a miss.
func (m *Manager[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	if m.closed.Load() {
		return zero, ErrClosed
	}

	// Fast path without the key lock.
	if e, ok := m.fast.Entry(key); ok && !e.Expired(m.now()) {
		m.opts.observer.Hit(TierFast)
		return e.Value, nil
	}

	unlock := m.locks.lock(key)
	defer unlock()

	now := m.now()
	if e, ok := m.fast.Entry(key); ok {
		if !e.Expired(now) {
			m.opts.observer.Hit(TierFast)
			return e.Value, nil
		}
		m.evict(ctx, key)
		m.opts.observer.Expired(TierFast)
		m.opts.observer.Miss()
		return zero, ErrNotFound
	}

	if m.durable == nil {
		m.opts.observer.Miss()
		return zero, ErrNotFound
	}

	e, res := m.durableGet(ctx, key)
	if !m.settle(ctx, res) {
		if res.op == OpDecode {
			m.settle(ctx, m.durableDelete(ctx, key))
		}
		m.opts.observer.Miss()
		return zero, ErrNotFound
	}

	if e.Expired(now) {
		m.settle(ctx, m.durableDelete(ctx, key))
		m.opts.observer.Expired(TierDurable)
		m.opts.observer.Miss()
		return zero, ErrNotFound
	}

	if err := m.fast.Put(key, e); err != nil && !errors.Is(err, ErrClosed) {
		m.opts.logger.WarnContext(ctx, "cache: failed to promote durable entry",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}

	m.opts.observer.Hit(TierDurable)
	return e.Value, nil
}

// Set stores value under key for ttl. A zero ttl uses the default TTL,
// a negative ttl is rejected. The durable write is best effort: when it
// fails the durable copy is dropped so an older payload can never resurface.
func (m *Manager[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	ttl, err := resolveTTL(key, ttl, m.opts.defaultTTL)
	if err != nil {
		return err
	}
	if m.closed.Load() {
		return ErrClosed
	}

	unlock := m.locks.lock(key)
	defer unlock()

	e := newEntry(value, m.now(), ttl)
	if err := m.fast.Put(key, e); err != nil {
		return err
	}

	if m.durable != nil && !m.settle(ctx, m.durableSet(ctx, key, e)) {
		m.settle(ctx, m.durableDelete(ctx, key))
	}

	return nil
}

// Has reports whether key holds a live value.
// It has exactly the side effects of Get (promotion, purging stale entries).
func (m *Manager[V]) Has(ctx context.Context, key string) (bool, error) {
	_, err := m.Get(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Delete removes key from both tiers. Deleting a missing key is a no-op.
func (m *Manager[V]) Delete(ctx context.Context, key string) error {
	if m.closed.Load() {
		return ErrClosed
	}

	unlock := m.locks.lock(key)
	defer unlock()

	m.evict(ctx, key)
	return nil
}

// Clear removes every entry from both tiers.
// Call it on logout or session teardown so no per-user data survives.
func (m *Manager[V]) Clear(ctx context.Context) error {
	if m.closed.Load() {
		return ErrClosed
	}

	if err := m.fast.Clear(ctx); err != nil {
		return err
	}

	if m.durable == nil {
		return nil
	}

	if c, ok := m.durable.(DurableClearer); ok {
		dctx, cancel := m.durableContext(ctx)
		defer cancel()
		m.settle(ctx, durableResult{op: OpClear, err: c.Clear(dctx)})
		return nil
	}

	keys, res := m.durableKeys(ctx)
	if !m.settle(ctx, res) {
		return nil
	}
	for _, key := range keys {
		m.settle(ctx, m.durableDelete(ctx, key))
	}

	return nil
}

// Cleanup removes every expired entry and returns how many were removed.
// The fast tier is always swept; the durable tier is swept unless disabled
// with WithDurableSweep(false). Cleanup runs on the janitor interval and may
// also be called directly.
func (m *Manager[V]) Cleanup(ctx context.Context) int {
	removed := m.fast.DeleteExpired()

	if m.durable != nil && m.opts.sweepDurable {
		removed += m.sweepDurable(ctx)
	}

	m.opts.observer.Swept(removed)
	if removed > 0 {
		m.opts.logger.DebugContext(ctx, "cache: swept expired entries", slog.Int("removed", removed))
	}

	return removed
}

// Preload warms key in the background when it holds no live value.
//
// The fetcher runs in its own goroutine, detached from ctx cancellation, and
// concurrent preloads of the same key share one fetch. A fetch failure is
// logged and reported to the Observer. Preload never blocks on the fetch and
// never fails; if key is already live the fetcher is not invoked.
func (m *Manager[V]) Preload(ctx context.Context, key string, fetch Fetcher[V], ttl time.Duration) {
	if fetch == nil {
		return
	}
	if ok, err := m.Has(ctx, key); err != nil || ok {
		return
	}

	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return
	}
	m.preloads.Add(1)
	m.mu.Unlock()

	bg := context.WithoutCancel(ctx)
	go func() {
		defer m.preloads.Done()

		_, err, _ := m.flights.Do(key, func() (any, error) {
			// A preload that finished while this one was being scheduled already warmed the key.
			if ok, _ := m.Has(bg, key); ok {
				return nil, nil
			}
			v, err := fetch(bg)
			if err != nil {
				return nil, err
			}
			return nil, m.Set(bg, key, v, ttl)
		})

		m.opts.observer.Preloaded(err)
		if err != nil {
			m.opts.logger.WarnContext(bg, "cache: preload failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// Keys returns every key held by either tier in sorted order, expired
// entries not yet swept included. A durable listing failure is logged and
// only the fast tier keys are returned.
func (m *Manager[V]) Keys(ctx context.Context) ([]string, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}

	keys := m.fast.Keys()
	if m.durable == nil {
		return keys, nil
	}

	durableKeys, res := m.durableKeys(ctx)
	if !m.settle(ctx, res) {
		return keys, nil
	}

	keys = append(keys, durableKeys...)
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

// Stats describes the fast tier for diagnostics.
type Stats struct {
	Keys        []string `json:"keys"`
	Size        int      `json:"size"`
	ApproxBytes int64    `json:"approx_bytes"`
}

// Stats returns the fast tier size, its keys in sorted order and an
// approximate memory footprint (key lengths plus marshaled value sizes).
// Stats never changes cache state; expired entries not yet swept are counted.
func (m *Manager[V]) Stats() Stats {
	keys := m.fast.Keys()
	snapshot := m.fast.Snapshot()

	var size int64
	for key, e := range snapshot {
		size += int64(len(key))
		if data, err := m.marshaler.Marshal(e.Value); err == nil {
			size += int64(len(data))
		}
	}

	return Stats{
		Size:        len(keys),
		Keys:        keys,
		ApproxBytes: size,
	}
}

// Close refuses new preloads, lets in-flight preloads finish writing their
// values, then stops the janitor and rejects every further operation.
// Close is idempotent. It does not close the durable tier.
func (m *Manager[V]) Close() error {
	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return nil
	}
	m.closing = true
	m.mu.Unlock()

	m.preloads.Wait()

	m.closed.Store(true)
	close(m.done)
	return m.fast.Close()
}

// janitor periodically sweeps expired entries.
func (m *Manager[V]) janitor() {
	ticker := m.opts.clock.Ticker(m.opts.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.Cleanup(context.Background())
		}
	}
}

// evict removes key from both tiers. Caller must hold the key lock.
func (m *Manager[V]) evict(ctx context.Context, key string) {
	_ = m.fast.Delete(ctx, key)
	if m.durable != nil {
		m.settle(ctx, m.durableDelete(ctx, key))
	}
}

func (m *Manager[V]) sweepDurable(ctx context.Context) int {
	now := m.now()

	if s, ok := m.durable.(DurableSweeper); ok {
		dctx, cancel := m.durableContext(ctx)
		defer cancel()
		n, err := s.DeleteExpired(dctx, now)
		if !m.settle(ctx, durableResult{op: OpSweep, err: err}) {
			return 0
		}
		return n
	}

	keys, res := m.durableKeys(ctx)
	if !m.settle(ctx, res) {
		return 0
	}

	removed := 0
	for _, key := range keys {
		unlock := m.locks.lock(key)
		e, res := m.durableGet(ctx, key)
		stale := res.op == OpDecode || (res.ok() && e.Expired(now))
		if !res.ok() && !stale {
			m.settle(ctx, res)
		}
		if stale && m.settle(ctx, m.durableDelete(ctx, key)) {
			removed++
		}
		unlock()
	}

	return removed
}

func (m *Manager[V]) now() time.Time {
	return m.opts.clock.Now()
}

func (m *Manager[V]) durableContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.opts.durableTimeout)
}

func (m *Manager[V]) durableGet(ctx context.Context, key string) (Entry[V], durableResult) {
	dctx, cancel := m.durableContext(ctx)
	defer cancel()

	raw, err := m.durable.Get(dctx, key)
	if err != nil {
		return Entry[V]{}, durableResult{op: OpGet, key: key, err: err}
	}

	e, err := decodeEntry(m.marshaler, raw)
	if err != nil {
		return Entry[V]{}, durableResult{op: OpDecode, key: key, err: err}
	}

	return e, durableResult{op: OpGet, key: key}
}

func (m *Manager[V]) durableSet(ctx context.Context, key string, e Entry[V]) durableResult {
	raw, err := encodeEntry(m.marshaler, e)
	if err != nil {
		return durableResult{op: OpEncode, key: key, err: err}
	}

	dctx, cancel := m.durableContext(ctx)
	defer cancel()

	return durableResult{op: OpSet, key: key, err: m.durable.Set(dctx, key, raw, e.ExpiresAt)}
}

func (m *Manager[V]) durableDelete(ctx context.Context, key string) durableResult {
	dctx, cancel := m.durableContext(ctx)
	defer cancel()

	return durableResult{op: OpDelete, key: key, err: m.durable.Delete(dctx, key)}
}

func (m *Manager[V]) durableKeys(ctx context.Context) ([]string, durableResult) {
	dctx, cancel := m.durableContext(ctx)
	defer cancel()

	keys, err := m.durable.Keys(dctx)
	return keys, durableResult{op: OpKeys, err: err}
}

// settle reports whether a durable call succeeded. Failures are logged at
// warn level and reported to the observer; a plain miss on get is silent.
func (m *Manager[V]) settle(ctx context.Context, r durableResult) bool {
	if r.ok() {
		return true
	}
	if r.op == OpGet && errors.Is(r.err, ErrNotFound) {
		return false
	}

	m.opts.observer.DurableError(r.op)
	m.opts.logger.WarnContext(ctx, "cache: durable tier degraded",
		slog.String("op", r.op),
		slog.String("key", r.key),
		slog.String("error", r.err.Error()),
	)
	return false
}

// keyLocks serializes writers of the same key across both tiers.
type keyLocks [64]sync.Mutex

func (l *keyLocks) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	mu := &l[h.Sum32()%uint32(len(l))]
	mu.Lock()
	return mu.Unlock
}

var _ Cache[any] = (*Manager[any])(nil)
