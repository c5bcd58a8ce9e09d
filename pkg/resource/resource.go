package resource

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/tiercache/pkg/cache"
)

// State is a point-in-time view of a resource.
type State[V any] struct {
	// Data is the last cached or fetched value. Valid when HasData is true.
	Data    V
	HasData bool
	// Loading is true only while no cached value exists and a fetch is in flight.
	Loading bool
	// Err is the error of the last failed fetch, cleared by the next success.
	Err error
}

// Option configures a Resource.
type Option func(*options)

type options struct {
	logger *slog.Logger
	ttl    time.Duration
}

// WithTTL sets the TTL used when caching fetched values.
// Default: zero, the cache's default TTL.
func WithTTL(d time.Duration) Option {
	return func(o *options) {
		o.ttl = d
	}
}

// WithLogger sets the logger for cache write failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Resource is the uniform access contract for one logical resource:
// read through the cache, fetch on a miss, expose the outcome as State.
// Fetch failures are surfaced, never retried.
type Resource[V any] struct {
	cache   cache.Cache[V]
	fetch   cache.Fetcher[V]
	opts    options
	key     string
	flights singleflight.Group
	mu      sync.Mutex
	state   State[V]
}

// New creates a Resource reading key from c and filling misses with fetch.
//
// Example:
//
//	products := resource.New(c, cachekeys.Products, client.ProductsFetcher(),
//	    resource.WithTTL(cache.MediumTTL),
//	)
//	list, err := products.Load(ctx)
func New[V any](c cache.Cache[V], key string, fetch cache.Fetcher[V], opts ...Option) *Resource[V] {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	return &Resource[V]{
		cache: c,
		fetch: fetch,
		opts:  o,
		key:   key,
	}
}

// Key returns the cache key of the resource.
func (r *Resource[V]) Key() string {
	return r.key
}

// State returns the current state.
func (r *Resource[V]) State() State[V] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Load returns the cached value, fetching and caching it on a miss.
func (r *Resource[V]) Load(ctx context.Context) (V, error) {
	v, err := r.cache.Get(ctx, r.key)
	if err == nil {
		r.mu.Lock()
		r.state = State[V]{Data: v, HasData: true}
		r.mu.Unlock()
		return v, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		var zero V
		return zero, err
	}

	return r.load(ctx)
}

// Refetch evicts the cached value and fetches a fresh one.
func (r *Resource[V]) Refetch(ctx context.Context) (V, error) {
	if err := r.cache.Delete(ctx, r.key); err != nil {
		var zero V
		return zero, err
	}
	return r.load(ctx)
}

// Invalidate evicts the cached value without fetching.
// The last known Data stays in State until the next load.
func (r *Resource[V]) Invalidate(ctx context.Context) error {
	return r.cache.Delete(ctx, r.key)
}

func (r *Resource[V]) load(ctx context.Context) (V, error) {
	r.mu.Lock()
	r.state.Loading = true
	r.mu.Unlock()

	res, err, _ := r.flights.Do(r.key, func() (any, error) {
		v, err := r.fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := r.cache.Set(ctx, r.key, v, r.opts.ttl); err != nil {
			r.opts.logger.WarnContext(ctx, "resource: failed to cache fetched value",
				slog.String("key", r.key),
				slog.String("error", err.Error()),
			)
		}
		return v, nil
	})

	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.Loading = false
	if err != nil {
		r.state.Err = err
		var zero V
		return zero, err
	}

	v, _ := res.(V)
	r.state = State[V]{Data: v, HasData: true}
	return v, nil
}
