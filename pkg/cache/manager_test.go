package cache_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tiercache/pkg/cache"
	"github.com/dmitrymomot/tiercache/pkg/durable"
)

type product struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

var errStoreDown = errors.New("store down")

// failingStore rejects every durable operation.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error)         { return nil, errStoreDown }
func (failingStore) Set(context.Context, string, []byte, time.Time) error { return errStoreDown }
func (failingStore) Delete(context.Context, string) error                 { return errStoreDown }
func (failingStore) Keys(context.Context) ([]string, error)               { return nil, errStoreDown }

// recorder counts observer events.
type recorder struct {
	mu            sync.Mutex
	hits          map[cache.Tier]int
	expired       map[cache.Tier]int
	durableErrors map[string]int
	misses        int
	preloaded     int
	preloadFailed int
	swept         int
}

func newRecorder() *recorder {
	return &recorder{
		hits:          make(map[cache.Tier]int),
		expired:       make(map[cache.Tier]int),
		durableErrors: make(map[string]int),
	}
}

func (r *recorder) Hit(tier cache.Tier) { r.mu.Lock(); r.hits[tier]++; r.mu.Unlock() }
func (r *recorder) Miss()              { r.mu.Lock(); r.misses++; r.mu.Unlock() }
func (r *recorder) Expired(tier cache.Tier) {
	r.mu.Lock()
	r.expired[tier]++
	r.mu.Unlock()
}
func (r *recorder) DurableError(op string) { r.mu.Lock(); r.durableErrors[op]++; r.mu.Unlock() }
func (r *recorder) Swept(n int)            { r.mu.Lock(); r.swept += n; r.mu.Unlock() }
func (r *recorder) Preloaded(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.preloadFailed++
		return
	}
	r.preloaded++
}

func (r *recorder) snapshot() recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return recorder{
		hits:          copyMap(r.hits),
		expired:       copyMap(r.expired),
		durableErrors: copyMap(r.durableErrors),
		misses:        r.misses,
		preloaded:     r.preloaded,
		preloadFailed: r.preloadFailed,
		swept:         r.swept,
	}
}

func copyMap[K comparable](m map[K]int) map[K]int {
	out := make(map[K]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func newTestManager[V any](t *testing.T, store cache.Durable, mock *clock.Mock, opts ...cache.ManagerOption) *cache.Manager[V] {
	t.Helper()

	opts = append([]cache.ManagerOption{
		cache.WithClock(mock),
		cache.WithCleanupInterval(0),
	}, opts...)

	m := cache.NewManager[V](store, opts...)
	t.Cleanup(func() { _ = m.Close() })

	return m
}

// --- Manager: Set / Get ---

func TestManager_SetGet(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		m := newTestManager[[]product](t, durable.NewMemory(), clock.NewMock())
		ctx := context.Background()
		products := []product{{ID: 1, Name: "Lamp", Price: 19.9}, {ID: 2, Name: "Desk", Price: 120}}

		require.NoError(t, m.Set(ctx, "products", products, time.Minute))

		got, err := m.Get(ctx, "products")
		require.NoError(t, err)
		require.Equal(t, products, got)
	})

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()

		m := newTestManager[string](t, durable.NewMemory(), clock.NewMock())

		_, err := m.Get(context.Background(), "missing")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("last write wins", func(t *testing.T) {
		t.Parallel()

		store := durable.NewMemory()
		mock := clock.NewMock()
		m := newTestManager[string](t, store, mock)
		ctx := context.Background()

		require.NoError(t, m.Set(ctx, "key", "first", time.Minute))
		require.NoError(t, m.Set(ctx, "key", "second", time.Minute))

		got, err := m.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, "second", got)

		// A cold manager over the same store sees the same last write.
		cold := newTestManager[string](t, store, mock)
		got, err = cold.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, "second", got)
	})

	t.Run("zero TTL uses the default", func(t *testing.T) {
		t.Parallel()

		mock := clock.NewMock()
		m := newTestManager[string](t, nil, mock, cache.WithDefaultTTL(time.Minute))
		ctx := context.Background()

		require.NoError(t, m.Set(ctx, "key", "value", 0))

		mock.Add(time.Minute)
		ok, err := m.Has(ctx, "key")
		require.NoError(t, err)
		require.True(t, ok)

		mock.Add(time.Millisecond)
		ok, err = m.Has(ctx, "key")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("invalid input is rejected", func(t *testing.T) {
		t.Parallel()

		m := newTestManager[string](t, durable.NewMemory(), clock.NewMock())
		ctx := context.Background()

		require.ErrorIs(t, m.Set(ctx, "key", "value", -time.Second), cache.ErrInvalidTTL)
		require.ErrorIs(t, m.Set(ctx, "", "value", time.Minute), cache.ErrEmptyKey)
		require.Zero(t, m.Stats().Size)
	})
}

// --- Manager: expiry ---

func TestManager_Expiry(t *testing.T) {
	t.Parallel()

	t.Run("products expire after fifteen minutes", func(t *testing.T) {
		t.Parallel()

		mock := clock.NewMock()
		m := newTestManager[[]product](t, durable.NewMemory(), mock)
		ctx := context.Background()

		require.NoError(t, m.Set(ctx, "products", []product{{ID: 1, Name: "Lamp"}}, 900000*time.Millisecond))

		mock.Add(901000 * time.Millisecond)

		_, err := m.Get(ctx, "products")
		require.ErrorIs(t, err, cache.ErrNotFound)

		ok, err := m.Has(ctx, "products")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("expired fast entry is purged from both tiers", func(t *testing.T) {
		t.Parallel()

		store := durable.NewMemory()
		mock := clock.NewMock()
		obs := newRecorder()
		m := newTestManager[string](t, store, mock, cache.WithObserver(obs))
		ctx := context.Background()

		require.NoError(t, m.Set(ctx, "key", "value", time.Minute))
		mock.Add(2 * time.Minute)

		_, err := m.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)

		_, err = store.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
		require.Empty(t, m.Stats().Keys)
		require.Equal(t, 1, obs.snapshot().expired[cache.TierFast])
	})

	t.Run("expired durable entry is purged on access", func(t *testing.T) {
		t.Parallel()

		store := durable.NewMemory()
		mock := clock.NewMock()
		warm := newTestManager[string](t, store, mock)
		ctx := context.Background()
		require.NoError(t, warm.Set(ctx, "key", "value", time.Minute))

		mock.Add(2 * time.Minute)

		obs := newRecorder()
		cold := newTestManager[string](t, store, mock, cache.WithObserver(obs))
		_, err := cold.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)

		_, err = store.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
		require.Equal(t, 1, obs.snapshot().expired[cache.TierDurable])
	})
}

// --- Manager: durable tier ---

func TestManager_Durable(t *testing.T) {
	t.Parallel()

	t.Run("durable hit is promoted with its original expiry", func(t *testing.T) {
		t.Parallel()

		store := durable.NewMemory()
		mock := clock.NewMock()
		ctx := context.Background()

		warm := newTestManager[product](t, store, mock)
		require.NoError(t, warm.Set(ctx, "product_42", product{ID: 42, Name: "Chair"}, time.Minute))

		obs := newRecorder()
		cold := newTestManager[product](t, store, mock, cache.WithObserver(obs))
		require.Empty(t, cold.Stats().Keys)

		mock.Add(30 * time.Second)

		got, err := cold.Get(ctx, "product_42")
		require.NoError(t, err)
		require.Equal(t, product{ID: 42, Name: "Chair"}, got)
		require.Equal(t, []string{"product_42"}, cold.Stats().Keys)

		_, err = cold.Get(ctx, "product_42")
		require.NoError(t, err)

		s := obs.snapshot()
		require.Equal(t, 1, s.hits[cache.TierDurable])
		require.Equal(t, 1, s.hits[cache.TierFast])

		// Promotion must not extend the lifetime.
		mock.Add(31 * time.Second)
		_, err = cold.Get(ctx, "product_42")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("corrupt payload is a miss and is purged", func(t *testing.T) {
		t.Parallel()

		store := durable.NewMemory()
		mock := clock.NewMock()
		ctx := context.Background()
		require.NoError(t, store.Set(ctx, "key", []byte("{not json"), mock.Now().Add(time.Hour)))

		obs := newRecorder()
		m := newTestManager[string](t, store, mock, cache.WithObserver(obs))

		_, err := m.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)

		_, err = store.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
		require.Equal(t, 1, obs.snapshot().durableErrors[cache.OpDecode])
	})

	t.Run("payload of the wrong shape is corrupt", func(t *testing.T) {
		t.Parallel()

		store := durable.NewMemory()
		mock := clock.NewMock()
		ctx := context.Background()

		texts := newTestManager[string](t, store, mock)
		require.NoError(t, texts.Set(ctx, "key", "text", time.Minute))

		ints := newTestManager[int](t, store, mock)
		_, err := ints.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("write failure is swallowed and fast tier stays readable", func(t *testing.T) {
		t.Parallel()

		obs := newRecorder()
		m := newTestManager[string](t, failingStore{}, clock.NewMock(), cache.WithObserver(obs))
		ctx := context.Background()

		require.NoError(t, m.Set(ctx, "key", "value", time.Minute))

		got, err := m.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, "value", got)

		require.NoError(t, m.Delete(ctx, "key"))
		require.NoError(t, m.Clear(ctx))

		// The failed set is followed by a delete of the durable copy.
		s := obs.snapshot()
		require.Equal(t, 1, s.durableErrors[cache.OpSet])
		require.Equal(t, 2, s.durableErrors[cache.OpDelete])
		require.Equal(t, 1, s.durableErrors[cache.OpKeys])
	})

	t.Run("rejected overwrite drops the older durable payload", func(t *testing.T) {
		t.Parallel()

		mock := clock.NewMock()
		store := durable.NewMemory(durable.WithCapacity(300))
		m := newTestManager[string](t, store, mock)
		ctx := context.Background()

		require.NoError(t, m.Set(ctx, "key", "v1", time.Hour))
		_, err := store.Get(ctx, "key")
		require.NoError(t, err)

		large := strings.Repeat("x", 400)
		require.NoError(t, m.Set(ctx, "key", large, time.Minute))

		_, err = store.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)

		got, err := m.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, large, got)

		mock.Add(2 * time.Minute)
		require.Equal(t, 1, m.Cleanup(ctx))

		_, err = m.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("quota exceeded is swallowed", func(t *testing.T) {
		t.Parallel()

		m := newTestManager[string](t, durable.NewMemory(durable.WithCapacity(8)), clock.NewMock())
		ctx := context.Background()

		require.NoError(t, m.Set(ctx, "key", "a value far larger than eight bytes", time.Minute))

		got, err := m.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, "a value far larger than eight bytes", got)
	})

	t.Run("read failure is a miss", func(t *testing.T) {
		t.Parallel()

		m := newTestManager[string](t, failingStore{}, clock.NewMock())

		_, err := m.Get(context.Background(), "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("works without a durable tier", func(t *testing.T) {
		t.Parallel()

		m := newTestManager[string](t, nil, clock.NewMock())
		ctx := context.Background()

		require.NoError(t, m.Set(ctx, "key", "value", time.Minute))
		got, err := m.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, "value", got)
		require.Zero(t, m.Cleanup(ctx))
	})
}

// --- Manager: Delete / Clear ---

func TestManager_DeleteClear(t *testing.T) {
	t.Parallel()

	t.Run("delete removes from both tiers", func(t *testing.T) {
		t.Parallel()

		store := durable.NewMemory()
		m := newTestManager[string](t, store, clock.NewMock())
		ctx := context.Background()

		require.NoError(t, m.Set(ctx, "key", "value", time.Minute))
		require.NoError(t, m.Delete(ctx, "key"))

		_, err := m.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)

		_, err = store.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("delete of missing key is a no-op", func(t *testing.T) {
		t.Parallel()

		m := newTestManager[string](t, durable.NewMemory(), clock.NewMock())
		require.NoError(t, m.Delete(context.Background(), "missing"))
	})

	t.Run("clear empties both tiers", func(t *testing.T) {
		t.Parallel()

		store := durable.NewMemory()
		m := newTestManager[int](t, store, clock.NewMock())
		ctx := context.Background()

		for i, key := range []string{"products", "categories", "reviews"} {
			require.NoError(t, m.Set(ctx, key, i, time.Minute))
		}

		require.NoError(t, m.Clear(ctx))

		stats := m.Stats()
		require.Zero(t, stats.Size)
		require.Empty(t, stats.Keys)

		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		require.Empty(t, keys)
	})

	t.Run("clear without bulk support deletes key by key", func(t *testing.T) {
		t.Parallel()

		store := keysOnly{durable.NewMemory()}
		m := newTestManager[int](t, store, clock.NewMock())
		ctx := context.Background()

		require.NoError(t, m.Set(ctx, "a", 1, time.Minute))
		require.NoError(t, m.Set(ctx, "b", 2, time.Minute))
		require.NoError(t, m.Clear(ctx))

		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		require.Empty(t, keys)
	})
}

// keysOnly hides the optional interfaces of the wrapped store.
type keysOnly struct {
	inner *durable.Memory
}

func (k keysOnly) Get(ctx context.Context, key string) ([]byte, error) { return k.inner.Get(ctx, key) }
func (k keysOnly) Delete(ctx context.Context, key string) error       { return k.inner.Delete(ctx, key) }
func (k keysOnly) Keys(ctx context.Context) ([]string, error)         { return k.inner.Keys(ctx) }
func (k keysOnly) Set(ctx context.Context, key string, data []byte, exp time.Time) error {
	return k.inner.Set(ctx, key, data, exp)
}

// --- Manager: Cleanup ---

func TestManager_Cleanup(t *testing.T) {
	t.Parallel()

	t.Run("removes only expired entries from both tiers", func(t *testing.T) {
		t.Parallel()

		store := durable.NewMemory()
		mock := clock.NewMock()
		obs := newRecorder()
		m := newTestManager[string](t, store, mock, cache.WithObserver(obs))
		ctx := context.Background()

		require.NoError(t, m.Set(ctx, "short", "v", time.Minute))
		require.NoError(t, m.Set(ctx, "long", "v", time.Hour))

		mock.Add(2 * time.Minute)

		// Both tiers drop "short".
		require.Equal(t, 2, m.Cleanup(ctx))
		require.Equal(t, []string{"long"}, m.Stats().Keys)

		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"long"}, keys)
		require.Equal(t, 2, obs.snapshot().swept)

		require.Zero(t, m.Cleanup(ctx))
	})

	t.Run("sweeps durable entries never loaded into the fast tier", func(t *testing.T) {
		t.Parallel()

		store := durable.NewMemory()
		mock := clock.NewMock()
		ctx := context.Background()

		warm := newTestManager[string](t, store, mock)
		require.NoError(t, warm.Set(ctx, "stale", "v", time.Minute))
		require.NoError(t, warm.Set(ctx, "fresh", "v", time.Hour))
		require.NoError(t, store.Set(ctx, "corrupt", []byte("garbage"), mock.Now()))

		mock.Add(2 * time.Minute)

		cold := newTestManager[string](t, store, mock)
		require.Equal(t, 2, cold.Cleanup(ctx))

		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"fresh"}, keys)
	})

	t.Run("durable sweep can be disabled", func(t *testing.T) {
		t.Parallel()

		store := durable.NewMemory()
		mock := clock.NewMock()
		m := newTestManager[string](t, store, mock, cache.WithDurableSweep(false))
		ctx := context.Background()

		require.NoError(t, m.Set(ctx, "short", "v", time.Minute))
		mock.Add(2 * time.Minute)

		require.Equal(t, 1, m.Cleanup(ctx))

		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"short"}, keys)
	})

	t.Run("janitor sweeps on the configured interval", func(t *testing.T) {
		t.Parallel()

		store := durable.NewMemory()
		mock := clock.NewMock()
		m := cache.NewManager[string](store,
			cache.WithClock(mock),
			cache.WithCleanupInterval(time.Minute),
		)
		defer m.Close()

		ctx := context.Background()
		require.NoError(t, m.Set(ctx, "short", "v", time.Minute))
		require.NoError(t, m.Set(ctx, "long", "v", 24*time.Hour))

		require.Eventually(t, func() bool {
			mock.Add(time.Minute)
			keys, _ := store.Keys(ctx)
			return m.Stats().Size == 1 && len(keys) == 1
		}, time.Second, 10*time.Millisecond)

		require.Equal(t, []string{"long"}, m.Stats().Keys)
	})
}

// --- Manager: Preload ---

func TestManager_Preload(t *testing.T) {
	t.Parallel()

	t.Run("does not call the fetcher when the key is live", func(t *testing.T) {
		t.Parallel()

		m := newTestManager[string](t, durable.NewMemory(), clock.NewMock())
		ctx := context.Background()
		require.NoError(t, m.Set(ctx, "products", "cached", time.Minute))

		var calls atomic.Int32
		m.Preload(ctx, "products", func(context.Context) (string, error) {
			calls.Add(1)
			return "fetched", nil
		}, time.Minute)

		require.NoError(t, m.Close())
		require.Zero(t, calls.Load())
	})

	t.Run("fills a missing key in the background", func(t *testing.T) {
		t.Parallel()

		obs := newRecorder()
		m := newTestManager[string](t, durable.NewMemory(), clock.NewMock(), cache.WithObserver(obs))
		ctx := context.Background()

		m.Preload(ctx, "products", func(context.Context) (string, error) {
			return "fetched", nil
		}, time.Minute)

		require.Eventually(t, func() bool {
			v, err := m.Get(ctx, "products")
			return err == nil && v == "fetched"
		}, time.Second, 5*time.Millisecond)

		require.Eventually(t, func() bool {
			return obs.snapshot().preloaded == 1
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("survives caller cancellation", func(t *testing.T) {
		t.Parallel()

		m := newTestManager[string](t, durable.NewMemory(), clock.NewMock())
		ctx, cancel := context.WithCancel(context.Background())

		release := make(chan struct{})
		m.Preload(ctx, "products", func(ctx context.Context) (string, error) {
			<-release
			return "fetched", ctx.Err()
		}, time.Minute)

		cancel()
		close(release)

		require.Eventually(t, func() bool {
			ok, _ := m.Has(context.Background(), "products")
			return ok
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("failure is absorbed and nothing is cached", func(t *testing.T) {
		t.Parallel()

		obs := newRecorder()
		m := newTestManager[string](t, durable.NewMemory(), clock.NewMock(), cache.WithObserver(obs))
		ctx := context.Background()

		m.Preload(ctx, "products", func(context.Context) (string, error) {
			return "", errors.New("upstream unavailable")
		}, time.Minute)

		require.NoError(t, m.Close())
		require.Equal(t, 1, obs.snapshot().preloadFailed)
		require.Zero(t, m.Stats().Size)
	})

	t.Run("concurrent preloads share one fetch", func(t *testing.T) {
		t.Parallel()

		m := newTestManager[string](t, durable.NewMemory(), clock.NewMock())
		ctx := context.Background()

		var calls atomic.Int32
		release := make(chan struct{})
		fetch := func(context.Context) (string, error) {
			calls.Add(1)
			<-release
			return "fetched", nil
		}

		for range 5 {
			m.Preload(ctx, "products", fetch, time.Minute)
		}
		require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
		close(release)

		require.NoError(t, m.Close())
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("is a no-op after close", func(t *testing.T) {
		t.Parallel()

		m := newTestManager[string](t, durable.NewMemory(), clock.NewMock())
		require.NoError(t, m.Close())

		var calls atomic.Int32
		m.Preload(context.Background(), "products", func(context.Context) (string, error) {
			calls.Add(1)
			return "", nil
		}, time.Minute)

		require.Zero(t, calls.Load())
	})

	t.Run("close lets an in-flight preload write", func(t *testing.T) {
		t.Parallel()

		obs := newRecorder()
		store := durable.NewMemory()
		m := newTestManager[string](t, store, clock.NewMock(), cache.WithObserver(obs))
		ctx := context.Background()

		started := make(chan struct{})
		release := make(chan struct{})
		m.Preload(ctx, "products", func(context.Context) (string, error) {
			close(started)
			<-release
			return "fetched", nil
		}, time.Minute)
		<-started

		closed := make(chan error, 1)
		go func() { closed <- m.Close() }()

		require.Never(t, func() bool { return len(closed) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
		close(release)
		require.NoError(t, <-closed)

		s := obs.snapshot()
		require.Equal(t, 1, s.preloaded)
		require.Zero(t, s.preloadFailed)

		_, err := store.Get(ctx, "products")
		require.NoError(t, err)
	})
}

// --- Manager: Keys ---

func TestManager_Keys(t *testing.T) {
	t.Parallel()

	t.Run("unions both tiers", func(t *testing.T) {
		t.Parallel()

		store := durable.NewMemory()
		ctx := context.Background()
		require.NoError(t, store.Set(ctx, "restored", []byte("{}"), time.Time{}))

		m := newTestManager[string](t, store, clock.NewMock())
		require.NoError(t, m.Set(ctx, "b", "x", time.Minute))
		require.NoError(t, m.Set(ctx, "a", "y", time.Minute))

		keys, err := m.Keys(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b", "restored"}, keys)
		require.Equal(t, []string{"a", "b"}, m.Stats().Keys)
	})

	t.Run("durable listing failure falls back to the fast tier", func(t *testing.T) {
		t.Parallel()

		m := newTestManager[string](t, failingStore{}, clock.NewMock())
		ctx := context.Background()
		require.NoError(t, m.Set(ctx, "a", "y", time.Minute))

		keys, err := m.Keys(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"a"}, keys)
	})

	t.Run("closed", func(t *testing.T) {
		t.Parallel()

		m := newTestManager[string](t, nil, clock.NewMock())
		require.NoError(t, m.Close())

		_, err := m.Keys(context.Background())
		require.ErrorIs(t, err, cache.ErrClosed)
	})
}

// --- Manager: Stats ---

func TestManager_Stats(t *testing.T) {
	t.Parallel()

	mock := clock.NewMock()
	m := newTestManager[string](t, durable.NewMemory(), mock)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "b", "x", time.Minute))
	require.NoError(t, m.Set(ctx, "a", "yy", time.Hour))

	mock.Add(2 * time.Minute)

	// Stats does not evict the expired "b".
	stats := m.Stats()
	require.Equal(t, 2, stats.Size)
	require.Equal(t, []string{"a", "b"}, stats.Keys)
	// len("a")+len(`"yy"`) + len("b")+len(`"x"`)
	require.Equal(t, int64(9), stats.ApproxBytes)
	require.Equal(t, stats, m.Stats())
}

// --- Manager: Close ---

func TestManager_Close(t *testing.T) {
	t.Parallel()

	m := cache.NewManager[string](durable.NewMemory(), cache.WithClock(clock.NewMock()))
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "key", "value", time.Minute))

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	require.ErrorIs(t, m.Set(ctx, "key", "value", time.Minute), cache.ErrClosed)
	require.ErrorIs(t, m.Delete(ctx, "key"), cache.ErrClosed)
	require.ErrorIs(t, m.Clear(ctx), cache.ErrClosed)

	_, err := m.Get(ctx, "key")
	require.ErrorIs(t, err, cache.ErrClosed)
}

// --- Manager: concurrency ---

func TestManager_ConcurrentWritersAgree(t *testing.T) {
	t.Parallel()

	store := durable.NewMemory()
	mock := clock.NewMock()
	m := newTestManager[int](t, store, mock)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			_ = m.Set(ctx, "key", i, time.Minute)
		})
		wg.Go(func() {
			_, _ = m.Get(ctx, "key")
		})
	}
	wg.Wait()

	fast, err := m.Get(ctx, "key")
	require.NoError(t, err)

	cold := newTestManager[int](t, store, mock)
	persisted, err := cold.Get(ctx, "key")
	require.NoError(t, err)
	require.Equal(t, fast, persisted)
}
