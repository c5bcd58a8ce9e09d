package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tiercache/pkg/cache"
)

func newTestMemory[V any](t *testing.T, opts ...cache.MemoryOption) (*cache.Memory[V], *clock.Mock) {
	t.Helper()

	mock := clock.NewMock()
	opts = append([]cache.MemoryOption{
		cache.WithMemoryClock(mock),
		cache.WithMemoryCleanupInterval(0),
	}, opts...)

	c := cache.NewMemory[V](opts...)
	t.Cleanup(func() { _ = c.Close() })

	return c, mock
}

// --- Memory: Get ---

func TestMemory_Get(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrNotFound for missing key", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestMemory[string](t)

		_, err := c.Get(context.Background(), "missing")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("returns stored value", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestMemory[int](t)
		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", 42, time.Minute))

		val, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, 42, val)
	})

	t.Run("entry is live at exactly its expiry", func(t *testing.T) {
		t.Parallel()

		c, mock := newTestMemory[string](t)
		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "value", time.Minute))

		mock.Add(time.Minute)

		val, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, "value", val)
	})

	t.Run("returns ErrNotFound and removes expired key", func(t *testing.T) {
		t.Parallel()

		c, mock := newTestMemory[string](t)
		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "value", time.Minute))

		mock.Add(time.Minute + time.Millisecond)

		_, err := c.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
		require.Zero(t, c.Len())
	})
}

// --- Memory: Set ---

func TestMemory_Set(t *testing.T) {
	t.Parallel()

	t.Run("zero TTL uses default", func(t *testing.T) {
		t.Parallel()

		c, mock := newTestMemory[string](t, cache.WithMemoryDefaultTTL(time.Minute))
		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "value", 0))

		e, ok := c.Entry("key")
		require.True(t, ok)
		require.Equal(t, time.Minute, e.TTL())

		mock.Add(2 * time.Minute)

		_, err := c.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("negative TTL is rejected", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestMemory[string](t)

		err := c.Set(context.Background(), "key", "value", -time.Second)
		require.ErrorIs(t, err, cache.ErrInvalidTTL)
		require.Zero(t, c.Len())
	})

	t.Run("empty key is rejected", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestMemory[string](t)

		err := c.Set(context.Background(), "", "value", time.Minute)
		require.ErrorIs(t, err, cache.ErrEmptyKey)
	})

	t.Run("overwrite replaces value and lifetime", func(t *testing.T) {
		t.Parallel()

		c, mock := newTestMemory[string](t)
		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "first", time.Minute))

		mock.Add(30 * time.Second)
		require.NoError(t, c.Set(ctx, "key", "second", time.Hour))

		mock.Add(time.Minute)

		val, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, "second", val)
	})

	t.Run("returns ErrClosed after close", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestMemory[string](t)
		require.NoError(t, c.Close())

		err := c.Set(context.Background(), "key", "value", time.Minute)
		require.ErrorIs(t, err, cache.ErrClosed)
	})
}

// --- Memory: Put / Entry ---

func TestMemory_Put(t *testing.T) {
	t.Parallel()

	t.Run("keeps entry timestamps", func(t *testing.T) {
		t.Parallel()

		c, mock := newTestMemory[string](t)
		created := mock.Now().Add(-time.Minute)
		e := cache.Entry[string]{Value: "v", CreatedAt: created, ExpiresAt: created.Add(2 * time.Minute)}

		require.NoError(t, c.Put("key", e))

		got, ok := c.Entry("key")
		require.True(t, ok)
		require.Equal(t, e, got)
	})

	t.Run("rejects entry that expires before it is created", func(t *testing.T) {
		t.Parallel()

		c, mock := newTestMemory[string](t)
		now := mock.Now()

		err := c.Put("key", cache.Entry[string]{Value: "v", CreatedAt: now, ExpiresAt: now})
		require.ErrorIs(t, err, cache.ErrInvalidTTL)
	})

	t.Run("entry does not enforce expiry", func(t *testing.T) {
		t.Parallel()

		c, mock := newTestMemory[string](t)
		require.NoError(t, c.Set(context.Background(), "key", "value", time.Second))

		mock.Add(time.Hour)

		_, ok := c.Entry("key")
		require.True(t, ok)
		require.Equal(t, 1, c.Len())
	})
}

// --- Memory: Has / Delete / Clear ---

func TestMemory_HasDeleteClear(t *testing.T) {
	t.Parallel()

	t.Run("has reports live keys only", func(t *testing.T) {
		t.Parallel()

		c, mock := newTestMemory[string](t)
		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "short", "v", time.Second))
		require.NoError(t, c.Set(ctx, "long", "v", time.Hour))

		mock.Add(time.Minute)

		has, err := c.Has(ctx, "short")
		require.NoError(t, err)
		require.False(t, has)

		has, err = c.Has(ctx, "long")
		require.NoError(t, err)
		require.True(t, has)
	})

	t.Run("delete of missing key is a no-op", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestMemory[string](t)
		require.NoError(t, c.Delete(context.Background(), "missing"))
	})

	t.Run("clear removes everything", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestMemory[int](t)
		ctx := context.Background()
		for i, key := range []string{"a", "b", "c"} {
			require.NoError(t, c.Set(ctx, key, i, time.Minute))
		}

		require.NoError(t, c.Clear(ctx))
		require.Empty(t, c.Keys())
	})
}

// --- Memory: Keys / Snapshot / DeleteExpired ---

func TestMemory_Introspection(t *testing.T) {
	t.Parallel()

	t.Run("keys are sorted and include unswept expired entries", func(t *testing.T) {
		t.Parallel()

		c, mock := newTestMemory[int](t)
		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "b", 1, time.Second))
		require.NoError(t, c.Set(ctx, "a", 2, time.Hour))

		mock.Add(time.Minute)

		require.Equal(t, []string{"a", "b"}, c.Keys())
		require.Len(t, c.Snapshot(), 2)
	})

	t.Run("delete expired removes only stale entries", func(t *testing.T) {
		t.Parallel()

		c, mock := newTestMemory[int](t)
		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "stale-1", 1, time.Second))
		require.NoError(t, c.Set(ctx, "stale-2", 2, time.Second))
		require.NoError(t, c.Set(ctx, "fresh", 3, time.Hour))

		mock.Add(time.Minute)

		require.Equal(t, 2, c.DeleteExpired())
		require.Equal(t, []string{"fresh"}, c.Keys())
	})
}

// --- Memory: Eviction Callback ---

func TestMemory_EvictCallback(t *testing.T) {
	t.Parallel()

	t.Run("called on Delete", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestMemory[string](t)

		var evictedKey string
		c.SetEvictCallback(func(key string, _ string) {
			evictedKey = key
		})

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "value", time.Minute))
		require.NoError(t, c.Delete(ctx, "key"))

		require.Equal(t, "key", evictedKey)
	})

	t.Run("called on expiry", func(t *testing.T) {
		t.Parallel()

		c, mock := newTestMemory[int](t)

		evicted := make(map[string]int)
		c.SetEvictCallback(func(key string, value int) {
			evicted[key] = value
		})

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "a", 1, time.Second))
		mock.Add(time.Minute)
		c.DeleteExpired()

		require.Equal(t, map[string]int{"a": 1}, evicted)
	})

	t.Run("called on Clear", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestMemory[int](t)

		evicted := make(map[string]int)
		c.SetEvictCallback(func(key string, value int) {
			evicted[key] = value
		})

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
		require.NoError(t, c.Set(ctx, "b", 2, time.Minute))
		require.NoError(t, c.Clear(ctx))

		require.Equal(t, map[string]int{"a": 1, "b": 2}, evicted)
	})
}

// --- Memory: Janitor ---

func TestMemory_Janitor(t *testing.T) {
	t.Parallel()

	mock := clock.NewMock()
	c := cache.NewMemory[string](
		cache.WithMemoryClock(mock),
		cache.WithMemoryCleanupInterval(time.Second),
	)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "short", "value", time.Second))
	require.NoError(t, c.Set(ctx, "long", "value", time.Hour))

	require.Eventually(t, func() bool {
		mock.Add(time.Second)
		return c.Len() == 1
	}, time.Second, 10*time.Millisecond)

	_, ok := c.Entry("long")
	require.True(t, ok)
}

// --- Memory: Concurrent Access ---

func TestMemory_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	c, _ := newTestMemory[int](t)
	ctx := context.Background()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Go(func() {
			_ = c.Set(ctx, "key", i, time.Minute)
		})
	}

	for range 50 {
		wg.Go(func() {
			_, _ = c.Get(ctx, "key")
		})
	}

	for range 10 {
		wg.Go(func() {
			_ = c.Delete(ctx, "key")
		})
	}

	wg.Wait()
}
