// Package cache provides a two-tier, TTL-expiring key/value cache.
//
// A [Manager] sits in front of every remote read. It keeps values in an
// in-process fast tier ([Memory]) and mirrors them, best effort, into a
// durable tier ([Durable]) that survives restarts. Both satisfy the generic
// [Cache] interface:
//
//   - Get(ctx, key) (V, error): retrieve a live value
//   - Set(ctx, key, value, ttl) error: store a value with TTL
//   - Delete(ctx, key) error: remove a key from every tier
//   - Has(ctx, key) (bool, error): check for a live value
//   - Clear(ctx) error: remove all entries
//   - Close() error: stop background work
//
// TTL semantics for Set:
//   - Positive duration: the entry expires after this duration
//   - Zero: use the configured default TTL (15 minutes unless changed)
//   - Negative: rejected with [ErrInvalidTTL]
//
// An entry is live while now <= ExpiresAt.
//
// # Manager
//
//	store := durable.NewMemory()
//	c := cache.NewManager[[]Product](store,
//	    cache.WithDefaultTTL(cache.MediumTTL),
//	    cache.WithCleanupInterval(5*time.Minute),
//	    cache.WithLogger(log),
//	)
//	defer c.Close()
//
//	c.Set(ctx, "products", products, 0)
//	products, err := c.Get(ctx, "products")
//
// Reads try the fast tier first, then the durable tier. A durable hit is
// promoted into the fast tier with its original expiry. Stale entries found
// on access are removed from both tiers. Writes for the same key are
// serialized across both tiers, so a later Set always wins in both.
//
// Durable-tier failures never reach the caller. Each one is logged at warn
// level, reported to the [Observer] and dropped; the fast tier keeps serving.
// A failed durable write also deletes the durable copy, so an older payload
// never outlives a newer fast-tier value.
//
// # Background work
//
// A janitor calls [Manager.Cleanup] on a fixed interval, driven by the
// configured clock. [Manager.Preload] warms a key in the background when it
// holds no live value; concurrent preloads of one key share a single fetch.
//
// # Cache Stampede Prevention
//
// [GetOrSet] and [Fetch] deduplicate concurrent misses with singleflight:
//
//	product, err := cache.Fetch(ctx, c, "product_42", cache.LongTTL, func(ctx context.Context) (Product, error) {
//	    return client.Product(ctx, 42)
//	})
//
// # Error Handling
//
// The package defines sentinel errors, checked with [errors.Is]:
//
//   - [ErrNotFound]: key does not exist or has expired
//   - [ErrClosed]: operation on a closed cache
//   - [ErrEmptyKey], [ErrInvalidTTL]: rejected input
//   - [ErrMarshal], [ErrUnmarshal], [ErrCorruptEntry]: encoding failures
package cache
