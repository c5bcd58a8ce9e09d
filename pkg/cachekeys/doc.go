// Package cachekeys holds the storefront's cache key naming convention and
// the group invalidation helpers built on it.
//
// Keys are "<resource>" for collections and "<resource>_<id>" for single
// records, e.g. "products" and "product_42". The cache itself treats keys as
// opaque; only this package knows which keys belong together. Helpers work
// from the keys held by either cache tier and delete them one by one:
//
//	// After a product update.
//	if _, err := cachekeys.Invalidate(ctx, c, cachekeys.GroupProducts); err != nil {
//	    log.WarnContext(ctx, "invalidate products", "error", err)
//	}
package cachekeys
