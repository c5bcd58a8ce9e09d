// Package durable provides the persistent tier implementations for
// [cache.Manager].
//
// Every store is a namespaced byte store satisfying [cache.Durable]. The
// manager owns encoding and expiry decisions, so stores only keep bytes and
// an expiry hint:
//
//   - [Memory]: bounded in-process map; writes past the capacity fail with
//     [ErrQuotaExceeded]. Outlives the managers built on it.
//   - [Redis]: keys "{prefix}:{key}" with native expiry; listing uses SCAN.
//   - [Postgres]: the cache_entries table, created by embedded goose
//     migrations via [MigratePostgres]; sweeps expired rows in SQL.
//   - [SQLite]: the same table in a local file, for single-node deployments.
//   - [S3]: one object per key under "{prefix}/{key}".
//
// Connection helpers ([OpenRedis], [ConnectPostgres]) retry with a linear
// backoff during startup, and each backend exposes a readiness check.
//
//	pool, err := durable.ConnectPostgres(ctx, cfg.Postgres)
//	if err != nil {
//	    return err
//	}
//	if err := durable.MigratePostgres(ctx, pool, "", log); err != nil {
//	    return err
//	}
//	c := cache.NewManager[Catalog](durable.NewPostgres(pool, "storefront"))
package durable
