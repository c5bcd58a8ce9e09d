// Command storefront-cache serves storefront reads through the two-tier cache.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrymomot/tiercache/internal/catalog"
	"github.com/dmitrymomot/tiercache/internal/config"
	"github.com/dmitrymomot/tiercache/internal/httpapi"
	"github.com/dmitrymomot/tiercache/internal/server"
	"github.com/dmitrymomot/tiercache/internal/warmup"
	"github.com/dmitrymomot/tiercache/pkg/cache"
	"github.com/dmitrymomot/tiercache/pkg/cachemetrics"
	"github.com/dmitrymomot/tiercache/pkg/durable"
	"github.com/dmitrymomot/tiercache/pkg/health"
	"github.com/dmitrymomot/tiercache/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log, logger.RequestIDExtractor(), logger.NamespaceExtractor())
	defer logger.Flush(2 * time.Second)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("storefront cache stopped", slog.Any("error", err))
		logger.Flush(2 * time.Second)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	ctx = logger.WithNamespace(ctx, cfg.Cache.Namespace)

	store, checks, closeStore, err := openDurable(ctx, cfg, log)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := cachemetrics.New(reg, "storefront")

	manager := cache.NewManager[json.RawMessage](store,
		cache.WithDefaultTTL(cfg.Cache.DefaultTTL),
		cache.WithCleanupInterval(cfg.Cache.CleanupInterval),
		cache.WithDurableSweep(cfg.Cache.DurableSweep),
		cache.WithDurableTimeout(cfg.Cache.DurableTimeout),
		cache.WithLogger(log),
		cache.WithObserver(metrics),
	)
	metrics.TrackStats(manager.Stats)

	client, err := catalog.New(cfg.Catalog)
	if err != nil {
		_ = manager.Close()
		_ = closeStore(ctx)
		return err
	}
	checks["catalog"] = client.Healthcheck()

	hooks := []server.Hook{}
	if cfg.Warmup.Schedule != "" {
		sched, err := warmup.New(cfg.Warmup.Schedule, manager, client, cfg.Warmup.Resources,
			warmup.WithLogger(log),
			warmup.WithTTL(cfg.TTLs.For),
		)
		if err != nil {
			_ = manager.Close()
			_ = closeStore(ctx)
			return err
		}
		sched.Start()
		sched.Run(ctx)
		hooks = append(hooks, sched.Shutdown())
	}
	hooks = append(hooks,
		func(context.Context) error { return manager.Close() },
		closeStore,
	)

	router := httpapi.NewRouter(httpapi.Config{
		Cache:          manager,
		Catalog:        client,
		TTL:            cfg.TTLs.For,
		Logger:         log,
		Registry:       reg,
		Checks:         checks,
		Namespace:      "storefront",
		RequestTimeout: cfg.Catalog.Timeout,
	})

	return server.Run(ctx, router,
		server.WithAddress(cfg.HTTP.Addr),
		server.WithLogger(log),
		server.WithShutdownTimeout(cfg.HTTP.ShutdownTimeout),
		server.WithShutdownHooks(hooks...),
	)
}

// openDurable connects the configured durable tier and returns its readiness
// checks and a hook releasing its connections.
func openDurable(ctx context.Context, cfg config.Config, log *slog.Logger) (cache.Durable, health.Checks, server.Hook, error) {
	noop := func(context.Context) error { return nil }

	switch cfg.Durable.Backend {
	case config.BackendRedis:
		client, err := durable.OpenRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		store := durable.NewRedis(client, durable.WithPrefix(cfg.Cache.Namespace))
		return store, health.Checks{"durable": durable.RedisHealthcheck(client)},
			func(context.Context) error { return client.Close() }, nil

	case config.BackendPostgres:
		pool, err := durable.ConnectPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := durable.MigratePostgres(ctx, pool, cfg.Postgres.MigrationsTable, log); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return durable.NewPostgres(pool, cfg.Cache.Namespace), health.Checks{"durable": durable.PostgresHealthcheck(pool)},
			func(context.Context) error { pool.Close(); return nil }, nil

	case config.BackendSQLite:
		store, err := durable.OpenSQLite(ctx, cfg.Durable.SQLitePath, cfg.Cache.Namespace)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, health.Checks{"durable": store.Healthcheck},
			func(context.Context) error { return store.Close() }, nil

	case config.BackendS3:
		store, err := durable.NewS3(cfg.S3)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, health.Checks{"durable": store.Healthcheck}, noop, nil

	default:
		store := durable.NewMemory(durable.WithCapacity(cfg.Durable.MemoryCapacity))
		return store, health.Checks{}, noop, nil
	}
}
