// Package httpapi exposes the cached storefront reads and the cache
// administration endpoints over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/tiercache/middlewares"
	"github.com/dmitrymomot/tiercache/pkg/cache"
	"github.com/dmitrymomot/tiercache/pkg/health"
	"github.com/dmitrymomot/tiercache/pkg/logger"
)

// Cache is the cache the API reads through. *cache.Manager[json.RawMessage]
// satisfies it.
type Cache interface {
	cache.Cache[json.RawMessage]
	Keys(ctx context.Context) ([]string, error)
	Stats() cache.Stats
	Preload(ctx context.Context, key string, fetch cache.Fetcher[json.RawMessage], ttl time.Duration)
}

// Catalog resolves storefront resources to fetchers. *catalog.Client satisfies it.
type Catalog interface {
	Resource(name string) (cache.Fetcher[json.RawMessage], error)
	Product(id string) cache.Fetcher[json.RawMessage]
	ProductsByCategory(categoryID string) cache.Fetcher[json.RawMessage]
	ProductReviews(productID string) cache.Fetcher[json.RawMessage]
	AnalyticsRange(r string) cache.Fetcher[json.RawMessage]
}

// Config wires the router.
type Config struct {
	Cache   Cache
	Catalog Catalog
	// TTL returns the TTL of a resource; zero uses the cache default.
	TTL            func(resource string) time.Duration
	Logger         *slog.Logger
	Registry       *prometheus.Registry
	Checks         health.Checks
	Namespace      string
	RequestTimeout time.Duration
}

type api struct {
	cache   Cache
	catalog Catalog
	ttl     func(string) time.Duration
	logger  *slog.Logger
	flights singleflight.Group
}

// NewRouter builds the HTTP handler.
func NewRouter(cfg Config) http.Handler {
	a := &api{
		cache:   cfg.Cache,
		catalog: cfg.Catalog,
		ttl:     cfg.TTL,
		logger:  cfg.Logger,
	}
	if a.ttl == nil {
		a.ttl = func(string) time.Duration { return 0 }
	}
	if a.logger == nil {
		a.logger = logger.NewNope()
	}

	r := chi.NewRouter()
	r.Use(middlewares.RequestID(), middlewares.Recover(a.logger))
	if cfg.Registry != nil {
		r.Use(middlewares.Metrics(cfg.Registry, cfg.Namespace))
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}

	r.Get("/health/live", health.LivenessHandler())
	r.Get("/health/ready", health.ReadinessHandler(cfg.Checks, health.WithLogger(a.logger)))

	r.Route("/api", func(r chi.Router) {
		r.Use(middlewares.Timeout(cfg.RequestTimeout))
		r.Get("/products", a.collection)
		r.Get("/products/featured", a.collection)
		r.Get("/products/{id}", a.product)
		r.Get("/products/{id}/reviews", a.productReviews)
		r.Get("/categories", a.collection)
		r.Get("/categories/{id}/products", a.categoryProducts)
		r.Get("/reviews", a.collection)
		r.Get("/analytics", a.analytics)
		r.Get("/dashboard/stats", a.collection)
	})

	r.Route("/cache", func(r chi.Router) {
		r.Get("/stats", a.stats)
		r.Delete("/", a.clear)
		r.Delete("/keys/{key}", a.deleteKey)
		r.Post("/invalidate/{group}", a.invalidate)
		r.Post("/preload/{resource}", a.preload)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
