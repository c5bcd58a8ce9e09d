package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tiercache/internal/catalog"
	"github.com/dmitrymomot/tiercache/pkg/cache"
	"github.com/dmitrymomot/tiercache/pkg/cachekeys"
)

// collectionKeys maps collection routes to their cache keys.
var collectionKeys = map[string]string{
	"/api/products":          cachekeys.Products,
	"/api/products/featured": cachekeys.FeaturedProducts,
	"/api/categories":        cachekeys.Categories,
	"/api/reviews":           cachekeys.Reviews,
	"/api/dashboard/stats":   cachekeys.DashboardStats,
}

func (a *api) collection(w http.ResponseWriter, r *http.Request) {
	key, ok := collectionKeys[chi.RouteContext(r.Context()).RoutePattern()]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown resource")
		return
	}
	fetch, err := a.catalog.Resource(key)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	a.serve(w, r, key, key, fetch)
}

func (a *api) product(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.serve(w, r, cachekeys.Product(id), "product", a.catalog.Product(id))
}

func (a *api) productReviews(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.serve(w, r, cachekeys.ProductReviews(id), cachekeys.Reviews, a.catalog.ProductReviews(id))
}

func (a *api) categoryProducts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.serve(w, r, cachekeys.ProductsByCategory(id), cachekeys.Products, a.catalog.ProductsByCategory(id))
}

func (a *api) analytics(w http.ResponseWriter, r *http.Request) {
	rng := r.URL.Query().Get("range")
	if rng == "" {
		fetch, err := a.catalog.Resource(cachekeys.Analytics)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		a.serve(w, r, cachekeys.Analytics, cachekeys.Analytics, fetch)
		return
	}
	a.serve(w, r, cachekeys.AnalyticsRange(rng), cachekeys.Analytics, a.catalog.AnalyticsRange(rng))
}

// serve answers from the cache, fetching and storing on a miss.
// X-Cache is MISS whenever the cache had no live value for the request,
// including requests that joined a fetch started by another one.
func (a *api) serve(w http.ResponseWriter, r *http.Request, key, resource string, fetch cache.Fetcher[json.RawMessage]) {
	status := "HIT"
	body, err := a.cache.Get(r.Context(), key)
	if errors.Is(err, cache.ErrNotFound) {
		status = "MISS"
		body, err = a.fill(r.Context(), key, a.ttl(resource), fetch)
	}
	if err != nil {
		a.fetchError(w, r, key, err)
		return
	}

	w.Header().Set("X-Cache", status)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// fill fetches key once for all concurrent misses and stores the result.
// A failed store still returns the fetched body.
func (a *api) fill(ctx context.Context, key string, ttl time.Duration, fetch cache.Fetcher[json.RawMessage]) (json.RawMessage, error) {
	v, err, _ := a.flights.Do(key, func() (any, error) {
		body, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := a.cache.Set(ctx, key, body, ttl); err != nil {
			a.logger.WarnContext(ctx, "cache store failed",
				slog.String("key", key),
				slog.Any("error", err),
			)
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

func (a *api) fetchError(w http.ResponseWriter, r *http.Request, key string, err error) {
	var httpErr *catalog.HTTPError

	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
		return
	case errors.Is(err, cache.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "cache is shutting down")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "upstream timeout")
	case errors.As(err, &httpErr):
		writeError(w, http.StatusBadGateway, "upstream error")
	default:
		writeError(w, http.StatusBadGateway, "upstream unavailable")
	}

	a.logger.ErrorContext(r.Context(), "storefront read failed",
		slog.String("key", key),
		slog.Any("error", err),
	)
}
