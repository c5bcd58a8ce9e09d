package catalog

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/dmitrymomot/tiercache/pkg/cache"
	"github.com/dmitrymomot/tiercache/pkg/cachekeys"
)

// resourcePaths maps collection cache keys to their upstream paths.
var resourcePaths = map[string]string{
	cachekeys.Products:         "/products",
	cachekeys.FeaturedProducts: "/products?featured=true",
	cachekeys.Categories:       "/categories",
	cachekeys.Reviews:          "/reviews?status=approved",
	cachekeys.PendingReviews:   "/reviews?status=pending",
	cachekeys.ContactMessages:  "/contact-messages",
	cachekeys.Inventory:        "/inventory",
	cachekeys.Analytics:        "/analytics",
	cachekeys.DashboardStats:   "/dashboard/stats",
}

// Resources returns the names of the collection resources, sorted.
func Resources() []string {
	names := make([]string, 0, len(resourcePaths))
	for name := range resourcePaths {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resource returns a fetcher for a collection resource. The name is also
// its cache key.
func (c *Client) Resource(name string) (cache.Fetcher[json.RawMessage], error) {
	path, ok := resourcePaths[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, name)
	}
	return c.Fetcher(path), nil
}

// Product returns a fetcher for a single product.
func (c *Client) Product(id string) cache.Fetcher[json.RawMessage] {
	return c.Fetcher("/products/" + url.PathEscape(id))
}

// ProductsByCategory returns a fetcher for the products of one category.
func (c *Client) ProductsByCategory(categoryID string) cache.Fetcher[json.RawMessage] {
	return c.Fetcher("/products?category=" + url.QueryEscape(categoryID))
}

// ProductReviews returns a fetcher for the approved reviews of a product.
func (c *Client) ProductReviews(productID string) cache.Fetcher[json.RawMessage] {
	return c.Fetcher("/products/" + url.PathEscape(productID) + "/reviews")
}

// AnalyticsRange returns a fetcher for analytics over a range such as "7d".
func (c *Client) AnalyticsRange(r string) cache.Fetcher[json.RawMessage] {
	return c.Fetcher("/analytics?range=" + url.QueryEscape(strings.TrimSpace(r)))
}
