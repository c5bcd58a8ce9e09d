package cachekeys

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownGroup is returned by ParseGroup for a name that is not a Group.
var ErrUnknownGroup = errors.New("cachekeys: unknown invalidation group")

// Store is the part of a cache the invalidation helpers need.
// *cache.Manager satisfies it. Keys must list the durable tier too, or
// entries restored after a restart would survive invalidation.
type Store interface {
	Keys(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// Group names a family of related keys that are invalidated together.
type Group string

const (
	GroupProducts   Group = "products"
	GroupCategories Group = "categories"
	GroupReviews    Group = "reviews"
	GroupContacts   Group = "contacts"
	GroupInventory  Group = "inventory"
	GroupAnalytics  Group = "analytics"
	GroupAll        Group = "all"
)

type matcher struct {
	keys     []string
	prefixes []string
}

func (m matcher) match(key string) bool {
	for _, k := range m.keys {
		if key == k {
			return true
		}
	}
	for _, p := range m.prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

var productKeys = matcher{
	keys:     []string{Products, FeaturedProducts},
	prefixes: []string{productPrefix, productsByCategoryPrefix},
}

// Dashboard stats aggregate every other family, so each group drops them.
var groups = map[Group]matcher{
	GroupProducts: {
		keys:     append([]string{DashboardStats}, productKeys.keys...),
		prefixes: productKeys.prefixes,
	},
	GroupCategories: {
		keys:     []string{Categories, DashboardStats},
		prefixes: []string{categoryPrefix, productsByCategoryPrefix},
	},
	GroupReviews: {
		keys:     []string{Reviews, PendingReviews, DashboardStats},
		prefixes: []string{productReviewsPrefix},
	},
	GroupContacts: {
		keys:     []string{ContactMessages, DashboardStats},
		prefixes: []string{contactMessagePrefix},
	},
	// Stock levels are part of every product payload.
	GroupInventory: {
		keys:     append([]string{Inventory, DashboardStats}, productKeys.keys...),
		prefixes: append([]string{inventoryItemPrefix}, productKeys.prefixes...),
	},
	GroupAnalytics: {
		keys:     []string{Analytics, DashboardStats},
		prefixes: []string{analyticsRangePrefix},
	},
	GroupAll: {
		prefixes: []string{""},
	},
}

// Groups returns every invalidation group in a stable order.
func Groups() []Group {
	return []Group{
		GroupProducts,
		GroupCategories,
		GroupReviews,
		GroupContacts,
		GroupInventory,
		GroupAnalytics,
		GroupAll,
	}
}

// ParseGroup returns the Group with the given name.
func ParseGroup(name string) (Group, error) {
	g := Group(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := groups[g]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}
	return g, nil
}

// Invalidate deletes every cached key of the group and returns how many
// keys were deleted.
func Invalidate(ctx context.Context, s Store, g Group) (int, error) {
	m, ok := groups[g]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownGroup, g)
	}
	return deleteMatching(ctx, s, m.match)
}

// InvalidatePrefix deletes every cached key starting with one of the prefixes.
func InvalidatePrefix(ctx context.Context, s Store, prefixes ...string) (int, error) {
	if len(prefixes) == 0 {
		return 0, nil
	}
	return deleteMatching(ctx, s, matcher{prefixes: prefixes}.match)
}

// InvalidateKeys deletes the given keys. Keys not in the cache are skipped.
func InvalidateKeys(ctx context.Context, s Store, keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return deleteMatching(ctx, s, matcher{keys: keys}.match)
}

// deleteMatching keeps going after a failed delete and reports all failures together.
func deleteMatching(ctx context.Context, s Store, match func(string) bool) (int, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("list keys: %w", err)
	}

	var (
		deleted int
		errs    []error
	)
	for _, key := range keys {
		if !match(key) {
			continue
		}
		if err := s.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %q: %w", key, err))
			continue
		}
		deleted++
	}
	return deleted, errors.Join(errs...)
}
