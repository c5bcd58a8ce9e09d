package cache

import "time"

// TTL presets used across the storefront. They are defaults only; the
// application config may override every one of them.
const (
	ShortTTL  = 5 * time.Minute
	MediumTTL = 15 * time.Minute
	LongTTL   = time.Hour
	DayTTL    = 24 * time.Hour

	// DefaultTTL is applied when Set is called with a zero TTL.
	DefaultTTL = MediumTTL

	// DefaultCleanupInterval is how often expired entries are swept.
	DefaultCleanupInterval = 5 * time.Minute

	// DefaultDurableTimeout bounds every single durable-tier call.
	DefaultDurableTimeout = 2 * time.Second
)
