package cache

import (
	"time"

	"github.com/benbjohnson/clock"
)

// MemoryOption configures the in-memory cache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	clock           clock.Clock
	defaultTTL      time.Duration
	cleanupInterval time.Duration
}

func defaultMemoryOptions() *memoryOptions {
	return &memoryOptions{
		clock:           clock.New(),
		defaultTTL:      DefaultTTL,
		cleanupInterval: DefaultCleanupInterval,
	}
}

// WithMemoryDefaultTTL sets the default expiration for cache entries when
// Set is called with a zero TTL.
// Default: 15 minutes.
func WithMemoryDefaultTTL(d time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		o.defaultTTL = d
	}
}

// WithMemoryCleanupInterval sets how often expired entries are removed
// by the background janitor goroutine. Zero disables the janitor.
// Default: 5 minutes.
func WithMemoryCleanupInterval(d time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		o.cleanupInterval = d
	}
}

// WithMemoryClock sets the time source used for expiry.
// Default: the wall clock.
func WithMemoryClock(c clock.Clock) MemoryOption {
	return func(o *memoryOptions) {
		if c != nil {
			o.clock = c
		}
	}
}
