package cache

import (
	"io"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
)

// ManagerOption configures a Manager.
type ManagerOption func(*managerOptions)

type managerOptions struct {
	clock           clock.Clock
	logger          *slog.Logger
	observer        Observer
	marshaler       any
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	durableTimeout  time.Duration
	sweepDurable    bool
}

func defaultManagerOptions() *managerOptions {
	return &managerOptions{
		clock:           clock.New(),
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		observer:        nopObserver{},
		defaultTTL:      DefaultTTL,
		cleanupInterval: DefaultCleanupInterval,
		durableTimeout:  DefaultDurableTimeout,
		sweepDurable:    true,
	}
}

// WithDefaultTTL sets the TTL used when Set is called with a zero TTL.
// Default: 15 minutes.
func WithDefaultTTL(d time.Duration) ManagerOption {
	return func(o *managerOptions) {
		if d > 0 {
			o.defaultTTL = d
		}
	}
}

// WithCleanupInterval sets how often the janitor sweeps expired entries.
// Zero disables the janitor; Cleanup can still be called directly.
// Default: 5 minutes.
func WithCleanupInterval(d time.Duration) ManagerOption {
	return func(o *managerOptions) {
		o.cleanupInterval = d
	}
}

// WithDurableSweep controls whether Cleanup also sweeps the durable tier.
// When disabled, stale durable payloads are only purged lazily on Get.
// Default: true.
func WithDurableSweep(enabled bool) ManagerOption {
	return func(o *managerOptions) {
		o.sweepDurable = enabled
	}
}

// WithDurableTimeout bounds every durable-tier call.
// Default: 2 seconds.
func WithDurableTimeout(d time.Duration) ManagerOption {
	return func(o *managerOptions) {
		if d > 0 {
			o.durableTimeout = d
		}
	}
}

// WithMarshaler sets the serializer used for the durable tier.
// It must be a Marshaler[V] for the manager's value type.
// Default: JSON.
func WithMarshaler[V any](m Marshaler[V]) ManagerOption {
	return func(o *managerOptions) {
		if m != nil {
			o.marshaler = m
		}
	}
}

// WithClock sets the time source used for all expiry decisions and the janitor.
// Default: the wall clock.
func WithClock(c clock.Clock) ManagerOption {
	return func(o *managerOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger for degraded durable-tier operations and preloads.
// Default: discard.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(o *managerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver sets the event observer (metrics).
// Default: no-op.
func WithObserver(obs Observer) ManagerOption {
	return func(o *managerOptions) {
		if obs != nil {
			o.observer = obs
		}
	}
}
