// Package warmup preloads configured resources into the cache on a cron schedule.
package warmup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/tiercache/pkg/cache"
	"github.com/dmitrymomot/tiercache/pkg/logger"
)

var (
	ErrInvalidSchedule = errors.New("warmup: invalid schedule")
	ErrUnknownResource = errors.New("warmup: unknown resource")
)

// Preloader warms a key in the background. *cache.Manager satisfies it.
type Preloader interface {
	Preload(ctx context.Context, key string, fetch cache.Fetcher[json.RawMessage], ttl time.Duration)
}

// Source resolves a resource name to its fetcher.
type Source interface {
	Resource(name string) (cache.Fetcher[json.RawMessage], error)
}

type resource struct {
	name  string
	fetch cache.Fetcher[json.RawMessage]
}

// Scheduler runs a preload of every configured resource on each cron tick.
type Scheduler struct {
	cron      *cron.Cron
	preloader Preloader
	resources []resource
	ttl       func(string) time.Duration
	logger    *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTTL sets the per-resource TTL lookup. Zero means the cache default.
func WithTTL(fn func(resource string) time.Duration) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.ttl = fn
		}
	}
}

// New creates a scheduler. spec is a five-field cron expression or a
// descriptor such as "@hourly" or "@every 10m". Every resource must be
// known to src.
func New(spec string, p Preloader, src Source, resources []string, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		preloader: p,
		ttl:       func(string) time.Duration { return 0 },
		logger:    logger.NewNope(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, name := range resources {
		fetch, err := src.Resource(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrUnknownResource, name, err)
		}
		s.resources = append(s.resources, resource{name: name, fetch: fetch})
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	log := cronLogger{logger: s.logger}
	s.cron = cron.New(
		cron.WithParser(parser),
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)
	if _, err := s.cron.AddFunc(spec, func() { s.Run(context.Background()) }); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, spec, err)
	}

	return s, nil
}

// Run preloads every resource once. Resources that are still cached are
// left alone by the preloader.
func (s *Scheduler) Run(ctx context.Context) {
	for _, r := range s.resources {
		s.preloader.Preload(ctx, r.name, r.fetch, s.ttl(r.name))
	}
	s.logger.DebugContext(ctx, "warmup triggered", slog.Int("resources", len(s.resources)))
}

// Start runs the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the schedule and waits for a running tick or ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown returns Stop as a shutdown hook.
func (s *Scheduler) Shutdown() func(context.Context) error {
	return s.Stop
}

// cronLogger routes cron's own logging to slog. Scheduling chatter goes to debug.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, slog.Any("error", err))...)
}
