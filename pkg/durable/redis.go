package durable

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/tiercache/pkg/cache"
)

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithPrefix sets the key namespace. Keys are stored as "{prefix}:{key}".
// Default: "cache".
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// WithScanCount sets the COUNT hint used when listing keys.
// Default: 100.
func WithScanCount(n int64) RedisOption {
	return func(r *Redis) {
		if n > 0 {
			r.scanCount = n
		}
	}
}

// Redis is a durable store backed by Redis.
// Payloads carry a native expiry so Redis drops stale entries on its own.
type Redis struct {
	client    redis.UniversalClient
	prefix    string
	scanCount int64
}

// NewRedis creates a store over an open client.
// The client lifecycle is owned by the caller.
//
// Example:
//
//	client, err := durable.OpenRedis(ctx, cfg.Redis)
//	store := durable.NewRedis(client, durable.WithPrefix("storefront"))
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client:    client,
		prefix:    "cache",
		scanCount: 100,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the payload or cache.ErrNotFound.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.prefixedKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cache.ErrNotFound
		}
		return nil, errors.Join(ErrReadFailed, err)
	}
	return data, nil
}

// Set stores data with an absolute expiry at expiresAt, rounded up to the second.
func (r *Redis) Set(ctx context.Context, key string, data []byte, expiresAt time.Time) error {
	args := redis.SetArgs{}
	if !expiresAt.IsZero() {
		args.ExpireAt = ceilSecond(expiresAt)
	}

	if err := r.client.SetArgs(ctx, r.prefixedKey(key), data, args).Err(); err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}

// Delete removes key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefixedKey(key)).Err(); err != nil {
		return errors.Join(ErrDeleteFailed, err)
	}
	return nil
}

// Keys lists the keys of this namespace with the prefix stripped.
// It uses SCAN, which does not block the server.
func (r *Redis) Keys(ctx context.Context) ([]string, error) {
	var out []string
	err := r.scan(ctx, func(keys []string) error {
		for _, k := range keys {
			out = append(out, r.unprefixedKey(k))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Clear removes all keys of this namespace.
// Without a prefix the whole database is flushed.
func (r *Redis) Clear(ctx context.Context) error {
	if r.prefix == "" {
		if err := r.client.FlushDB(ctx).Err(); err != nil {
			return errors.Join(ErrDeleteFailed, err)
		}
		return nil
	}

	return r.scan(ctx, func(keys []string) error {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return errors.Join(ErrDeleteFailed, err)
		}
		return nil
	})
}

// scan walks the namespace and calls fn with every non-empty batch of raw keys.
func (r *Redis) scan(ctx context.Context, fn func(keys []string) error) error {
	pattern := "*"
	if r.prefix != "" {
		pattern = r.prefix + ":*"
	}

	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, r.scanCount).Result()
		if err != nil {
			return errors.Join(ErrListFailed, err)
		}

		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (r *Redis) prefixedKey(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

func (r *Redis) unprefixedKey(key string) string {
	if r.prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, r.prefix+":")
}

func ceilSecond(t time.Time) time.Time {
	s := t.Truncate(time.Second)
	if s.Before(t) {
		s = s.Add(time.Second)
	}
	return s
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	URL           string        `env:"REDIS_URL"`
	PoolSize      int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns  int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	RetryAttempts int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	DialTimeout   time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout   time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"1s"`
	WriteTimeout  time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"1s"`
}

// OpenRedis creates a Redis client and waits until it answers PING,
// retrying with a linear backoff. Supports redis:// and rediss:// URLs.
func OpenRedis(ctx context.Context, cfg RedisConfig) (redis.UniversalClient, error) {
	if cfg.URL == "" {
		return nil, ErrEmptyConnectionURL
	}
	if !strings.HasPrefix(cfg.URL, "redis://") && !strings.HasPrefix(cfg.URL, "rediss://") {
		return nil, ErrFailedToParseURL
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseURL, err)
	}

	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}

	attempts := max(cfg.RetryAttempts, 1)
	for i := range attempts {
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		if i == attempts-1 {
			break
		}
		if err := wait(ctx, backoff(i, cfg.RetryInterval)); err != nil {
			return nil, errors.Join(ErrConnectionFailed, err)
		}
	}

	return nil, ErrConnectionFailed
}

// RedisHealthcheck returns a readiness check that pings Redis.
func RedisHealthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return ErrHealthcheckFailed
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

var (
	_ cache.Durable        = (*Redis)(nil)
	_ cache.DurableClearer = (*Redis)(nil)
)
