// Package config loads the service configuration from the environment and
// an optional YAML file of TTL profiles.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/tiercache/internal/catalog"
	"github.com/dmitrymomot/tiercache/pkg/durable"
	"github.com/dmitrymomot/tiercache/pkg/logger"
)

// Backend names a durable tier implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
	BackendS3       Backend = "s3"
)

// Config is the full service configuration.
type Config struct {
	Log      logger.Config `envPrefix:""`
	HTTP     HTTPConfig
	Cache    CacheConfig
	Durable  DurableConfig
	Redis    durable.RedisConfig
	Postgres durable.PostgresConfig
	S3       durable.S3Config
	Catalog  catalog.Config
	Warmup   WarmupConfig

	// TTLs is read from Cache.TTLFile, or holds the defaults when no file is set.
	TTLs TTLs
}

type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type CacheConfig struct {
	Namespace       string        `env:"CACHE_NAMESPACE" envDefault:"storefront"`
	DefaultTTL      time.Duration `env:"CACHE_DEFAULT_TTL" envDefault:"15m"`
	CleanupInterval time.Duration `env:"CACHE_CLEANUP_INTERVAL" envDefault:"5m"`
	DurableSweep    bool          `env:"CACHE_DURABLE_SWEEP" envDefault:"true"`
	DurableTimeout  time.Duration `env:"CACHE_DURABLE_TIMEOUT" envDefault:"2s"`
	TTLFile         string        `env:"CACHE_TTL_FILE"`
}

type DurableConfig struct {
	Backend Backend `env:"DURABLE_BACKEND" envDefault:"memory"`
	// MemoryCapacity bounds the in-process durable store in bytes.
	MemoryCapacity int64  `env:"DURABLE_MEMORY_CAPACITY" envDefault:"5242880"`
	SQLitePath     string `env:"DURABLE_SQLITE_PATH" envDefault:"cache.db"`
}

type WarmupConfig struct {
	// Schedule is a five-field cron expression. Empty disables warmup.
	Schedule  string   `env:"WARMUP_SCHEDULE" envDefault:"*/10 * * * *"`
	Resources []string `env:"WARMUP_RESOURCES" envDefault:"products,featured_products,categories" envSeparator:","`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return load(env.Options{})
}

func load(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, errors.Join(ErrParseEnv, err)
	}

	switch cfg.Durable.Backend {
	case BackendMemory, BackendRedis, BackendPostgres, BackendSQLite, BackendS3:
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Durable.Backend)
	}

	cfg.TTLs, err = LoadTTLs(cfg.Cache.TTLFile)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
