package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/tiercache/pkg/cache"
)

// Profile names.
const (
	ProfileShort  = "short"
	ProfileMedium = "medium"
	ProfileLong   = "long"
	ProfileDay    = "day"
)

// TTLs maps resources to named TTL profiles.
//
//	profiles:
//	  short: 5m
//	  long: 2h
//	resources:
//	  products: medium
//	  analytics: day
type TTLs struct {
	Profiles  map[string]time.Duration `yaml:"profiles"`
	Resources map[string]string        `yaml:"resources"`
}

// DefaultTTLs returns the built-in profiles and resource assignments.
func DefaultTTLs() TTLs {
	return TTLs{
		Profiles: map[string]time.Duration{
			ProfileShort:  cache.ShortTTL,
			ProfileMedium: cache.MediumTTL,
			ProfileLong:   cache.LongTTL,
			ProfileDay:    cache.DayTTL,
		},
		Resources: map[string]string{
			"products":          ProfileMedium,
			"featured_products": ProfileMedium,
			"product":           ProfileMedium,
			"categories":        ProfileLong,
			"reviews":           ProfileShort,
			"analytics":         ProfileDay,
			"dashboard_stats":   ProfileShort,
		},
	}
}

// LoadTTLs overlays the YAML file at path on top of DefaultTTLs.
// An empty path returns the defaults.
func LoadTTLs(path string) (TTLs, error) {
	ttls := DefaultTTLs()
	if path == "" {
		return ttls, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return TTLs{}, errors.Join(ErrReadTTLFile, err)
	}
	if err := ttls.merge(data); err != nil {
		return TTLs{}, err
	}
	return ttls, nil
}

func (t *TTLs) merge(data []byte) error {
	var file TTLs
	if err := yaml.Unmarshal(data, &file); err != nil {
		return errors.Join(ErrInvalidTTLConfig, err)
	}

	for name, d := range file.Profiles {
		if d <= 0 {
			return fmt.Errorf("%w: profile %q must be positive, got %s", ErrInvalidTTLConfig, name, d)
		}
		t.Profiles[name] = d
	}
	for resource, profile := range file.Resources {
		if _, ok := t.Profiles[profile]; !ok {
			return fmt.Errorf("%w: resource %q uses unknown profile %q", ErrInvalidTTLConfig, resource, profile)
		}
		t.Resources[resource] = profile
	}
	return nil
}

// For returns the TTL assigned to resource, or zero when it has none.
// Zero makes the cache fall back to its default TTL.
func (t TTLs) For(resource string) time.Duration {
	profile, ok := t.Resources[resource]
	if !ok {
		return 0
	}
	return t.Profiles[profile]
}
