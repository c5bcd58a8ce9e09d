package cache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrNotFound is returned when a key does not exist in the cache or has expired.
	ErrNotFound = errors.New("cache: entry not found")

	// ErrClosed is returned when an operation is attempted on a closed cache.
	ErrClosed = errors.New("cache: closed")

	// ErrEmptyKey is returned when Set is called with an empty key.
	ErrEmptyKey = errors.New("cache: empty key")

	// ErrInvalidTTL is returned when Set is called with a negative TTL.
	ErrInvalidTTL = errors.New("cache: ttl must be positive")

	// ErrMarshal is returned when value serialization fails.
	ErrMarshal = errors.New("cache: failed to marshal value")

	// ErrUnmarshal is returned when value deserialization fails.
	ErrUnmarshal = errors.New("cache: failed to unmarshal value")

	// ErrCorruptEntry is returned when a durable payload cannot be decoded
	// into a valid entry.
	ErrCorruptEntry = errors.New("cache: corrupt durable entry")
)
