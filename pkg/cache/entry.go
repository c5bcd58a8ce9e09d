package cache

import (
	"encoding/json"
	"errors"
	"time"
)

// Entry is a cached value together with its lifetime.
// ExpiresAt is always strictly after CreatedAt.
type Entry[V any] struct {
	CreatedAt time.Time
	ExpiresAt time.Time
	Value     V
}

func newEntry[V any](value V, now time.Time, ttl time.Duration) Entry[V] {
	return Entry[V]{
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the entry is stale at the given instant.
// An entry is still live at exactly ExpiresAt.
func (e Entry[V]) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// TTL returns the lifetime the entry was created with.
func (e Entry[V]) TTL() time.Duration {
	return e.ExpiresAt.Sub(e.CreatedAt)
}

// envelope is the durable-tier representation of an entry.
// Data holds the value as produced by the manager's Marshaler.
type envelope struct {
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Data      []byte    `json:"data"`
}

func encodeEntry[V any](m Marshaler[V], e Entry[V]) ([]byte, error) {
	data, err := m.Marshal(e.Value)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(envelope{
		CreatedAt: e.CreatedAt,
		ExpiresAt: e.ExpiresAt,
		Data:      data,
	})
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return raw, nil
}

func decodeEntry[V any](m Marshaler[V], raw []byte) (Entry[V], error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Entry[V]{}, errors.Join(ErrCorruptEntry, err)
	}
	if env.Data == nil || !env.ExpiresAt.After(env.CreatedAt) {
		return Entry[V]{}, ErrCorruptEntry
	}

	v, err := m.Unmarshal(env.Data)
	if err != nil {
		return Entry[V]{}, errors.Join(ErrCorruptEntry, err)
	}

	return Entry[V]{
		Value:     v,
		CreatedAt: env.CreatedAt,
		ExpiresAt: env.ExpiresAt,
	}, nil
}
