package durable

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/tiercache/pkg/cache"
)

// DefaultCapacity is the byte quota of a Memory store.
const DefaultCapacity = 5 << 20

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithCapacity sets the byte quota (key plus payload sizes).
// Zero or negative means unlimited.
// Default: 5 MiB.
func WithCapacity(bytes int64) MemoryOption {
	return func(m *Memory) {
		m.capacity = bytes
	}
}

// Memory is a bounded in-process byte store.
//
// It outlives the managers built on top of it, which makes it a stand-in for
// client-side persistent storage: a new Manager over the same Memory sees the
// payloads written by the previous one. Payloads never expire on their own;
// the manager decides staleness.
type Memory struct {
	items    map[string][]byte
	mu       sync.RWMutex
	used     int64
	capacity int64
}

// NewMemory creates an empty store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		items:    make(map[string][]byte),
		capacity: DefaultCapacity,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a copy of the payload stored under key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.items[key]
	if !ok {
		return nil, cache.ErrNotFound
	}
	return slices.Clone(data), nil
}

// Set stores a copy of data under key.
// Returns ErrQuotaExceeded when the write would exceed the capacity;
// the previous payload, if any, is kept in that case.
func (m *Memory) Set(_ context.Context, key string, data []byte, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used + int64(len(key)+len(data))
	if old, ok := m.items[key]; ok {
		used -= int64(len(key) + len(old))
	}
	if m.capacity > 0 && used > m.capacity {
		return ErrQuotaExceeded
	}

	m.items[key] = slices.Clone(data)
	m.used = used
	return nil
}

// Delete removes key. Missing keys are ignored.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.items[key]; ok {
		m.used -= int64(len(key) + len(old))
		delete(m.items, key)
	}
	return nil
}

// Keys returns all stored keys in sorted order.
func (m *Memory) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.items))
	for key := range m.items {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys, nil
}

// Clear removes every payload.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[string][]byte)
	m.used = 0
	return nil
}

// Used returns the number of bytes counted against the capacity.
func (m *Memory) Used() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}

var (
	_ cache.Durable        = (*Memory)(nil)
	_ cache.DurableClearer = (*Memory)(nil)
)
