package cache

import (
	"context"
	"time"
)

// Durable is the secondary, persistent tier of a Manager.
// It is a plain byte store; the manager owns encoding and expiry decisions.
// Every method may fail, and the manager treats every failure as non-fatal.
type Durable interface {
	// Get returns the stored payload or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores the payload. expiresAt is a hint that lets stores with
	// native expiry drop the payload on their own.
	Set(ctx context.Context, key string, data []byte, expiresAt time.Time) error

	// Delete removes the payload. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists all keys held by this store.
	Keys(ctx context.Context) ([]string, error)
}

// DurableClearer is implemented by stores that can drop all their keys at once.
type DurableClearer interface {
	Clear(ctx context.Context) error
}

// DurableSweeper is implemented by stores that can delete expired payloads
// without the manager reading them back.
type DurableSweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// Durable operation names, used in logs and metrics.
const (
	OpGet    = "get"
	OpSet    = "set"
	OpDelete = "delete"
	OpKeys   = "keys"
	OpClear  = "clear"
	OpSweep  = "sweep"
	OpDecode = "decode"
	OpEncode = "encode"
)

// durableResult is the outcome of a single best-effort durable-tier call.
// Results are settled by the manager: failures are logged and dropped.
type durableResult struct {
	err error
	op  string
	key string
}

func (r durableResult) ok() bool { return r.err == nil }
