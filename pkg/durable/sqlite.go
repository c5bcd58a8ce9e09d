package durable

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dmitrymomot/tiercache/pkg/cache"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
    namespace  TEXT    NOT NULL,
    key        TEXT    NOT NULL,
    value      BLOB    NOT NULL,
    expires_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (namespace, key)
);
CREATE INDEX IF NOT EXISTS cache_entries_expires_at_idx ON cache_entries (expires_at);
`

// SQLite is a durable store kept in a local SQLite file.
// Expiry instants are stored as Unix milliseconds.
type SQLite struct {
	db        *sql.DB
	namespace string
}

// OpenSQLite opens (or creates) the database file at path and ensures the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path, namespace string) (*SQLite, error) {
	if path == "" {
		return nil, ErrEmptyConnectionURL
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	// SQLite serializes writers; one connection also keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrApplyMigrations, err)
	}

	return &SQLite{db: db, namespace: namespace}, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Healthcheck pings the database.
func (s *SQLite) Healthcheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM cache_entries WHERE namespace = ? AND key = ?`,
		s.namespace, key,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cache.ErrNotFound
		}
		return nil, errors.Join(ErrReadFailed, err)
	}
	return data, nil
}

func (s *SQLite) Set(ctx context.Context, key string, data []byte, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (namespace, key, value, expires_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (namespace, key)
		 DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at, updated_at = excluded.updated_at`,
		s.namespace, key, data, expiresAt.UnixMilli(), time.Now().UnixMilli(),
	)
	if err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE namespace = ? AND key = ?`,
		s.namespace, key,
	)
	if err != nil {
		return errors.Join(ErrDeleteFailed, err)
	}
	return nil
}

func (s *SQLite) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM cache_entries WHERE namespace = ? ORDER BY key`,
		s.namespace,
	)
	if err != nil {
		return nil, errors.Join(ErrListFailed, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, errors.Join(ErrListFailed, err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrListFailed, err)
	}
	return keys, nil
}

func (s *SQLite) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE namespace = ?`, s.namespace)
	if err != nil {
		return errors.Join(ErrDeleteFailed, err)
	}
	return nil
}

// DeleteExpired removes rows whose expiry is strictly before now.
func (s *SQLite) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE namespace = ? AND expires_at < ?`,
		s.namespace, now.UnixMilli(),
	)
	if err != nil {
		return 0, errors.Join(ErrDeleteFailed, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Join(ErrDeleteFailed, err)
	}
	return int(n), nil
}

var (
	_ cache.Durable        = (*SQLite)(nil)
	_ cache.DurableClearer = (*SQLite)(nil)
	_ cache.DurableSweeper = (*SQLite)(nil)
)
