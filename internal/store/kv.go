package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// schemaVersion is the current version of every persisted document.
const schemaVersion = 1

// KV is the durable key-value adapter. Each key maps to a serialized text
// value; the adapter never interprets the contents.
type KV struct {
	db *sqlx.DB
}

// NewKV opens (or creates) a SQLite database at dbPath, enables WAL mode,
// and runs any pending schema migrations.
func NewKV(dbPath string) (*KV, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	kv := &KV{db: db}
	if err := kv.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return kv, nil
}

// Close closes the underlying database connection.
func (kv *KV) Close() error {
	return kv.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (kv *KV) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := kv.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = kv.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := kv.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Get retrieves the value stored under key. The second return value is
// false when the key has never been written.
func (kv *KV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := kv.db.GetContext(ctx, &value, "SELECT value FROM kv WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting key %q: %w", key, err)
	}
	return value, true, nil
}

// Put stores value under key, replacing any previous value.
func (kv *KV) Put(ctx context.Context, key, value string) error {
	_, err := kv.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("putting key %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (kv *KV) Delete(ctx context.Context, key string) error {
	_, err := kv.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("deleting key %q: %w", key, err)
	}
	return nil
}

// document is the versioned envelope wrapped around every persisted value.
type document[T any] struct {
	Version int `json:"version"`
	Data    T   `json:"data"`
}

// putJSON serializes data inside a versioned envelope and stores it under key.
func putJSON[T any](ctx context.Context, kv *KV, key string, data T) error {
	raw, err := json.Marshal(document[T]{Version: schemaVersion, Data: data})
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return kv.Put(ctx, key, string(raw))
}

// getJSON loads and decodes the versioned document stored under key.
// A missing key returns found=false. An undecodable or version-mismatched
// document returns an error wrapping ErrValidation; callers are expected
// to fall back to their default value.
func getJSON[T any](ctx context.Context, kv *KV, key string) (T, bool, error) {
	var zero T

	raw, found, err := kv.Get(ctx, key)
	if err != nil || !found {
		return zero, false, err
	}

	var doc document[T]
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return zero, false, fmt.Errorf("%w: decoding %s: %v", ErrValidation, key, err)
	}
	if doc.Version != schemaVersion {
		return zero, false, fmt.Errorf("%w: unsupported %s document version %d", ErrValidation, key, doc.Version)
	}

	return doc.Data, true, nil
}
