// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/sofia-tui/internal/registry"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrClosed          = errors.New("store is closed")
	ErrAlreadyCredited = errors.New("payment already credited")
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS credited_payments (
	payment_hash TEXT PRIMARY KEY,
	tokens       INTEGER NOT NULL,
	credited_at  INTEGER NOT NULL
);
`

const registrySnapshotKey = "registry"

// =============================================================================
// STORE
// =============================================================================

// Store is the SQLite-backed local cache.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path. The special
// path ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	// SQLite only supports one writer at a time; an in-memory database also
	// vanishes when its last connection closes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) conn() (*sql.DB, error) {
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

// =============================================================================
// REGISTRY SNAPSHOTS
// =============================================================================

// LoadSnapshot returns the last stored registry listing.
func (s *Store) LoadSnapshot(ctx context.Context) (*registry.Snapshot, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var data []byte
	err = db.QueryRowContext(ctx, "SELECT data FROM snapshots WHERE key = ?", registrySnapshotKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, registry.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snap registry.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// SaveSnapshot replaces the stored registry listing.
func (s *Store) SaveSnapshot(ctx context.Context, snap *registry.Snapshot) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO snapshots (key, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		registrySnapshotKey, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// =============================================================================
// CREDITED LEDGER
// =============================================================================

// Credit is one ledger row.
type Credit struct {
	PaymentHash string
	Tokens      int64
	CreditedAt  time.Time
}

// IsCredited reports whether hash was already credited.
func (s *Store) IsCredited(ctx context.Context, hash string) (bool, error) {
	db, err := s.conn()
	if err != nil {
		return false, err
	}
	var n int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM credited_payments WHERE payment_hash = ?", hash).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check ledger: %w", err)
	}
	return n > 0, nil
}

// MarkCredited records hash as credited. Recording the same hash twice
// returns ErrAlreadyCredited.
func (s *Store) MarkCredited(ctx context.Context, hash string, tokens int64) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		"INSERT OR IGNORE INTO credited_payments (payment_hash, tokens, credited_at) VALUES (?, ?, ?)",
		hash, tokens, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("record credit: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAlreadyCredited
	}
	return nil
}

// Credits lists the ledger, newest first.
func (s *Store) Credits(ctx context.Context) ([]Credit, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		"SELECT payment_hash, tokens, credited_at FROM credited_payments ORDER BY credited_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()

	var out []Credit
	for rows.Next() {
		var c Credit
		var at int64
		if err := rows.Scan(&c.PaymentHash, &c.Tokens, &at); err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		c.CreditedAt = time.Unix(at, 0)
		out = append(out, c)
	}
	return out, rows.Err()
}
