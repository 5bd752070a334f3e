// Package store is the single-writer, many-reader repository over the
// explorer's world-state and history projection. It is backed by SQLite in
// WAL mode: the ingest supervisor is the sole writer, calling Apply once per
// block from its own goroutine (no lock is taken around Apply), while HTTP
// handlers read through the same handle. With DefaultConfig's single
// connection, a read waits while a write transaction holds that connection.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Config configures the SQLite-backed store.
type Config struct {
	// Path is the database file path, or ":memory:" for an ephemeral store
	// (used by internal/sample and tests).
	Path string

	MaxOpenConns int
	BusyTimeout  time.Duration
}

// DefaultConfig returns the store configuration used by `explorer serve`.
func DefaultConfig(path string) Config {
	return Config{
		Path:         path,
		MaxOpenConns: 1,
		BusyTimeout:  5 * time.Second,
	}
}

// Store is the repository handle. A single *Store is shared by the ingest
// supervisor and every HTTP handler.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and migrates the database at cfg.Path, applying
// WAL journaling, a busy timeout, and foreign-key enforcement.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	dsn := cfg.Path
	if dsn != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", cfg.Path, cfg.BusyTimeout.Milliseconds())
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, wrapStoreErr("open", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 1
	}
	// A single physical connection avoids SQLITE_BUSY storms under WAL:
	// the writer and readers all multiplex over it, with the busy_timeout
	// pragma absorbing brief lock contention instead of surfacing it.
	db.SetMaxOpenConns(maxOpen)
	db.SetConnMaxLifetime(0)

	if err := migrate(ctx, db, cfg); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// migrate applies the store's pragma configuration and embedded schema to
// an already-open db handle, the same "migrations against a *sql.DB"
// seam the teacher's platform/migrations.Apply uses — kept separate from
// Open so it can be driven against a mocked driver in tests without a
// real SQLite file.
func migrate(ctx context.Context, db *sql.DB, cfg Config) error {
	if err := configurePragmas(ctx, db, cfg); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return wrapStoreErr("migrate", err)
	}
	return nil
}

func configurePragmas(ctx context.Context, db *sql.DB, cfg Config) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()),
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return wrapStoreErr("pragma", fmt.Errorf("%s: %w", p, err))
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Reset truncates every world-state and history table. The ingest
// supervisor calls it before every bootstrap from height 1 (on start and
// after each reconnect), and internal/sample calls it before replaying its
// fixture.
func (s *Store) Reset(ctx context.Context) error {
	tables := []string{
		"instructions", "transactions", "role_grants", "roles", "peers",
		"nfts", "assets", "asset_definitions", "domain_owners", "accounts",
		"domains", "blocks", "meta",
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapStoreErr("reset", err)
	}
	defer tx.Rollback()

	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return wrapStoreErr("reset", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrapStoreErr("reset", err)
	}
	return nil
}

// Height returns the highest committed block height, or 0 if the store is
// empty (the ingest supervisor then bootstraps from height 1).
func (s *Store) Height(ctx context.Context) (uint64, error) {
	var height sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT MAX(height) FROM blocks").Scan(&height)
	if err != nil {
		return 0, wrapStoreErr("height", err)
	}
	if !height.Valid {
		return 0, nil
	}
	return uint64(height.Int64), nil
}
