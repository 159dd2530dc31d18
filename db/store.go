// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/pollbox/cliparse"
)

// Store is the single authoritative data store for users, polls, options and votes.
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the database named by dbType and verifies the connection.
func Open(ctx context.Context, dbType, url string) (*Store, error) {
	driver := dbType
	if dbType == cliparse.DatabaseSQLite {
		url = SQLiteDSN(url)
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewStore(conn, driver), nil
}

// NewStore wraps an open connection pool. SQLite allows a single writer, so
// its pool is capped at one connection.
func NewStore(conn *sql.DB, driver string) *Store {
	if driver == cliparse.DatabaseSQLite {
		conn.SetMaxOpenConns(1)
	}
	return &Store{db: sqlx.NewDb(conn, driver), driver: driver}
}

// SQLiteDSN adds the pragmas the store relies on: foreign keys (cascades and
// the vote/option reference), a busy timeout, and immediate transactions.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "_pragma=") {
		return path
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_txlock=immediate"
}

// DB exposes the pool for reads that do not need a transaction.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Driver returns the database/sql driver name.
func (s *Store) Driver() string {
	return s.driver
}

// SerializesWrites reports whether the engine allows only one writer at a
// time. Callers that need mutual exclusion can skip their own locks when
// this is false and the engine's constraints carry the burden instead.
func (s *Store) SerializesWrites() bool {
	return s.driver == cliparse.DatabaseSQLite
}

func (s *Store) Close() error {
	return s.db.Close()
}

// InTx runs fn inside a single transaction. The transaction is committed when
// fn returns nil and rolled back otherwise, including when ctx is cancelled
// before commit.
func (s *Store) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return CastErr(err)
	}
	return nil
}
