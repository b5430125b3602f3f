// Package sqlitestore is a remote.Backend persisted in a single SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/notetoself/internal/apperr"
	"github.com/starford/notetoself/internal/remote"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
	owner      TEXT    NOT NULL,
	key        TEXT    NOT NULL,
	data       BLOB    NOT NULL,
	revision   INTEGER NOT NULL DEFAULT 1,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (owner, key)
);
`

// DB wraps a sql.DB with entry operations.
type DB struct {
	conn *sql.DB
}

var _ remote.Backend = (*DB)(nil)

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlitestore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlitestore: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Get returns the document stored for owner/key.
func (db *DB) Get(ctx context.Context, owner, key string) (remote.Entry, error) {
	var (
		e    remote.Entry
		data []byte
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT data, revision, updated_at FROM entries WHERE owner = ? AND key = ?`,
		owner, key,
	).Scan(&data, &e.Revision, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return remote.Entry{}, fmt.Errorf("sqlitestore: get %q: %w", key, apperr.ErrNotFound)
		}
		return remote.Entry{}, fmt.Errorf("sqlitestore: get %q: %w", key, err)
	}
	e.Data = data
	return e, nil
}

// Put inserts or overwrites the document and returns its new revision.
func (db *DB) Put(ctx context.Context, owner, key string, data []byte) (uint64, error) {
	var rev uint64
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO entries (owner, key, data, revision, updated_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(owner, key) DO UPDATE SET
			data       = excluded.data,
			revision   = entries.revision + 1,
			updated_at = excluded.updated_at
		RETURNING revision
	`, owner, key, data, time.Now().UTC()).Scan(&rev)
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: put %q: %w", key, err)
	}
	return rev, nil
}
