// Package store is the client's durable key/value storage, a single
// "metadata" table in a local SQLite file. It holds the session token
// between runs of the terminal client.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// TokenKey is the metadata key the session token lives under.
const TokenKey = "userToken"

// Store is a key/value table in a SQLite database.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the state database at path, creating parent
// directories as needed. ":memory:" gives a throwaway store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("store: creating state directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS metadata (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: creating metadata table: %w", err)
	}

	return &Store{conn: conn}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Get returns the value for key and whether it was present.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.conn.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: reading %q: %w", key, err)
	}
	return value, true, nil
}

// Set writes value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("store: writing %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key); err != nil {
		return fmt.Errorf("store: deleting %q: %w", key, err)
	}
	return nil
}

// Token returns the stored session token, or "" when signed out.
func (s *Store) Token() (string, error) {
	token, _, err := s.Get(context.Background(), TokenKey)
	return token, err
}

// SetToken persists the session token.
func (s *Store) SetToken(token string) error {
	return s.Set(context.Background(), TokenKey, token)
}

// ClearToken forgets the session token.
func (s *Store) ClearToken() error {
	return s.Delete(context.Background(), TokenKey)
}
