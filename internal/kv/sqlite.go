package kv

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// SQLite keeps the key/value table in a single SQLite file.
type SQLite struct {
	db    *sql.DB
	quota int
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at dbPath and runs migrations.
func OpenSQLite(dbPath string, opts ...Option) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	o := buildOptions(opts)
	s := &SQLite{db: db, quota: o.quota}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewSQLiteMemory creates an in-memory store for testing.
func NewSQLiteMemory(opts ...Option) (*SQLite, error) {
	return OpenSQLite(":memory:", opts...)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *SQLite) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS entries (
		key         TEXT PRIMARY KEY,
		value       TEXT NOT NULL,
		updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);
	`
	_, err := s.db.Exec(ddl)
	return err
}

func (s *SQLite) Set(key, value string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("set %q: begin: %w", key, err)
	}
	defer tx.Rollback()

	if s.quota > 0 {
		// Byte lengths, so the budget matches the Go-side accounting.
		var used int64
		err := tx.QueryRow(
			`SELECT COALESCE(SUM(length(CAST(key AS BLOB)) + length(CAST(value AS BLOB))), 0)
			 FROM entries WHERE key <> ?`, key,
		).Scan(&used)
		if err != nil {
			return fmt.Errorf("set %q: measure usage: %w", key, err)
		}
		if int(used)+entrySize(key, value) > s.quota {
			return fmt.Errorf("set %q: %w", key, ErrQuotaExceeded)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(
		`INSERT INTO entries (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now,
	)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return tx.Commit()
}

func (s *SQLite) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLite) Remove(key string) error {
	if _, err := s.db.Exec(`DELETE FROM entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

func (s *SQLite) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM entries ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
