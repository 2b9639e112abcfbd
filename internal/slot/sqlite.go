package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"storefront-client/internal/domain"
)

// SQLite stores the slot in a local database file. This is the default
// backend for the CLI.
type SQLite struct {
	db   *sql.DB
	name string
}

func OpenSQLite(ctx context.Context, path, name string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create slot directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	const schema = `
CREATE TABLE IF NOT EXISTS session_slots (
	name TEXT PRIMARY KEY,
	payload TEXT NOT NULL,
	updated_at DATETIME NOT NULL
)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session_slots: %w", err)
	}
	return &SQLite{db: db, name: nameOrDefault(name)}, nil
}

func (s *SQLite) Load(ctx context.Context) (*Record, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM session_slots WHERE name = ?`, s.name).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return decode([]byte(payload))
}

func (s *SQLite) Save(ctx context.Context, rec Record) error {
	raw, err := encode(rec)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO session_slots (name, payload, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
`
	_, err = s.db.ExecContext(ctx, q, s.name, string(raw), time.Now().UTC())
	return err
}

func (s *SQLite) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_slots WHERE name = ?`, s.name)
	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func nameOrDefault(name string) string {
	if name == "" {
		return DefaultName
	}
	return name
}
