package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"translation-queue/internal/models"
)

// SQLite keeps the queue in a local database file. A single connection
// serializes every transaction.
type SQLite struct {
	db  *sql.DB
	key string
}

func NewSQLite(path, key string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("make db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS queue_state (
			key        TEXT PRIMARY KEY,
			payload    TEXT NOT NULL DEFAULT '[]',
			version    INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	if key == "" {
		key = DefaultKey
	}
	return &SQLite{db: db, key: key}, nil
}

func (s *SQLite) Load(ctx context.Context) ([]models.Job, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM queue_state WHERE key = ?`, s.key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []models.Job{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}
	return decodeQueue([]byte(raw))
}

func (s *SQLite) Update(ctx context.Context, fn UpdateFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT payload FROM queue_state WHERE key = ?`, s.key).Scan(&raw)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("load queue: %w", err)
	}

	out, write, err := apply([]byte(raw), fn)
	if err != nil {
		return err
	}
	if write {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO queue_state (key, payload, version, updated_at)
			VALUES (?, ?, 1, CURRENT_TIMESTAMP)
			ON CONFLICT (key) DO UPDATE SET
				payload = excluded.payload,
				version = queue_state.version + 1,
				updated_at = CURRENT_TIMESTAMP
		`, s.key, string(out)); err != nil {
			return fmt.Errorf("write queue: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
