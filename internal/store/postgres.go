package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"translation-queue/internal/models"
)

// Postgres keeps the queue in one queue_state row and serializes writers with
// SELECT ... FOR UPDATE.
type Postgres struct {
	pool *pgxpool.Pool
	key  string
}

// NewPostgres creates a pooled connection to Postgres.
func NewPostgres(ctx context.Context, dsn, key string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if key == "" {
		key = DefaultKey
	}
	return &Postgres{pool: pool, key: key}, nil
}

// Pool exposes the connection pool so the CMS adapter can share it.
func (p *Postgres) Pool() *pgxpool.Pool { return p.pool }

func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Postgres) Load(ctx context.Context) ([]models.Job, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT payload FROM queue_state WHERE key = $1`, p.key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return []models.Job{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}
	return decodeQueue(raw)
}

// Update locks the queue row for the duration of fn.
func (p *Postgres) Update(ctx context.Context, fn UpdateFunc) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	if _, err := tx.Exec(ctx, `
		INSERT INTO queue_state (key, payload, version, updated_at)
		VALUES ($1, '[]'::jsonb, 0, NOW())
		ON CONFLICT (key) DO NOTHING
	`, p.key); err != nil {
		return fmt.Errorf("ensure queue row: %w", err)
	}

	var raw []byte
	if err := tx.QueryRow(ctx, `
		SELECT payload FROM queue_state WHERE key = $1 FOR UPDATE
	`, p.key).Scan(&raw); err != nil {
		return fmt.Errorf("lock queue: %w", err)
	}

	out, write, err := apply(raw, fn)
	if err != nil {
		return err
	}
	if write {
		if _, err := tx.Exec(ctx, `
			UPDATE queue_state SET payload = $2, version = version + 1, updated_at = NOW()
			WHERE key = $1
		`, p.key, out); err != nil {
			return fmt.Errorf("write queue: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
