package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"translation-queue/internal/models"
)

// Redis stores the queue as one string value and updates it with
// WATCH/MULTI/EXEC optimistic transactions.
type Redis struct {
	client *redis.Client
	key    string
}

// RedisOptions mirrors the connection settings taken from config.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

func NewRedis(opts RedisOptions) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisWithClient(client, opts.Key)
}

// NewRedisWithClient reuses an existing client, e.g. one shared with the rate limiter.
func NewRedisWithClient(client *redis.Client, key string) *Redis {
	if key == "" {
		key = DefaultKey
	}
	return &Redis{client: client, key: key}
}

// Client exposes the underlying connection for components sharing it.
func (r *Redis) Client() *redis.Client { return r.client }

func (r *Redis) Load(ctx context.Context) ([]models.Job, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []models.Job{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get queue: %w", err)
	}
	return decodeQueue(raw)
}

// Update retries fn when another writer touched the key between read and EXEC.
func (r *Redis) Update(ctx context.Context, fn UpdateFunc) error {
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, r.key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("get queue: %w", err)
		}
		out, write, err := apply(raw, fn)
		if err != nil || !write {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key, out, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, r.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}

func (r *Redis) Close() error {
	return r.client.Close()
}
