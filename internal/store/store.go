// Package store persists the translation queue as a single serialized unit
// and offers atomic read-modify-write over it.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"translation-queue/internal/models"
)

// DefaultKey is the well-known key the queue is stored under.
const DefaultKey = "translation:queue"

const maxUpdateAttempts = 16

var (
	// ErrConflict is returned when concurrent writers kept invalidating an update.
	ErrConflict = errors.New("queue store: too many concurrent update conflicts")
	// ErrNoChange may be returned by an update function to skip the write.
	ErrNoChange = errors.New("queue store: no change")
)

// UpdateFunc receives the current queue and returns the queue to persist.
// It can run more than once when a backend retries after a conflict, so it must
// not leak state from a previous attempt.
type UpdateFunc func(jobs []models.Job) ([]models.Job, error)

// QueueStore is the single owner of the persisted queue.
type QueueStore interface {
	Load(ctx context.Context) ([]models.Job, error)
	Update(ctx context.Context, fn UpdateFunc) error
	Close() error
}

func encodeQueue(jobs []models.Job) ([]byte, error) {
	if jobs == nil {
		jobs = []models.Job{}
	}
	raw, err := json.Marshal(jobs)
	if err != nil {
		return nil, fmt.Errorf("encode queue: %w", err)
	}
	return raw, nil
}

func decodeQueue(raw []byte) ([]models.Job, error) {
	if len(raw) == 0 {
		return []models.Job{}, nil
	}
	var jobs []models.Job
	if err := json.Unmarshal(raw, &jobs); err != nil {
		return nil, fmt.Errorf("decode queue: %w", err)
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	return jobs, nil
}

// apply runs fn against raw and returns the encoded result. write is false
// when fn asked to skip persisting.
func apply(raw []byte, fn UpdateFunc) (out []byte, write bool, err error) {
	jobs, err := decodeQueue(raw)
	if err != nil {
		return nil, false, err
	}
	next, err := fn(jobs)
	if errors.Is(err, ErrNoChange) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	out, err = encodeQueue(next)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}
