package store

import (
	"context"
	"sync"

	"translation-queue/internal/models"
)

// Memory keeps the serialized queue in process. Storing bytes rather than
// structs gives callers the same copy semantics as the networked backends.
type Memory struct {
	mu  sync.Mutex
	raw []byte
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) ([]models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return decodeQueue(m.raw)
}

func (m *Memory) Update(_ context.Context, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out, write, err := apply(m.raw, fn)
	if err != nil || !write {
		return err
	}
	m.raw = out
	return nil
}

func (m *Memory) Close() error { return nil }
