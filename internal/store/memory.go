package store

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	blob, ok := m.data[key]
	return blob, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, blob string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = blob
	return nil
}
