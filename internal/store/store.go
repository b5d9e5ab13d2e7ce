// Package store persists the independently serialized slices of a workspace
// behind a small key/value contract with Redis, PostgreSQL and in-memory
// backends.
package store

import (
	"context"
	"fmt"
	"sync"
)

// Store is the slice repository. Load reports found=false for an absent key.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte) error
}

// Backend names accepted by configuration.
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// ValidBackend reports whether name is a known backend.
func ValidBackend(name string) bool {
	switch name {
	case BackendRedis, BackendPostgres, BackendMemory:
		return true
	}
	return false
}

// MemoryStore keeps slices in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("store: empty key")
	}
	m.mu.Lock()
	m.items[key] = append([]byte(nil), value...)
	m.mu.Unlock()
	return nil
}

// Keys returns every stored key.
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	return keys
}
