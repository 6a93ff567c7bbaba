package storage

import (
	"context"
	"sync"

	"github.com/bobmcallan/finsight/internal/interfaces"
)

// MemoryStateStore is an in-memory StateStore. Used in tests and available
// as an ephemeral backend when durability is not required.
type MemoryStateStore struct {
	mu     sync.RWMutex
	scopes map[string]map[string][]byte
}

// NewMemoryStateStore creates an empty in-memory state store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{scopes: make(map[string]map[string][]byte)}
}

func (m *MemoryStateStore) Get(_ context.Context, scope, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if kv, ok := m.scopes[scope]; ok {
		if v, ok := kv[key]; ok {
			return v, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStateStore) Set(_ context.Context, scope, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kv, ok := m.scopes[scope]
	if !ok {
		kv = make(map[string][]byte)
		m.scopes[scope] = kv
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	kv[key] = cp
	return nil
}

func (m *MemoryStateStore) Delete(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if kv, ok := m.scopes[scope]; ok {
		delete(kv, key)
	}
	return nil
}

func (m *MemoryStateStore) Clear(_ context.Context, scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scopes, scope)
	return nil
}

// Ensure MemoryStateStore implements StateStore
var _ interfaces.StateStore = (*MemoryStateStore)(nil)
