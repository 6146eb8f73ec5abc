package store

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory process store for testing.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]storedDefinition
	closed bool
}

type storedDefinition struct {
	definition []byte
	updated    time.Time
}

// NewMemoryStore creates a new in-memory process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]storedDefinition),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(id string, definition []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	// Copy data to avoid retaining caller's slice
	stored := make([]byte, len(definition))
	copy(stored, definition)

	m.data[id] = storedDefinition{
		definition: stored,
		updated:    time.Now().UTC(),
	}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	stored, ok := m.data[id]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy to prevent modification
	result := make([]byte, len(stored.definition))
	copy(result, stored.definition)
	return result, nil
}

// List implements Store.
func (m *MemoryStore) List() ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	infos := make([]Info, 0, len(m.data))
	for id, stored := range m.data {
		infos = append(infos, Info{
			ID:      id,
			Updated: stored.updated,
			Size:    int64(len(stored.definition)),
		})
	}

	// Most recent first; ties break by id for determinism.
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Updated.Equal(infos[j].Updated) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].Updated.After(infos[j].Updated)
	})

	return infos, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.data, id)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	return nil
}

// Len returns the number of stored definitions.
// Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
