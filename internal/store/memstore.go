package store

import (
	"encoding/json"
	"sync"
)

// MemStore is an in-memory TreeStore used by tests and local development.
// It honors the full contract including change listeners.
type MemStore struct {
	mu        sync.RWMutex
	data      map[string]map[string]json.RawMessage
	failWith  error
	listeners listenerSet
}

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]map[string]json.RawMessage)}
}

// FailWith makes every subsequent operation return err. Pass nil to restore
// normal behavior. Tests use this to simulate an unreachable store.
func (m *MemStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func (m *MemStore) Insert(collection string, record any) (string, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	if m.failWith != nil {
		err := m.failWith
		m.mu.Unlock()
		return "", err
	}
	id := NewPushID()
	if m.data[collection] == nil {
		m.data[collection] = make(map[string]json.RawMessage)
	}
	m.data[collection][id] = raw
	m.mu.Unlock()

	m.listeners.notify(collection)
	return id, nil
}

func (m *MemStore) GetAll(collection string) (map[string]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := make(map[string]json.RawMessage, len(m.data[collection]))
	for id, raw := range m.data[collection] {
		out[id] = raw
	}
	return out, nil
}

func (m *MemStore) GetOne(collection, id string) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	raw, ok := m.data[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return raw, nil
}

func (m *MemStore) Update(collection, id string, record any) error {
	m.mu.Lock()
	if m.failWith != nil {
		err := m.failWith
		m.mu.Unlock()
		return err
	}
	stored, ok := m.data[collection][id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	merged, err := mergeInto(stored, record)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.data[collection][id] = merged
	m.mu.Unlock()

	m.listeners.notify(collection)
	return nil
}

func (m *MemStore) Remove(collection, id string) error {
	m.mu.Lock()
	if m.failWith != nil {
		err := m.failWith
		m.mu.Unlock()
		return err
	}
	if _, ok := m.data[collection][id]; !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.data[collection], id)
	m.mu.Unlock()

	m.listeners.notify(collection)
	return nil
}

func (m *MemStore) Listen(collection string, onChange func()) (ListenerHandle, error) {
	return m.listeners.listen(collection, onChange), nil
}

// Put writes a record under a caller-chosen id, bypassing auto-generation.
// Used for keyed single-slot collections such as current positions.
func (m *MemStore) Put(collection, id string, record any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	m.mu.Lock()
	if m.failWith != nil {
		err := m.failWith
		m.mu.Unlock()
		return err
	}
	if m.data[collection] == nil {
		m.data[collection] = make(map[string]json.RawMessage)
	}
	m.data[collection][id] = raw
	m.mu.Unlock()

	m.listeners.notify(collection)
	return nil
}
