package store

import (
	"encoding/json"
	"strings"
	"sync"

	v1alpha1 "github.com/skua-dev/skua/pkg/apis/v1alpha1"
)

// MemoryStore is a thread-safe, in-memory Store backed by a simple map.
// Useful for unit tests and the `chat`/`draft` REPLs when no data
// directory is configured.
type MemoryStore struct {
	watchHub
	mu   sync.RWMutex
	data map[string][]byte // key -> JSON bytes
}

// NewMemoryStore creates a ready-to-use in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Create(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if _, exists := m.data[key]; exists {
		m.mu.Unlock()
		return ErrAlreadyExists
	}
	m.data[key] = raw
	m.mu.Unlock()

	m.notify(event(v1alpha1.EventAdded, key, value))
	return nil
}

func (m *MemoryStore) Get(key string, target interface{}) error {
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(raw, target)
}

func (m *MemoryStore) Update(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if _, exists := m.data[key]; !exists {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.data[key] = raw
	m.mu.Unlock()

	m.notify(event(v1alpha1.EventModified, key, value))
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	raw, exists := m.data[key]
	if !exists {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.data, key)
	m.mu.Unlock()

	// Deserialise the old value so watchers receive the deleted object.
	var obj interface{}
	_ = json.Unmarshal(raw, &obj)

	m.notify(event(v1alpha1.EventDeleted, key, obj))
	return nil
}

func (m *MemoryStore) List(prefix string, factory func() interface{}) ([]interface{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []interface{}
	for k, raw := range m.data {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		obj := factory()
		if err := json.Unmarshal(raw, obj); err != nil {
			return nil, err
		}
		results = append(results, obj)
	}
	return results, nil
}

func (m *MemoryStore) Watch(prefix string) (<-chan v1alpha1.WatchEvent, func()) {
	return m.subscribe(prefix)
}

func (m *MemoryStore) Close() error {
	m.closeAll()

	m.mu.Lock()
	m.data = make(map[string][]byte)
	m.mu.Unlock()
	return nil
}
