package kv

import (
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-process Store, used for tests and ephemeral sessions.
type Memory struct {
	mu    sync.Mutex
	data  map[string]string
	used  int
	quota int
}

var _ Store = (*Memory)(nil)

func NewMemory(opts ...Option) *Memory {
	o := buildOptions(opts)
	return &Memory{
		data:  make(map[string]string),
		quota: o.quota,
	}
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delta := entrySize(key, value)
	if old, ok := m.data[key]; ok {
		delta -= entrySize(key, old)
	}
	if m.quota > 0 && m.used+delta > m.quota {
		return fmt.Errorf("set %q: %w", key, ErrQuotaExceeded)
	}
	m.data[key] = value
	m.used += delta
	return nil
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.data[key]; ok {
		m.used -= entrySize(key, old)
		delete(m.data, key)
	}
	return nil
}

func (m *Memory) Keys() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Close() error { return nil }
