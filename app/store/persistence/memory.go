package persistence

import (
	"context"
	"sync"
)

// MemorySlot is a map-backed slot, nothing survives the process
type MemorySlot struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemorySlot makes an empty MemorySlot
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{data: make(map[string][]byte)}
}

// Get returns a copy of the blob stored under key
func (m *MemorySlot) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put stores a copy of value under key
func (m *MemorySlot) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Close is a no-op
func (m *MemorySlot) Close() error { return nil }
