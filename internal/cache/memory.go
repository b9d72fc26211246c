package cache

import (
	"context"
	"sync"

	"github.com/docentlabs/docent/internal/fingerprint"
)

// Memory is an in-process Store. Useful for tests and one-shot runs where
// persistence across processes is not wanted.
type Memory struct {
	mu      sync.RWMutex
	entries map[fingerprint.Fingerprint][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[fingerprint.Fingerprint][]byte)}
}

// Get returns the cached value for fp.
func (m *Memory) Get(_ context.Context, fp fingerprint.Fingerprint) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.entries[fp]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, true, nil
}

// Set stores val under fp.
func (m *Memory) Set(_ context.Context, fp fingerprint.Fingerprint, val []byte) error {
	stored := make([]byte, len(val))
	copy(stored, val)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[fp] = stored
	return nil
}

// Stats reports entry count and total payload size.
func (m *Memory) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var size int64
	for _, v := range m.entries {
		size += int64(len(v))
	}
	return Stats{Entries: len(m.entries), SizeBytes: size}, nil
}

// Clear removes every entry.
func (m *Memory) Clear(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.entries)
	m.entries = make(map[fingerprint.Fingerprint][]byte)
	return n, nil
}

var _ Manager = (*Memory)(nil)
