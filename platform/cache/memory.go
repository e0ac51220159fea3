package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// Memory is a mutex-guarded in-process Store. It backs redis-less
// deployments and tests.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// NewMemoryWithClock creates an in-memory store with an injected clock,
// so tests can advance time deterministically.
func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

// Get returns the payload for key when a live entry exists. Expired
// entries are removed on lookup.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if m.now().After(entry.expiresAt) {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have renewed it.
		if current, stillThere := m.entries[key]; stillThere && m.now().After(current.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}

	return entry.payload, true, nil
}

// Set stores payload under key for the given TTL.
func (m *Memory) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	m.mu.Lock()
	m.entries[key] = memoryEntry{
		payload:   payload,
		expiresAt: m.now().Add(ttl),
	}
	m.mu.Unlock()
	return nil
}

var _ Store = (*Memory)(nil)
