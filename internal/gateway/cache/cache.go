package cache

import (
	"context"
	"sync"
	"time"
)

// Store is a TTL-bounded byte cache. Implemented by the in-memory store
// (single instance) and the Redis store (shared across instances). A Get past
// the TTL behaves as a miss; callers recompute and Set again.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

type memoryEntry struct {
	value      []byte
	insertedAt time.Time
	ttl        time.Duration
}

// Memory is the in-memory Store. Stale entries are never evicted, only
// superseded by the next Set for the same key.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	now func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the value for key, or false if the key is absent or stale.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if m.now().Sub(entry.insertedAt) > entry.ttl {
		return nil, false
	}
	return entry.value, true
}

// Set stores value under key. Concurrent writers for the same key race;
// last writer wins.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	m.entries[key] = memoryEntry{value: value, insertedAt: m.now(), ttl: ttl}
	m.mu.Unlock()
}
