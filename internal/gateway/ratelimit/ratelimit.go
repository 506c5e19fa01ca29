package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a fixed-window request limiter keyed by client. A false return
// means "do not proceed" for this call; the call has still been counted.
type Limiter interface {
	Allow(ctx context.Context, clientKey string) bool
}

type window struct {
	count   int
	resetAt time.Time
}

// Memory is the process-local Limiter. It bounds requests per instance only;
// deployments with multiple instances get at most N*instances per window.
type Memory struct {
	mu      sync.Mutex
	windows map[string]*window

	limit      int
	windowSize time.Duration
	now        func() time.Time
}

// NewMemory creates a limiter allowing limit calls per windowSize per key.
func NewMemory(limit int, windowSize time.Duration) *Memory {
	return &Memory{
		windows:    make(map[string]*window),
		limit:      limit,
		windowSize: windowSize,
		now:        time.Now,
	}
}

// Allow counts one call for clientKey and reports whether it is within the
// window's limit. Window state for a key is created lazily and reset in place
// once the window elapses; it is never evicted.
func (m *Memory) Allow(_ context.Context, clientKey string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	w, ok := m.windows[clientKey]
	if !ok || now.After(w.resetAt) {
		m.windows[clientKey] = &window{count: 1, resetAt: now.Add(m.windowSize)}
		return true
	}

	w.count++
	return w.count <= m.limit
}
