package cache

import (
	"context"
	"sync"
	"time"
)

const DefaultTTL = 60 * time.Second

// Store is the TTL key/value contract shared by every fetch path. A miss
// covers absent keys, expired keys and backend errors alike.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

type entry struct {
	value      []byte
	insertedAt time.Time
}

// Memory is a process-local Store. Expired entries are dropped on lookup;
// nothing sweeps the map in the background.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return NewMemoryWithClock(ttl, time.Now)
}

func NewMemoryWithClock(ttl time.Duration, now func() time.Time) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Memory{ttl: ttl, entries: make(map[string]entry), now: now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.now().Sub(e.insertedAt) >= m.ttl {
		delete(m.entries, key)
		return nil, false
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	m.entries[key] = entry{value: stored, insertedAt: m.now()}
}

// Len counts stored entries, including expired ones not yet looked up.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
