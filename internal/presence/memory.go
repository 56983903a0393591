package presence

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store with lazy expiry. It backs tests and
// redis-less development runs; expired entries are pruned on read.
type Memory struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemory creates an in-memory presence store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// MarkOnline sets or refreshes the expiring record for a user.
func (m *Memory) MarkOnline(_ context.Context, username string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key(username)] = m.now().Add(ttl)
	return nil
}

// MarkOffline removes the record. No error if absent.
func (m *Memory) MarkOffline(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key(username))
	return nil
}

// IsOnline reports whether a non-expired record exists.
func (m *Memory) IsOnline(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(username)
	deadline, ok := m.entries[k]
	if !ok {
		return false, nil
	}
	if m.now().After(deadline) {
		delete(m.entries, k)
		return false, nil
	}
	return true, nil
}
