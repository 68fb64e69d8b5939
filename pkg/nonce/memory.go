package nonce

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// Memory is an in-process Store. Expired entries are dropped lazily on Take
// and swept periodically by a janitor goroutine.
type Memory struct {
	items  map[string]memoryEntry
	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

const defaultSweepInterval = time.Minute

// NewMemory creates a Memory store and starts its janitor.
func NewMemory(opts ...MemoryOption) *Memory {
	o := memoryOptions{sweepInterval: defaultSweepInterval}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Memory{
		items: make(map[string]memoryEntry),
		done:  make(chan struct{}),
	}
	go m.janitor(o.sweepInterval)
	return m
}

// MemoryOption configures a Memory store.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	sweepInterval time.Duration
}

// WithSweepInterval sets how often expired entries are swept.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		if d > 0 {
			o.sweepInterval = d
		}
	}
}

// Put records value under key for at most ttl.
func (m *Memory) Put(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.items[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Take returns the value under key and consumes it.
func (m *Memory) Take(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrClosed
	}

	e, ok := m.items[key]
	if !ok {
		return "", ErrNotFound
	}
	delete(m.items, key)

	if time.Now().After(e.expiresAt) {
		return "", ErrNotFound
	}
	return e.value, nil
}

// Close stops the janitor and rejects further operations.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	m.items = nil
	return nil
}

func (m *Memory) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Memory) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	now := time.Now()
	for key, e := range m.items {
		if now.After(e.expiresAt) {
			delete(m.items, key)
		}
	}
}
