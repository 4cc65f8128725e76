// Package lock provides per-key mutual exclusion for workflow critical
// sections. The submit path holds a lock per application ID so the
// read-then-create check cannot race; refresh holds one per check ID.
package lock

import (
	"context"
	"sync"
)

// Keyed grants exclusive access scoped to an arbitrary string key.
// Release must always be called, typically via defer.
type Keyed interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Memory is an in-process keyed lock. Sufficient for a single instance;
// multi-instance deployments use the Redis implementation, with the store's
// uniqueness constraint as the final backstop either way.
type Memory struct {
	mu    sync.Mutex
	locks map[string]*memoryEntry
}

type memoryEntry struct {
	ch   chan struct{}
	refs int
}

func NewMemory() *Memory {
	return &Memory{locks: make(map[string]*memoryEntry)}
}

func (m *Memory) Acquire(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	entry, ok := m.locks[key]
	if !ok {
		entry = &memoryEntry{ch: make(chan struct{}, 1)}
		m.locks[key] = entry
	}
	entry.refs++
	m.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
		return func() {
			<-entry.ch
			m.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(m.locks, key)
			}
			m.mu.Unlock()
		}, nil
	case <-ctx.Done():
		m.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
		return nil, ctx.Err()
	}
}
