package lock

import (
	"context"
	"sync"
)

type memEntry struct {
	held chan struct{}
	refs int
}

// Memory is an in-process keyed mutex table. Entries are dropped once no
// holder or waiter references them.
type Memory struct {
	mu   sync.Mutex
	keys map[string]*memEntry
}

// NewMemory returns an empty lock table.
func NewMemory() *Memory {
	return &Memory{keys: make(map[string]*memEntry)}
}

func (m *Memory) Lock(ctx context.Context, key string) (Unlock, error) {
	m.mu.Lock()
	e, ok := m.keys[key]
	if !ok {
		e = &memEntry{held: make(chan struct{}, 1)}
		m.keys[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.held <- struct{}{}:
	case <-ctx.Done():
		m.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.held
			m.release(key, e)
		})
	}, nil
}

func (m *Memory) release(key string, e *memEntry) {
	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.keys, key)
	}
	m.mu.Unlock()
}

func (m *Memory) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

var _ Locker = (*Memory)(nil)
