package game

import (
	"context"
	"sync"
)

// Store keeps ConversationState keyed by opaque session id. Eviction is the
// backend's business: the in-memory store lives for the process lifetime, the
// Redis store expires idle sessions by TTL.
type Store interface {
	Get(ctx context.Context, id string) (*State, error)
	Put(ctx context.Context, id string, st *State) error
	Clear(ctx context.Context, id string) error
}

// memStore is the development/default backend used when no Redis is configured.
type memStore struct {
	mu     sync.RWMutex
	states map[string]*State
}

func NewMemoryStore() Store {
	return &memStore{states: make(map[string]*State)}
}

func (m *memStore) Get(ctx context.Context, id string) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[id]
	if !ok {
		return nil, nil
	}
	cp := *st
	cp.Used = copySet(st.Used)
	cp.BotUsed = copySet(st.BotUsed)
	return &cp, nil
}

func (m *memStore) Put(ctx context.Context, id string, st *State) error {
	if st == nil {
		return nil
	}
	cp := *st
	cp.Used = copySet(st.Used)
	cp.BotUsed = copySet(st.BotUsed)
	m.mu.Lock()
	m.states[id] = &cp
	m.mu.Unlock()
	return nil
}

func (m *memStore) Clear(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.states, id)
	m.mu.Unlock()
	return nil
}

func copySet(src map[string]bool) map[string]bool {
	dst := make(map[string]bool, len(src))
	for k, v := range src {
		if v {
			dst[k] = true
		}
	}
	return dst
}
