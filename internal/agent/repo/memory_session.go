package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sarthi-rx/server/internal/agent/model"
)

type memoryEntry struct {
	blob    []byte
	expires time.Time
}

// MemorySessionStore is the single-instance fallback when Redis is not
// configured. Sessions are stored serialized so callers never share
// pointers with the store.
type MemorySessionStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[model.SessionKey]memoryEntry
	now     func() time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{ttl: ttl, entries: map[model.SessionKey]memoryEntry{}, now: time.Now}
}

func (m *MemorySessionStore) Get(_ context.Context, key model.SessionKey) (*model.Session, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if ok && m.expired(e) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}

	var s model.Session
	if err := json.Unmarshal(e.blob, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

func (m *MemorySessionStore) Put(_ context.Context, s *model.Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	e := memoryEntry{blob: b}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[s.Key()] = e
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, key model.SessionKey) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemorySessionStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemorySessionStore) expired(e memoryEntry) bool {
	return !e.expires.IsZero() && m.now().After(e.expires)
}

var _ model.SessionStore = (*MemorySessionStore)(nil)
