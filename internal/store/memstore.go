package store

import (
	"sync"

	"xo-arena/internal/room"
)

// MemoryStore keeps sessions for the life of the process only.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*room.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: map[string]*room.Session{},
	}
}

func (m *MemoryStore) GetSession(id string) (*room.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *MemoryStore) SaveSession(s *room.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}
