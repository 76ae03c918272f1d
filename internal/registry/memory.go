package registry

import (
	"context"
	"sync"

	"virtual-fit-backend/internal/models"
)

// Memory is the single-process registry. Sessions are stored and returned
// by value so callers and the cache never share mutable state.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]models.ScanSession
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]models.ScanSession)}
}

func (m *Memory) Get(_ context.Context, id string) (*models.ScanSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	cp := s
	return &cp, true
}

func (m *Memory) Put(_ context.Context, session *models.ScanSession) {
	if session == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = *session
}

func (m *Memory) Evict(_ context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len reports the number of cached sessions.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
