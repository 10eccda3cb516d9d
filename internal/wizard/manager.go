package wizard

import (
	"sync"
	"time"
)

// Manager owns the live wizard sessions: creation, lookup, disposal,
// and periodic cleanup of abandoned sessions. Exactly one session
// exists per wizard page instance; sessions are never shared.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxAge      time.Duration
	idleTimeout time.Duration
}

// NewManager creates a session manager with the given timeouts.
func NewManager(maxAge, idleTimeout time.Duration) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		maxAge:      maxAge,
		idleTimeout: idleTimeout,
	}
}

// Create starts a new session for a wizard definition and registers it.
func (m *Manager) Create(def *Definition, mode SessionMode, resourceID string) *Session {
	s := NewSession(def, mode, resourceID)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get retrieves a session by ID. Expired or idle sessions are disposed
// and reported as missing.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if m.expired(s) {
		m.Remove(id)
		return nil
	}
	return s
}

// Remove disposes a session, normally after a successful submit or an
// abandoning navigation.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Cleanup disposes all expired and idle sessions. Called periodically.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
		}
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) expired(s *Session) bool {
	s.mu.Lock()
	created, active := s.createdAt, s.lastActiveAt
	s.mu.Unlock()
	if m.maxAge > 0 && time.Since(created) > m.maxAge {
		return true
	}
	if m.idleTimeout > 0 && time.Since(active) > m.idleTimeout {
		return true
	}
	return false
}
