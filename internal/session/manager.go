package session

import (
	"log/slog"
	"sync"

	"github.com/CausalDeck/Cockpit/internal/models"
)

// Manager tracks live sessions by ID. Sessions live for the process lifetime
// unless explicitly deleted; the persistent transcript store survives them.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     Opts
}

// NewManager creates a session manager that stamps every new session with
// the given collaborators.
func NewManager(opts Opts) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		opts:     opts,
	}
}

// Create starts a new session and registers it.
func (m *Manager) Create() *Session {
	s := New(m.opts)
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	slog.Debug("Manager.Create: session registered", "sessionID", s.ID(), "total", m.Count())
	return s
}

// Get looks up a session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return s, nil
}

// Delete removes a session. Deleting an unknown ID is a no-op.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count reports the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
