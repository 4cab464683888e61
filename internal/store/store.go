// Package store provides persistence backends for session transcripts.
//
// Three implementations share one interface: an in-memory store for tests
// and ephemeral deployments, an SQLite store for single-node installs, and a
// PostgreSQL store for shared deployments. The session layer mirrors every
// transcript message into the configured store.
package store

import (
	"context"
	"sync"

	"github.com/CausalDeck/Cockpit/internal/models"
)

// Store is the persistence surface for transcript messages.
type Store interface {
	// AddMessage persists one transcript message under a session.
	AddMessage(ctx context.Context, sessionID string, msg models.Message) error
	// GetMessages returns a session's messages in append order.
	GetMessages(ctx context.Context, sessionID string) ([]models.Message, error)
	// DeleteMessages removes all messages for a session.
	DeleteMessages(ctx context.Context, sessionID string) error
	// Close releases the backend's resources.
	Close() error
}

// InMemoryStore keeps transcripts in process memory. Contents are lost on
// restart.
type InMemoryStore struct {
	mu       sync.RWMutex
	messages map[string][]models.Message
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{messages: make(map[string][]models.Message)}
}

// AddMessage appends a message to the session's transcript.
func (s *InMemoryStore) AddMessage(_ context.Context, sessionID string, msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[sessionID] = append(s.messages[sessionID], msg)
	return nil
}

// GetMessages returns a copy of the session's transcript.
func (s *InMemoryStore) GetMessages(_ context.Context, sessionID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[sessionID]
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// DeleteMessages drops the session's transcript.
func (s *InMemoryStore) DeleteMessages(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, sessionID)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
