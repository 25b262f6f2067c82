package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session ID matches nothing.
var ErrSessionNotFound = errors.New("session not found")

// Store is the in-process registry of live staging sessions. Session
// state is short-lived UI state, so it lives with the process rather
// than in shared storage.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Container
}

// NewStore creates an empty session registry.
func NewStore() *Store {
	return &Store{sessions: make(map[uuid.UUID]*Container)}
}

// Put registers a session.
func (s *Store) Put(c *Container) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[c.ID] = c
}

// Get looks a session up by ID.
func (s *Store) Get(id uuid.UUID) (*Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return c, nil
}

// Delete discards a session. Deleting an unknown ID is a no-op.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
