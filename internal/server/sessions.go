package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pdf-data-extractor/internal/core"
)

// session owns one Processor; the Processor serialises calls on it.
type session struct {
	ID        uuid.UUID
	proc      *core.Processor
	createdAt time.Time
}

type sessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[uuid.UUID]*session)}
}

func (s *sessionStore) add(proc *core.Processor) *session {
	sess := &session{ID: uuid.New(), proc: proc, createdAt: time.Now()}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

func (s *sessionStore) get(id uuid.UUID) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *sessionStore) remove(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}
