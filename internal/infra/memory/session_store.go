package memory

import (
	"sync"

	"vocab-quiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.PlayerSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.PlayerSession),
	}
}

func (s *SessionStore) GetOrCreate(userID string) *app.PlayerSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[userID]; ok {
		return session
	}
	session := app.NewPlayerSession(userID)
	s.sessions[userID] = session
	return session
}

func (s *SessionStore) Get(userID string) (*app.PlayerSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[userID]
	return session, ok
}

func (s *SessionStore) DeleteIfIdle(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	if !ok {
		return
	}
	if session.IsIdle() {
		delete(s.sessions, userID)
	}
}

func (s *SessionStore) Attach(userID string, session *app.PlayerSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[userID]
	if !ok {
		s.sessions[userID] = session
		return true
	}
	return current == session
}

// Len is the number of players holding a session.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
