package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"vocab-quiz-service/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Game state stays in a local map; Redis only carries a liveness marker per
// player (player:session:{userID}) so other instances can see who is playing.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.PlayerSession
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.PlayerSession),
	}
}

func (s *SessionStore) GetOrCreate(userID string) *app.PlayerSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[userID]; ok {
		s.touch(userID)
		return session
	}
	session := app.NewPlayerSession(userID)
	s.sessions[userID] = session
	s.touch(userID)
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
		_ = s.client.Del(context.Background(), s.key(userID)).Err()
	}
}

func (s *SessionStore) Attach(userID string, session *app.PlayerSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[userID]
	if !ok {
		s.sessions[userID] = session
		s.touch(userID)
		return true
	}
	return current == session
}

// Active counts live players across all instances sharing the Redis.
func (s *SessionStore) Active(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, "player:session:*", 100).Result()
		if err != nil {
			return 0, err
		}
		total += len(keys)
		if next == 0 {
			return total, nil
		}
		cursor = next
	}
}

// best-effort liveness marker
func (s *SessionStore) touch(userID string) {
	_ = s.client.Set(context.Background(), s.key(userID), "1", s.ttl).Err()
}

func (s *SessionStore) key(userID string) string {
	return "player:session:" + userID
}
