package memory

import (
	"context"
	"sort"
	"sync"

	"vocab-quiz-service/internal/domain"
)

// ProgressStore keeps game history in memory, one record per session.
type ProgressStore struct {
	mu      sync.RWMutex
	records map[string]domain.GameRecord
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{records: make(map[string]domain.GameRecord)}
}

func (s *ProgressStore) SaveGame(_ context.Context, record domain.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.SessionID] = record
	return nil
}

// ListGames returns the user's games, newest first; empty wordListID matches all lists.
func (s *ProgressStore) ListGames(_ context.Context, userID, wordListID string) ([]domain.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.GameRecord, 0)
	for _, r := range s.records {
		if r.UserID != userID {
			continue
		}
		if wordListID != "" && r.WordListID != wordListID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	return out, nil
}
