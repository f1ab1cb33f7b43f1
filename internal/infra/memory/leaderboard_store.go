package memory

import (
	"context"
	"sync"
	"time"

	"vocab-quiz-service/internal/domain"
)

// LeaderboardStore accumulates period totals in memory, remembering the order
// in which players first submitted.
type LeaderboardStore struct {
	clock func() time.Time

	mu      sync.Mutex
	periods map[string]*periodEntries
}

type periodEntries struct {
	order   []string
	entries map[string]domain.LeaderboardEntry
}

func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{
		clock:   time.Now,
		periods: make(map[string]*periodEntries),
	}
}

func (s *LeaderboardStore) SubmitScore(_ context.Context, sub domain.ScoreSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.periods[sub.Period]
	if !ok {
		p = &periodEntries{entries: make(map[string]domain.LeaderboardEntry)}
		s.periods[sub.Period] = p
	}
	entry, ok := p.entries[sub.UserID]
	if !ok {
		p.order = append(p.order, sub.UserID)
		entry.UserID = sub.UserID
	}
	entry.DisplayName = sub.DisplayName
	entry.TotalScore += sub.Score
	entry.GamesPlayed++
	entry.LastUpdated = s.clock()
	p.entries[sub.UserID] = entry
	return nil
}

func (s *LeaderboardStore) FetchPeriodEntries(_ context.Context, period string) ([]domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.periods[period]
	if !ok {
		return []domain.LeaderboardEntry{}, nil
	}
	out := make([]domain.LeaderboardEntry, 0, len(p.order))
	for _, userID := range p.order {
		out = append(out, p.entries[userID])
	}
	return out, nil
}
