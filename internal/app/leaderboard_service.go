package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/metrics"
	"vocab-quiz-service/internal/ranking"
)

const (
	DefaultTopN = 10
	MaxTopN     = 100
)

// LeaderboardService accumulates monthly scores and serves rankings. The
// ranking of each period is cached until the next submission or the TTL.
type LeaderboardService struct {
	repo    LeaderboardRepository
	ttl     time.Duration
	topN    int
	clock   func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics
	sf      singleflight.Group

	mu     sync.RWMutex
	boards map[string]cachedBoard
	gens   map[string]uint64

	subMu       sync.Mutex
	subscribers map[string]map[chan domain.Leaderboard]struct{}
}

type cachedBoard struct {
	board     *ranking.Board
	expiresAt time.Time
}

// LeaderboardOption configures a LeaderboardService.
type LeaderboardOption func(*LeaderboardService)

func WithBoardTTL(ttl time.Duration) LeaderboardOption {
	return func(s *LeaderboardService) { s.ttl = ttl }
}

func WithTopN(n int) LeaderboardOption {
	return func(s *LeaderboardService) {
		if n > 0 {
			s.topN = n
		}
	}
}

func WithLeaderboardClock(now func() time.Time) LeaderboardOption {
	return func(s *LeaderboardService) { s.clock = now }
}

func WithLeaderboardLogger(l *zap.Logger) LeaderboardOption {
	return func(s *LeaderboardService) { s.logger = l }
}

func WithLeaderboardMetrics(m *metrics.Metrics) LeaderboardOption {
	return func(s *LeaderboardService) { s.metrics = m }
}

func NewLeaderboardService(repo LeaderboardRepository, opts ...LeaderboardOption) *LeaderboardService {
	s := &LeaderboardService{
		repo:        repo,
		ttl:         30 * time.Second,
		topN:        DefaultTopN,
		clock:       time.Now,
		logger:      zap.NewNop(),
		boards:      make(map[string]cachedBoard),
		gens:        make(map[string]uint64),
		subscribers: make(map[string]map[chan domain.Leaderboard]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentPeriod is the month key scores are submitted under right now.
func (s *LeaderboardService) CurrentPeriod() string {
	return domain.PeriodKey(s.clock())
}

func (s *LeaderboardService) period(raw string) (string, error) {
	if raw == "" {
		return s.CurrentPeriod(), nil
	}
	return domain.ParsePeriod(raw)
}

// Submit merges a finished session into its period's totals and pushes the
// new standings to subscribers.
func (s *LeaderboardService) Submit(ctx context.Context, sub domain.ScoreSubmission) error {
	period, err := s.period(sub.Period)
	if err != nil {
		return err
	}
	if sub.UserID == "" || sub.Score < 0 || sub.Score > sub.AnsweredCount {
		return fmt.Errorf("invalid score submission for %q: score %d of %d", sub.UserID, sub.Score, sub.AnsweredCount)
	}
	sub.Period = period

	err = s.repo.SubmitScore(ctx, sub)
	s.metrics.ScoreSubmitted(err)
	if err != nil {
		s.metrics.PersistenceFailed("submit_score")
		s.logger.Warn("score submission failed",
			zap.String("user_id", sub.UserID),
			zap.String("period", period),
			zap.Error(err),
		)
		return fmt.Errorf("%w: submit score: %w", domain.ErrPersistence, err)
	}
	s.logger.Info("score submitted",
		zap.String("user_id", sub.UserID),
		zap.String("word_list_id", sub.WordListID),
		zap.String("period", period),
		zap.Int("score", sub.Score),
	)

	s.invalidate(period)
	s.broadcast(ctx, period)
	return nil
}

// Top returns the first n ranked players of a period ("" = current month).
func (s *LeaderboardService) Top(ctx context.Context, period string, n int) (domain.Leaderboard, error) {
	period, err := s.period(period)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	if n <= 0 {
		n = s.topN
	}
	if n > MaxTopN {
		n = MaxTopN
	}
	board, err := s.board(ctx, period)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Leaderboard{Period: period, Entries: board.Top(n), UpdatedAt: s.clock()}, nil
}

// Stats returns a player's standing in a period. Players without an entry get
// a nil rank rather than an error.
func (s *LeaderboardService) Stats(ctx context.Context, period, userID string) (domain.PlayerStats, error) {
	period, err := s.period(period)
	if err != nil {
		return domain.PlayerStats{}, err
	}
	board, err := s.board(ctx, period)
	if err != nil {
		return domain.PlayerStats{}, err
	}
	stats := board.StatsFor(userID)
	stats.Period = period
	return stats, nil
}

func (s *LeaderboardService) board(ctx context.Context, period string) (*ranking.Board, error) {
	now := s.clock()

	s.mu.RLock()
	if entry, ok := s.boards[period]; ok && entry.expiresAt.After(now) {
		s.mu.RUnlock()
		return entry.board, nil
	}
	s.mu.RUnlock()

	result, err, _ := s.sf.Do(period, func() (interface{}, error) {
		s.mu.RLock()
		gen := s.gens[period]
		s.mu.RUnlock()

		board, err := s.fetch(ctx, period)
		if err != nil {
			return nil, err
		}
		if s.ttl > 0 {
			s.mu.Lock()
			// a Submit during the fetch bumps the generation; its board must not be cached
			if s.gens[period] == gen {
				s.boards[period] = cachedBoard{board: board, expiresAt: now.Add(s.ttl)}
			}
			s.mu.Unlock()
		}
		return board, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*ranking.Board), nil
}

func (s *LeaderboardService) fetch(ctx context.Context, period string) (*ranking.Board, error) {
	entries, err := s.repo.FetchPeriodEntries(ctx, period)
	if err != nil {
		s.metrics.PersistenceFailed("fetch_period")
		s.logger.Warn("leaderboard fetch failed", zap.String("period", period), zap.Error(err))
		return nil, fmt.Errorf("%w: fetch period %s: %w", domain.ErrPersistence, period, err)
	}
	return ranking.NewBoard(entries), nil
}

func (s *LeaderboardService) invalidate(period string) {
	s.mu.Lock()
	delete(s.boards, period)
	s.gens[period]++
	s.mu.Unlock()
	s.sf.Forget(period)
}

// Subscribe returns a channel receiving the period's top players after every
// submission, starting with the current standings. The caller must invoke the
// returned cancel function to avoid leaks.
func (s *LeaderboardService) Subscribe(ctx context.Context, period string) (<-chan domain.Leaderboard, func(), error) {
	initial, err := s.Top(ctx, period, 0)
	if err != nil {
		return nil, nil, err
	}
	period = initial.Period

	ch := make(chan domain.Leaderboard, 8)
	ch <- initial

	s.subMu.Lock()
	if s.subscribers[period] == nil {
		s.subscribers[period] = make(map[chan domain.Leaderboard]struct{})
	}
	s.subscribers[period][ch] = struct{}{}
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		if subs, ok := s.subscribers[period]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(s.subscribers, period)
			}
		}
		s.subMu.Unlock()
	}
	return ch, cancel, nil
}

func (s *LeaderboardService) broadcast(ctx context.Context, period string) {
	s.subMu.Lock()
	n := len(s.subscribers[period])
	s.subMu.Unlock()
	if n == 0 {
		return
	}

	// straight from the store so subscribers never see a board cached before this submit
	board, err := s.fetch(ctx, period)
	if err != nil {
		return
	}
	lb := domain.Leaderboard{Period: period, Entries: board.Top(s.topN), UpdatedAt: s.clock()}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers[period] {
		select {
		case ch <- lb:
		default:
			// drop the oldest update so a slow reader never blocks submissions
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
