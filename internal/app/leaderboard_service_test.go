package app_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"vocab-quiz-service/internal/app"
	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/infra/memory"
)

type countingLeaderboard struct {
	*memory.LeaderboardStore
	fetches int
}

func (c *countingLeaderboard) FetchPeriodEntries(ctx context.Context, period string) ([]domain.LeaderboardEntry, error) {
	c.fetches++
	return c.LeaderboardStore.FetchPeriodEntries(ctx, period)
}

// pausingLeaderboard holds its first fetch open after reading, so a submit can
// land between the read and the caching of the resulting board.
type pausingLeaderboard struct {
	*memory.LeaderboardStore
	paused  atomic.Bool
	fetched chan struct{}
	release chan struct{}
}

func (p *pausingLeaderboard) FetchPeriodEntries(ctx context.Context, period string) ([]domain.LeaderboardEntry, error) {
	entries, err := p.LeaderboardStore.FetchPeriodEntries(ctx, period)
	if p.paused.CompareAndSwap(false, true) {
		close(p.fetched)
		<-p.release
	}
	return entries, err
}

func submit(t *testing.T, s *app.LeaderboardService, userID string, score int) {
	t.Helper()
	err := s.Submit(context.Background(), domain.ScoreSubmission{
		UserID: userID, DisplayName: userID, Score: score, AnsweredCount: score + 1, Period: "2024-12",
	})
	if err != nil {
		t.Fatalf("submit %s: %v", userID, err)
	}
}

func TestLeaderboardAccumulatesAndRanks(t *testing.T) {
	ctx := context.Background()
	s := app.NewLeaderboardService(memory.NewLeaderboardStore())

	submit(t, s, "alice", 30)
	submit(t, s, "bob", 50)
	submit(t, s, "carol", 45)
	submit(t, s, "dave", 10)
	submit(t, s, "alice", 25)

	lb, err := s.Top(ctx, "2024-12", 3)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(lb.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(lb.Entries))
	}
	want := []string{"alice", "bob", "carol"}
	for i, e := range lb.Entries {
		if e.UserID != want[i] || e.Rank != i+1 {
			t.Fatalf("position %d: got %s rank %d", i, e.UserID, e.Rank)
		}
	}
	if lb.Entries[0].TotalScore != 55 || lb.Entries[0].GamesPlayed != 2 {
		t.Fatalf("expected alice merged to 55 over 2 games, got %+v", lb.Entries[0])
	}

	stats, err := s.Stats(ctx, "2024-12", "dave")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Rank == nil || *stats.Rank != 4 || stats.GapToTopThree == nil || *stats.GapToTopThree != 36 {
		t.Fatalf("unexpected dave stats %+v", stats)
	}

	unknown, err := s.Stats(ctx, "2024-12", "erin")
	if err != nil || unknown.Rank != nil || unknown.TotalScore != 0 {
		t.Fatalf("expected unranked stats, got %+v %v", unknown, err)
	}
}

func TestLeaderboardRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	s := app.NewLeaderboardService(memory.NewLeaderboardStore())

	if _, err := s.Top(ctx, "2024-13", 10); !errors.Is(err, domain.ErrInvalidPeriod) {
		t.Fatalf("expected invalid period, got %v", err)
	}
	err := s.Submit(ctx, domain.ScoreSubmission{UserID: "u1", Score: 5, AnsweredCount: 3, Period: "2024-12"})
	if err == nil {
		t.Fatalf("expected score above answered count to be rejected")
	}
	err = s.Submit(ctx, domain.ScoreSubmission{Score: 1, AnsweredCount: 1, Period: "2024-12"})
	if err == nil {
		t.Fatalf("expected missing user to be rejected")
	}
}

func TestLeaderboardDefaultsToCurrentMonth(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)
	s := app.NewLeaderboardService(memory.NewLeaderboardStore(),
		app.WithLeaderboardClock(func() time.Time { return now }))

	if err := s.Submit(ctx, domain.ScoreSubmission{UserID: "u1", Score: 2, AnsweredCount: 2}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	lb, err := s.Top(ctx, "", 0)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if lb.Period != "2025-03" || len(lb.Entries) != 1 {
		t.Fatalf("unexpected board %+v", lb)
	}
	other, _ := s.Top(ctx, "2025-02", 0)
	if len(other.Entries) != 0 {
		t.Fatalf("periods must not mix, got %+v", other.Entries)
	}
}

func TestLeaderboardCachesUntilSubmit(t *testing.T) {
	ctx := context.Background()
	repo := &countingLeaderboard{LeaderboardStore: memory.NewLeaderboardStore()}
	s := app.NewLeaderboardService(repo, app.WithBoardTTL(time.Hour))

	submit(t, s, "alice", 3)
	for i := 0; i < 3; i++ {
		if _, err := s.Top(ctx, "2024-12", 10); err != nil {
			t.Fatalf("top: %v", err)
		}
	}
	if repo.fetches != 1 {
		t.Fatalf("expected one fetch, got %d", repo.fetches)
	}

	submit(t, s, "bob", 4)
	lb, _ := s.Top(ctx, "2024-12", 10)
	if repo.fetches != 2 || len(lb.Entries) != 2 {
		t.Fatalf("expected reload after submit, fetches=%d entries=%d", repo.fetches, len(lb.Entries))
	}
}

func TestLeaderboardFetchFailure(t *testing.T) {
	s := app.NewLeaderboardService(failingLeaderboard{})
	if _, err := s.Top(context.Background(), "2024-12", 10); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestLeaderboardSubscribe(t *testing.T) {
	ctx := context.Background()
	s := app.NewLeaderboardService(memory.NewLeaderboardStore())

	ch, cancel, err := s.Subscribe(ctx, "2024-12")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	initial := <-ch
	if initial.Period != "2024-12" || len(initial.Entries) != 0 {
		t.Fatalf("unexpected initial snapshot %+v", initial)
	}

	submit(t, s, "alice", 7)
	select {
	case lb := <-ch:
		if len(lb.Entries) != 1 || lb.Entries[0].UserID != "alice" {
			t.Fatalf("unexpected update %+v", lb)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for leaderboard update")
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after cancel")
	}
}

func TestLeaderboardSubmitDuringFetchIsNotHidden(t *testing.T) {
	ctx := context.Background()
	repo := &pausingLeaderboard{
		LeaderboardStore: memory.NewLeaderboardStore(),
		fetched:          make(chan struct{}),
		release:          make(chan struct{}),
	}
	s := app.NewLeaderboardService(repo, app.WithBoardTTL(time.Hour))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Top(ctx, "2024-12", 10)
	}()

	<-repo.fetched
	submit(t, s, "alice", 5)
	close(repo.release)
	<-done

	lb, err := s.Top(ctx, "2024-12", 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(lb.Entries) != 1 || lb.Entries[0].UserID != "alice" {
		t.Fatalf("stale board served after submit: %+v", lb.Entries)
	}
	stats, err := s.Stats(ctx, "2024-12", "alice")
	if err != nil || stats.Rank == nil || *stats.Rank != 1 {
		t.Fatalf("expected alice ranked, got %+v %v", stats, err)
	}
}

func TestLeaderboardBroadcastBypassesCache(t *testing.T) {
	ctx := context.Background()
	repo := &countingLeaderboard{LeaderboardStore: memory.NewLeaderboardStore()}
	s := app.NewLeaderboardService(repo, app.WithBoardTTL(time.Hour))

	ch, cancel, err := s.Subscribe(ctx, "2024-12")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	<-ch

	submit(t, s, "alice", 2)
	submit(t, s, "bob", 3)
	var last domain.Leaderboard
	for i := 0; i < 2; i++ {
		select {
		case last = <-ch:
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for update %d", i)
		}
	}
	if len(last.Entries) != 2 || last.Entries[0].UserID != "bob" {
		t.Fatalf("expected fresh standings, got %+v", last.Entries)
	}
}
