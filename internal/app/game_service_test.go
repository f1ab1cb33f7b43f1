package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"vocab-quiz-service/internal/app"
	"vocab-quiz-service/internal/audio"
	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/game"
	"vocab-quiz-service/internal/infra/memory"
)

var fixedNow = time.Date(2024, time.December, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	service     *app.GameService
	leaderboard *app.LeaderboardService
	lists       *memory.WordListStore
	progress    *memory.ProgressStore
	sessions    *memory.SessionStore
}

func newFixture(t *testing.T, opts ...app.GameOption) fixture {
	t.Helper()
	lists := memory.NewWordListStore(domain.WordList{
		ID:       "farm",
		OwnerID:  "teacher-1",
		Title:    "Farm animals",
		IsPublic: true,
		Words:    []domain.WordEntry{{Word: "cow"}, {Word: "pig"}, {Word: "hen"}, {Word: "goat"}},
	}, domain.WordList{
		ID:       "tiny",
		Title:    "Tiny",
		IsPublic: true,
		Words:    []domain.WordEntry{{Word: "sun"}, {Word: "moon"}},
	}, domain.WordList{
		ID:      "secret",
		OwnerID: "teacher-1",
		Title:   "Draft list",
		Words:   []domain.WordEntry{{Word: "owl"}, {Word: "bat"}, {Word: "fox"}, {Word: "elk"}},
	})
	progress := memory.NewProgressStore()
	sessions := memory.NewSessionStore()
	leaderboard := app.NewLeaderboardService(memory.NewLeaderboardStore(),
		app.WithLeaderboardClock(func() time.Time { return fixedNow }))

	opts = append([]app.GameOption{
		app.WithClock(func() time.Time { return fixedNow }),
		app.WithSourceFactory(func() game.Source { return game.NewSource(1) }),
	}, opts...)
	service := app.NewGameService(sessions, memory.NewWordListCache(lists, time.Minute), lists, leaderboard, progress, opts...)
	return fixture{service: service, leaderboard: leaderboard, lists: lists, progress: progress, sessions: sessions}
}

type recordingSpeaker struct{ words []string }

func (r *recordingSpeaker) Speak(word string) { r.words = append(r.words, word) }

func TestStartWithWordListSpeaksAndCountsUsage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	speaker := &recordingSpeaker{}

	view, err := f.service.Start(ctx, app.StartRequest{UserID: "u1", DisplayName: "Alice", WordListID: "farm"}, speaker)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !view.Started || view.Difficulty != game.Normal || len(view.Options) != 4 {
		t.Fatalf("unexpected view %+v", view)
	}
	if len(speaker.words) != 1 {
		t.Fatalf("expected first prompt spoken, got %v", speaker.words)
	}
	list, _ := f.lists.Get(ctx, "farm")
	if list.UsageCount != 1 {
		t.Fatalf("expected usage count 1, got %d", list.UsageCount)
	}
}

func TestStartFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.service.Start(ctx, app.StartRequest{UserID: "u1", WordListID: "tiny"}, nil)
	if !errors.Is(err, domain.ErrInvalidPool) {
		t.Fatalf("expected invalid pool, got %v", err)
	}
	if _, ok := f.sessions.Get("u1"); ok {
		t.Fatalf("failed start must not leave an active session")
	}

	_, err = f.service.Start(ctx, app.StartRequest{UserID: "u1", WordListID: "nope"}, nil)
	if !errors.Is(err, domain.ErrWordListNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	_, err = f.service.Start(ctx, app.StartRequest{UserID: "u1", Difficulty: "expert"}, nil)
	if !errors.Is(err, game.ErrUnknownDifficulty) {
		t.Fatalf("expected unknown difficulty, got %v", err)
	}

	if _, err := f.service.Start(ctx, app.StartRequest{UserID: "u1", WordListID: "tiny", Difficulty: "hard"}, nil); err != nil {
		t.Fatalf("hard mode should accept a two-word list: %v", err)
	}
}

func TestStartPrivateListOwnerOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.service.Start(ctx, app.StartRequest{UserID: "student-1", WordListID: "secret"}, nil)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for a private list, got %v", err)
	}
	if _, err := f.service.StartTeam(ctx, app.StartRequest{UserID: "student-1", WordListID: "secret"}, nil); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden team start, got %v", err)
	}
	if _, ok := f.sessions.Get("student-1"); ok {
		t.Fatalf("refused start must not create a session")
	}
	list, _ := f.lists.Get(ctx, "secret")
	if list.UsageCount != 0 {
		t.Fatalf("refused start must not count usage, got %d", list.UsageCount)
	}

	if _, err := f.service.Start(ctx, app.StartRequest{UserID: "teacher-1", WordListID: "secret"}, nil); err != nil {
		t.Fatalf("owner start: %v", err)
	}
	list, _ = f.lists.Get(ctx, "secret")
	if list.UsageCount != 1 {
		t.Fatalf("expected owner start counted, got %d", list.UsageCount)
	}
}

func TestAnswerFinishSubmitsToLeaderboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	speaker := &recordingSpeaker{}

	if _, err := f.service.Start(ctx, app.StartRequest{UserID: "u1", DisplayName: "Alice", Difficulty: "hard"}, speaker); err != nil {
		t.Fatalf("start: %v", err)
	}

	// speaker.words holds the prompt the player heard; answer it right twice, then wrong once.
	for i := 0; i < 2; i++ {
		res, err := f.service.Answer(ctx, "u1", "  "+speaker.words[len(speaker.words)-1]+" ")
		if err != nil {
			t.Fatalf("answer: %v", err)
		}
		if !res.Correct || !res.Persisted {
			t.Fatalf("expected persisted correct answer, got %+v", res)
		}
		if _, err := f.service.Next(ctx, "u1"); err != nil {
			t.Fatalf("next: %v", err)
		}
	}
	res, err := f.service.Answer(ctx, "u1", "definitely-not-a-word")
	if err != nil || res.Correct {
		t.Fatalf("expected wrong answer, got %+v %v", res, err)
	}
	if res.Stats != (game.Stats{Score: 2, Total: 3, Percentage: 67}) {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}

	done, err := f.service.Finish(ctx, "u1")
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !done.Submitted || done.Period != "2024-12" || done.Stats.Score != 2 {
		t.Fatalf("unexpected finish result %+v", done)
	}
	if _, ok := f.sessions.Get("u1"); ok {
		t.Fatalf("expected session discarded after finish")
	}

	stats, err := f.leaderboard.Stats(ctx, "2024-12", "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Rank == nil || *stats.Rank != 1 || stats.TotalScore != 2 || stats.GamesPlayed != 1 {
		t.Fatalf("unexpected leaderboard stats %+v", stats)
	}

	games, _ := f.progress.ListGames(ctx, "u1", app.DefaultWordListID)
	if len(games) != 1 || games[0].TotalAnswered != 3 || games[0].Percentage != 67 {
		t.Fatalf("expected one history record, got %+v", games)
	}
}

func TestFinishWithoutAnswersSubmitsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.service.Start(ctx, app.StartRequest{UserID: "u1"}, audio.Nop); err != nil {
		t.Fatalf("start: %v", err)
	}
	done, err := f.service.Finish(ctx, "u1")
	if err != nil || done.Submitted {
		t.Fatalf("expected nothing submitted, got %+v %v", done, err)
	}
	lb, _ := f.leaderboard.Top(ctx, "2024-12", 10)
	if len(lb.Entries) != 0 {
		t.Fatalf("expected empty leaderboard, got %+v", lb.Entries)
	}
}

func TestEasyConfirm(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, app.WithMatchRate(1))
	if _, err := f.service.Start(ctx, app.StartRequest{UserID: "u1", Difficulty: "easy"}, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	res, err := f.service.Confirm(ctx, "u1", true)
	if err != nil || !res.Correct {
		t.Fatalf("expected yes to be correct with match rate 1, got %+v %v", res, err)
	}
}

func TestOperationsWithoutSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.service.Answer(ctx, "ghost", "cat"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if _, err := f.service.Next(ctx, "ghost"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if err := f.service.Speak(ctx, "ghost"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if _, err := f.service.Finish(ctx, "ghost"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	f.service.Reset(ctx, "ghost")
}

func TestResetDiscardsWithoutSubmitting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.service.Start(ctx, app.StartRequest{UserID: "u1"}, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.service.Answer(ctx, "u1", "cat"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	f.service.Reset(ctx, "u1")

	if _, err := f.service.Stats(ctx, "u1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected no session after reset, got %v", err)
	}
	lb, _ := f.leaderboard.Top(ctx, "2024-12", 10)
	if len(lb.Entries) != 0 {
		t.Fatalf("reset must not submit, got %+v", lb.Entries)
	}
}

func TestAbandonOnlyResetsOwnGame(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.service.Start(ctx, app.StartRequest{UserID: "u1", Owner: "conn-b"}, nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	f.service.Abandon(ctx, "u1", "conn-a")
	if _, err := f.service.Stats(ctx, "u1"); err != nil {
		t.Fatalf("another connection's game must survive, got %v", err)
	}

	f.service.Abandon(ctx, "u1", "conn-b")
	if _, err := f.service.Stats(ctx, "u1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected owner's close to abandon the game, got %v", err)
	}
}

// racingSessions drops the player's idle session right after handing it out,
// as a concurrent Reset or Finish would.
type racingSessions struct {
	*memory.SessionStore
	raced bool
}

func (r *racingSessions) GetOrCreate(userID string) *app.PlayerSession {
	ps := r.SessionStore.GetOrCreate(userID)
	if !r.raced {
		r.raced = true
		r.SessionStore.DeleteIfIdle(userID)
	}
	return ps
}

func TestStartSurvivesConcurrentIdleCleanup(t *testing.T) {
	ctx := context.Background()
	lists := memory.NewWordListStore()
	sessions := &racingSessions{SessionStore: memory.NewSessionStore()}
	service := app.NewGameService(sessions, lists, lists,
		app.NewLeaderboardService(memory.NewLeaderboardStore()), memory.NewProgressStore(),
		app.WithSourceFactory(func() game.Source { return game.NewSource(5) }))

	speaker := &recordingSpeaker{}
	if _, err := service.Start(ctx, app.StartRequest{UserID: "u1", Difficulty: "hard"}, speaker); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !sessions.raced {
		t.Fatalf("expected the cleanup to run during start")
	}
	res, err := service.Answer(ctx, "u1", speaker.words[0])
	if err != nil {
		t.Fatalf("started game must stay reachable: %v", err)
	}
	if !res.Correct {
		t.Fatalf("expected correct answer, got %+v", res)
	}
}

func TestSpeakRepeatsPrompt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	speaker := &recordingSpeaker{}
	if _, err := f.service.Start(ctx, app.StartRequest{UserID: "u1"}, speaker); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.service.Speak(ctx, "u1"); err != nil {
		t.Fatalf("speak: %v", err)
	}
	if len(speaker.words) != 2 || speaker.words[0] != speaker.words[1] {
		t.Fatalf("expected the prompt twice, got %v", speaker.words)
	}
}

type failingProgress struct{}

func (failingProgress) SaveGame(context.Context, domain.GameRecord) error {
	return errors.New("disk full")
}

func (failingProgress) ListGames(context.Context, string, string) ([]domain.GameRecord, error) {
	return nil, errors.New("disk full")
}

type failingLeaderboard struct{}

func (failingLeaderboard) SubmitScore(context.Context, domain.ScoreSubmission) error {
	return errors.New("network down")
}

func (failingLeaderboard) FetchPeriodEntries(context.Context, string) ([]domain.LeaderboardEntry, error) {
	return nil, errors.New("network down")
}

func TestPersistenceFailureKeepsSessionState(t *testing.T) {
	ctx := context.Background()
	lists := memory.NewWordListStore()
	leaderboard := app.NewLeaderboardService(failingLeaderboard{})
	service := app.NewGameService(memory.NewSessionStore(), lists, lists, leaderboard, failingProgress{},
		app.WithSourceFactory(func() game.Source { return game.NewSource(3) }))

	speaker := &recordingSpeaker{}
	if _, err := service.Start(ctx, app.StartRequest{UserID: "u1", Difficulty: "hard"}, speaker); err != nil {
		t.Fatalf("start: %v", err)
	}
	res, err := service.Answer(ctx, "u1", speaker.words[0])
	if err != nil {
		t.Fatalf("answer must succeed despite storage failure: %v", err)
	}
	if !res.Correct || res.Persisted || !errors.Is(res.PersistErr, domain.ErrPersistence) {
		t.Fatalf("expected scored but unpersisted answer, got %+v", res)
	}
	stats, _ := service.Stats(ctx, "u1")
	if stats.Score != 1 || stats.Total != 1 {
		t.Fatalf("session state corrupted: %+v", stats)
	}

	done, err := service.Finish(ctx, "u1")
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error from finish, got %v", err)
	}
	if done.Submitted || done.Stats.Score != 1 {
		t.Fatalf("unexpected finish result %+v", done)
	}
	if _, err := service.Stats(ctx, "u1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("session should be discarded even when submission fails, got %v", err)
	}
}
