package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vocab-quiz-service/internal/audio"
	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/game"
	"vocab-quiz-service/internal/metrics"
)

const (
	// DefaultWordListID selects the built-in sight words.
	DefaultWordListID    = "default"
	defaultWordListTitle = "Default Sight Words"
)

// StartRequest describes a new game. Empty WordListID means the built-in words;
// empty Difficulty means the service default. Owner tags the game with the
// connection that started it, see Abandon.
type StartRequest struct {
	UserID      string
	DisplayName string
	WordListID  string
	Difficulty  string
	Owner       string
}

// AnswerResult is the scored answer plus whether the progress snapshot was saved.
// The outcome is valid even when Persisted is false.
type AnswerResult struct {
	game.Outcome
	Stats      game.Stats `json:"stats"`
	Persisted  bool       `json:"persisted"`
	PersistErr error      `json:"-"`
}

// FinishResult summarises a session that was closed with Finish.
type FinishResult struct {
	Stats     game.Stats `json:"stats"`
	Period    string     `json:"period"`
	Submitted bool       `json:"submitted"`
}

// GameService runs players' quiz sessions and hands results to persistence.
type GameService struct {
	sessions SessionRepository
	lists    WordListSource
	usage    UsageCounter
	scores   ScoreRecorder
	progress ProgressRepository

	newSource  func() game.Source
	clock      func() time.Time
	matchRate  float64
	difficulty game.Difficulty
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// GameOption configures a GameService.
type GameOption func(*GameService)

func WithSourceFactory(f func() game.Source) GameOption {
	return func(s *GameService) { s.newSource = f }
}

func WithClock(now func() time.Time) GameOption {
	return func(s *GameService) { s.clock = now }
}

func WithMatchRate(p float64) GameOption {
	return func(s *GameService) { s.matchRate = p }
}

func WithDefaultDifficulty(d game.Difficulty) GameOption {
	return func(s *GameService) { s.difficulty = d }
}

func WithLogger(l *zap.Logger) GameOption {
	return func(s *GameService) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) GameOption {
	return func(s *GameService) { s.metrics = m }
}

func NewGameService(sessions SessionRepository, lists WordListSource, usage UsageCounter, scores ScoreRecorder, progress ProgressRepository, opts ...GameOption) *GameService {
	s := &GameService{
		sessions:   sessions,
		lists:      lists,
		usage:      usage,
		scores:     scores,
		progress:   progress,
		newSource:  game.NewTimeSource,
		clock:      time.Now,
		matchRate:  game.DefaultMatchRate,
		difficulty: game.Normal,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a new game for the player, replacing any game in progress.
// The speaker is kept for the session and reads each new prompt aloud.
func (s *GameService) Start(ctx context.Context, req StartRequest, speaker audio.Speaker) (game.View, error) {
	difficulty := s.difficulty
	if req.Difficulty != "" {
		d, err := game.ParseDifficulty(req.Difficulty)
		if err != nil {
			return game.View{}, err
		}
		difficulty = d
	}

	listID, title, pool, err := s.resolvePool(ctx, req.UserID, req.WordListID)
	if err != nil {
		return game.View{}, err
	}

	g := game.NewSession(s.newSource(), game.WithMatchRate(s.matchRate))
	if err := g.Start(pool, difficulty); err != nil {
		return game.View{}, err
	}

	ps := s.attach(req, listID, title, speaker, func(ps *PlayerSession) {
		ps.game = g
		ps.team = nil
	})
	ps.mu.Lock()
	view := g.View()
	if prompt, ok := g.Prompt(); ok && ps.game == g {
		ps.speaker.Speak(prompt.Word)
	}
	ps.mu.Unlock()

	s.metrics.SessionStarted(string(difficulty))
	s.logger.Info("game started",
		zap.String("user_id", req.UserID),
		zap.String("word_list_id", listID),
		zap.String("difficulty", string(difficulty)),
	)
	s.countUsage(ctx, listID)
	return view, nil
}

// attach installs a new game on the player's session. The session is attached
// to the store again after installing, so a DeleteIfIdle that removed it in
// between cannot leave the game unreachable.
func (s *GameService) attach(req StartRequest, listID, title string, speaker audio.Speaker, install func(*PlayerSession)) *PlayerSession {
	for {
		ps := s.sessions.GetOrCreate(req.UserID)
		ps.mu.Lock()
		ps.id = uuid.NewString()
		ps.displayName = req.DisplayName
		ps.wordListID = listID
		ps.wordListTitle = title
		ps.owner = req.Owner
		ps.speaker = audio.OrNop(speaker)
		install(ps)
		ps.mu.Unlock()
		if s.sessions.Attach(req.UserID, ps) {
			return ps
		}
	}
}

func (s *GameService) countUsage(ctx context.Context, listID string) {
	if listID == DefaultWordListID || s.usage == nil {
		return
	}
	if err := s.usage.IncrementUsage(ctx, listID); err != nil {
		_ = s.persistErr("increment_usage", err, zap.String("word_list_id", listID))
	}
}

// resolvePool loads the words for a game. Private lists are playable by their
// owner only.
func (s *GameService) resolvePool(ctx context.Context, userID, listID string) (string, string, []domain.WordEntry, error) {
	if listID == "" || listID == DefaultWordListID {
		return DefaultWordListID, defaultWordListTitle, game.DefaultPool(), nil
	}
	list, err := s.lists.GetWordList(ctx, listID)
	if err != nil {
		if errors.Is(err, domain.ErrWordListNotFound) {
			return "", "", nil, err
		}
		return "", "", nil, s.persistErr("load_word_list", err, zap.String("word_list_id", listID))
	}
	if !list.IsPublic && list.OwnerID != userID {
		return "", "", nil, fmt.Errorf("%w: word list %s is private", domain.ErrForbidden, listID)
	}
	if len(list.Words) == 0 {
		return "", "", nil, fmt.Errorf("%w: word list %s has no words", domain.ErrInvalidPool, listID)
	}
	return list.ID, list.Title, list.Words, nil
}

// Answer scores free text (or a clicked option) against the current prompt.
func (s *GameService) Answer(ctx context.Context, userID, submitted string) (AnswerResult, error) {
	return s.answer(ctx, userID, func(g *game.Session) (game.Outcome, error) {
		return g.Answer(submitted)
	})
}

// Confirm answers an easy-mode yes/no round.
func (s *GameService) Confirm(ctx context.Context, userID string, match bool) (AnswerResult, error) {
	return s.answer(ctx, userID, func(g *game.Session) (game.Outcome, error) {
		return g.Confirm(match)
	})
}

func (s *GameService) answer(ctx context.Context, userID string, apply func(*game.Session) (game.Outcome, error)) (AnswerResult, error) {
	ps, ok := s.sessions.Get(userID)
	if !ok {
		return AnswerResult{}, domain.ErrSessionNotFound
	}

	ps.mu.Lock()
	if ps.game == nil {
		ps.mu.Unlock()
		return AnswerResult{}, domain.ErrNotStarted
	}
	outcome, err := apply(ps.game)
	if err != nil {
		ps.mu.Unlock()
		return AnswerResult{}, err
	}
	stats := ps.game.Stats()
	difficulty := ps.game.Difficulty()
	record := ps.recordLocked(s.clock())
	ps.mu.Unlock()

	s.metrics.Answered(string(difficulty), outcome.Correct)

	result := AnswerResult{Outcome: outcome, Stats: stats, Persisted: true}
	if err := s.progress.SaveGame(ctx, record); err != nil {
		result.Persisted = false
		result.PersistErr = s.persistErr("save_progress", err, zap.String("user_id", userID))
	}
	return result, nil
}

// Next moves the player to a new prompt and reads it aloud.
func (s *GameService) Next(_ context.Context, userID string) (game.View, error) {
	ps, ok := s.sessions.Get(userID)
	if !ok {
		return game.View{}, domain.ErrSessionNotFound
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.game == nil {
		return game.View{}, domain.ErrNotStarted
	}
	prompt, err := ps.game.NextPrompt()
	if err != nil {
		return game.View{}, err
	}
	ps.speaker.Speak(prompt.Word)
	return ps.game.View(), nil
}

// Speak repeats the current prompt.
func (s *GameService) Speak(_ context.Context, userID string) error {
	ps, ok := s.sessions.Get(userID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.game == nil {
		return domain.ErrNotStarted
	}
	prompt, ok := ps.game.Prompt()
	if !ok {
		return domain.ErrNotStarted
	}
	ps.speaker.Speak(prompt.Word)
	return nil
}

// View returns the player's current round.
func (s *GameService) View(_ context.Context, userID string) (game.View, error) {
	ps, ok := s.sessions.Get(userID)
	if !ok {
		return game.View{}, domain.ErrSessionNotFound
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.game == nil {
		return game.View{}, domain.ErrNotStarted
	}
	return ps.game.View(), nil
}

// Stats returns the player's running score.
func (s *GameService) Stats(_ context.Context, userID string) (game.Stats, error) {
	ps, ok := s.sessions.Get(userID)
	if !ok {
		return game.Stats{}, domain.ErrSessionNotFound
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.game == nil {
		return game.Stats{}, domain.ErrNotStarted
	}
	return ps.game.Stats(), nil
}

// Finish closes the player's session and submits its score for the current
// period. The session is discarded even when persistence fails; in that case
// the returned error wraps domain.ErrPersistence and the score is lost.
func (s *GameService) Finish(ctx context.Context, userID string) (FinishResult, error) {
	ps, ok := s.sessions.Get(userID)
	if !ok {
		return FinishResult{}, domain.ErrSessionNotFound
	}

	now := s.clock()
	ps.mu.Lock()
	if ps.game == nil || !ps.game.Started() {
		ps.mu.Unlock()
		return FinishResult{}, domain.ErrNotStarted
	}
	stats := ps.game.Stats()
	record := ps.recordLocked(now)
	sub := domain.ScoreSubmission{
		UserID:        userID,
		DisplayName:   ps.displayName,
		WordListID:    ps.wordListID,
		Score:         stats.Score,
		AnsweredCount: stats.Total,
		Period:        domain.PeriodKey(now),
	}
	ps.game.Reset()
	ps.mu.Unlock()
	s.sessions.DeleteIfIdle(userID)

	result := FinishResult{Stats: stats, Period: sub.Period}
	if stats.Total == 0 {
		return result, nil
	}

	var errs []error
	if err := s.progress.SaveGame(ctx, record); err != nil {
		errs = append(errs, s.persistErr("save_progress", err, zap.String("user_id", userID)))
	}
	if err := s.scores.Submit(ctx, sub); err != nil {
		errs = append(errs, err)
	} else {
		result.Submitted = true
	}
	return result, errors.Join(errs...)
}

// Reset abandons the player's session without submitting anything.
func (s *GameService) Reset(_ context.Context, userID string) {
	s.abandon(userID, func(*PlayerSession) bool { return true })
}

// Abandon resets the player's session only if owner started it, so closing one
// connection leaves a game started from another connection alone.
func (s *GameService) Abandon(_ context.Context, userID, owner string) {
	s.abandon(userID, func(ps *PlayerSession) bool { return ps.owner == owner })
}

func (s *GameService) abandon(userID string, match func(*PlayerSession) bool) {
	ps, ok := s.sessions.Get(userID)
	if !ok {
		return
	}
	ps.mu.Lock()
	if !match(ps) {
		ps.mu.Unlock()
		return
	}
	if ps.game != nil {
		ps.game.Reset()
	}
	if ps.team != nil {
		ps.team.Reset()
	}
	ps.mu.Unlock()
	s.sessions.DeleteIfIdle(userID)
}

func (s *GameService) persistErr(op string, err error, fields ...zap.Field) error {
	s.metrics.PersistenceFailed(op)
	s.logger.Warn("persistence failure", append(fields, zap.String("op", op), zap.Error(err))...)
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
}
