package app

import (
	"context"

	"vocab-quiz-service/internal/domain"
)

// SessionRepository abstracts where players' live sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(userID string) *PlayerSession
	Get(userID string) (*PlayerSession, bool)
	DeleteIfIdle(userID string)
	// Attach stores session under userID when nothing is stored there and
	// reports whether session is the one stored.
	Attach(userID string, session *PlayerSession) bool
}

// WordListSource loads the words a game is played with (usually through a cache).
type WordListSource interface {
	GetWordList(ctx context.Context, id string) (domain.WordList, error)
}

// UsageCounter records that a word list was picked for a game.
type UsageCounter interface {
	IncrementUsage(ctx context.Context, id string) error
}

// WordListStore is the document store behind teacher word lists.
type WordListStore interface {
	Create(ctx context.Context, list domain.WordList) error
	Get(ctx context.Context, id string) (domain.WordList, error)
	GetWordList(ctx context.Context, id string) (domain.WordList, error)
	Update(ctx context.Context, list domain.WordList) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]domain.WordList, error)
	ListPublic(ctx context.Context, filter domain.WordListFilter) ([]domain.WordList, error)
	IncrementUsage(ctx context.Context, id string) error
}

// CacheInvalidator drops a cached word list after it changes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, id string)
}

// LeaderboardRepository persists per-period score totals. FetchPeriodEntries
// returns entries in the order players first submitted in that period.
type LeaderboardRepository interface {
	SubmitScore(ctx context.Context, sub domain.ScoreSubmission) error
	FetchPeriodEntries(ctx context.Context, period string) ([]domain.LeaderboardEntry, error)
}

// ScoreRecorder accepts the result of a finished session.
type ScoreRecorder interface {
	Submit(ctx context.Context, sub domain.ScoreSubmission) error
}

// ProgressRepository keeps players' game history.
type ProgressRepository interface {
	SaveGame(ctx context.Context, record domain.GameRecord) error
	ListGames(ctx context.Context, userID, wordListID string) ([]domain.GameRecord, error)
}
