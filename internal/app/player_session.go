package app

import (
	"sync"
	"time"

	"vocab-quiz-service/internal/audio"
	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/game"
)

// PlayerSession is one player's live game plus what is needed to persist it.
type PlayerSession struct {
	userID string

	mu            sync.Mutex
	id            string
	displayName   string
	wordListID    string
	wordListTitle string
	game          *game.Session
	team          *game.TeamBoard
	speaker       audio.Speaker
	owner         string
}

// NewPlayerSession is exported for infrastructure layers that store sessions.
func NewPlayerSession(userID string) *PlayerSession {
	return &PlayerSession{userID: userID, speaker: audio.Nop}
}

// IsIdle reports whether the player has neither a started quiz nor a team game.
func (p *PlayerSession) IsIdle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return (p.game == nil || !p.game.Started()) && (p.team == nil || !p.team.Started())
}

func (p *PlayerSession) recordLocked(now time.Time) domain.GameRecord {
	stats := p.game.Stats()
	return domain.GameRecord{
		SessionID:     p.id,
		UserID:        p.userID,
		WordListID:    p.wordListID,
		WordListTitle: p.wordListTitle,
		Difficulty:    string(p.game.Difficulty()),
		Score:         stats.Score,
		TotalAnswered: stats.Total,
		Percentage:    stats.Percentage,
		CompletedAt:   now,
	}
}
