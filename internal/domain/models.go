package domain

import "time"

// WordEntry is a single word a player can be tested on.
type WordEntry struct {
	Word              string `json:"word" yaml:"word"`
	PronunciationHint string `json:"pronunciation,omitempty" yaml:"pronunciation,omitempty"`
	Subcategory       string `json:"category,omitempty" yaml:"category,omitempty"`
}

// WordList is a teacher-authored collection of words.
type WordList struct {
	ID            string      `json:"id" yaml:"id"`
	OwnerID       string      `json:"ownerId" yaml:"ownerId"`
	Title         string      `json:"title" yaml:"title"`
	Description   string      `json:"description,omitempty" yaml:"description,omitempty"`
	Category      string      `json:"category" yaml:"category"`
	DifficultyTag string      `json:"difficulty" yaml:"difficulty"`
	Language      string      `json:"language" yaml:"language"`
	Tags          []string    `json:"tags,omitempty" yaml:"tags,omitempty"`
	IsPublic      bool        `json:"isPublic" yaml:"isPublic"`
	UsageCount    int         `json:"usageCount" yaml:"usageCount"`
	Words         []WordEntry `json:"words" yaml:"words"`
	CreatedAt     time.Time   `json:"createdAt" yaml:"-"`
	UpdatedAt     time.Time   `json:"updatedAt" yaml:"-"`
}

// WordListFilter narrows public word list browsing. Zero values match everything.
type WordListFilter struct {
	Category   string
	Difficulty string
	Language   string
	Limit      int
}

// Matches reports whether the list satisfies every non-empty filter field.
func (f WordListFilter) Matches(list WordList) bool {
	if f.Category != "" && list.Category != f.Category {
		return false
	}
	if f.Difficulty != "" && list.DifficultyTag != f.Difficulty {
		return false
	}
	if f.Language != "" && list.Language != f.Language {
		return false
	}
	return true
}

// LeaderboardEntry is one player's accumulated result for a period.
type LeaderboardEntry struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	TotalScore  int       `json:"totalScore"`
	GamesPlayed int       `json:"gamesPlayed"`
	LastUpdated time.Time `json:"lastUpdated,omitempty"`
}

// RankedEntry is a LeaderboardEntry with its 1-based position.
type RankedEntry struct {
	LeaderboardEntry
	Rank int `json:"rank"`
}

// Leaderboard captures the ordered scoreboard for a period.
type Leaderboard struct {
	Period    string        `json:"period"`
	Entries   []RankedEntry `json:"entries"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// PlayerStats summarises one player's standing in a period.
// Rank is nil when the player has no entry for the period.
type PlayerStats struct {
	Period        string `json:"period,omitempty"`
	TotalScore    int    `json:"totalScore"`
	GamesPlayed   int    `json:"gamesPlayed"`
	Rank          *int   `json:"rank"`
	GapToTopThree *int   `json:"gapToTopThree"`
}

// ScoreSubmission is the durable result of one finished session.
type ScoreSubmission struct {
	UserID        string
	DisplayName   string
	WordListID    string
	Score         int
	AnsweredCount int
	Period        string
}

// GameRecord is a saved snapshot of a play session for a player's history.
type GameRecord struct {
	SessionID     string    `json:"sessionId"`
	UserID        string    `json:"userId"`
	WordListID    string    `json:"wordListId"`
	WordListTitle string    `json:"wordListTitle"`
	Difficulty    string    `json:"difficulty"`
	Score         int       `json:"score"`
	TotalAnswered int       `json:"totalQuestions"`
	Percentage    int       `json:"percentage"`
	CompletedAt   time.Time `json:"completedAt"`
}
