// Package ranking orders a period's leaderboard entries.
//
// Entries are sorted by total score, highest first. Ties keep the order the
// entries were supplied in, and every entry gets its own 1-based rank, so two
// players on 100 points are ranked 1 and 2, never 1 and 1.
package ranking

import (
	"sort"

	"vocab-quiz-service/internal/domain"
)

// TopThree is the rank a player has to reach to be on the podium.
const TopThree = 3

// Board is the ranking of one period snapshot.
type Board struct {
	ranked []domain.RankedEntry
	index  map[string]int
}

// NewBoard ranks entries. The input slice is not modified.
func NewBoard(entries []domain.LeaderboardEntry) *Board {
	ranked := make([]domain.RankedEntry, len(entries))
	for i, e := range entries {
		ranked[i] = domain.RankedEntry{LeaderboardEntry: e}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalScore > ranked[j].TotalScore
	})

	index := make(map[string]int, len(ranked))
	for i := range ranked {
		ranked[i].Rank = i + 1
		if _, dup := index[ranked[i].UserID]; !dup {
			index[ranked[i].UserID] = i
		}
	}
	return &Board{ranked: ranked, index: index}
}

// Len is the number of ranked entries.
func (b *Board) Len() int { return len(b.ranked) }

// Ranked returns a copy of the full ranking.
func (b *Board) Ranked() []domain.RankedEntry {
	return b.Top(len(b.ranked))
}

// Top returns a copy of the first n ranked entries.
func (b *Board) Top(n int) []domain.RankedEntry {
	if n <= 0 {
		return []domain.RankedEntry{}
	}
	if n > len(b.ranked) {
		n = len(b.ranked)
	}
	out := make([]domain.RankedEntry, n)
	copy(out, b.ranked[:n])
	return out
}

// StatsFor returns a player's standing. Unknown players get a nil rank and
// zero totals, which callers should read as "no games played yet".
func (b *Board) StatsFor(userID string) domain.PlayerStats {
	pos, ok := b.index[userID]
	if !ok {
		return domain.PlayerStats{}
	}
	entry := b.ranked[pos]
	rank := entry.Rank
	stats := domain.PlayerStats{
		TotalScore:  entry.TotalScore,
		GamesPlayed: entry.GamesPlayed,
		Rank:        &rank,
	}
	if rank > TopThree && len(b.ranked) >= TopThree {
		gap := b.ranked[TopThree-1].TotalScore - entry.TotalScore + 1
		if gap < 0 {
			gap = 0
		}
		stats.GapToTopThree = &gap
	}
	return stats
}

// Rank orders entries and assigns distinct sequential ranks.
func Rank(entries []domain.LeaderboardEntry) []domain.RankedEntry {
	return NewBoard(entries).Ranked()
}

// TopN returns the first n entries of Rank(entries).
func TopN(entries []domain.LeaderboardEntry, n int) []domain.RankedEntry {
	return NewBoard(entries).Top(n)
}

// StatsFor returns userID's standing within entries.
func StatsFor(entries []domain.LeaderboardEntry, userID string) domain.PlayerStats {
	return NewBoard(entries).StatsFor(userID)
}
