package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"vocab-quiz-service/internal/domain"
)

// LeaderboardStore keeps one row per player and period. first_seen orders
// players by their first submission so equal totals rank stably.
type LeaderboardStore struct {
	pool  *pgxpool.Pool
	clock func() time.Time
}

func NewLeaderboardStore(pool *pgxpool.Pool) *LeaderboardStore {
	return &LeaderboardStore{pool: pool, clock: time.Now}
}

func (s *LeaderboardStore) SubmitScore(ctx context.Context, sub domain.ScoreSubmission) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO leaderboard_entries
		(period, user_id, display_name, total_score, games_played, last_updated)
		VALUES ($1, $2, $3, $4, 1, $5)
		ON CONFLICT (period, user_id) DO UPDATE SET
			total_score  = leaderboard_entries.total_score + EXCLUDED.total_score,
			games_played = leaderboard_entries.games_played + 1,
			display_name = EXCLUDED.display_name,
			last_updated = EXCLUDED.last_updated`,
		sub.Period, sub.UserID, sub.DisplayName, sub.Score, s.clock().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert leaderboard entry: %w", err)
	}
	return nil
}

func (s *LeaderboardStore) FetchPeriodEntries(ctx context.Context, period string) ([]domain.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx, `SELECT user_id, display_name, total_score, games_played, last_updated
		FROM leaderboard_entries WHERE period=$1 ORDER BY first_seen`, period)
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]domain.LeaderboardEntry, 0)
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.DisplayName, &e.TotalScore, &e.GamesPlayed, &e.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
