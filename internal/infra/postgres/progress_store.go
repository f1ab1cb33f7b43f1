package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"vocab-quiz-service/internal/domain"
)

// ProgressStore records game history, one row per session.
type ProgressStore struct {
	pool *pgxpool.Pool
}

func NewProgressStore(pool *pgxpool.Pool) *ProgressStore {
	return &ProgressStore{pool: pool}
}

func (s *ProgressStore) SaveGame(ctx context.Context, r domain.GameRecord) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO game_progress
		(session_id, user_id, word_list_id, word_list_title, difficulty, score, total_answered, percentage, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id) DO UPDATE SET
			score          = EXCLUDED.score,
			total_answered = EXCLUDED.total_answered,
			percentage     = EXCLUDED.percentage,
			completed_at   = EXCLUDED.completed_at`,
		r.SessionID, r.UserID, r.WordListID, r.WordListTitle, r.Difficulty,
		r.Score, r.TotalAnswered, r.Percentage, r.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("save game progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) ListGames(ctx context.Context, userID, wordListID string) ([]domain.GameRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT session_id, user_id, word_list_id, word_list_title, difficulty,
			score, total_answered, percentage, completed_at
		FROM game_progress
		WHERE user_id=$1 AND ($2::text = '' OR word_list_id = $2)
		ORDER BY completed_at DESC`, userID, wordListID)
	if err != nil {
		return nil, fmt.Errorf("list game progress: %w", err)
	}
	defer rows.Close()

	out := make([]domain.GameRecord, 0)
	for rows.Next() {
		var r domain.GameRecord
		if err := rows.Scan(&r.SessionID, &r.UserID, &r.WordListID, &r.WordListTitle, &r.Difficulty,
			&r.Score, &r.TotalAnswered, &r.Percentage, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan game progress: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
