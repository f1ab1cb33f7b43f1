package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"vocab-quiz-service/internal/domain"
)

// LeaderboardStore accumulates monthly totals in Redis.
//
//	HINCRBY leaderboard:{period}:user:{id} totalScore {score}
//	HINCRBY leaderboard:{period}:user:{id} gamesPlayed 1
//	ZADD NX leaderboard:{period}:order {seq} {id}
//
// The order set remembers first submissions so rankings stay stable on ties.
type LeaderboardStore struct {
	client *redis.Client
	clock  func() time.Time
}

func NewLeaderboardStore(client *redis.Client) *LeaderboardStore {
	return &LeaderboardStore{client: client, clock: time.Now}
}

func (s *LeaderboardStore) SubmitScore(ctx context.Context, sub domain.ScoreSubmission) error {
	seq, err := s.client.Incr(ctx, s.seqKey(sub.Period)).Result()
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	entryKey := s.entryKey(sub.Period, sub.UserID)
	pipe := s.client.TxPipeline()
	pipe.ZAddNX(ctx, s.orderKey(sub.Period), redis.Z{Score: float64(seq), Member: sub.UserID})
	pipe.HIncrBy(ctx, entryKey, "totalScore", int64(sub.Score))
	pipe.HIncrBy(ctx, entryKey, "gamesPlayed", 1)
	pipe.HSet(ctx, entryKey,
		"displayName", sub.DisplayName,
		"lastUpdated", s.clock().UTC().Format(time.RFC3339Nano),
	)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("submit score: %w", err)
	}
	return nil
}

func (s *LeaderboardStore) FetchPeriodEntries(ctx context.Context, period string) ([]domain.LeaderboardEntry, error) {
	users, err := s.client.ZRange(ctx, s.orderKey(period), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read order: %w", err)
	}
	if len(users) == 0 {
		return []domain.LeaderboardEntry{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(users))
	for i, userID := range users {
		cmds[i] = pipe.HGetAll(ctx, s.entryKey(period, userID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(users))
	for i, userID := range users {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			continue
		}
		entries = append(entries, buildEntry(userID, fields))
	}
	return entries, nil
}

func buildEntry(userID string, fields map[string]string) domain.LeaderboardEntry {
	entry := domain.LeaderboardEntry{UserID: userID, DisplayName: fields["displayName"]}
	if v, err := strconv.Atoi(fields["totalScore"]); err == nil {
		entry.TotalScore = v
	}
	if v, err := strconv.Atoi(fields["gamesPlayed"]); err == nil {
		entry.GamesPlayed = v
	}
	if t, err := time.Parse(time.RFC3339Nano, fields["lastUpdated"]); err == nil {
		entry.LastUpdated = t
	}
	return entry
}

func (s *LeaderboardStore) seqKey(period string) string {
	return "leaderboard:" + period + ":seq"
}

func (s *LeaderboardStore) orderKey(period string) string {
	return "leaderboard:" + period + ":order"
}

func (s *LeaderboardStore) entryKey(period, userID string) string {
	return "leaderboard:" + period + ":user:" + userID
}
