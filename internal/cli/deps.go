package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"vocab-quiz-service/internal/app"
	"vocab-quiz-service/internal/config"
	"vocab-quiz-service/internal/infra/memory"
	"vocab-quiz-service/internal/infra/postgres"
	redisinfra "vocab-quiz-service/internal/infra/redis"
	"vocab-quiz-service/internal/logging"
)

// stores picks Postgres/Redis implementations when configured and falls back
// to the in-memory ones otherwise.
type stores struct {
	sessions    app.SessionRepository
	wordLists   app.WordListStore
	listSource  app.WordListSource
	cache       app.CacheInvalidator
	leaderboard app.LeaderboardRepository
	progress    app.ProgressRepository

	closers []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (*stores, error) {
	s := &stores{}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, func() { _ = redisClient.Close() })
	}

	if pool != nil {
		lists := postgres.NewWordListStore(pool)
		s.wordLists = lists
		s.leaderboard = postgres.NewLeaderboardStore(pool)
		s.progress = postgres.NewProgressStore(pool)
		logger.Info("using postgres storage")
	} else {
		s.wordLists = memory.NewWordListStore()
		s.leaderboard = memory.NewLeaderboardStore()
		s.progress = memory.NewProgressStore()
		logger.Info("using in-memory storage")
	}

	listTTL := config.TTLDuration(cfg.WordLists.TTL, 10*time.Minute)
	if redisClient != nil {
		cache := redisinfra.NewWordListCache(redisClient, s.wordLists, listTTL)
		s.listSource, s.cache = cache, cache
		s.sessions = redisinfra.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
		// scores go to Postgres when it exists; Redis is the shared store otherwise
		if pool == nil {
			s.leaderboard = redisinfra.NewLeaderboardStore(redisClient)
		}
	} else {
		cache := memory.NewWordListCache(s.wordLists, listTTL)
		s.listSource, s.cache = cache, cache
		s.sessions = memory.NewSessionStore()
	}
	return s, nil
}

func loadConfig(path string) (config.Config, *zap.Logger, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return cfg, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}
