package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"vocab-quiz-service/internal/app"
	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/game"
	"vocab-quiz-service/internal/infra/postgres"
	pgmigrations "vocab-quiz-service/internal/infra/postgres/migrations"
	infraredis "vocab-quiz-service/internal/infra/redis"
)

type lastWord struct{ word string }

func (l *lastWord) Speak(word string) { l.word = word }

func TestFinishedGameReachesLeaderboardEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	runMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	listStore := postgres.NewWordListStore(pool)
	cache := infraredis.NewWordListCache(redisClient, listStore, 5*time.Minute)
	progress := postgres.NewProgressStore(pool)
	boards := app.NewLeaderboardService(postgres.NewLeaderboardStore(pool))
	lists := app.NewWordListService(listStore, cache)
	games := app.NewGameService(infraredis.NewSessionStore(redisClient, 5*time.Minute), cache, lists, boards, progress,
		app.WithSourceFactory(func() game.Source { return game.NewSource(11) }))

	list, err := lists.Create(ctx, "teacher-1", domain.WordList{
		Title:    "Farm animals",
		IsPublic: true,
		Tags:     []string{"animals"},
		Words:    []domain.WordEntry{{Word: "cow"}, {Word: "pig"}, {Word: "hen"}, {Word: "goat"}},
	})
	if err != nil {
		t.Fatalf("create list: %v", err)
	}

	speaker := &lastWord{}
	if _, err := games.Start(ctx, app.StartRequest{UserID: "u1", DisplayName: "Alice", WordListID: list.ID, Difficulty: "hard"}, speaker); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 3; i++ {
		res, err := games.Answer(ctx, "u1", speaker.word)
		if err != nil || !res.Correct || !res.Persisted {
			t.Fatalf("answer %d: %+v %v", i, res, err)
		}
		if _, err := games.Next(ctx, "u1"); err != nil {
			t.Fatalf("next: %v", err)
		}
	}
	done, err := games.Finish(ctx, "u1")
	if err != nil || !done.Submitted {
		t.Fatalf("finish: %+v %v", done, err)
	}

	lb, err := boards.Top(ctx, done.Period, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(lb.Entries) != 1 || lb.Entries[0].TotalScore != 3 || lb.Entries[0].GamesPlayed != 1 {
		t.Fatalf("unexpected leaderboard %+v", lb.Entries)
	}

	stored, err := listStore.Get(ctx, list.ID)
	if err != nil || stored.UsageCount != 1 {
		t.Fatalf("expected usage count 1, got %+v %v", stored, err)
	}
	history, err := progress.ListGames(ctx, "u1", list.ID)
	if err != nil || len(history) != 1 || history[0].Score != 3 {
		t.Fatalf("unexpected history %+v %v", history, err)
	}
	public, err := listStore.ListPublic(ctx, domain.WordListFilter{Category: "general"})
	if err != nil || len(public) != 1 {
		t.Fatalf("unexpected public lists %+v %v", public, err)
	}
}

func TestRedisLeaderboardStoreEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()
	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	boards := app.NewLeaderboardService(infraredis.NewLeaderboardStore(redisClient))
	for _, sub := range []domain.ScoreSubmission{
		{UserID: "a", Score: 4, AnsweredCount: 4, Period: "2024-12"},
		{UserID: "b", Score: 4, AnsweredCount: 5, Period: "2024-12"},
	} {
		if err := boards.Submit(ctx, sub); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	lb, err := boards.Top(ctx, "2024-12", 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(lb.Entries) != 2 || lb.Entries[0].UserID != "a" || lb.Entries[1].Rank != 2 {
		t.Fatalf("expected tie resolved by first submission, got %+v", lb.Entries)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "vocab", "POSTGRES_PASSWORD": "vocabpass", "POSTGRES_DB": "vocabdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://vocab:vocabpass@%s:%s/vocabdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
