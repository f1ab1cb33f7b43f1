package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vocab-quiz-service/internal/app"
	"vocab-quiz-service/internal/config"
	"vocab-quiz-service/internal/game"
	"vocab-quiz-service/internal/metrics"
	transport "vocab-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	difficulty, err := game.ParseDifficulty(cfg.Game.DefaultDifficulty)
	if err != nil {
		return err
	}

	m := metrics.New()
	boards := app.NewLeaderboardService(st.leaderboard,
		app.WithBoardTTL(config.TTLDuration(cfg.Leaderboard.CacheTTL, 30*time.Second)),
		app.WithTopN(cfg.Leaderboard.TopN),
		app.WithLeaderboardLogger(logger),
		app.WithLeaderboardMetrics(m),
	)
	lists := app.NewWordListService(st.wordLists, st.cache)
	games := app.NewGameService(st.sessions, st.listSource, lists, boards, st.progress,
		app.WithMatchRate(cfg.Game.MatchRate),
		app.WithDefaultDifficulty(difficulty),
		app.WithLogger(logger),
		app.WithMetrics(m),
	)

	router := transport.NewRouter(
		transport.NewWSHandler(games, boards, logger),
		transport.NewAPIHandlers(boards, lists, st.progress),
		m,
		logger,
	)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting vocab service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
