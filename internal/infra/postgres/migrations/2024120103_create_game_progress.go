package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 0003_create_game_progress.sql
var createGameProgressSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return execAll(ctx, db,
				createGameProgressSQL,
				`CREATE INDEX IF NOT EXISTS game_progress_user_idx ON game_progress (user_id, completed_at DESC)`,
			)
		},
		func(ctx context.Context, db *bun.DB) error {
			return execAll(ctx, db, `DROP TABLE IF EXISTS game_progress`)
		},
	)
}
