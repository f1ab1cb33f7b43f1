package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 0002_create_leaderboard_entries.sql
var createLeaderboardEntriesSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return execAll(ctx, db, createLeaderboardEntriesSQL)
		},
		func(ctx context.Context, db *bun.DB) error {
			return execAll(ctx, db, `DROP TABLE IF EXISTS leaderboard_entries`)
		},
	)
}
