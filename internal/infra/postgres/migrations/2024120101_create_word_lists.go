package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 0001_create_word_lists.sql
var createWordListsSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return execAll(ctx, db,
				createWordListsSQL,
				`CREATE INDEX IF NOT EXISTS word_lists_owner_idx ON word_lists (owner_id)`,
				`CREATE INDEX IF NOT EXISTS word_lists_public_idx ON word_lists (is_public, usage_count DESC)`,
			)
		},
		func(ctx context.Context, db *bun.DB) error {
			return execAll(ctx, db, `DROP TABLE IF EXISTS word_lists`)
		},
	)
}
