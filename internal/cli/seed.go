package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"vocab-quiz-service/internal/app"
	"vocab-quiz-service/internal/domain"
)

type seedFile struct {
	WordLists []domain.WordList `yaml:"wordLists"`
}

// NewSeedCmd loads word lists from a YAML file into the configured store.
func NewSeedCmd(configPath *string) *cobra.Command {
	var (
		file  string
		owner string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create word lists from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()
			if cfg.Postgres.URL == "" {
				logger.Warn("no postgres configured; seeded lists vanish when this command exits")
			}

			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var seed seedFile
			if err := yaml.Unmarshal(data, &seed); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}

			st, err := openStores(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			lists := app.NewWordListService(st.wordLists, st.cache)
			for _, list := range seed.WordLists {
				ownerID := list.OwnerID
				if ownerID == "" {
					ownerID = owner
				}
				created, err := lists.Create(cmd.Context(), ownerID, list)
				if err != nil {
					return fmt.Errorf("seed %q: %w", list.Title, err)
				}
				logger.Info("word list created",
					zap.String("id", created.ID),
					zap.String("title", created.Title),
					zap.Int("words", len(created.Words)),
				)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "config/wordlists.yaml", "YAML file with a wordLists array")
	cmd.Flags().StringVar(&owner, "owner", "system", "owner for lists that do not name one")
	return cmd
}
