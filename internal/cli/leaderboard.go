package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"vocab-quiz-service/internal/app"
	"vocab-quiz-service/internal/domain"
)

// NewLeaderboardCmd prints a month's standings from the configured store.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var (
		period string
		limit  int
		user   string
	)
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the monthly leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			st, err := openStores(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			boards := app.NewLeaderboardService(st.leaderboard, app.WithLeaderboardLogger(logger))
			out := cmd.OutOrStdout()
			if user != "" {
				stats, err := boards.Stats(cmd.Context(), period, user)
				if err != nil {
					return err
				}
				printStats(out, user, stats)
				return nil
			}
			lb, err := boards.Top(cmd.Context(), period, limit)
			if err != nil {
				return err
			}
			printLeaderboard(out, lb)
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "month as YYYY-MM (default current month)")
	cmd.Flags().IntVar(&limit, "limit", app.DefaultTopN, "number of players to show")
	cmd.Flags().StringVar(&user, "user", "", "show one player's standing instead")
	return cmd
}

func printLeaderboard(out io.Writer, lb domain.Leaderboard) {
	fmt.Fprintf(out, "Leaderboard %s\n", lb.Period)
	if len(lb.Entries) == 0 {
		fmt.Fprintln(out, "no scores yet")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPLAYER\tSCORE\tGAMES")
	for _, e := range lb.Entries {
		name := e.DisplayName
		if name == "" {
			name = e.UserID
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", e.Rank, name, e.TotalScore, e.GamesPlayed)
	}
	tw.Flush()
}

func printStats(out io.Writer, user string, stats domain.PlayerStats) {
	if stats.Rank == nil {
		fmt.Fprintf(out, "%s has no score in %s\n", user, stats.Period)
		return
	}
	fmt.Fprintf(out, "%s in %s: rank %d, %d points over %d games\n",
		user, stats.Period, *stats.Rank, stats.TotalScore, stats.GamesPlayed)
	if stats.GapToTopThree != nil {
		fmt.Fprintf(out, "%d more points to reach the top 3\n", *stats.GapToTopThree)
	}
}
