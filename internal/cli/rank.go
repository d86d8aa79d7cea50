package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/inschoolz/engine/internal/daemon"
	"github.com/inschoolz/engine/internal/domain"
)

func init() {
	rankCmd.Flags().StringVar(&rankScope, "scope", "global", "Ranking scope: global, school or region")
	rankCmd.Flags().StringVar(&rankKey, "key", "", "School or region id for scoped boards")
	rankCmd.Flags().IntVar(&rankLimit, "limit", 20, "Number of rows to show")
	rootCmd.AddCommand(rankCmd)
}

var (
	rankScope string
	rankKey   string
	rankLimit int
)

var rankCmd = &cobra.Command{
	Use:   "rank [user-id]",
	Short: "Show a leaderboard, or one user's rank",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRank,
}

func runRank(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := context.Background()
	scope := domain.RankScope(rankScope)

	if len(args) == 1 {
		rank, err := d.Rankings.RankOf(ctx, scope, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s: #%d (%s)\n", args[0], rank, scope)
		return nil
	}

	ranked, err := d.Rankings.Top(ctx, scope, rankKey, rankLimit)
	if err != nil {
		return err
	}
	if len(ranked) == 0 {
		fmt.Println("No users on this board yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tUSER\tLEVEL\tXP\tSCHOOL")
	for _, r := range ranked {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n",
			r.Rank, r.DisplayName, r.Level, r.TotalExperience, r.SchoolName)
	}
	return w.Flush()
}
