package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/inschoolz/engine/internal/daemon"
)

func init() {
	progressCmd.Flags().IntVar(&progressHistory, "history", 0, "Also print the last N ledger entries")
	rootCmd.AddCommand(progressCmd)
}

var progressHistory int

var progressCmd = &cobra.Command{
	Use:   "progress <user-id>",
	Short: "Show a user's level progress",
	Args:  cobra.ExactArgs(1),
	RunE:  runProgress,
}

func runProgress(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	u, p, err := d.Engine.Progress(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s (level %d)\n", u.DisplayName, p.Level)
	fmt.Printf("  total XP:   %d\n", u.TotalExperience)
	fmt.Printf("  this level: %d / %d (%d%%)\n", p.CurrentExp, p.CurrentLevelRequiredXP, p.ProgressPercentage)
	if p.ExpToNextLevel > 0 {
		fmt.Printf("  to next:    %d\n", p.ExpToNextLevel)
	} else {
		fmt.Println("  max level reached")
	}

	if progressHistory > 0 {
		entries, err := d.Engine.History(args[0], progressHistory)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}

		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tACTIVITY\tXP")
		for _, e := range entries {
			activity := string(e.Activity)
			if e.GameType != "" {
				activity += " (" + string(e.GameType) + ")"
			}
			fmt.Fprintf(w, "%s\t%s\t+%d\n", e.CreatedAt.Format("2006-01-02 15:04"), activity, e.Amount)
		}
		return w.Flush()
	}
	return nil
}
