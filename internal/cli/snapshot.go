package cli

import (
	"github.com/spf13/cobra"

	"github.com/inschoolz/engine/internal/daemon"
	"github.com/inschoolz/engine/internal/jobs"
)

func init() {
	rootCmd.AddCommand(snapshotCmd)
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Run the nightly leaderboard maintenance now",
	RunE:  runSnapshot,
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	s := jobs.NewScheduler(d.DB, d.Boards, d.Config.Jobs.SnapshotSize)
	s.RunNightlyNow()
	return nil
}
