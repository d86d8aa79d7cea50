package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inschoolz/engine/internal/app/experience"
	"github.com/inschoolz/engine/internal/daemon"
	"github.com/inschoolz/engine/internal/domain"
)

func init() {
	awardCmd.Flags().Int64Var(&awardAmount, "amount", 0, "Override amount (attendance and generic activities)")
	awardCmd.Flags().StringVar(&awardGame, "game", "", "Game type for game awards")
	awardCmd.Flags().IntVar(&awardScore, "score", 0, "Game score for game awards")
	rootCmd.AddCommand(awardCmd)
}

var (
	awardAmount int64
	awardGame   string
	awardScore  int
)

var awardCmd = &cobra.Command{
	Use:   "award <user-id> <activity>",
	Short: "Grant experience for an activity",
	Long: `Grant experience for an activity: post, comment, like, attendance,
attendanceStreak, referral or game. Daily caps apply the same way they
do through the API.`,
	Args: cobra.ExactArgs(2),
	RunE: runAward,
}

func runAward(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	res, err := d.Engine.Award(context.Background(), args[0], domain.ActivityType(args[1]), experience.AwardOptions{
		Amount:    awardAmount,
		GameType:  domain.GameType(awardGame),
		GameScore: awardScore,
	})
	if err != nil {
		return err
	}

	if !res.Success {
		fmt.Printf("denied: %s\n", res.Reason)
		return nil
	}
	fmt.Printf("+%d XP\n", res.ExpAwarded)
	if res.LeveledUp {
		fmt.Printf("level up: %d -> %d\n", res.OldLevel, res.NewLevel)
	}
	return nil
}
