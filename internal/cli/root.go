// Package cli implements the inschoolz command-line interface using
// Cobra. Each subcommand maps to one engine capability (serve, award,
// progress, rank, settings).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "inschoolz",
	Short: "Inschoolz progression engine",
	Long: `The Inschoolz progression engine tracks experience, levels, daily
limits, mini-game rewards and rankings for the school community app.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
