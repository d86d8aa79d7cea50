package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inschoolz/engine/internal/daemon"
	"github.com/inschoolz/engine/internal/domain"
)

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect or update the reward settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings as JSON",
	RunE:  runSettingsShow,
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(d.Settings.Get())
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <file.json>",
	Short: "Replace the settings document from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsSet,
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	doc, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var probe domain.SystemSettings
	if err := json.Unmarshal(doc, &probe); err != nil {
		return fmt.Errorf("invalid settings document: %w", err)
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.DB.SaveSettingsDoc(doc); err != nil {
		return err
	}
	d.Settings.Invalidate()

	fmt.Println("settings updated")
	return nil
}
