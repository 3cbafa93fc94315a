package cmd

import (
	"github.com/caedis/mod-update-checker/internal/updater"
	"github.com/spf13/cobra"
)

var onlyUpdates bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the last check learned about each mod",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := updater.Status(instanceDir, onlyUpdates)
		return err
	},
}

func init() {
	statusCmd.Flags().BoolVarP(&onlyUpdates, "updates", "u", false, "Only list mods with an update available")
	rootCmd.AddCommand(statusCmd)
}
