package cmd

import (
	"github.com/caedis/mod-update-checker/internal/logging"
	"github.com/caedis/mod-update-checker/internal/updater"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [mod file]",
	Short: "List catalog versions observed by past checks",
	Args:  usageArgs(cobra.MaximumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		var filename string
		if len(args) == 1 {
			filename = args[0]
		}
		entries, err := updater.History(instanceDir, filename, historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			logging.Infoln("No versions recorded yet.")
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}
