package cmd

import (
	"github.com/caedis/mod-update-checker/internal/updater"
	"github.com/spf13/cobra"
)

var modsDir string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Start tracking the mods of a game instance",
	Long: `Scans the mods directory for archives (.zip, .7z, .rar, .fomod, .omod) and
records them in the instance state file.

Running init again rescans the directory. Settings and identifiers of mods
that are still installed are kept.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := updater.Init(instanceDir, updater.InitOptions{
			ModsDir:    modsDir,
			GameID:     gameID,
			CatalogURL: catalogURL,
			Period:     period,
		})
		return err
	},
}

func init() {
	initCmd.Flags().StringVar(&modsDir, "mods-dir", "", "Mods directory, absolute or relative to the instance (default: mods)")
	initCmd.Flags().StringVar(&period, "period", "", "Default update period for later checks (e.g. 1d, 1w, 1m)")
	rootCmd.AddCommand(initCmd)
}
