package cmd

import (
	"strings"

	"github.com/caedis/mod-update-checker/internal/library"
	"github.com/caedis/mod-update-checker/internal/logging"
	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Fuzzy search tracked mods by file or mod name",
	Args:  usageArgs(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := library.Load(instanceDir)
		if err != nil {
			return err
		}

		matches := state.Find(strings.Join(args, " "))
		if len(matches) == 0 {
			logging.Infoln("No matching mods.")
			return nil
		}
		for _, m := range matches {
			logging.Infof("%s\tcatalog=%s download=%s version=%s\n", m.Filename, idOrDash(m.CatalogID), idOrDash(m.DownloadID), idOrDash(m.HumanReadableVersion))
		}
		return nil
	},
}

func idOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	rootCmd.AddCommand(findCmd)
}
