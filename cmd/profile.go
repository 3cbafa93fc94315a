package cmd

import (
	"bytes"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caedis/mod-update-checker/internal/catalog"
	"github.com/caedis/mod-update-checker/internal/logging"
	"github.com/caedis/mod-update-checker/internal/profile"
	"github.com/caedis/mod-update-checker/internal/reconcile"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage saved option profiles",
}

// Flags for profile create
var (
	profInstanceDir        *string
	profGameID             *string
	profCatalogURL         *string
	profCatalogFile        *string
	profAPIKey             *string
	profPeriod             *string
	profRetries            *int
	profRetryDelay         *time.Duration
	profBatchSize          *int
	profRateLimit          *float64
	profOverrideLocalNames *bool
	profVerbose            *bool
)

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new profile",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := &profile.Profile{}
		changed := cmd.Flags().Changed

		if changed("instance-dir") {
			p.InstanceDir = profInstanceDir
		}
		if changed("game") {
			p.GameID = profGameID
		}
		if changed("catalog-url") {
			p.CatalogURL = profCatalogURL
		}
		if changed("catalog-file") {
			p.CatalogFile = profCatalogFile
		}
		if changed("api-key") {
			p.APIKey = profAPIKey
		}
		if changed("period") {
			p.Period = profPeriod
		}
		if changed("retries") {
			p.Retries = profRetries
		}
		if changed("retry-delay") {
			d := profRetryDelay.String()
			p.RetryDelay = &d
		}
		if changed("batch-size") {
			p.BatchSize = profBatchSize
		}
		if changed("rate-limit") {
			p.RateLimit = profRateLimit
		}
		if changed("override-local-names") {
			p.OverrideLocalNames = profOverrideLocalNames
		}
		if changed("verbose") {
			p.Verbose = profVerbose
		}
		if changed("log-file") {
			p.LogFile = &logFile
		}

		if err := profile.Save(args[0], p); err != nil {
			return err
		}
		logging.Infof("Profile %q saved to %s\n", args[0], profile.Dir())
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := profile.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			logging.Infoln("No profiles saved.")
			return nil
		}
		for _, n := range names {
			logging.Infoln(n)
		}
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a profile's contents",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := profile.Load(args[0])
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(p); err != nil {
			return err
		}
		logging.Infof("%s", buf.String())
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved profile",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := profile.Delete(args[0]); err != nil {
			return err
		}
		logging.Infof("Profile %q deleted.\n", args[0])
		return nil
	},
}

func init() {
	// Wire up flags for create. We use local variables so they only apply to
	// this subcommand and don't collide with the root/update flags.
	f := profileCreateCmd.Flags()
	profInstanceDir = f.String("instance-dir", "", "Game instance root directory")
	profGameID = f.String("game", "", "Catalog game identifier")
	profCatalogURL = f.String("catalog-url", "", "Base URL of the mod catalog API")
	profCatalogFile = f.String("catalog-file", "", "YAML catalog file")
	profAPIKey = f.String("api-key", "", "Catalog API key")
	profPeriod = f.String("period", "", "Update period for period checks")
	profRetries = f.Int("retries", 0, "Extra attempts for batches without catalog info")
	profRetryDelay = f.Duration("retry-delay", catalog.DefaultRetryDelay, "Pause between attempts")
	profBatchSize = f.Int("batch-size", reconcile.DefaultBatchSize, "Mods per catalog request")
	profRateLimit = f.Float64("rate-limit", catalog.DefaultRateLimit, "Catalog requests per second")
	profOverrideLocalNames = f.Bool("override-local-names", false, "Explicitly preserve local mod names when merging catalog records")
	profVerbose = f.Bool("verbose", false, "Enable verbose logging")

	profileCmd.AddCommand(profileCreateCmd, profileListCmd, profileShowCmd, profileDeleteCmd)
	rootCmd.AddCommand(profileCmd)
}
