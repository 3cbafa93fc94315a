package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caedis/mod-update-checker/internal/logging"
	"github.com/caedis/mod-update-checker/internal/profile"
	"github.com/spf13/cobra"
)

const apiKeyEnv = "MOD_CATALOG_API_KEY"

var (
	instanceDir string
	gameID      string
	catalogURL  string
	catalogFile string
	apiKey      string
	profileName string
	verbose     bool
	logFile     string

	period             string
	retries            int
	retryDelay         time.Duration
	batchSize          int
	rateLimit          float64
	overrideLocalNames bool
)

var rootCmd = &cobra.Command{
	Use:           "mod-update-checker",
	Short:         "Check installed mods against an online catalog",
	Long:          "Track the mod archives of a game instance and ask a mod catalog which of them have newer versions.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Apply profile defaults for flags not explicitly set by the user.
		if profileName != "" {
			p, err := profile.Load(profileName)
			if err != nil {
				return err
			}
			if err := applyProfile(cmd, p); err != nil {
				return err
			}
		}

		logging.SetVerbose(verbose)
		if err := logging.SetOutputFile(logFile); err != nil {
			return fmt.Errorf("opening log file %q: %w", logFile, err)
		}
		return nil
	},
}

func applyProfile(cmd *cobra.Command, p *profile.Profile) error {
	changed := cmd.Flags().Changed
	if p.InstanceDir != nil && !changed("instance-dir") {
		instanceDir = *p.InstanceDir
	}
	if p.GameID != nil && !changed("game") {
		gameID = *p.GameID
	}
	if p.CatalogURL != nil && !changed("catalog-url") {
		catalogURL = *p.CatalogURL
	}
	if p.CatalogFile != nil && !changed("catalog-file") {
		catalogFile = *p.CatalogFile
	}
	if p.APIKey != nil && !changed("api-key") {
		apiKey = *p.APIKey
	}
	if p.Period != nil && !changed("period") {
		period = *p.Period
	}
	if p.Retries != nil && !changed("retries") {
		retries = *p.Retries
	}
	if p.RetryDelay != nil && !changed("retry-delay") {
		d, err := time.ParseDuration(*p.RetryDelay)
		if err != nil {
			return fmt.Errorf("profile %q: invalid retry-delay: %w", profileName, err)
		}
		retryDelay = d
	}
	if p.BatchSize != nil && !changed("batch-size") {
		batchSize = *p.BatchSize
	}
	if p.RateLimit != nil && !changed("rate-limit") {
		rateLimit = *p.RateLimit
	}
	if p.OverrideLocalNames != nil && !changed("override-local-names") {
		overrideLocalNames = *p.OverrideLocalNames
	}
	if p.Verbose != nil && !changed("verbose") {
		verbose = *p.Verbose
	}
	if p.LogFile != nil && !changed("log-file") {
		logFile = *p.LogFile
	}
	return nil
}

func Execute() {
	err := rootCmd.Execute()
	closeErr := logging.Close()
	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "Error closing log file: %v\n", closeErr)
		if err == nil {
			os.Exit(1)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if isUsageError(err) {
			if cmd, _, findErr := rootCmd.Find(os.Args[1:]); findErr == nil && cmd != nil {
				_ = cmd.Usage()
			} else {
				_ = rootCmd.Usage()
			}
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return wrapUsageError(err)
	})

	rootCmd.PersistentFlags().StringVarP(&instanceDir, "instance-dir", "d", ".", "Game instance root directory")
	rootCmd.PersistentFlags().StringVar(&gameID, "game", "", "Catalog game identifier")
	rootCmd.PersistentFlags().StringVar(&catalogURL, "catalog-url", "", "Base URL of the mod catalog API")
	rootCmd.PersistentFlags().StringVar(&catalogFile, "catalog-file", "", "Answer catalog queries from a YAML file instead of the API")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Catalog API key (also reads "+apiKeyEnv+" env)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Load a saved option profile by name")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write command output to a log file")
}

func getAPIKey() string {
	if apiKey != "" {
		return apiKey
	}
	return os.Getenv(apiKeyEnv)
}

type usageError struct {
	err error
}

func (e *usageError) Error() string {
	return e.err.Error()
}

func (e *usageError) Unwrap() error {
	return e.err
}

func wrapUsageError(err error) error {
	if err == nil {
		return nil
	}
	return &usageError{err: err}
}

func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if validate == nil {
			return nil
		}
		if err := validate(cmd, args); err != nil {
			return wrapUsageError(err)
		}
		return nil
	}
}

func isUsageError(err error) bool {
	var ue *usageError
	if errors.As(err, &ue) {
		return true
	}

	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command ")
}
