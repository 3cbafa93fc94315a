package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/caedis/mod-update-checker/internal/catalog"
	"github.com/caedis/mod-update-checker/internal/logging"
	"github.com/caedis/mod-update-checker/internal/progress"
	"github.com/caedis/mod-update-checker/internal/reconcile"
	"github.com/caedis/mod-update-checker/internal/updater"
)

// Checks larger than this ask before querying the catalog.
const confirmThreshold = 200

var (
	scanMode      string
	categoryReset bool
	assumeYes     bool
	noHistory     bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Ask the catalog about installed mods",
	Long: `Queries the catalog for the tracked mods and records what it reports.

Two scan modes exist:
  missing  look up mods that have no catalog or download id yet
  period   refresh identified mods updated within --period, or every
           identified mod with --category-reset

Without --mode, missing is used when unidentified mods exist and the
instance was never checked or new archives appeared since the last check.
Press Ctrl-C to stop; results merged so far are kept.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := reconcile.ParseScanMode(scanMode); err != nil {
			return wrapUsageError(err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		bar := newProgressReporter(!verbose && term.IsTerminal(int(os.Stderr.Fd())))
		opts := updater.Options{
			InstanceDir:        instanceDir,
			GameID:             gameID,
			CatalogURL:         catalogURL,
			CatalogFile:        catalogFile,
			APIKey:             getAPIKey(),
			Mode:               scanMode,
			Period:             period,
			CategoryReset:      categoryReset,
			OverrideLocalNames: overrideLocalNames,
			BatchSize:          batchSize,
			Retries:            retries,
			RetryDelay:         retryDelay,
			RateLimit:          rateLimit,
			NoHistory:          noHistory,
			Confirm:            confirmCandidates,
			Listener:           bar.update,
		}

		result, err := updater.Check(ctx, opts)
		bar.finish()
		if err != nil {
			return err
		}
		logging.Debugf("Verbose: check run=%s status=%s candidates=%d queried=%d\n", result.RunID, result.Status, result.Candidates, result.Queried)
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVarP(&scanMode, "mode", "m", "", "Scan mode: missing or period (default: inferred)")
	checkCmd.Flags().StringVar(&period, "period", "", "Only refresh mods updated within this period (e.g. 1d, 1w, 1m)")
	checkCmd.Flags().BoolVar(&categoryReset, "category-reset", false, "Re-query every identified mod to refresh categories")
	checkCmd.Flags().BoolVar(&overrideLocalNames, "override-local-names", false, "Explicitly preserve local mod names when merging catalog records")
	checkCmd.Flags().IntVar(&batchSize, "batch-size", reconcile.DefaultBatchSize, "Mods per catalog request")
	checkCmd.Flags().IntVar(&retries, "retries", 0, "Extra attempts when the catalog returns no info for a batch")
	checkCmd.Flags().DurationVar(&retryDelay, "retry-delay", catalog.DefaultRetryDelay, "Pause between attempts")
	checkCmd.Flags().Float64Var(&rateLimit, "rate-limit", 0, fmt.Sprintf("Catalog requests per second, negative disables (default %g)", catalog.DefaultRateLimit))
	checkCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask before large checks")
	checkCmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record observed versions")
	rootCmd.AddCommand(checkCmd)
}

func confirmCandidates(n int) bool {
	if assumeYes || n <= confirmThreshold {
		return true
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		logging.Warnf("Refusing to check %d mods without --yes\n", n)
		return false
	}
	fmt.Fprintf(os.Stderr, "Query the catalog for %d mods? [y/N] ", n)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// progressReporter draws task progress on stderr.
type progressReporter struct {
	enabled bool

	mu  sync.Mutex
	bar *progressbar.ProgressBar
	max int64
}

func newProgressReporter(enabled bool) *progressReporter {
	return &progressReporter{enabled: enabled}
}

func (r *progressReporter) update(s progress.State) {
	if !r.enabled || s.OverallMax <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar == nil || r.max != s.OverallMax {
		r.bar = progressbar.NewOptions64(s.OverallMax,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Checking"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionClearOnFinish(),
		)
		r.max = s.OverallMax
	}
	if s.Message != "" {
		r.bar.Describe(s.Message)
	}
	_ = r.bar.Set64(s.OverallCurrent)
}

func (r *progressReporter) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
}
