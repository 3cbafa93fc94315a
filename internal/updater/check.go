package updater

import (
	"context"

	"github.com/caedis/mod-update-checker/internal/logging"
	"github.com/caedis/mod-update-checker/internal/reconcile"
	"github.com/caedis/mod-update-checker/internal/report"
)

// Check rescans the instance, asks the catalog about its mods and records
// what it learned. Work merged before a cancellation or a failed batch is
// still saved.
func Check(ctx context.Context, opts Options) (*CheckResult, error) {
	opts = normalizeCheckOptions(opts)
	logCheckStart(opts)

	state, err := loadAndLogState(opts.InstanceDir)
	if err != nil {
		return nil, err
	}

	scan, err := refreshTrackedMods(state, opts.InstanceDir)
	if err != nil {
		return nil, err
	}

	mode, err := resolveScanMode(opts.Mode, state, opts.CategoryReset, len(scan.Added))
	if err != nil {
		return nil, err
	}
	period := resolvePeriod(opts.Period, state)

	client, err := newCatalogClient(opts, state)
	if err != nil {
		return nil, err
	}

	taskOpts := reconcile.Options{
		Mode:               mode,
		Period:             period,
		CategoryReset:      opts.CategoryReset,
		OverrideLocalNames: opts.OverrideLocalNames,
		BatchSize:          opts.BatchSize,
		Retries:            opts.Retries,
		RetryDelay:         opts.RetryDelay,
		Listener:           opts.Listener,
	}
	if store := openHistory(opts); store != nil {
		defer store.Close()
		taskOpts.Versions = store
	}

	if period != "" && mode == reconcile.PeriodOrCategoryReset {
		logging.Infof("Checking %d mods (mode %s, period %s)\n", len(state.Mods), mode, period)
	} else {
		logging.Infof("Checking %d mods (mode %s)\n", len(state.Mods), mode)
	}

	task := reconcile.NewTask(client, state.Mods, taskOpts)
	outcome := <-task.Start(ctx, opts.Confirm)
	res := outcome.Result

	result := &CheckResult{
		RunID:         res.RunID,
		Mode:          mode,
		Status:        res.Status,
		Scan:          scan,
		Candidates:    res.Candidates,
		Queried:       res.Queried,
		Matched:       res.Matched,
		Unmatched:     res.Unmatched,
		Duplicates:    res.Duplicates,
		NoInfoBatches: res.NoInfoBatches,
		Processed:     res.Processed,
	}

	applied, saveErr := persistState(state, opts.InstanceDir, res.Discovered, res.Status == reconcile.Completed)
	result.Discovered = applied
	updates, _, _, _ := report.Summary(report.Compute(state, &report.ComputeOptions{OnlyUpdates: true}))
	result.Updates = updates

	if outcome.Err != nil {
		return result, outcome.Err
	}
	if saveErr != nil {
		return result, saveErr
	}

	switch res.Status {
	case reconcile.Cancelled:
		logging.Infof("Check cancelled after %d of %d mods; partial results saved.\n", res.Processed, res.Queried)
	default:
		logging.Infof("Checked %d mods: %d matched, %d unmatched, %d new download ids.\n", res.Queried, res.Matched, res.Unmatched, applied)
		if res.NoInfoBatches > 0 {
			logging.Warnf("%d batch(es) returned no catalog info\n", res.NoInfoBatches)
		}
		logging.Infof("%d update(s) available.\n", updates)
	}
	return result, nil
}
