package updater

import (
	"github.com/caedis/mod-update-checker/internal/library"
	"github.com/caedis/mod-update-checker/internal/reconcile"
)

// resolveScanMode picks the scan mode for a check. An explicit mode wins.
// Otherwise unidentified mods are looked up when the instance was never
// checked or the scan just found new archives. Mods the catalog did not know
// last time are not retried on every run.
func resolveScanMode(mode string, state *library.State, categoryReset bool, newArchives int) (reconcile.ScanMode, error) {
	if mode != "" {
		return reconcile.ParseScanMode(mode)
	}
	if categoryReset || state == nil {
		return reconcile.PeriodOrCategoryReset, nil
	}
	if !state.LastChecked.IsZero() && newArchives == 0 {
		return reconcile.PeriodOrCategoryReset, nil
	}
	for _, m := range state.Mods {
		if !library.IsRealID(m.CatalogID) {
			return reconcile.MissingIdentifierOnly, nil
		}
	}
	return reconcile.PeriodOrCategoryReset, nil
}

// resolvePeriod falls back to the period recorded at init time.
func resolvePeriod(period string, state *library.State) string {
	if period != "" || state == nil {
		return period
	}
	return state.Period
}
