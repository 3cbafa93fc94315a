package updater

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/caedis/mod-update-checker/internal/history"
	"github.com/caedis/mod-update-checker/internal/logging"
	"github.com/caedis/mod-update-checker/internal/report"
)

// Status prints what the last check learned about each tracked mod. It
// works from saved state only and never contacts the catalog.
func Status(instanceDir string, onlyUpdates bool) ([]report.ModStatus, error) {
	state, err := loadAndLogState(instanceDir)
	if err != nil {
		return nil, err
	}

	checked := "never"
	if !state.LastChecked.IsZero() {
		checked = humanize.Time(state.LastChecked)
	}
	logging.Infof("Mods:         %d\n", len(state.Mods))
	logging.Infof("Last checked: %s\n", checked)

	all := report.Compute(state, nil)
	updates, upToDate, unknown, disabled := report.Summary(all)
	logging.Infof("Summary: %d update(s) available, %d up to date, %d unknown, %d with checks disabled\n", updates, upToDate, unknown, disabled)

	statuses := all
	if onlyUpdates {
		statuses = report.Compute(state, &report.ComputeOptions{OnlyUpdates: true})
	}
	for _, s := range statuses {
		logging.Infoln(formatStatusLine(s))
	}
	return statuses, nil
}

func formatStatusLine(s report.ModStatus) string {
	name := s.Filename
	if s.ModName != "" {
		name = fmt.Sprintf("%s (%s)", s.ModName, s.Filename)
	}
	switch s.Status {
	case report.UpdateAvailable:
		marker := " "
		if s.Warn {
			marker = "!"
		}
		return fmt.Sprintf("%s %s: %s -> %s", marker, name, orDash(s.InstalledVersion), s.LatestVersion)
	case report.UpToDate:
		return fmt.Sprintf("  %s: %s", name, orDash(s.InstalledVersion))
	default:
		return fmt.Sprintf("  %s: %s", name, s.Status)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// History lists the versions recorded for filename, newest first. An empty
// filename lists every mod.
func History(instanceDir, filename string, limit int) ([]history.Entry, error) {
	if _, err := loadAndLogState(instanceDir); err != nil {
		return nil, err
	}
	store, err := history.Open(instanceDir)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	entries, err := store.List(filename, limit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	for _, e := range entries {
		logging.Infof("%-40s %-12s %s\n", e.Filename, e.Version, humanize.Time(e.ObservedAt))
	}
	return entries, nil
}
