// Package report classifies managed mods by update status after a check.
package report

import (
	"github.com/caedis/mod-update-checker/internal/library"
)

type Status int

const (
	UpdateAvailable Status = iota
	UpToDate
	Unknown
	ChecksDisabled
)

func (s Status) String() string {
	switch s {
	case UpdateAvailable:
		return "update available"
	case UpToDate:
		return "up to date"
	case ChecksDisabled:
		return "checks disabled"
	default:
		return "unknown"
	}
}

type ModStatus struct {
	Filename         string
	ModName          string
	Status           Status
	InstalledVersion string
	LatestVersion    string
	Warn             bool
}

// ComputeOptions narrows the report.
type ComputeOptions struct {
	// OnlyUpdates drops every mod without an available update.
	OnlyUpdates bool
}

// Compute reports each mod in state, in state order.
func Compute(state *library.State, opts *ComputeOptions) []ModStatus {
	var out []ModStatus
	for _, m := range state.Mods {
		ms := ModStatus{
			Filename:         m.Filename,
			ModName:          m.ModName,
			InstalledVersion: m.HumanReadableVersion,
			LatestVersion:    m.LastKnownVersion,
		}
		switch {
		case !m.UpdateChecksEnabled:
			ms.Status = ChecksDisabled
		case !library.IsRealID(m.CatalogID) || m.LastKnownVersion == "":
			ms.Status = Unknown
		case m.UpdateAvailable():
			ms.Status = UpdateAvailable
			ms.Warn = m.UpdateWarningEnabled
		default:
			ms.Status = UpToDate
		}

		if opts != nil && opts.OnlyUpdates && ms.Status != UpdateAvailable {
			continue
		}
		out = append(out, ms)
	}
	return out
}

// Summary returns counts by status.
func Summary(statuses []ModStatus) (updates, upToDate, unknown, disabled int) {
	for _, s := range statuses {
		switch s.Status {
		case UpdateAvailable:
			updates++
		case UpToDate:
			upToDate++
		case Unknown:
			unknown++
		case ChecksDisabled:
			disabled++
		}
	}
	return
}
