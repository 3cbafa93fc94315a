package reconcile

import (
	"strings"

	"github.com/caedis/mod-update-checker/internal/library"
	"github.com/caedis/mod-update-checker/internal/logging"
)

// VersionTracker is told about every version observed for a matched mod.
type VersionTracker interface {
	RecordNewVersion(mod *library.ManagedMod, info library.RemoteModInfo) error
}

// Writer merges matched catalog records into local mods.
type Writer struct {
	Mode       ScanMode
	Discovered *DiscoveredIDs
}

// Merge folds remote into local and returns the record that was applied.
//
// Local user preferences win over the catalog: update flags always come from
// local, as does a real user category. In MissingIdentifierOnly mode the
// local versions and category are kept too and a verified new download id is
// recorded in Discovered rather than written to local.
//
// The local name survives whenever it is non-empty. With overrideLocalNames
// the catalog name is dropped and the local name explicitly preserved;
// without it the local name is copied over the catalog name.
func (w *Writer) Merge(local *library.ManagedMod, remote library.RemoteModInfo, overrideLocalNames bool) library.RemoteModInfo {
	if w.Mode == MissingIdentifierOnly &&
		library.IsRealID(remote.DownloadID) &&
		remote.DownloadID != local.DownloadID &&
		w.verified(local, remote) {
		if w.Discovered.Add(local.Filename, remote.DownloadID) {
			logging.Debugf("Verbose: discovered download id %s for %s\n", remote.DownloadID, local.Filename)
		}
	}

	if strings.TrimSpace(remote.DownloadID) == "" && local.DownloadID != "" {
		remote.DownloadID = local.DownloadID
	}

	if w.Mode == MissingIdentifierOnly {
		remote.HumanReadableVersion = local.HumanReadableVersion
		remote.MachineVersion = local.MachineVersion
		remote.CustomCategoryID = local.CustomCategoryID
	}

	if local.CustomCategoryID != library.CategoryUnassigned && local.CustomCategoryID != library.CategoryUnset {
		remote.CustomCategoryID = local.CustomCategoryID
	}

	remote.UpdateWarningEnabled = local.UpdateWarningEnabled
	remote.UpdateChecksEnabled = local.UpdateChecksEnabled

	var preserve *bool
	if overrideLocalNames && local.ModName != "" {
		remote.ModName = ""
	} else {
		remote.ModName = local.ModName
	}
	if overrideLocalNames {
		preserve = &overrideLocalNames
	}

	local.UpdateInfo(remote, preserve)
	return remote
}

func (w *Writer) verified(local *library.ManagedMod, remote library.RemoteModInfo) bool {
	if sameFile(local.Filename, remote.FileName) {
		return true
	}
	return library.IsRealID(local.CatalogID) && local.CatalogID == remote.CatalogID
}
