// Package library holds the locally managed mod records and the
// instance state file that persists them.
package library

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caedis/mod-update-checker/internal/version"
)

const (
	// UnknownID marks an identifier the catalog has not issued yet.
	UnknownID = "0"
	// NotApplicableID marks an identifier the catalog will never issue.
	NotApplicableID = "-1"
)

const (
	CategoryUnset      = -1
	CategoryUnassigned = 0
)

// IsRealID reports whether id is a catalog-issued identifier rather than
// empty or one of the sentinel values.
func IsRealID(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && id != UnknownID && id != NotApplicableID
}

// Endorsement is the user's endorsement state for a mod on the catalog.
type Endorsement int

const (
	EndorsementUnknown Endorsement = iota
	Endorsed
	Abstained
)

func (e Endorsement) String() string {
	switch e {
	case Endorsed:
		return "endorsed"
	case Abstained:
		return "abstained"
	default:
		return "unknown"
	}
}

func (e Endorsement) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *Endorsement) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "unknown":
		*e = EndorsementUnknown
	case "endorsed", "true":
		*e = Endorsed
	case "abstained", "false":
		*e = Abstained
	default:
		return fmt.Errorf("invalid endorsement %q", text)
	}
	return nil
}

// ManagedMod is one mod archive tracked in an instance.
type ManagedMod struct {
	Filename             string          `json:"filename"`
	ModName              string          `json:"mod_name,omitempty"`
	CatalogID            string          `json:"catalog_id,omitempty"`
	DownloadID           string          `json:"download_id,omitempty"`
	HumanReadableVersion string          `json:"version,omitempty"`
	MachineVersion       version.Version `json:"machine_version,omitzero"`
	LastKnownVersion     string          `json:"last_known_version,omitempty"`
	CustomCategoryID     int             `json:"category_id"`
	IsEndorsed           Endorsement     `json:"endorsed"`
	UpdateWarningEnabled bool            `json:"update_warning"`
	UpdateChecksEnabled  bool            `json:"update_checks"`
	LastChecked          time.Time       `json:"last_checked,omitzero"`
}

// NewManagedMod returns a record for a freshly discovered archive.
func NewManagedMod(filename string) *ManagedMod {
	return &ManagedMod{
		Filename:             filename,
		CustomCategoryID:     CategoryUnset,
		UpdateWarningEnabled: true,
		UpdateChecksEnabled:  true,
	}
}

// BaseName returns the archive file name without its directory.
func (m *ManagedMod) BaseName() string {
	return filepath.Base(m.Filename)
}

// RemoteModInfo is one record returned by the catalog for a query line.
type RemoteModInfo struct {
	CatalogID            string          `json:"catalog_id" yaml:"catalog_id"`
	DownloadID           string          `json:"download_id" yaml:"download_id"`
	FileName             string          `json:"file_name" yaml:"file_name"`
	ModName              string          `json:"mod_name" yaml:"mod_name"`
	HumanReadableVersion string          `json:"version" yaml:"version"`
	MachineVersion       version.Version `json:"machine_version" yaml:"machine_version"`
	CustomCategoryID     int             `json:"category_id" yaml:"category_id"`
	IsEndorsed           Endorsement     `json:"endorsed" yaml:"endorsed"`
	UpdateWarningEnabled bool            `json:"update_warning" yaml:"update_warning"`
	UpdateChecksEnabled  bool            `json:"update_checks" yaml:"update_checks"`
}

// UpdateInfo applies a merged catalog record onto the local mod.
//
// The download id is left alone; newly learned download ids are applied
// separately with State.ApplyDiscovered. A nil preserveLocalName lets the
// catalog name replace the local one; a true value keeps a non-empty local name.
func (m *ManagedMod) UpdateInfo(info RemoteModInfo, preserveLocalName *bool) {
	if !IsRealID(m.CatalogID) && IsRealID(info.CatalogID) {
		m.CatalogID = info.CatalogID
	}

	keepName := preserveLocalName != nil && *preserveLocalName && m.ModName != ""
	if !keepName && info.ModName != "" {
		m.ModName = info.ModName
	}

	if info.HumanReadableVersion != "" {
		m.LastKnownVersion = info.HumanReadableVersion
	}
	if info.CustomCategoryID != CategoryUnset {
		m.CustomCategoryID = info.CustomCategoryID
	}
	if info.IsEndorsed != EndorsementUnknown {
		m.IsEndorsed = info.IsEndorsed
	}
	m.UpdateWarningEnabled = info.UpdateWarningEnabled
	m.UpdateChecksEnabled = info.UpdateChecksEnabled
	m.LastChecked = time.Now().UTC()
}

// UpdateAvailable reports whether the catalog has announced a version newer
// than the installed one.
func (m *ManagedMod) UpdateAvailable() bool {
	if m.LastKnownVersion == "" {
		return false
	}
	installed := m.MachineVersion
	if installed.IsZero() {
		installed = version.Parse(m.HumanReadableVersion)
	}
	return version.Parse(m.LastKnownVersion).Newer(installed)
}
