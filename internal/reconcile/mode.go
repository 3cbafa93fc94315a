// Package reconcile matches catalog records back to local mods and merges
// what the catalog knows into them.
//
// Matching is heuristic. A record that cannot be tied to a local mod is
// dropped, and two mods with near-identical file names may be confused when
// neither carries a real identifier.
package reconcile

import (
	"fmt"
	"strings"
)

// ScanMode selects which mods are queried and how records are matched.
// A run uses exactly one mode.
type ScanMode int

const (
	// MissingIdentifierOnly looks up mods that lack a catalog or download id.
	MissingIdentifierOnly ScanMode = iota
	// PeriodOrCategoryReset refreshes mods updated within a period, or every
	// identified mod when categories are being reset.
	PeriodOrCategoryReset
)

func (m ScanMode) String() string {
	switch m {
	case MissingIdentifierOnly:
		return "missing"
	case PeriodOrCategoryReset:
		return "period"
	default:
		return fmt.Sprintf("ScanMode(%d)", int(m))
	}
}

// ParseScanMode accepts the names printed by String.
func ParseScanMode(s string) (ScanMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "missing", "missing-ids":
		return MissingIdentifierOnly, nil
	case "period", "", "updated":
		return PeriodOrCategoryReset, nil
	default:
		return 0, fmt.Errorf("invalid scan mode %q (use missing or period)", s)
	}
}
