package reconcile

import (
	"path/filepath"
	"strings"

	"github.com/caedis/mod-update-checker/internal/library"
)

// MatchInput is what a Strategy sees for one catalog record.
type MatchInput struct {
	Remote     library.RemoteModInfo
	Candidates []*library.ManagedMod
	// Positional is the mod whose query line sat at the same index as the
	// record in the catalog answer, if any.
	Positional *library.ManagedMod
}

// Strategy is one matching tier.
type Strategy interface {
	Name() string
	Match(in MatchInput) *library.ManagedMod
}

// Matcher tries its strategies in order and returns the first hit.
type Matcher struct {
	strategies []Strategy
}

// NewMatcher returns the tiers used in mode.
func NewMatcher(mode ScanMode) *Matcher {
	if mode == MissingIdentifierOnly {
		return &Matcher{strategies: []Strategy{StrippedName{}, DownloadID{}, Positional{}}}
	}
	return &Matcher{strategies: []Strategy{ExactFilename{}, DownloadID{}}}
}

// NewMatcherWith builds a matcher from explicit strategies.
func NewMatcherWith(strategies ...Strategy) *Matcher {
	return &Matcher{strategies: strategies}
}

// Strategies lists the tiers in the order they are tried.
func (m *Matcher) Strategies() []Strategy {
	return append([]Strategy(nil), m.strategies...)
}

// Match returns the matched mod and the name of the tier that matched it,
// or nil and "" when no tier matched.
func (m *Matcher) Match(in MatchInput) (*library.ManagedMod, string) {
	for _, s := range m.strategies {
		if mod := s.Match(in); mod != nil {
			return mod, s.Name()
		}
	}
	return nil, ""
}

// ExactFilename matches on equal base file names, ignoring case.
type ExactFilename struct{}

func (ExactFilename) Name() string { return "exact-filename" }

func (ExactFilename) Match(in MatchInput) *library.ManagedMod {
	if in.Remote.FileName == "" {
		return nil
	}
	for _, mod := range in.Candidates {
		if sameFile(mod.Filename, in.Remote.FileName) {
			return mod
		}
	}
	return nil
}

// StrippedName matches on equal StripFileName output, trying the local name
// as is and with underscores read as spaces. Both sides are stripped with the
// record's catalog id when it is real, since the local id is usually what is
// missing. Several hits resolve only when exactly one of them shares the
// record's real catalog id; otherwise the tier defers.
type StrippedName struct{}

func (StrippedName) Name() string { return "stripped-name" }

func (StrippedName) Match(in MatchInput) *library.ManagedMod {
	if in.Remote.FileName == "" {
		return nil
	}

	var hits []*library.ManagedMod
	for _, mod := range in.Candidates {
		id := in.Remote.CatalogID
		if !library.IsRealID(id) {
			id = mod.CatalogID
		}
		want := normalizedStrip(in.Remote.FileName, id)
		if want == "" {
			continue
		}
		local := mod.BaseName()
		if normalizedStrip(local, id) == want ||
			normalizedStrip(strings.ReplaceAll(local, "_", " "), id) == want {
			hits = append(hits, mod)
		}
	}

	switch len(hits) {
	case 0:
		return nil
	case 1:
		return hits[0]
	}

	if !library.IsRealID(in.Remote.CatalogID) {
		return nil
	}
	var pick *library.ManagedMod
	for _, mod := range hits {
		if mod.CatalogID == in.Remote.CatalogID {
			if pick != nil {
				return nil
			}
			pick = mod
		}
	}
	return pick
}

// DownloadID matches on an equal real download id.
type DownloadID struct{}

func (DownloadID) Name() string { return "download-id" }

func (DownloadID) Match(in MatchInput) *library.ManagedMod {
	if !library.IsRealID(in.Remote.DownloadID) {
		return nil
	}
	for _, mod := range in.Candidates {
		if mod.DownloadID == in.Remote.DownloadID {
			return mod
		}
	}
	return nil
}

// Positional matches the mod queried at the record's position when both
// carry the same real catalog id.
type Positional struct{}

func (Positional) Name() string { return "positional" }

func (Positional) Match(in MatchInput) *library.ManagedMod {
	mod := in.Positional
	if mod == nil || !library.IsRealID(in.Remote.CatalogID) {
		return nil
	}
	if mod.CatalogID == in.Remote.CatalogID {
		return mod
	}
	return nil
}

func normalizedStrip(fileName, id string) string {
	return StripFileName(strings.ToLower(fileName), strings.ToLower(id))
}

func sameFile(a, b string) bool {
	return strings.EqualFold(filepath.Base(filepath.FromSlash(a)), filepath.Base(filepath.FromSlash(b)))
}
