package library

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Find returns the mods whose file name or display name fuzzily matches
// query, closest match first.
func (s *State) Find(query string) []*ManagedMod {
	if query == "" {
		return nil
	}

	targets := make([]string, 0, len(s.Mods)*2)
	owners := make([]*ManagedMod, 0, len(s.Mods)*2)
	for _, m := range s.Mods {
		targets = append(targets, m.BaseName())
		owners = append(owners, m)
		if m.ModName != "" {
			targets = append(targets, m.ModName)
			owners = append(owners, m)
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	sort.Stable(ranks)

	seen := make(map[*ManagedMod]bool)
	var out []*ManagedMod
	for _, r := range ranks {
		m := owners[r.OriginalIndex]
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
