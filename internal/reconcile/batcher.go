package reconcile

import (
	"context"
	"fmt"

	"github.com/caedis/mod-update-checker/internal/catalog"
	"github.com/caedis/mod-update-checker/internal/library"
	"github.com/caedis/mod-update-checker/internal/logging"
)

const DefaultBatchSize = 25

// BatchOptions tunes which mods a PeriodOrCategoryReset run queries.
type BatchOptions struct {
	// Period limits the run to mods the catalog reports as updated within it.
	Period string
	// CategoryReset re-queries every mod that already carries both ids.
	CategoryReset bool
	BatchSize     int
}

// Rule identifies which inclusion rule decided a mod's fate.
type Rule int

const (
	RuleMissingNoCatalogID Rule = iota + 1
	RuleMissingHasCatalogID
	RuleCategoryReset
	RulePeriodHasCatalogID
	RulePeriodNoCatalogID
	RuleNoPeriod
)

func (r Rule) String() string {
	switch r {
	case RuleMissingNoCatalogID:
		return "missing/no-catalog-id"
	case RuleMissingHasCatalogID:
		return "missing/has-catalog-id"
	case RuleCategoryReset:
		return "category-reset"
	case RulePeriodHasCatalogID:
		return "period/has-catalog-id"
	case RulePeriodNoCatalogID:
		return "period/no-catalog-id"
	case RuleNoPeriod:
		return "no-period"
	default:
		return fmt.Sprintf("Rule(%d)", int(r))
	}
}

// Classify decides whether mod is queried. updated holds the catalog ids
// reported for the period and is only consulted when a period is set.
// Exactly one rule applies to every mod.
func Classify(mod *library.ManagedMod, mode ScanMode, opts BatchOptions, updated map[string]bool) (Rule, bool) {
	hasCatalogID := library.IsRealID(mod.CatalogID)

	if mode == MissingIdentifierOnly {
		if !hasCatalogID {
			return RuleMissingNoCatalogID, true
		}
		return RuleMissingHasCatalogID, !library.IsRealID(mod.DownloadID)
	}

	switch {
	case opts.CategoryReset && hasCatalogID && library.IsRealID(mod.DownloadID):
		return RuleCategoryReset, true
	case opts.Period != "" && hasCatalogID:
		return RulePeriodHasCatalogID, updated[mod.CatalogID]
	case opts.Period != "":
		return RulePeriodNoCatalogID, false
	default:
		return RuleNoPeriod, true
	}
}

// Batch is one catalog query: the lines sent and the mods they were built
// from, index aligned.
type Batch struct {
	Lines []catalog.QueryLine
	Mods  []*library.ManagedMod
}

// Batcher turns candidate mods into catalog queries.
type Batcher struct {
	Client  catalog.Client
	Mode    ScanMode
	Options BatchOptions
}

// Build classifies candidates in order and cuts the included ones into
// batches of Options.BatchSize lines. With a period set in
// PeriodOrCategoryReset mode it makes one GetUpdated call first.
func (b *Batcher) Build(ctx context.Context, candidates []*library.ManagedMod) ([]Batch, error) {
	var updated map[string]bool
	if b.Mode == PeriodOrCategoryReset && b.Options.Period != "" {
		ids, err := b.Client.GetUpdated(ctx, b.Options.Period)
		if err != nil {
			return nil, fmt.Errorf("fetching mods updated within %s: %w", b.Options.Period, err)
		}
		updated = make(map[string]bool, len(ids))
		for _, id := range ids {
			updated[id] = true
		}
		logging.Debugf("Verbose: catalog reports %d mods updated within %s\n", len(updated), b.Options.Period)
	}

	size := b.Options.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	var batches []Batch
	var cur Batch
	for _, mod := range candidates {
		rule, include := Classify(mod, b.Mode, b.Options, updated)
		if !include {
			logging.Debugf("Verbose: %s skipped (%s)\n", mod.Filename, rule)
			continue
		}

		cur.Lines = append(cur.Lines, queryLine(mod, rule))
		cur.Mods = append(cur.Mods, mod)
		if len(cur.Lines) == size {
			batches = append(batches, cur)
			cur = Batch{}
		}
	}
	if len(cur.Lines) > 0 {
		batches = append(batches, cur)
	}
	return batches, nil
}

func queryLine(mod *library.ManagedMod, rule Rule) catalog.QueryLine {
	if rule == RuleCategoryReset {
		return catalog.QueryLine{CatalogID: mod.CatalogID, DownloadID: mod.DownloadID, Legacy: true}
	}
	catalogID := mod.CatalogID
	if !library.IsRealID(catalogID) {
		catalogID = library.UnknownID
	}
	downloadID := mod.DownloadID
	if !library.IsRealID(downloadID) {
		downloadID = library.UnknownID
	}
	return catalog.QueryLine{
		Name:       StripFileName(mod.BaseName(), mod.CatalogID),
		CatalogID:  catalogID,
		DownloadID: downloadID,
		FileName:   mod.BaseName(),
	}
}
