package updater

import (
	"time"

	"github.com/caedis/mod-update-checker/internal/catalog"
	"github.com/caedis/mod-update-checker/internal/library"
	"github.com/caedis/mod-update-checker/internal/progress"
	"github.com/caedis/mod-update-checker/internal/reconcile"
)

type Options struct {
	InstanceDir        string
	GameID             string
	CatalogURL         string
	CatalogFile        string
	APIKey             string
	Mode               string
	Period             string
	CategoryReset      bool
	OverrideLocalNames bool
	BatchSize          int
	Retries            int
	RetryDelay         time.Duration
	RateLimit          float64
	NoHistory          bool

	// Confirm is asked with the number of candidate mods before the catalog
	// is contacted. Nil means proceed.
	Confirm  func(candidates int) bool
	Listener progress.Listener

	// Client overrides the catalog built from CatalogURL or CatalogFile.
	Client catalog.Client
}

type InitOptions struct {
	ModsDir    string
	GameID     string
	CatalogURL string
	Period     string
}

type CheckResult struct {
	RunID         string
	Mode          reconcile.ScanMode
	Status        reconcile.Status
	Scan          library.ScanResult
	Candidates    int
	Queried       int
	Matched       int
	Unmatched     int
	Duplicates    int
	NoInfoBatches int
	Processed     int
	Discovered    int
	Updates       int
}
