package updater

import (
	"errors"
	"fmt"
	"time"

	"github.com/caedis/mod-update-checker/internal/catalog"
	"github.com/caedis/mod-update-checker/internal/history"
	"github.com/caedis/mod-update-checker/internal/library"
	"github.com/caedis/mod-update-checker/internal/logging"
	"github.com/caedis/mod-update-checker/internal/reconcile"
)

func normalizeCheckOptions(opts Options) Options {
	if opts.BatchSize < 1 {
		opts.BatchSize = reconcile.DefaultBatchSize
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = catalog.DefaultRetryDelay
	}
	return opts
}

func logCheckStart(opts Options) {
	logging.Debugf(
		"Verbose: check start instance=%q mode=%q period=%q category-reset=%t batch-size=%d retries=%d retry-delay=%s catalog-url=%q catalog-file=%q api-key=%t\n",
		opts.InstanceDir,
		opts.Mode,
		opts.Period,
		opts.CategoryReset,
		opts.BatchSize,
		opts.Retries,
		opts.RetryDelay,
		opts.CatalogURL,
		opts.CatalogFile,
		opts.APIKey != "",
	)
}

func loadAndLogState(instanceDir string) (*library.State, error) {
	state, err := library.Load(instanceDir)
	if err != nil {
		return nil, err
	}
	logging.Debugf(
		"Verbose: loaded state game=%q mods-dir=%q period=%q mods=%d last-checked=%s\n",
		state.GameID,
		state.ModsDir,
		state.Period,
		len(state.Mods),
		state.LastChecked.Format(time.RFC3339),
	)
	return state, nil
}

// refreshTrackedMods rescans the mods directory so the check works on what
// is actually installed.
func refreshTrackedMods(state *library.State, instanceDir string) (library.ScanResult, error) {
	res, err := state.Scan(state.ModsPath(instanceDir))
	if err != nil {
		return res, fmt.Errorf("scanning mods directory: %w", err)
	}
	if len(res.Added) > 0 || len(res.Removed) > 0 {
		logging.Infof("Mods directory changed: %d new, %d removed\n", len(res.Added), len(res.Removed))
	}
	return res, nil
}

func newCatalogClient(opts Options, state *library.State) (catalog.Client, error) {
	if opts.Client != nil {
		return opts.Client, nil
	}
	if opts.CatalogFile != "" {
		logging.Debugf("Verbose: using catalog file %s\n", opts.CatalogFile)
		return catalog.LoadFile(opts.CatalogFile)
	}

	url := opts.CatalogURL
	if url == "" {
		url = state.CatalogURL
	}
	if url == "" {
		return nil, errors.New("no catalog configured: pass --catalog-url or --catalog-file")
	}
	game := opts.GameID
	if game == "" {
		game = state.GameID
	}

	httpOpts := []catalog.HTTPOption{catalog.WithAPIKey(opts.APIKey)}
	if opts.RateLimit != 0 {
		httpOpts = append(httpOpts, catalog.WithRateLimit(opts.RateLimit))
	}
	logging.Debugf("Verbose: using catalog %s game=%q\n", url, game)
	return catalog.NewHTTPClient(url, game, httpOpts...)
}

// openHistory returns nil when history is disabled or cannot be opened.
// A broken history database never blocks a check.
func openHistory(opts Options) *history.Store {
	if opts.NoHistory {
		return nil
	}
	store, err := history.Open(opts.InstanceDir)
	if err != nil {
		logging.Warnf("Version history disabled: %v\n", err)
		return nil
	}
	return store
}

func persistState(state *library.State, instanceDir string, discovered map[string]string, completed bool) (int, error) {
	applied := state.ApplyDiscovered(discovered)
	if completed {
		state.LastChecked = time.Now()
	}
	if err := state.Save(instanceDir); err != nil {
		return applied, fmt.Errorf("saving state: %w", err)
	}
	logging.Debugf("Verbose: state saved discovered=%d completed=%t\n", applied, completed)
	return applied, nil
}
