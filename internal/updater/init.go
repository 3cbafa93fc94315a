package updater

import (
	"errors"
	"fmt"

	"github.com/caedis/mod-update-checker/internal/library"
	"github.com/caedis/mod-update-checker/internal/logging"
)

// Init starts tracking the archives in an instance's mods directory.
// Re-running it keeps per-mod settings and identifiers already recorded.
func Init(instanceDir string, opts InitOptions) (*library.ScanResult, error) {
	logging.Debugf("Verbose: init start instance=%q mods-dir=%q game=%q catalog-url=%q period=%q\n",
		instanceDir, opts.ModsDir, opts.GameID, opts.CatalogURL, opts.Period)

	state, err := library.Load(instanceDir)
	switch {
	case errors.Is(err, library.ErrNoInstanceState):
		state = &library.State{}
	case err != nil:
		return nil, err
	default:
		logging.Infof("Re-initializing existing instance (%d mods tracked)\n", len(state.Mods))
	}

	if opts.ModsDir != "" {
		state.ModsDir = opts.ModsDir
	}
	if opts.GameID != "" {
		state.GameID = opts.GameID
	}
	if opts.CatalogURL != "" {
		state.CatalogURL = opts.CatalogURL
	}
	if opts.Period != "" {
		state.Period = opts.Period
	}

	modsDir := state.ModsPath(instanceDir)
	logging.Infof("Scanning %s...\n", modsDir)
	res, err := state.Scan(modsDir)
	if err != nil {
		return nil, fmt.Errorf("scanning mods directory: %w", err)
	}

	if err := state.Save(instanceDir); err != nil {
		return nil, fmt.Errorf("saving state: %w", err)
	}

	logging.Infof("Tracking %d mods (%d new, %d no longer present)\n", len(state.Mods), len(res.Added), len(res.Removed))
	return &res, nil
}
