package library

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caedis/mod-update-checker/internal/logging"
)

var archiveExts = map[string]bool{
	".zip":   true,
	".7z":    true,
	".rar":   true,
	".fomod": true,
	".omod":  true,
}

// IsArchive reports whether name carries a mod archive extension.
func IsArchive(name string) bool {
	return archiveExts[strings.ToLower(filepath.Ext(name))]
}

// ScanResult summarizes how a scan changed the managed mod set.
type ScanResult struct {
	Added   []string
	Removed []string
	Kept    int
}

// Scan walks modsDir and reconciles the archives found there with the
// managed mods in s. Known records are kept untouched, new archives are added
// with default settings, and records whose file disappeared are dropped.
// Filenames are stored relative to modsDir with forward slashes.
func (s *State) Scan(modsDir string) (ScanResult, error) {
	var result ScanResult

	found := make(map[string]string)
	err := filepath.WalkDir(modsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if path != modsDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsArchive(d.Name()) {
			logging.Debugf("Verbose: non-archive file skipped during scan: %s\n", d.Name())
			return nil
		}

		rel, err := filepath.Rel(modsDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		found[strings.ToLower(rel)] = rel
		return nil
	})
	if err != nil {
		return result, err
	}

	kept := s.Mods[:0]
	for _, m := range s.Mods {
		key := strings.ToLower(filepath.ToSlash(m.Filename))
		if _, ok := found[key]; !ok {
			logging.Debugf("Verbose: archive no longer present, dropping: %s\n", m.Filename)
			result.Removed = append(result.Removed, m.Filename)
			continue
		}
		delete(found, key)
		kept = append(kept, m)
		result.Kept++
	}
	s.Mods = kept

	for _, rel := range found {
		logging.Debugf("Verbose: new archive registered: %s\n", rel)
		s.Mods = append(s.Mods, NewManagedMod(rel))
		result.Added = append(result.Added, rel)
	}

	s.sort()
	return result, nil
}
