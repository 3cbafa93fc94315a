package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const StateFile = ".mod-update-checker.json"

// ErrNoInstanceState is returned by Load when the instance was never initialized.
var ErrNoInstanceState = errors.New("no instance state")

// State is the persisted view of one mod instance.
type State struct {
	GameID      string        `json:"game_id,omitempty"`
	ModsDir     string        `json:"mods_dir"`
	CatalogURL  string        `json:"catalog_url,omitempty"`
	Period      string        `json:"period,omitempty"`
	LastChecked time.Time     `json:"last_checked,omitzero"`
	Mods        []*ManagedMod `json:"mods"`
}

// Load reads the state file from the instance directory.
func Load(instanceDir string) (*State, error) {
	path := filepath.Join(instanceDir, StateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no %s found - run 'init' first", ErrNoInstanceState, StateFile)
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}

	// Older files stored mods as a filename keyed object.
	if len(state.Mods) == 0 {
		var legacy struct {
			Mods map[string]*ManagedMod `json:"mod_index"`
		}
		_ = json.Unmarshal(data, &legacy)
		for name, mod := range legacy.Mods {
			if mod == nil {
				continue
			}
			if mod.Filename == "" {
				mod.Filename = name
			}
			state.Mods = append(state.Mods, mod)
		}
	}

	state.Mods = compact(state.Mods)
	state.sort()
	return &state, nil
}

// ModsPath resolves the mods directory relative to the instance directory.
func (s *State) ModsPath(instanceDir string) string {
	if s.ModsDir == "" {
		return filepath.Join(instanceDir, "mods")
	}
	if filepath.IsAbs(s.ModsDir) {
		return s.ModsDir
	}
	return filepath.Join(instanceDir, s.ModsDir)
}

// Save writes the state file to the instance directory.
func (s *State) Save(instanceDir string) error {
	path := filepath.Join(instanceDir, StateFile)

	s.sort()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}

	return nil
}

// Lookup finds a mod by file name, ignoring case. A name with a directory
// part must equal the stored relative path. A bare name falls back to the
// first mod with that base name.
func (s *State) Lookup(filename string) (*ManagedMod, bool) {
	want := filepath.ToSlash(filename)
	for _, m := range s.Mods {
		if strings.EqualFold(filepath.ToSlash(m.Filename), want) {
			return m, true
		}
	}
	if strings.Contains(want, "/") {
		return nil, false
	}
	for _, m := range s.Mods {
		if strings.EqualFold(m.BaseName(), want) {
			return m, true
		}
	}
	return nil, false
}

// ApplyDiscovered writes newly learned download ids onto their mods and
// returns how many records changed. Entries naming unknown files are skipped.
func (s *State) ApplyDiscovered(discovered map[string]string) int {
	changed := 0
	for filename, id := range discovered {
		mod, ok := s.Lookup(filename)
		if !ok || !IsRealID(id) || mod.DownloadID == id {
			continue
		}
		mod.DownloadID = id
		changed++
	}
	return changed
}

func (s *State) sort() {
	sort.SliceStable(s.Mods, func(i, j int) bool {
		return strings.ToLower(s.Mods[i].Filename) < strings.ToLower(s.Mods[j].Filename)
	})
}

func compact(mods []*ManagedMod) []*ManagedMod {
	out := mods[:0]
	for _, m := range mods {
		if m != nil && m.Filename != "" {
			out = append(out, m)
		}
	}
	return out
}
