package library

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingState(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	_, err := Load(tmp)
	if err == nil {
		t.Fatalf("expected error when state file is missing")
	}
	if !errors.Is(err, ErrNoInstanceState) {
		t.Fatalf("expected ErrNoInstanceState, got %v", err)
	}
	if !strings.Contains(err.Error(), "run 'init' first") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	mod := NewManagedMod("Zeta-1-1-0.zip")
	mod.CatalogID = "77"
	mod.IsEndorsed = Endorsed
	s := &State{
		ModsDir: "mods",
		Period:  "1w",
		Mods:    []*ManagedMod{mod, NewManagedMod("alpha-2.7z")},
	}

	if err := s.Save(tmp); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmp, StateFile+".tmp")); !os.IsNotExist(err) {
		t.Fatalf("temporary state file left behind: %v", err)
	}

	loaded, err := Load(tmp)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Mods) != 2 {
		t.Fatalf("len(Mods)=%d want=2", len(loaded.Mods))
	}
	if loaded.Mods[0].Filename != "alpha-2.7z" {
		t.Fatalf("mods not sorted: first=%q", loaded.Mods[0].Filename)
	}
	zeta := loaded.Mods[1]
	if zeta.CatalogID != "77" || zeta.IsEndorsed != Endorsed || zeta.CustomCategoryID != CategoryUnset {
		t.Fatalf("unexpected loaded mod: %+v", zeta)
	}
	if loaded.Period != "1w" {
		t.Fatalf("Period=%q want=1w", loaded.Period)
	}
}

func TestLoadMigratesLegacyModIndex(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	data := `{"mods_dir":"mods","mod_index":{"Old-Mod-5-1.zip":{"catalog_id":"5","category_id":-1}}}`
	if err := os.WriteFile(filepath.Join(tmp, StateFile), []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	loaded, err := Load(tmp)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Mods) != 1 || loaded.Mods[0].Filename != "Old-Mod-5-1.zip" || loaded.Mods[0].CatalogID != "5" {
		t.Fatalf("legacy mods not migrated: %+v", loaded.Mods)
	}
}

func TestModsPath(t *testing.T) {
	t.Parallel()

	abs := filepath.Join(t.TempDir(), "elsewhere")
	tests := []struct {
		name    string
		modsDir string
		want    string
	}{
		{name: "default", modsDir: "", want: filepath.Join("inst", "mods")},
		{name: "relative", modsDir: "archives", want: filepath.Join("inst", "archives")},
		{name: "absolute", modsDir: abs, want: abs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &State{ModsDir: tt.modsDir}
			if got := s.ModsPath("inst"); got != tt.want {
				t.Fatalf("ModsPath=%q want=%q", got, tt.want)
			}
		})
	}
}

func TestApplyDiscovered(t *testing.T) {
	t.Parallel()

	known := NewManagedMod("Cool-Mod-123-v2.zip")
	already := NewManagedMod("Other-9-1.zip")
	already.DownloadID = "55"
	s := &State{Mods: []*ManagedMod{known, already}}

	changed := s.ApplyDiscovered(map[string]string{
		"cool-mod-123-v2.zip": "4567",
		"Other-9-1.zip":       "55",
		"Missing.zip":         "1",
		"Sentinel.zip":        UnknownID,
	})
	if changed != 1 {
		t.Fatalf("changed=%d want=1", changed)
	}
	if known.DownloadID != "4567" {
		t.Fatalf("DownloadID=%q want=4567", known.DownloadID)
	}
}

func TestApplyDiscoveredSameBaseNameInSubdirs(t *testing.T) {
	t.Parallel()

	a := NewManagedMod("a/Cool-Mod-123-v2.zip")
	b := NewManagedMod("b/Cool-Mod-123-v2.zip")
	s := &State{Mods: []*ManagedMod{a, b}}

	changed := s.ApplyDiscovered(map[string]string{"B/cool-mod-123-v2.zip": "99"})
	if changed != 1 {
		t.Fatalf("changed=%d want=1", changed)
	}
	if a.DownloadID != "" || b.DownloadID != "99" {
		t.Fatalf("a.DownloadID=%q b.DownloadID=%q, want id on b only", a.DownloadID, b.DownloadID)
	}

	if changed := s.ApplyDiscovered(map[string]string{"c/Cool-Mod-123-v2.zip": "7"}); changed != 0 {
		t.Fatalf("unknown directory applied %d ids", changed)
	}
	if m, ok := s.Lookup("Cool-Mod-123-v2.zip"); !ok || m != a {
		t.Fatalf("bare name lookup=%v ok=%t, want first mod", m, ok)
	}
}

func TestScanAddsKeepsAndDrops(t *testing.T) {
	t.Parallel()

	modsDir := t.TempDir()
	for _, name := range []string{"Keep-1-1.zip", "New-2-1.7z", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(modsDir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(modsDir, "nested"), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(modsDir, "nested", "Deep-3-1.RAR"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	keep := NewManagedMod("Keep-1-1.zip")
	keep.CatalogID = "1"
	s := &State{Mods: []*ManagedMod{keep, NewManagedMod("Gone-4-1.zip")}}

	res, err := s.Scan(modsDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if res.Kept != 1 || len(res.Added) != 2 || len(res.Removed) != 1 {
		t.Fatalf("unexpected scan result: %+v", res)
	}
	if res.Removed[0] != "Gone-4-1.zip" {
		t.Fatalf("Removed=%v", res.Removed)
	}
	if m, ok := s.Lookup("Keep-1-1.zip"); !ok || m.CatalogID != "1" {
		t.Fatalf("known record not preserved: %+v", m)
	}
	if _, ok := s.Lookup("nested/Deep-3-1.RAR"); !ok {
		t.Fatalf("nested archive not registered: %+v", s.Mods)
	}
	if _, ok := s.Lookup("notes.txt"); ok {
		t.Fatalf("non-archive file registered")
	}
}

func TestScanMissingDirectory(t *testing.T) {
	t.Parallel()

	s := &State{Mods: []*ManagedMod{NewManagedMod("a.zip")}}
	res, err := s.Scan(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(s.Mods) != 0 || len(res.Removed) != 1 {
		t.Fatalf("expected all records dropped, got mods=%d result=%+v", len(s.Mods), res)
	}
}

func TestFind(t *testing.T) {
	t.Parallel()

	named := NewManagedMod("sky-ui-3012-5-2.zip")
	named.ModName = "SkyUI"
	s := &State{Mods: []*ManagedMod{
		NewManagedMod("Cool-Mod-123-v2.zip"),
		named,
		NewManagedMod("Unrelated-9-1.7z"),
	}}

	got := s.Find("skyui")
	if len(got) != 1 || got[0] != named {
		t.Fatalf("Find(skyui)=%v", got)
	}
	if got := s.Find("coolmod"); len(got) != 1 || got[0].Filename != "Cool-Mod-123-v2.zip" {
		t.Fatalf("Find(coolmod)=%v", got)
	}
	if got := s.Find(""); got != nil {
		t.Fatalf("Find(\"\")=%v want nil", got)
	}
}
