package reconcile

import "strings"

// DiscoveredIDs maps file names to newly learned download ids. Keys compare
// case-insensitively and the first id recorded for a file is kept.
type DiscoveredIDs struct {
	entries map[string]discovered
	order   []string
}

type discovered struct {
	filename string
	id       string
}

func NewDiscoveredIDs() *DiscoveredIDs {
	return &DiscoveredIDs{entries: make(map[string]discovered)}
}

// Add records id for filename and reports whether it was stored. A file that
// already has an entry keeps it.
func (d *DiscoveredIDs) Add(filename, id string) bool {
	key := strings.ToLower(filename)
	if _, ok := d.entries[key]; ok {
		return false
	}
	d.entries[key] = discovered{filename: filename, id: id}
	d.order = append(d.order, key)
	return true
}

func (d *DiscoveredIDs) Get(filename string) (string, bool) {
	e, ok := d.entries[strings.ToLower(filename)]
	return e.id, ok
}

func (d *DiscoveredIDs) Len() int {
	return len(d.entries)
}

// Filenames returns the recorded file names in insertion order.
func (d *DiscoveredIDs) Filenames() []string {
	out := make([]string, 0, len(d.order))
	for _, key := range d.order {
		out = append(out, d.entries[key].filename)
	}
	return out
}

// Map returns a copy keyed by the file name as first recorded.
func (d *DiscoveredIDs) Map() map[string]string {
	out := make(map[string]string, len(d.entries))
	for _, e := range d.entries {
		out[e.filename] = e.id
	}
	return out
}
