package reconcile

import (
	"path/filepath"
	"strings"
	"unicode"
)

const maxExtLen = 5

// StripFileName reduces an archive name to a version agnostic base name.
//
// A short extension is dropped. When id is longer than two characters the name
// is cut at the first "-{id}-", or failing that at the first "-{id}"; a
// shorter or empty id cuts the name at its first hyphen instead. The result is
// trimmed, and the reduction repeats until nothing changes so that stripping
// an already stripped name is a no-op.
func StripFileName(fileName, id string) string {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return ""
	}
	name := strings.TrimSpace(filepath.Base(fileName))
	id = strings.TrimSpace(id)
	for {
		next := stripOnce(name, id)
		if next == name {
			return name
		}
		name = next
	}
}

func stripOnce(name, id string) string {
	name = trimExt(name)

	if len(id) > 2 {
		if idx := strings.Index(name, "-"+id+"-"); idx > 0 {
			name = name[:idx]
		} else if idx := strings.Index(name, "-"+id); idx > 0 {
			name = name[:idx]
		}
	} else if idx := strings.Index(name, "-"); idx > 0 {
		name = name[:idx]
	}

	return strings.TrimSpace(name)
}

// trimExt drops a trailing extension of up to maxExtLen alphanumeric
// characters containing at least one letter, so "v1.2" keeps its ".2".
func trimExt(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 {
		return name
	}
	ext := name[idx+1:]
	if ext == "" || len(ext) > maxExtLen {
		return name
	}
	hasLetter := false
	for _, r := range ext {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
		default:
			return name
		}
	}
	if !hasLetter {
		return name
	}
	return name[:idx]
}
