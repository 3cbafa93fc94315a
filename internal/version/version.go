// Package version parses and orders the loosely formatted version strings
// that mod authors publish ("1.2.3", "v2.0-beta4", "rv3-beta-834").
package version

import (
	"strconv"
	"strings"
)

// Version is a parsed mod version. The zero value is the empty version,
// which sorts before everything else.
type Version struct {
	raw   string
	parts []int
	pre   string
}

// Parse extracts numeric components from a version string.
// A leading "v" is ignored and a hyphen following a numeric segment starts a
// pre-release suffix. Strings that are not dot-separated numbers keep only
// their raw form and are ordered by natural comparison.
func Parse(s string) Version {
	s = strings.TrimSpace(s)
	v := Version{raw: s}
	if s == "" {
		return v
	}

	body := strings.TrimPrefix(strings.TrimPrefix(s, "v"), "V")
	head, _, _ := strings.Cut(body, ".")
	if idx := strings.IndexByte(head, '-'); idx > 0 {
		head = head[:idx]
	}
	if _, err := strconv.Atoi(head); err == nil {
		if idx := strings.IndexByte(body, '-'); idx > 0 {
			v.pre = body[idx:]
			body = body[:idx]
		}
	}

	for _, seg := range strings.Split(body, ".") {
		n, err := strconv.Atoi(seg)
		if err != nil {
			v.parts = nil
			v.pre = ""
			return v
		}
		v.parts = append(v.parts, n)
	}
	return v
}

// String returns the version exactly as it was parsed.
func (v Version) String() string { return v.raw }

// IsZero reports whether the version is empty.
func (v Version) IsZero() bool { return v.raw == "" }

// Numeric reports whether the version parsed as dot-separated numbers.
func (v Version) Numeric() bool { return v.parts != nil }

// Prerelease returns the pre-release suffix including its leading hyphen.
func (v Version) Prerelease() string { return v.pre }

// Compare orders v against o: -1 if v < o, 0 if equal, +1 if v > o.
// Empty versions sort first, numeric versions sort above non-numeric ones,
// and a pre-release sorts before the matching release.
func (v Version) Compare(o Version) int {
	switch {
	case v.IsZero() && o.IsZero():
		return 0
	case v.IsZero():
		return -1
	case o.IsZero():
		return 1
	}

	if !v.Numeric() && !o.Numeric() {
		return compareNatural(v.raw, o.raw)
	}
	if !v.Numeric() {
		return -1
	}
	if !o.Numeric() {
		return 1
	}

	for i := 0; i < max(len(v.parts), len(o.parts)); i++ {
		a, b := 0, 0
		if i < len(v.parts) {
			a = v.parts[i]
		}
		if i < len(o.parts) {
			b = o.parts[i]
		}
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}

	switch {
	case v.pre == "" && o.pre == "":
		return 0
	case v.pre != "" && o.pre == "":
		return -1
	case v.pre == "" && o.pre != "":
		return 1
	default:
		return comparePreRelease(v.pre, o.pre)
	}
}

// Newer reports whether v is strictly newer than o.
func (v Version) Newer(o Version) bool { return v.Compare(o) > 0 }

// Compare parses and orders two version strings.
func Compare(a, b string) int {
	return Parse(a).Compare(Parse(b))
}

// MarshalText stores the raw version string.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.raw), nil
}

// UnmarshalText parses a stored version string.
func (v *Version) UnmarshalText(text []byte) error {
	*v = Parse(string(text))
	return nil
}

// compareNatural compares strings with numeric-aware ordering, so
// "rv3-beta-834" sorts after "rv3-beta-99".
func compareNatural(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if isDigit(a[i]) && isDigit(b[j]) {
			i2, j2 := i, j
			for i2 < len(a) && isDigit(a[i2]) {
				i2++
			}
			for j2 < len(b) && isDigit(b[j2]) {
				j2++
			}
			if c := compareNumericRuns(a[i:i2], b[j:j2]); c != 0 {
				return c
			}
			i, j = i2, j2
			continue
		}
		if a[i] != b[j] {
			if a[i] < b[j] {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case i == len(a) && j == len(b):
		return 0
	case i == len(a):
		return -1
	default:
		return 1
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func compareNumericRuns(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// comparePreRelease orders suffixes like "-alpha21" and "-alpha3" by their
// text prefix first and their trailing number second.
func comparePreRelease(a, b string) int {
	aText, aNum := splitTrailingNumber(a)
	bText, bNum := splitTrailingNumber(b)
	if c := strings.Compare(aText, bText); c != 0 {
		return c
	}
	switch {
	case aNum < bNum:
		return -1
	case aNum > bNum:
		return 1
	default:
		return 0
	}
}

func splitTrailingNumber(s string) (string, int) {
	i := len(s)
	for i > 0 && isDigit(s[i-1]) {
		i--
	}
	if i == len(s) {
		return s, 0
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, 0
	}
	return s[:i], n
}
