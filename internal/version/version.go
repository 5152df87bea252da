package version

import (
	"strings"
)

// Version is an extension version. Any string is a valid version; two
// versions are equal when their normalized forms are identical.
type Version struct {
	raw       string
	parts     []string // numeric components, leading zeros and trailing zero components dropped
	qualifier string   // lowercased remainder after the numeric part
}

// Parse normalizes s into a Version. It never fails.
//
//	"1.3"       -> [1 3]
//	"v2.4.1"    -> [2 4 1]
//	"1.0.0"     -> [1]
//	"2.0-RC1"   -> [2] qualifier "rc1"
//	"snapshot"  -> []  qualifier "snapshot"
func Parse(s string) Version {
	raw := strings.TrimSpace(s)
	body := raw
	if len(body) > 1 && (body[0] == 'v' || body[0] == 'V') && isDigit(body[1]) {
		body = body[1:]
	}

	// Leading run of digits and dots is the numeric part.
	end := 0
	for end < len(body) && (isDigit(body[end]) || body[end] == '.') {
		end++
	}
	numeric, rest := body[:end], body[end:]

	var parts []string
	for _, p := range strings.Split(numeric, ".") {
		if p == "" {
			continue
		}
		parts = append(parts, trimLeadingZeros(p))
	}
	for len(parts) > 0 && parts[len(parts)-1] == "0" {
		parts = parts[:len(parts)-1]
	}

	qualifier := strings.ToLower(strings.TrimLeft(rest, "-._+"))

	return Version{raw: raw, parts: parts, qualifier: qualifier}
}

// String returns the version as it was written.
func (v Version) String() string {
	return v.raw
}

// IsZero reports whether v is the zero Version (never parsed).
func (v Version) IsZero() bool {
	return v.raw == "" && len(v.parts) == 0 && v.qualifier == ""
}

// Qualifier returns the normalized non-numeric suffix, if any.
func (v Version) Qualifier() string {
	return v.qualifier
}

// Compare returns -1 if v < o, 0 if v == o, and 1 if v > o.
// Numeric components are compared left to right with missing components
// treated as zero, then qualifiers are compared lexically.
func (v Version) Compare(o Version) int {
	n := max(len(v.parts), len(o.parts))
	for i := 0; i < n; i++ {
		if c := compareNumeric(component(v.parts, i), component(o.parts, i)); c != 0 {
			return c
		}
	}
	return strings.Compare(v.qualifier, o.qualifier)
}

// Equal reports whether v and o normalize to the same version.
func (v Version) Equal(o Version) bool {
	return v.Compare(o) == 0
}

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

func component(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return "0"
}

// compareNumeric compares two digit strings without leading zeros.
// Longer means larger, so arbitrarily large components never overflow.
func compareNumeric(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func trimLeadingZeros(s string) string {
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	return s
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
