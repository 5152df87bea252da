package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Constraint restricts the versions a dependency accepts. It is one of:
// any version ("" or "*"), an exact version ("1.2"), or a range
// understood by Masterminds/semver (">=1.0 <2.0", "^1.2", "~1.2", "1.x").
type Constraint struct {
	raw   string
	exact *Version
	rng   *semver.Constraints
}

// Any matches every version.
var Any = Constraint{}

// rangeMarkers identify a constraint string as a range rather than a version.
const rangeMarkers = "<>=!^~*|, "

// ParseConstraint parses a constraint string.
func ParseConstraint(s string) (Constraint, error) {
	raw := strings.TrimSpace(s)
	if raw == "" || raw == "*" {
		return Constraint{raw: raw}, nil
	}

	if !strings.ContainsAny(raw, rangeMarkers) && !hasWildcardComponent(raw) {
		v := Parse(raw)
		return Constraint{raw: raw, exact: &v}, nil
	}

	c, err := semver.NewConstraint(raw)
	if err != nil {
		return Constraint{}, fmt.Errorf("parsing version constraint %q: %w", raw, err)
	}
	return Constraint{raw: raw, rng: c}, nil
}

// MustParseConstraint is like ParseConstraint but panics on error.
func MustParseConstraint(s string) Constraint {
	c, err := ParseConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Exactly returns a constraint accepting only v.
func Exactly(v Version) Constraint {
	return Constraint{raw: v.String(), exact: &v}
}

// String returns the constraint as written.
func (c Constraint) String() string {
	if c.raw == "" {
		return "*"
	}
	return c.raw
}

// IsAny reports whether c accepts every version.
func (c Constraint) IsAny() bool {
	return c.exact == nil && c.rng == nil
}

// Exact returns the single version c accepts, if c is an exact constraint.
func (c Constraint) Exact() (Version, bool) {
	if c.exact == nil {
		return Version{}, false
	}
	return *c.exact, true
}

// Contains reports whether v satisfies c. Versions that cannot be read as
// semantic versions never satisfy a range.
func (c Constraint) Contains(v Version) bool {
	switch {
	case c.exact != nil:
		return c.exact.Equal(v)
	case c.rng != nil:
		sv, err := semver.NewVersion(v.String())
		if err != nil {
			return false
		}
		return c.rng.Check(sv)
	default:
		return true
	}
}

// hasWildcardComponent reports whether s uses x/X wildcards ("1.x", "2.X.1").
func hasWildcardComponent(s string) bool {
	for _, p := range strings.Split(s, ".") {
		if p == "x" || p == "X" {
			return true
		}
	}
	return false
}
