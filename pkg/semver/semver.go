// Package semver implements the version arithmetic commonify needs on top of
// github.com/Masterminds/semver/v3: deciding whether a token is already a
// concrete version, range satisfaction, caret ranges and patch increments.
//
// npm ranges ("^7.0.0", "~1.2", ">=1 <2", "1.x", "1.2.3 - 2", "a || b") map
// onto Masterminds constraints directly. Dist-tags such as "latest" are not
// ranges; the registry client resolves them before reaching this package.
package semver

import (
	"fmt"
	"sort"
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

// Version is a concrete semantic version.
type Version struct {
	v *mm.Version
}

// Constraint is a version range.
type Constraint struct {
	c *mm.Constraints
}

// IsConcrete reports whether s is a full semantic version (major.minor.patch
// with optional prerelease and build metadata) rather than a range or tag.
func IsConcrete(s string) bool {
	_, err := mm.StrictNewVersion(strings.TrimSpace(s))
	return err == nil
}

func ParseVersion(raw string) (Version, error) {
	v, err := mm.StrictNewVersion(strings.TrimSpace(raw))
	if err != nil {
		return Version{}, fmt.Errorf("semver: parse version %q: %w", raw, err)
	}
	return Version{v: v}, nil
}

func MustParseVersion(raw string) Version {
	v, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the canonical form without a "v" prefix.
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

// IncPatch returns the next patch version. A prerelease is released rather
// than bumped ("1.2.3-rc.1" becomes "1.2.3"), the same as npm's semver.inc.
func (v Version) IncPatch() Version {
	if v.v == nil {
		return v
	}
	next := v.v.IncPatch()
	return Version{v: &next}
}

// ParseConstraint parses an npm range. An empty range matches any version.
func ParseConstraint(raw string) (Constraint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "*"
	}
	c, err := mm.NewConstraint(raw)
	if err != nil {
		return Constraint{}, fmt.Errorf("semver: parse constraint %q: %w", raw, err)
	}
	return Constraint{c: c}, nil
}

// Caret returns the caret range for v: same major, at least v.
func Caret(v string) string {
	return "^" + strings.TrimSpace(v)
}

// IncPatch parses raw and returns its patch increment as a string.
func IncPatch(raw string) (string, error) {
	v, err := ParseVersion(raw)
	if err != nil {
		return "", err
	}
	return v.IncPatch().String(), nil
}

func Satisfies(v Version, c Constraint) bool {
	if v.v == nil || c.c == nil {
		return false
	}
	return c.c.Check(v.v)
}

// Compare returns -1, 0 or 1 following semver precedence.
func Compare(a, b Version) int {
	if a.v == nil && b.v == nil {
		return 0
	}
	if a.v == nil {
		return -1
	}
	if b.v == nil {
		return 1
	}
	return a.v.Compare(b.v)
}

// MaxSatisfying returns the highest of the published version strings that
// satisfies c. Strings that are not valid versions are skipped.
func MaxSatisfying(c Constraint, published []string) (string, bool) {
	var best Version
	found := false
	for _, raw := range published {
		v, err := ParseVersion(raw)
		if err != nil || !Satisfies(v, c) {
			continue
		}
		if !found || Compare(v, best) > 0 {
			best = v
			found = true
		}
	}
	if !found {
		return "", false
	}
	return best.String(), true
}

// Sort orders version strings ascending by precedence, dropping invalid ones.
func Sort(published []string) []string {
	vs := make([]Version, 0, len(published))
	for _, raw := range published {
		if v, err := ParseVersion(raw); err == nil {
			vs = append(vs, v)
		}
	}
	sort.Slice(vs, func(i, j int) bool { return Compare(vs[i], vs[j]) < 0 })
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}
