package solve

import (
	"strings"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"
)

// VersionSpec is a predicate over Version. The three canonical forms are
// exact, range, and the wildcard "any".
type VersionSpec interface {
	Matches(v Version) bool
	String() string
}

// ParseVersionSpec parses a requirement's spec string. "*" and the empty
// string produce the any-spec; anything Masterminds/semver accepts as a
// constraint produces a range spec; everything else is treated as an exact
// version to match structurally.
func ParseVersionSpec(raw string) (VersionSpec, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "*" {
		return anySpec{}, nil
	}

	if c, err := semver.NewConstraint(trimmed); err == nil {
		return semverRangeSpec{raw: trimmed, c: c}, nil
	}

	v, err := ParseVersion(trimmed)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing version spec %q", raw)
	}
	return exactSpec{raw: trimmed, v: v}, nil
}

type anySpec struct{}

func (anySpec) Matches(Version) bool { return true }
func (anySpec) String() string       { return "*" }

type exactSpec struct {
	raw string
	v   Version
}

func (e exactSpec) Matches(v Version) bool { return v.Compare(e.v) == 0 }
func (e exactSpec) String() string         { return e.raw }

type semverRangeSpec struct {
	raw string
	c   *semver.Constraints
}

func (r semverRangeSpec) Matches(v Version) bool {
	sv, ok := v.(SemverVersion)
	if !ok {
		// Non-semver peer: try a best-effort reparse so a range spec can
		// still be checked against an OpamVersion whose raw string happens
		// to also be valid semver.
		parsed, err := semver.NewVersion(v.String())
		if err != nil {
			return false
		}
		return r.c.Check(parsed)
	}
	return r.c.Check(sv.v)
}

func (r semverRangeSpec) String() string { return r.raw }
