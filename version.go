// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solve

import (
	"strings"

	"github.com/Masterminds/semver"
	hcversion "github.com/hashicorp/go-version"
	"github.com/pkg/errors"
)

// Version is a totally ordered representation of a package version. Two
// versions with the same String() are structurally equal; Compare gives the
// ordering gps-style solvers sort candidates by (newest first).
type Version interface {
	// Compare returns <0 if v sorts before other, 0 if equal, >0 if after.
	Compare(other Version) int
	String() string
}

// ParseVersion parses a version string into a Version, preferring semver
// ordering and falling back to opam-style ordering when the string isn't
// valid semver. Both forms satisfy the same Version interface, so callers
// elsewhere in the solver never need to know which backend produced a given
// value.
func ParseVersion(raw string) (Version, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty version string")
	}

	if sv, err := semver.NewVersion(raw); err == nil {
		return SemverVersion{raw: raw, v: sv}, nil
	}

	ov, err := hcversion.NewVersion(normalizeOpam(raw))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing version %q", raw)
	}
	return OpamVersion{raw: raw, v: ov}, nil
}

// SemverVersion is a Version backed by Masterminds/semver, used whenever a
// package's version string is valid semver.
type SemverVersion struct {
	raw string
	v   *semver.Version
}

// NewSemverVersion builds a SemverVersion directly; it panics on invalid
// input since it's meant for callers (tests, fixtures) that already know the
// string is valid semver.
func NewSemverVersion(raw string) SemverVersion {
	sv, err := semver.NewVersion(raw)
	if err != nil {
		panic(errors.Wrapf(err, "invalid semver %q", raw))
	}
	return SemverVersion{raw: raw, v: sv}
}

func (s SemverVersion) String() string { return s.raw }

// Compare orders SemverVersion against any other Version. An OpamVersion
// peer is ordered by OpamVersion.Compare, so a tilde prerelease still sorts
// before the matching release; any other peer is compared by string.
func (s SemverVersion) Compare(other Version) int {
	if o, ok := other.(SemverVersion); ok {
		return s.v.Compare(o.v)
	}
	if o, ok := other.(OpamVersion); ok {
		return -o.Compare(s)
	}
	return strings.Compare(s.raw, other.String())
}

// OpamVersion is a Version backed by hashicorp/go-version, used as the
// fallback encoding for version strings semver can't parse (opam-style tags
// such as "1.0.0~rc1" or four-segment "1.2.3.4"). hashicorp/go-version's own ordering
// opinions don't model opam's tilde-prerelease convention ("~" sorts before
// the unadorned release), so Compare corrects for that after delegating the
// segment-by-segment comparison.
type OpamVersion struct {
	raw string
	v   *hcversion.Version
}

func (o OpamVersion) String() string { return o.raw }

func (o OpamVersion) Compare(other Version) int {
	oo, ok := other.(OpamVersion)
	if !ok {
		// A peer of another encoding is reparsed the opam way so the tilde
		// correction below applies to it too.
		ov, err := hcversion.NewVersion(normalizeOpam(other.String()))
		if err != nil {
			return strings.Compare(o.raw, other.String())
		}
		oo = OpamVersion{raw: other.String(), v: ov}
	}

	aTilde := strings.Contains(o.raw, "~")
	bTilde := strings.Contains(oo.raw, "~")
	base := o.v.Compare(oo.v)
	if base != 0 {
		return base
	}
	switch {
	case aTilde && !bTilde:
		return -1
	case !aTilde && bTilde:
		return 1
	default:
		return strings.Compare(o.raw, oo.raw)
	}
}

// normalizeOpam rewrites opam's "~" prerelease marker into a form
// hashicorp/go-version's segment parser accepts, so the two libraries can
// agree on segment ordering before Compare applies the tilde correction.
func normalizeOpam(raw string) string {
	return strings.Replace(raw, "~", "-", 1)
}

// SortDescending sorts versions newest-first, the order the universe stores
// candidates in for a given package name.
func SortDescending(vs []Version) {
	sortVersions(vs, true)
}

// SortAscending sorts versions oldest-first.
func SortAscending(vs []Version) {
	sortVersions(vs, false)
}

func sortVersions(vs []Version, descending bool) {
	// candidate lists per name are small; insertion sort keeps this stable.
	for i := 1; i < len(vs); i++ {
		for j := i; j > 0; j-- {
			c := vs[j-1].Compare(vs[j])
			if descending {
				if c >= 0 {
					break
				}
			} else {
				if c <= 0 {
					break
				}
			}
			vs[j-1], vs[j] = vs[j], vs[j-1]
		}
	}
}
