package solve

import "fmt"

// Chain is an ordered path of packages from a requirement up to the root,
// displayed as [pkg, ..., root]: the package the Req concerns first, its
// chain of dependers after, ending at whichever package had no further
// parent (normally ROOT).
type Chain struct {
	Req  Req
	Path []PackageKey
}

func (c Chain) String() string {
	s := c.Req.String()
	if len(c.Path) == 0 {
		return s
	}
	out := s + " via"
	for _, p := range c.Path {
		out += " " + p.String()
	}
	return out
}

// Reason is the closed sum of explanation variants: Missing or Conflict.
type Reason interface {
	String() string
	isReason()
}

// MissingReason records that chain.Req's package had no candidate
// satisfying it; Available is the full, unfiltered candidate list the
// resolver returned for that name. Suggestion, when non-empty, is the
// longest registered package name that is a prefix of the unmet
// requirement's name (Universe.NearestByPrefix) — a "did you mean" hint,
// populated only when Available is empty and a prefix match exists.
type MissingReason struct {
	Chain      Chain
	Available  []Resolution
	Suggestion string
}

func (r MissingReason) isReason() {}
func (r MissingReason) String() string {
	if r.Suggestion != "" {
		return fmt.Sprintf("missing: %s (no candidate among %d available, did you mean %q?)", r.Chain, len(r.Available), r.Suggestion)
	}
	return fmt.Sprintf("missing: %s (no candidate among %d available)", r.Chain, len(r.Available))
}

// ConflictReason records two requirements, reached via two (possibly
// different) chains, that cannot both be satisfied.
type ConflictReason struct {
	A, B Chain
}

func (r ConflictReason) isReason() {}
func (r ConflictReason) String() string {
	return fmt.Sprintf("conflict: %s  <->  %s", r.A, r.B)
}

// Explanation is an ordered, de-duplicated list of reasons a solve failed.
type Explanation []Reason
