package solve

import "fmt"

// PackageKey identifies a Package by (name, version string), the universe's
// insertion key.
type PackageKey struct {
	Name    string
	Version string
}

func (k PackageKey) String() string { return fmt.Sprintf("%s@%s", k.Name, k.Version) }

// Package is a fully materialized candidate: its identity is (name, version)
// and it is immutable once inserted into a Universe.
type Package struct {
	Name    string
	Version Version
	// Source names where the package came from (a registry URL, VCS
	// location, or similar); display-only to the solver core.
	Source string
	// Opam carries opam-format package metadata verbatim, when the
	// originating registry provides it. Empty when absent; the solver core
	// never inspects its contents.
	Opam string

	Dependencies      []Req
	BuildDependencies []Req
	DevDependencies   []Req
}

// Key returns the Package's identity within a Universe.
func (p Package) Key() PackageKey {
	return PackageKey{Name: p.Name, Version: p.Version.String()}
}

// WithDependencies returns a copy of p with Dependencies replaced. Packages
// are immutable once inserted into the universe (invariant I3); this is how
// the driver applies Resolutions (invariant I1) before insertion, without
// mutating whatever the resolver handed back.
func (p Package) WithDependencies(deps []Req) Package {
	p.Dependencies = deps
	return p
}

// Resolution is an unexpanded candidate identity returned by a Resolver:
// (name, version, source), not yet turned into a full Package.
type Resolution struct {
	Name    string
	Version Version
	Source  string
}

func (r Resolution) String() string { return fmt.Sprintf("%s@%s", r.Name, r.Version) }
