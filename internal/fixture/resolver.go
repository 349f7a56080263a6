// Package fixture provides a deterministic, in-memory solve.Resolver built
// from a terse literal table, in the spirit of golang-dep's depspec fixtures:
// a compact notation for "package X at version Y depends on Z" compiled once
// into something the solver core can query like any real registry.
package fixture

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nativepkg/solve"
)

// Spec is one fixture package declaration. Deps/DevDeps/BuildDeps entries are
// "name spec" pairs (e.g. "left-pad ^1.0"); a bare name with no space means
// "any version" of that dependency.
type Spec struct {
	Name      string
	Version   string
	Source    string
	Deps      []string
	DevDeps   []string
	BuildDeps []string
}

// Resolver answers Resolve/Package purely from the table it was built from.
// It never does I/O and is safe for concurrent use once constructed, since it
// is never mutated after New returns.
type Resolver struct {
	byName map[string][]solve.Package
}

// New compiles specs into a Resolver, sorting each name's candidates newest
// first the way a real registry's listing would be. It panics on a malformed
// Spec: fixtures are literal, compile-time data, so a bad one is a bug in the
// caller, not a runtime condition.
func New(specs []Spec) *Resolver {
	r := &Resolver{byName: make(map[string][]solve.Package)}
	for _, s := range specs {
		v, err := solve.ParseVersion(s.Version)
		if err != nil {
			panic(fmt.Sprintf("fixture %s@%s: %v", s.Name, s.Version, err))
		}
		pkg := solve.Package{
			Name:              s.Name,
			Version:           v,
			Source:            s.Source,
			Dependencies:      mustReqs(s.Name, s.Deps),
			DevDependencies:   mustReqs(s.Name, s.DevDeps),
			BuildDependencies: mustReqs(s.Name, s.BuildDeps),
		}
		r.byName[s.Name] = append(r.byName[s.Name], pkg)
	}
	for name, list := range r.byName {
		list := list
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Version.Compare(list[j].Version) > 0
		})
		r.byName[name] = list
	}
	return r
}

func mustReqs(owner string, raw []string) []solve.Req {
	if len(raw) == 0 {
		return nil
	}
	out := make([]solve.Req, 0, len(raw))
	for _, s := range raw {
		name, spec := s, "*"
		if i := strings.IndexByte(s, ' '); i >= 0 {
			name, spec = s[:i], strings.TrimSpace(s[i+1:])
		}
		req, err := solve.NewReq(name, spec)
		if err != nil {
			panic(fmt.Sprintf("fixture %s: requirement %q: %v", owner, s, err))
		}
		out = append(out, req)
	}
	return out
}

// Resolve returns every candidate (newest first) whose version matches
// req.Spec. An unknown name resolves to an empty list, not an error, so "not
// found" and "found, but no match" look the same to the caller.
func (r *Resolver) Resolve(_ context.Context, req solve.Req) ([]solve.Resolution, error) {
	var out []solve.Resolution
	for _, pkg := range r.byName[req.Name] {
		if !req.Spec.Matches(pkg.Version) {
			continue
		}
		out = append(out, solve.Resolution{Name: pkg.Name, Version: pkg.Version, Source: pkg.Source})
	}
	return out, nil
}

// Package expands res back into the full fixture Package it came from.
func (r *Resolver) Package(_ context.Context, res solve.Resolution) (solve.Package, error) {
	for _, pkg := range r.byName[res.Name] {
		if pkg.Version.Compare(res.Version) == 0 {
			return pkg, nil
		}
	}
	return solve.Package{}, fmt.Errorf("fixture: no package %s@%s", res.Name, res.Version)
}
