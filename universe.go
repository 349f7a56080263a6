package solve

import (
	"sort"
	"sync"

	radix "github.com/armon/go-radix"

	"github.com/nativepkg/solve/internal/cudf"
)

// Universe is the append-only set of candidate packages the solver may
// choose from, indexed by name. Packages for a given name are kept sorted
// descending by Version.Compare.
type Universe struct {
	mu     sync.Mutex
	byName map[string][]Package
	index  map[PackageKey]struct{}
	names  *radix.Tree
}

// NewUniverse returns an empty Universe.
func NewUniverse() *Universe {
	return &Universe{
		byName: make(map[string][]Package),
		index:  make(map[PackageKey]struct{}),
		names:  radix.New(),
	}
}

// Mem reports whether pkg (by identity) is already present.
func (u *Universe) Mem(pkg Package) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.index[pkg.Key()]
	return ok
}

// Add inserts pkg, keeping the per-name candidate list sorted descending by
// version. Add is a no-op if pkg is already present (append-only, and
// idempotent per invariant I3 — a package already in the universe is never
// mutated).
func (u *Universe) Add(pkg Package) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, ok := u.index[pkg.Key()]; ok {
		return
	}
	u.index[pkg.Key()] = struct{}{}
	u.names.Insert(pkg.Name, struct{}{})

	list := u.byName[pkg.Name]
	list = append(list, pkg)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Version.Compare(list[j].Version) > 0
	})
	u.byName[pkg.Name] = list
}

// Packages returns the candidates for name, newest first. The returned
// slice must not be mutated by the caller.
func (u *Universe) Packages(name string) []Package {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.byName[name]
}

// Get returns the package with the given name whose version compares equal
// to v, if present.
func (u *Universe) Get(name string, v Version) (Package, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, p := range u.byName[name] {
		if p.Version.Compare(v) == 0 {
			return p, true
		}
	}
	return Package{}, false
}

// GetKey looks a package up directly by its PackageKey.
func (u *Universe) GetKey(key PackageKey) (Package, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, p := range u.byName[key.Name] {
		if p.Version.String() == key.Version {
			return p, true
		}
	}
	return Package{}, false
}

// NearestByPrefix returns the longest registered package name that is a
// prefix of name, for use only as a diagnostic "did you mean" helper (see
// DESIGN.md on the devDependency-root Open Question this spec resolved in
// favor of exact matching). It is never used for selection.
func (u *Universe) NearestByPrefix(name string) (string, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if key, _, ok := u.names.LongestPrefix(name); ok {
		return key, true
	}
	return "", false
}

// All returns every package currently in the universe, in unspecified
// order.
func (u *Universe) All() []Package {
	u.mu.Lock()
	defer u.mu.Unlock()
	var out []Package
	for _, list := range u.byName {
		out = append(out, list...)
	}
	return out
}
