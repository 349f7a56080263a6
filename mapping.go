package solve

import (
	"fmt"
	"net/url"

	"github.com/nativepkg/solve/internal/cudf"
)

// CudfMapping is the only place the CUDF encoding leaks: a bidirectional
// mapping between Packages (by PackageKey) and their CUDF (name, dense
// integer version) identity, plus the package-name <-> cudf-name mapping
// (package names may contain characters, like "/", that aren't valid CUDF
// name tokens).
//
// A CudfMapping holds non-owning references into the Universe it was built
// from; it must not outlive the CudfUniverse it produced.
type CudfMapping struct {
	byKey map[PackageKey]cudf.PackageRef
	byRef map[cudf.PackageRef]PackageKey

	nameToCudf map[string]string
	cudfToName map[string]string
}

// Encode returns pkg's CUDF identity, if pkg was part of the universe this
// mapping was built from.
func (m *CudfMapping) Encode(pkg Package) (cudf.PackageRef, bool) {
	ref, ok := m.byKey[pkg.Key()]
	return ref, ok
}

// Decode is the inverse of Encode: it recovers the PackageKey for a CUDF
// package reference. Encode/Decode round-trip for every package in the
// universe this mapping was built from (invariant I4).
func (m *CudfMapping) Decode(ref cudf.PackageRef) (PackageKey, bool) {
	key, ok := m.byRef[ref]
	return key, ok
}

// CudfName returns the CUDF-safe token for a package name, registering a
// new escaping if name hasn't been seen by this mapping yet.
func (m *CudfMapping) CudfName(name string) string {
	if cn, ok := m.nameToCudf[name]; ok {
		return cn
	}
	cn := url.PathEscape(name)
	m.nameToCudf[name] = cn
	m.cudfToName[cn] = name
	return cn
}

// PackageName is the inverse of CudfName.
func (m *CudfMapping) PackageName(cudfName string) (string, bool) {
	name, ok := m.cudfToName[cudfName]
	return name, ok
}

// ToCudf renders every package in the universe into a CudfUniverse plus the
// mapping that was used to build it; every key in installed must already be
// present in u. Versions are renumbered to
// dense positive integers per name, preserving the universe's descending
// order: the newest candidate for a name gets the highest integer. Every
// package in installed is marked installed=true and keep=true (the
// "preferred" attribute so the external solver's trendy strategy honors
// it); every other package is installed=false.
func (u *Universe) ToCudf(installed map[PackageKey]struct{}) (*cudf.Universe, *CudfMapping, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	mapping := &CudfMapping{
		byKey:      make(map[PackageKey]cudf.PackageRef),
		byRef:      make(map[cudf.PackageRef]PackageKey),
		nameToCudf: make(map[string]string),
		cudfToName: make(map[string]string),
	}

	for key := range installed {
		if _, ok := u.index[key]; !ok {
			return nil, nil, &InternalError{msg: fmt.Sprintf("installed package %s is not present in the universe", key)}
		}
	}

	doc := &cudf.Universe{}

	for name, list := range u.byName {
		cn := mapping.CudfName(name)
		n := len(list)
		for i, pkg := range list {
			// list is sorted descending; the first entry gets version n,
			// the last gets version 1.
			cudfVersion := n - i
			ref := cudf.PackageRef{Name: cn, Version: cudfVersion}
			mapping.byKey[pkg.Key()] = ref
			mapping.byRef[ref] = pkg.Key()
		}
	}

	for name, list := range u.byName {
		cn := mapping.CudfName(name)
		n := len(list)
		for i, pkg := range list {
			cudfVersion := n - i
			_, isInstalled := installed[pkg.Key()]

			doc.Packages = append(doc.Packages, cudf.Package{
				Name:      cn,
				Version:   cudfVersion,
				Depends:   u.encodeDepends(mapping, pkg.Dependencies),
				Installed: isInstalled,
				Keep:      isInstalled,
			})
		}
	}

	return doc, mapping, nil
}

// EncodeDepends locks the universe and renders reqs into CUDF OR-clauses
// against mapping, the way ToCudf renders every stored package's
// Dependencies. It lets a caller (the solver driver, building the synthetic
// ROOT stanza) reuse the same encoding after ToCudf has already returned.
func (u *Universe) EncodeDepends(mapping *CudfMapping, reqs []Req) []cudf.OrClause {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.encodeDepends(mapping, reqs)
}

// encodeDepends turns each Req into an OR-clause of every candidate in the
// universe (for that name) it matches. A Req whose name has no matching
// candidate at all (or no candidates in the universe) yields a clause
// naming the bare cudf name (escaped by CudfName) with no version atom — which no
// package stanza can satisfy, so the external solver is expected to report
// it missing, exactly as invariant I2 anticipates.
func (u *Universe) encodeDepends(mapping *CudfMapping, reqs []Req) []cudf.OrClause {
	clauses := make([]cudf.OrClause, 0, len(reqs))
	for _, req := range reqs {
		cn := mapping.CudfName(req.Name)
		var clause cudf.OrClause
		for _, cand := range u.byName[req.Name] {
			if !req.Spec.Matches(cand.Version) {
				continue
			}
			ref, ok := mapping.byKey[cand.Key()]
			if !ok {
				continue
			}
			clause = append(clause, fmt.Sprintf("%s = %d", ref.Name, ref.Version))
		}
		if len(clause) == 0 {
			clause = cudf.OrClause{cn}
		}
		clauses = append(clauses, clause)
	}
	return clauses
}
