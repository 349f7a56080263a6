package solve

import (
	"context"

	"github.com/nativepkg/solve/internal/cudf"
)

// Explain walks the external solver's diagnostic output and synthesizes a
// de-duplicated, ordered Explanation: dependency chains for each Missing
// reason, and the two chains underlying each Conflict.
func Explain(ctx context.Context, diags []cudf.Diagnostic, mapping *CudfMapping, universe *Universe, root Package, resolver Resolver) (Explanation, error) {
	parents := make(map[PackageKey]PackageKey)
	for _, d := range diags {
		if d.Kind != cudf.KindDependency {
			continue
		}
		if d.Package == cudf.DoseDummyRequest {
			continue
		}
		parentKey, ok := mapping.Decode(cudf.PackageRef{Name: d.Package, Version: d.Version})
		if !ok {
			continue
		}
		for _, edge := range d.Edges {
			childKey, ok := mapping.Decode(cudf.PackageRef{Name: edge.Name, Version: edge.Version})
			if !ok {
				continue
			}
			if _, already := parents[childKey]; !already {
				parents[childKey] = parentKey
			}
		}
	}

	rootKey := root.Key()

	// ancestry returns [requestor, ancestor1, ..., key], walking parent
	// pointers until none is found. A cycle terminates the walk at the
	// repeat rather than looping forever.
	ancestry := func(key PackageKey) ([]PackageKey, error) {
		if key == rootKey {
			return nil, nil
		}
		chain := []PackageKey{key}
		seen := map[PackageKey]bool{key: true}
		cur := key
		for {
			parent, ok := parents[cur]
			if !ok {
				break
			}
			if seen[parent] {
				break
			}
			chain = append(chain, parent)
			seen[parent] = true
			cur = parent
		}
		if len(chain) < 2 {
			return nil, &InternalError{msg: "dependency chain reconstruction produced a chain of length < 2 for " + key.String()}
		}
		reverseKeys(chain)
		return chain, nil
	}

	displayPath := func(key PackageKey) ([]PackageKey, error) {
		chain, err := ancestry(key)
		if err != nil {
			return nil, err
		}
		if chain == nil {
			return nil, nil
		}
		out := make([]PackageKey, len(chain))
		copy(out, chain)
		reverseKeys(out)
		return out, nil
	}

	reqOn := func(pkgKey PackageKey, depName string) (Req, bool) {
		var deps []Req
		if pkgKey == rootKey {
			deps = root.Dependencies
		} else if pkg, ok := universe.GetKey(pkgKey); ok {
			deps = pkg.Dependencies
		}
		for _, r := range deps {
			if r.Name == depName {
				return r, true
			}
		}
		return Req{}, false
	}

	var out Explanation
	seenMissing := make(map[string]bool)
	seenConflict := make(map[string]bool)

	for _, d := range diags {
		switch d.Kind {
		case cudf.KindMissing:
			pkgKey, ok := mapping.Decode(cudf.PackageRef{Name: d.Package, Version: d.Version})
			if !ok {
				if d.Package != "" {
					continue
				}
				pkgKey = rootKey
			}
			path, err := displayPath(pkgKey)
			if err != nil {
				return nil, err
			}
			for _, unmet := range d.Unmet {
				depName, ok := mapping.PackageName(unmet.Name)
				if !ok {
					depName = unmet.Name
				}
				req, ok := reqOn(pkgKey, depName)
				if !ok {
					return nil, &InternalError{msg: "missing diagnostic named " + depName + " but " + pkgKey.String() + " declares no such dependency"}
				}
				if seenMissing[req.String()] {
					continue
				}
				available, err := resolveUnfiltered(ctx, resolver, depName)
				if err != nil {
					return nil, err
				}
				seenMissing[req.String()] = true
				reason := MissingReason{
					Chain:     Chain{Req: req, Path: path},
					Available: available,
				}
				if len(available) == 0 {
					if suggestion, ok := universe.NearestByPrefix(depName); ok && suggestion != depName {
						reason.Suggestion = suggestion
					}
				}
				out = append(out, reason)
			}

		case cudf.KindConflict:
			aKey, aOK := mapping.Decode(cudf.PackageRef{Name: d.Package, Version: d.Version})
			bKey, bOK := mapping.Decode(cudf.PackageRef{Name: d.Other, Version: d.OtherVersion})
			if !aOK || !bOK {
				continue
			}
			aPath, err := displayPath(aKey)
			if err != nil {
				return nil, err
			}
			bPath, err := displayPath(bKey)
			if err != nil {
				return nil, err
			}
			if len(aPath) == 0 || len(bPath) == 0 {
				continue
			}
			aRequestor, aHasParent := parents[aKey]
			if !aHasParent {
				aRequestor = rootKey
			}
			bRequestor, bHasParent := parents[bKey]
			if !bHasParent {
				bRequestor = rootKey
			}
			reqA, ok := reqOn(aRequestor, aKey.Name)
			if !ok {
				return nil, &InternalError{msg: "conflict diagnostic's requestor " + aRequestor.String() + " declares no dependency on " + aKey.Name}
			}
			reqB, ok := reqOn(bRequestor, bKey.Name)
			if !ok {
				return nil, &InternalError{msg: "conflict diagnostic's requestor " + bRequestor.String() + " declares no dependency on " + bKey.Name}
			}

			dedupKey := conflictDedupKey(reqA.String(), reqB.String())
			if seenConflict[dedupKey] {
				continue
			}
			seenConflict[dedupKey] = true
			out = append(out, ConflictReason{
				A: Chain{Req: reqA, Path: aPath},
				B: Chain{Req: reqB, Path: bPath},
			})
		}
	}

	return out, nil
}

func resolveUnfiltered(ctx context.Context, resolver Resolver, name string) ([]Resolution, error) {
	req, err := NewReq(name, "*")
	if err != nil {
		return nil, err
	}
	res, err := resolver.Resolve(ctx, req)
	if err != nil {
		return nil, newResolverError(req, err)
	}
	return res, nil
}

func conflictDedupKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}

func reverseKeys(keys []PackageKey) {
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
}
