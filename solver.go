package solve

import (
	"bytes"
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nativepkg/solve/internal/cudf"
	"github.com/nativepkg/solve/internal/solverproc"
)

// add recursively expands reqs against resolver, inserting every reachable
// candidate — not just whichever the external solver eventually selects —
// into universe, so its CUDF encoding has a full set of alternatives to
// choose from. Requirements are rewritten through resolutions before being
// resolved, and a package's declared Dependencies are rewritten through
// resolutions before being stored, so an override takes effect no matter how
// deep the dependency was reached (invariant I1). BuildDependencies travel
// with the package unexpanded; they are never queued for expansion.
func add(ctx context.Context, universe *Universe, resolver Resolver, resolutions Resolutions, reqs []Req) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, req := range reqs {
		req := resolutions.Apply(req)
		g.Go(func() error {
			return addReq(ctx, universe, resolver, resolutions, req)
		})
	}
	return g.Wait()
}

func addReq(ctx context.Context, universe *Universe, resolver Resolver, resolutions Resolutions, req Req) error {
	candidates, err := resolver.Resolve(ctx, req)
	if err != nil {
		return newResolverError(req, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, cand := range candidates {
		cand := cand
		g.Go(func() error {
			return addCandidate(ctx, universe, resolver, resolutions, cand)
		})
	}
	return g.Wait()
}

func addCandidate(ctx context.Context, universe *Universe, resolver Resolver, resolutions Resolutions, cand Resolution) error {
	probe := Package{Name: cand.Name, Version: cand.Version}
	if universe.Mem(probe) {
		return nil
	}

	pkg, err := resolver.Package(ctx, cand)
	if err != nil {
		return newResolverError(Req{Name: cand.Name, Spec: anySpec{}}, err)
	}
	pkg = pkg.WithDependencies(resolutions.ApplyAll(pkg.Dependencies))

	if universe.Mem(pkg) {
		return nil
	}
	universe.Add(pkg)

	return add(ctx, universe, resolver, resolutions, pkg.Dependencies)
}

// solveDependencies attaches deps to a synthetic copy of rootPkg, encodes the
// whole universe to CUDF with installed marked, and invokes runner under
// strategy. installed marks the packages already chosen
// in an earlier phase that the trendy/minimalAddition criteria should prefer
// to keep rather than churn.
//
// On success it returns the selected package set, rootPkg excluded. On the
// documented "unsatisfiable" result it parses the diagnostic stream,
// reconstructs an Explanation, and returns it wrapped in an *UnsatError.
func solveDependencies(
	ctx context.Context,
	universe *Universe,
	resolver Resolver,
	runner solverproc.Runner,
	rootPkg Package,
	deps []Req,
	installed map[PackageKey]struct{},
	strategy solverproc.Strategy,
	timeoutSeconds int,
) (map[PackageKey]struct{}, error) {
	root := rootPkg.WithDependencies(deps)

	doc, mapping, err := universe.ToCudf(installed)
	if err != nil {
		return nil, err
	}

	rootCudfName := mapping.CudfName(root.Name)
	rootRef := cudf.PackageRef{Name: rootCudfName, Version: 0}
	mapping.byKey[root.Key()] = rootRef
	mapping.byRef[rootRef] = root.Key()

	doc.Packages = append(doc.Packages, cudf.Package{
		Name:      rootCudfName,
		Version:   0,
		Depends:   universe.EncodeDepends(mapping, root.Dependencies),
		Installed: true,
		Keep:      true,
	})
	doc.Request = cudf.Request{InstallName: rootCudfName, InstallVersion: 0}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, newProcessError(err)
	}

	result, err := runner.Run(ctx, buf.Bytes(), strategy, timeoutSeconds)
	if err != nil {
		return nil, newProcessError(err)
	}

	if result.Unsatisfiable {
		diags, err := cudf.ParseDiagnostics(bytes.NewReader(result.Stdout))
		if err != nil {
			return nil, newProcessError(err)
		}
		explanation, err := Explain(ctx, diags, mapping, universe, root, resolver)
		if err != nil {
			return nil, err
		}
		return nil, newUnsatError(explanation)
	}

	refs, err := cudf.ParseSolution(bytes.NewReader(result.Stdout))
	if err != nil {
		return nil, newProcessError(err)
	}

	selected := make(map[PackageKey]struct{}, len(refs))
	for _, ref := range refs {
		key, ok := mapping.Decode(ref)
		if !ok {
			return nil, &InternalError{msg: fmt.Sprintf("solution names unrecognized cudf package %s=%d", ref.Name, ref.Version)}
		}
		if key == root.Key() {
			continue
		}
		selected[key] = struct{}{}
	}
	return selected, nil
}
