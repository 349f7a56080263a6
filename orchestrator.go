package solve

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nativepkg/solve/internal/solverproc"
)

// Config bundles what a Solve call needs beyond the dependency graph itself:
// which external solver to invoke, how long to let each invocation run, and
// the Resolver collaborator that expands requirements into packages.
type Config struct {
	SolverCmd string
	Timeout   time.Duration
	Resolver  Resolver
	Trace     *Tracer

	runner solverproc.Runner // overridable by tests; nil means solverproc.ExecRunner{Command: SolverCmd}
}

// NewConfig validates cfg, resolving SolverCmd on PATH, and returns it ready
// to pass to Solve.
func NewConfig(solverCmd string, timeout time.Duration, resolver Resolver) (Config, error) {
	runner := solverproc.ExecRunner{Command: solverCmd}
	if err := runner.LookPath(); err != nil {
		return Config{}, &ConfigError{msg: fmt.Sprintf("solver executable %q not found on PATH: %v", solverCmd, err)}
	}
	return Config{SolverCmd: solverCmd, Timeout: timeout, Resolver: resolver, runner: runner}, nil
}

func (c Config) timeoutSeconds() int {
	secs := int(c.Timeout / time.Second)
	if c.Timeout%time.Second != 0 {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Solve runs the two-phase resolution algorithm against root: first the
// runtime closure (root.Dependencies) under the "trendy" strategy, then each
// of root.DevDependencies solved independently and incrementally against the
// runtime closure under the "minimalAddition" strategy, with the runtime set
// passed as installed so it's preferred rather than churned.
//
// DevDependency solves run concurrently (errgroup); the first one to fail
// cancels the rest and its error is what Solve returns.
func Solve(ctx context.Context, cfg Config, resolutions Resolutions, root Package) (Solution, error) {
	runner := cfg.runner
	if runner == nil {
		runner = solverproc.ExecRunner{Command: cfg.SolverCmd}
	}

	universe := NewUniverse()
	root = root.WithDependencies(resolutions.ApplyAll(root.Dependencies))
	rootKey := root.Key()

	if err := add(ctx, universe, cfg.Resolver, resolutions, root.Dependencies); err != nil {
		return Solution{}, err
	}

	cfg.Trace.solving(string(solverproc.StrategyTrendy), root.Name)
	runtimeSet, err := solveDependencies(ctx, universe, cfg.Resolver, runner, root, root.Dependencies, nil, solverproc.StrategyTrendy, cfg.timeoutSeconds())
	if err != nil {
		if uerr, ok := err.(*UnsatError); ok {
			cfg.Trace.unsat("runtime", len(uerr.Explanation()))
		}
		return Solution{}, err
	}
	cfg.Trace.solved("runtime", len(runtimeSet))

	runtimeChildren := make([]Solution, 0, len(runtimeSet))
	for key := range runtimeSet {
		pkg, ok := universe.GetKey(key)
		if !ok {
			return Solution{}, &InternalError{msg: "runtime solution names " + key.String() + ", absent from the universe"}
		}
		runtimeChildren = append(runtimeChildren, Solution{Package: pkg})
	}

	devDeps := resolutions.ApplyAll(root.DevDependencies)
	devChildren := make([]Solution, len(devDeps))

	g, gctx := errgroup.WithContext(ctx)
	for i, dd := range devDeps {
		i, dd := i, dd
		g.Go(func() error {
			if err := add(gctx, universe, cfg.Resolver, resolutions, []Req{dd}); err != nil {
				return err
			}

			devRoot := root.WithDependencies([]Req{dd})
			resultSet, err := solveDependencies(gctx, universe, cfg.Resolver, runner, devRoot, []Req{dd}, runtimeSet, solverproc.StrategyMinimalAddition, cfg.timeoutSeconds())
			if err != nil {
				if uerr, ok := err.(*UnsatError); ok {
					cfg.Trace.unsat("devDependency:"+dd.Name, len(uerr.Explanation()))
				}
				return err
			}

			private := make(map[PackageKey]struct{}, len(resultSet))
			for key := range resultSet {
				if key == rootKey {
					continue
				}
				if _, inRuntime := runtimeSet[key]; inRuntime {
					continue
				}
				private[key] = struct{}{}
			}

			var devPkgKey PackageKey
			found := false
			for key := range private {
				if key.Name == dd.Name {
					devPkgKey = key
					found = true
					break
				}
			}
			if !found {
				return &InternalError{msg: "devDependency solve for " + dd.String() + " selected no package named " + dd.Name}
			}
			delete(private, devPkgKey)

			devPkg, ok := universe.GetKey(devPkgKey)
			if !ok {
				return &InternalError{msg: "devDependency solution names " + devPkgKey.String() + ", absent from the universe"}
			}

			children := make([]Solution, 0, len(private))
			for key := range private {
				pkg, ok := universe.GetKey(key)
				if !ok {
					return &InternalError{msg: "devDependency solution names " + key.String() + ", absent from the universe"}
				}
				children = append(children, Solution{Package: pkg})
			}

			cfg.Trace.solved("devDependency:"+dd.Name, len(children)+1)
			devChildren[i] = Solution{Package: devPkg, Children: children}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Solution{}, err
	}

	children := append(runtimeChildren, devChildren...)
	return Solution{Package: root, Children: children}, nil
}
