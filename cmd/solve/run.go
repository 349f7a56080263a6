package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nativepkg/solve"
	"github.com/nativepkg/solve/internal/cache"
	"github.com/nativepkg/solve/internal/fixture"
)

type runOptions struct {
	FixturesPath string
	SolverCmd    string
	Timeout      time.Duration
	RootName     string
	RootVersion  string
	Deps         []string
	DevDeps      []string
	Trace        bool
	CachePath    string
}

func newRunCommand() *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Solve a root package's dependencies against a fixture table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSolve(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.FixturesPath, "fixtures", "", "Path to a JSON array of fixture packages (required)")
	flags.StringVar(&opts.SolverCmd, "solver-cmd", "aspcud", "External PBO/SAT solver executable")
	flags.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "Per-invocation external solver timeout")
	flags.StringVar(&opts.RootName, "root-name", "root", "Name of the synthetic root package")
	flags.StringVar(&opts.RootVersion, "root-version", "0.0.0", "Version of the synthetic root package")
	flags.StringArrayVar(&opts.Deps, "dep", nil, `Runtime requirement, "name spec" (repeatable)`)
	flags.StringArrayVar(&opts.DevDeps, "dev-dep", nil, `DevDependency requirement, "name spec" (repeatable)`)
	flags.BoolVar(&opts.Trace, "trace", false, "Log structured solve trace events to stderr")
	flags.StringVar(&opts.CachePath, "cache", "", "Path to a BoltDB file caching resolver responses across runs (disabled if unset)")

	_ = viper.BindPFlag("solver_cmd", flags.Lookup("solver-cmd"))
	_ = viper.BindPFlag("timeout", flags.Lookup("timeout"))
	_ = viper.BindPFlag("trace", flags.Lookup("trace"))
	_ = viper.BindPFlag("cache", flags.Lookup("cache"))
	viper.SetEnvPrefix("SOLVE")
	viper.AutomaticEnv()

	return cmd
}

func runSolve(ctx context.Context, opts runOptions) error {
	if opts.FixturesPath == "" {
		return fmt.Errorf("--fixtures is required")
	}

	specs, err := loadFixtures(opts.FixturesPath)
	if err != nil {
		return err
	}
	var resolver solve.Resolver = fixture.New(specs)

	cachePath := opts.CachePath
	if viper.IsSet("cache") {
		cachePath = viper.GetString("cache")
	}
	if cachePath != "" {
		c, err := cache.Open(cachePath, time.Now().Unix())
		if err != nil {
			return err
		}
		defer c.Close()
		resolver = c.Wrap(resolver)
	}

	solverCmd := viper.GetString("solver_cmd")
	if solverCmd == "" {
		solverCmd = opts.SolverCmd
	}
	timeout := opts.Timeout
	if viper.IsSet("timeout") {
		timeout = viper.GetDuration("timeout")
	}

	cfg, err := solve.NewConfig(solverCmd, timeout, resolver)
	if err != nil {
		return err
	}
	if opts.Trace || viper.GetBool("trace") {
		cfg.Trace = solve.NewTracer(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	root, err := buildRoot(opts)
	if err != nil {
		return err
	}

	solution, err := solve.Solve(ctx, cfg, nil, root)
	if err != nil {
		if uerr, ok := err.(*solve.UnsatError); ok {
			fmt.Fprintln(os.Stderr, uerr.Error())
			for _, reason := range uerr.Explanation() {
				fmt.Fprintln(os.Stderr, " -", reason.String())
			}
			return fmt.Errorf("unsatisfiable")
		}
		return err
	}

	printSolution(solution, 0)
	return nil
}

func buildRoot(opts runOptions) (solve.Package, error) {
	v, err := solve.ParseVersion(opts.RootVersion)
	if err != nil {
		return solve.Package{}, err
	}
	deps, err := parseReqs(opts.Deps)
	if err != nil {
		return solve.Package{}, err
	}
	devDeps, err := parseReqs(opts.DevDeps)
	if err != nil {
		return solve.Package{}, err
	}
	return solve.Package{
		Name:            opts.RootName,
		Version:         v,
		Dependencies:    deps,
		DevDependencies: devDeps,
	}, nil
}

func parseReqs(raw []string) ([]solve.Req, error) {
	out := make([]solve.Req, 0, len(raw))
	for _, s := range raw {
		name, spec := s, "*"
		for i := 0; i < len(s); i++ {
			if s[i] == ' ' {
				name, spec = s[:i], s[i+1:]
				break
			}
		}
		req, err := solve.NewReq(name, spec)
		if err != nil {
			return nil, fmt.Errorf("parsing requirement %q: %w", s, err)
		}
		out = append(out, req)
	}
	return out, nil
}

func loadFixtures(path string) ([]fixture.Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening fixture file: %w", err)
	}
	defer f.Close()

	var specs []fixture.Spec
	if err := json.NewDecoder(f).Decode(&specs); err != nil {
		return nil, fmt.Errorf("decoding fixture file: %w", err)
	}
	return specs, nil
}

func printSolution(s solve.Solution, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	fmt.Printf("%s%s@%s\n", indent, s.Package.Name, s.Package.Version)
	for _, child := range s.Children {
		printSolution(child, depth+1)
	}
}
