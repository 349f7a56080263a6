package solve

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nativepkg/solve/internal/fixture"
	"github.com/nativepkg/solve/internal/solverproc"
)

// fakeRunner replays a scripted sequence of results, one per call, so tests
// can drive solveDependencies without a real external solver.
type fakeRunner struct {
	results []solverproc.Result
	calls   int

	lastDocument []byte
	lastStrategy solverproc.Strategy
}

func (f *fakeRunner) Run(_ context.Context, doc []byte, strategy solverproc.Strategy, _ int) (solverproc.Result, error) {
	f.lastDocument = doc
	f.lastStrategy = strategy
	r := f.results[f.calls]
	f.calls++
	return r, nil
}

func TestAddExpandsTransitiveClosure(t *testing.T) {
	resolver := fixture.New([]fixture.Spec{
		{Name: "foo", Version: "1.0.0", Deps: []string{"bar ^1.0.0"}},
		{Name: "bar", Version: "1.0.0", Deps: []string{"baz ^1.0.0"}},
		{Name: "baz", Version: "1.0.0"},
	})

	u := NewUniverse()
	fooReq, err := NewReq("foo", "*")
	require.NoError(t, err)

	err = add(context.Background(), u, resolver, nil, []Req{fooReq})
	require.NoError(t, err)

	assert.Len(t, u.Packages("foo"), 1)
	assert.Len(t, u.Packages("bar"), 1)
	assert.Len(t, u.Packages("baz"), 1)
}

func TestAddTerminatesOnDependencyCycle(t *testing.T) {
	resolver := fixture.New([]fixture.Spec{
		{Name: "foo", Version: "1.0.0", Deps: []string{"bar *"}},
		{Name: "bar", Version: "1.0.0", Deps: []string{"foo *"}},
	})

	u := NewUniverse()
	fooReq, err := NewReq("foo", "*")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- add(context.Background(), u, resolver, nil, []Req{fooReq}) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("add() did not terminate on a dependency cycle")
	}
}

func TestAddRewritesDependenciesThroughResolutions(t *testing.T) {
	resolver := fixture.New([]fixture.Spec{
		{Name: "foo", Version: "1.0.0", Deps: []string{"bar ^1.0.0"}},
		{Name: "bar", Version: "1.0.0"},
		{Name: "bar", Version: "2.0.0"},
	})

	override, err := NewReq("bar", "2.0.0")
	require.NoError(t, err)
	resolutions := Resolutions{"bar": override}

	u := NewUniverse()
	fooReq, err := NewReq("foo", "*")
	require.NoError(t, err)
	require.NoError(t, add(context.Background(), u, resolver, resolutions, []Req{fooReq}))

	foo, ok := u.Get("foo", NewSemverVersion("1.0.0"))
	require.True(t, ok)
	require.Len(t, foo.Dependencies, 1)
	assert.Equal(t, "2.0.0", foo.Dependencies[0].Spec.String())
}

func TestSolveDependenciesSuccess(t *testing.T) {
	resolver := fixture.New([]fixture.Spec{
		{Name: "foo", Version: "1.0.0", Deps: []string{"bar ^1.0.0"}},
		{Name: "bar", Version: "1.0.0"},
	})

	u := NewUniverse()
	fooReq, err := NewReq("foo", "^1.0.0")
	require.NoError(t, err)
	require.NoError(t, add(context.Background(), u, resolver, nil, []Req{fooReq}))

	root := Package{Name: "root", Version: NewSemverVersion("0.0.0")}
	runner := &fakeRunner{results: []solverproc.Result{
		{Stdout: []byte("package: foo\nversion: 1\ninstalled: true\n\npackage: bar\nversion: 1\ninstalled: true\n\npackage: root\nversion: 0\ninstalled: true\n\n")},
	}}

	selected, err := solveDependencies(context.Background(), u, resolver, runner, root, []Req{fooReq}, nil, solverproc.StrategyTrendy, 30)
	require.NoError(t, err)

	foo, _ := u.Get("foo", NewSemverVersion("1.0.0"))
	bar, _ := u.Get("bar", NewSemverVersion("1.0.0"))
	assert.Equal(t, map[PackageKey]struct{}{foo.Key(): {}, bar.Key(): {}}, selected)
	assert.Equal(t, solverproc.StrategyTrendy, runner.lastStrategy)
}

func TestSolveDependenciesUnsatReturnsExplanation(t *testing.T) {
	resolver := fixture.New([]fixture.Spec{
		{Name: "foo", Version: "1.0.0", Deps: []string{"ghost ^1.0.0"}},
	})

	u := NewUniverse()
	fooReq, err := NewReq("foo", "^1.0.0")
	require.NoError(t, err)
	require.NoError(t, add(context.Background(), u, resolver, nil, []Req{fooReq}))

	root := Package{Name: "root", Version: NewSemverVersion("0.0.0")}
	diagnosticDoc := "reason: dependency\npackage: root\nversion: 0\ndeps: foo = 1\n\n" +
		"reason: missing\npackage: foo\nversion: 1\nunmet: ghost|^1.0.0\n\n"
	runner := &fakeRunner{results: []solverproc.Result{
		{Unsatisfiable: true, Stdout: []byte(diagnosticDoc)},
	}}

	_, err = solveDependencies(context.Background(), u, resolver, runner, root, []Req{fooReq}, nil, solverproc.StrategyTrendy, 30)
	require.Error(t, err)

	var uerr *UnsatError
	require.ErrorAs(t, err, &uerr)
	require.Len(t, uerr.Explanation(), 1)
	missing, ok := uerr.Explanation()[0].(MissingReason)
	require.True(t, ok)
	assert.Equal(t, "ghost", missing.Chain.Req.Name)
}
