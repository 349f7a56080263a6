package fixture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nativepkg/solve"
)

func TestResolverResolveFiltersBySpec(t *testing.T) {
	r := New([]Spec{
		{Name: "foo", Version: "1.0.0"},
		{Name: "foo", Version: "2.0.0"},
		{Name: "foo", Version: "1.5.0"},
	})

	req, err := solve.NewReq("foo", "^1.0.0")
	require.NoError(t, err)

	out, err := r.Resolve(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "1.5.0", out[0].Version.String())
	assert.Equal(t, "1.0.0", out[1].Version.String())
}

func TestResolverResolveUnknownNameIsEmptyNotError(t *testing.T) {
	r := New(nil)
	req, err := solve.NewReq("ghost", "*")
	require.NoError(t, err)

	out, err := r.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestResolverPackageExpandsDependencies(t *testing.T) {
	r := New([]Spec{
		{Name: "foo", Version: "1.0.0", Deps: []string{"bar ^2.0.0"}},
		{Name: "bar", Version: "2.0.0"},
	})

	req, err := solve.NewReq("foo", "*")
	require.NoError(t, err)
	candidates, err := r.Resolve(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	pkg, err := r.Package(context.Background(), candidates[0])
	require.NoError(t, err)
	require.Len(t, pkg.Dependencies, 1)
	assert.Equal(t, "bar ^2.0.0", pkg.Dependencies[0].String())
}

func TestResolverPackageUnknownResolutionErrors(t *testing.T) {
	r := New(nil)
	_, err := r.Package(context.Background(), solve.Resolution{Name: "ghost", Version: solve.NewSemverVersion("1.0.0")})
	assert.Error(t, err)
}

func TestNewPanicsOnMalformedVersion(t *testing.T) {
	assert.Panics(t, func() {
		New([]Spec{{Name: "foo", Version: "not a version !!"}})
	})
}
