package cache

import (
	"context"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nativepkg/solve"
)

// countingResolver wraps an inner solve.Resolver and counts how many times
// each method is actually invoked, so tests can assert a cache hit skipped
// the call entirely.
type countingResolver struct {
	resolveCalls int
	packageCalls int
	resolutions  []solve.Resolution
	pkg          solve.Package
	err          error
}

func (c *countingResolver) Resolve(context.Context, solve.Req) ([]solve.Resolution, error) {
	c.resolveCalls++
	return c.resolutions, c.err
}

func (c *countingResolver) Package(context.Context, solve.Resolution) (solve.Package, error) {
	c.packageCalls++
	return c.pkg, c.err
}

func openTestCache(t *testing.T, epoch int64) *Cache {
	t.Helper()
	dir, err := ioutil.TempDir("", "solve-cache-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	c, err := Open(filepath.Join(dir, "cache.db"), epoch)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCacheResolveHitsSkipInner(t *testing.T) {
	c := openTestCache(t, 0)
	req, err := solve.NewReq("foo", "^1.0.0")
	require.NoError(t, err)

	inner := &countingResolver{resolutions: []solve.Resolution{
		{Name: "foo", Version: solve.NewSemverVersion("1.2.0"), Source: "registry"},
	}}
	wrapped := c.Wrap(inner)

	first, err := wrapped.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.resolveCalls)

	second, err := wrapped.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.resolveCalls, "second call should be served from cache")
	assert.Equal(t, first, second)
}

func TestCachePackageHitsSkipInner(t *testing.T) {
	c := openTestCache(t, 0)
	dep, err := solve.NewReq("bar", "*")
	require.NoError(t, err)

	inner := &countingResolver{pkg: solve.Package{
		Name:         "foo",
		Version:      solve.NewSemverVersion("1.2.0"),
		Source:       "registry",
		Dependencies: []solve.Req{dep},
	}}
	wrapped := c.Wrap(inner)
	res := solve.Resolution{Name: "foo", Version: solve.NewSemverVersion("1.2.0")}

	first, err := wrapped.Package(context.Background(), res)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.packageCalls)
	require.Len(t, first.Dependencies, 1)
	assert.Equal(t, "bar *", first.Dependencies[0].String())

	second, err := wrapped.Package(context.Background(), res)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.packageCalls, "second call should be served from cache")
	assert.Equal(t, first, second)
}

func TestCacheEntryOlderThanEpochIsMiss(t *testing.T) {
	dir, err := ioutil.TempDir("", "solve-cache-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "cache.db")

	c, err := Open(path, 0)
	require.NoError(t, err)

	req, err := solve.NewReq("foo", "*")
	require.NoError(t, err)
	inner := &countingResolver{resolutions: []solve.Resolution{{Name: "foo", Version: solve.NewSemverVersion("1.0.0")}}}
	_, err = c.Wrap(inner).Resolve(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	// Reopen with an epoch set far in the future: every entry already in
	// the file predates it and must be treated as absent.
	future, err := Open(path, 1<<62)
	require.NoError(t, err)
	t.Cleanup(func() { future.Close() })

	_, err = future.Wrap(inner).Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.resolveCalls, "entry older than the new epoch must not be served")
}

func TestCachePropagatesInnerError(t *testing.T) {
	c := openTestCache(t, 0)
	req, err := solve.NewReq("foo", "*")
	require.NoError(t, err)

	inner := &countingResolver{err: errors.New("boom")}
	_, err = c.Wrap(inner).Resolve(context.Background(), req)
	assert.Error(t, err)
	assert.Equal(t, 1, inner.resolveCalls)
}
