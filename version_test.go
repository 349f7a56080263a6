package solve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersionPrefersSemver(t *testing.T) {
	v, err := ParseVersion("1.2.3")
	require.NoError(t, err)
	_, ok := v.(SemverVersion)
	assert.True(t, ok, "expected a SemverVersion for a valid semver string")
}

func TestParseVersionFallsBackToOpam(t *testing.T) {
	v, err := ParseVersion("1.0.0~rc1")
	require.NoError(t, err)
	_, ok := v.(OpamVersion)
	assert.True(t, ok, "expected an OpamVersion for a tilde-prerelease string")
}

func TestParseVersionRejectsEmpty(t *testing.T) {
	_, err := ParseVersion("   ")
	assert.Error(t, err)
}

func TestSemverVersionCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.1", -1},
		{"2.0.0", "1.9.9", 1},
		{"1.2.3", "1.2.3", 0},
	}
	for _, tt := range tests {
		a := NewSemverVersion(tt.a)
		b := NewSemverVersion(tt.b)
		got := sign(a.Compare(b))
		assert.Equal(t, tt.want, got, "%s vs %s", tt.a, tt.b)
	}
}

func TestOpamVersionTildeSortsBeforeRelease(t *testing.T) {
	tilde, err := ParseVersion("1.0.0~rc1")
	require.NoError(t, err)
	release, err := ParseVersion("1.0.0-rc1")
	require.NoError(t, err)

	// Both normalize to the same base segments; the tilde form must sort
	// strictly before the non-tilde form.
	assert.Negative(t, tilde.Compare(release))
	assert.Positive(t, release.Compare(tilde))
}

func TestSortDescending(t *testing.T) {
	vs := []Version{
		NewSemverVersion("1.0.0"),
		NewSemverVersion("2.0.0"),
		NewSemverVersion("1.5.0"),
	}
	SortDescending(vs)
	require.Len(t, vs, 3)
	assert.Equal(t, "2.0.0", vs[0].String())
	assert.Equal(t, "1.5.0", vs[1].String())
	assert.Equal(t, "1.0.0", vs[2].String())
}

func TestSortAscending(t *testing.T) {
	vs := []Version{
		NewSemverVersion("2.0.0"),
		NewSemverVersion("1.0.0"),
		NewSemverVersion("1.5.0"),
	}
	SortAscending(vs)
	require.Len(t, vs, 3)
	assert.Equal(t, "1.0.0", vs[0].String())
	assert.Equal(t, "1.5.0", vs[1].String())
	assert.Equal(t, "2.0.0", vs[2].String())
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
