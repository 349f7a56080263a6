package cudf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadStanzasSplitsOnBlankLines(t *testing.T) {
	input := "package: foo\nversion: 1\n\npackage: bar\nversion: 2\n"
	stanzas, err := readStanzas(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, stanzas, 2)

	name, ok := stanzas[0].get("package")
	require.True(t, ok)
	assert.Equal(t, "foo", name)

	name, ok = stanzas[1].get("package")
	require.True(t, ok)
	assert.Equal(t, "bar", name)
}

func TestReadStanzasFoldsContinuationLines(t *testing.T) {
	input := "package: foo\ndepends: a = 1,\n b = 2\n"
	stanzas, err := readStanzas(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, stanzas, 1)

	list := stanzas[0].list("depends")
	assert.Equal(t, []string{"a = 1", "b = 2"}, list)
}

func TestReadStanzasRejectsLineWithoutColon(t *testing.T) {
	_, err := readStanzas(strings.NewReader("this has no colon\n"))
	assert.Error(t, err)
}

func TestStanzaListEmptyWhenFieldAbsent(t *testing.T) {
	s := stanza{{key: "package", value: "foo"}}
	assert.Nil(t, s.list("depends"))
}
