package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvdl/esperanto/internal/fs"
)

func TestResolveRelative(t *testing.T) {
	assert.Equal(t, "foo", Resolve("./foo", "main.js"))
	assert.Equal(t, "dir/foo", Resolve("./foo.js", "dir/main.js"))
	assert.Equal(t, "a/x", Resolve("../x", "a/b/c.js"))
	assert.Equal(t, "x", Resolve("../../x", "a/b.js"))
	assert.Equal(t, "a/b/d", Resolve("./c/../d", "a/b/main.js"))
}

func TestResolveExternal(t *testing.T) {
	assert.Equal(t, "lodash", Resolve("lodash", "main.js"))
	assert.Equal(t, "lodash", Resolve("lodash.js", "main.js"))
	assert.Equal(t, "some/pkg", Resolve("some/pkg", "deep/main.js"))
}

func TestResolveBackslashSeparators(t *testing.T) {
	assert.Equal(t, "dir/foo", Resolve(".\\foo", "dir\\main.js"))
	assert.Equal(t, "x", Resolve("..\\x", "a\\b.js"))
}

func TestProbe(t *testing.T) {
	fsys := fs.MockFS(map[string]string{
		"base/a.js":       "A",
		"base/b/index.js": "B",
	})

	path, contents, err := Probe(fsys, "base", "a")
	require.NoError(t, err)
	assert.Equal(t, "base/a.js", path)
	assert.Equal(t, "A", contents)

	path, contents, err = Probe(fsys, "base", "b")
	require.NoError(t, err)
	assert.Equal(t, "base/b/index.js", path)
	assert.Equal(t, "B", contents)

	_, _, err = Probe(fsys, "base", "c")
	require.Error(t, err)
	assert.True(t, fs.IsNotExist(err))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "a/b.js", Join("a", "b.js"))
	assert.Equal(t, "b.js", Join("", "b.js"))
	assert.Equal(t, "a/b/c", Join("a/", "b", "c"))
}
