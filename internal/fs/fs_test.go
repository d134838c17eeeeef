package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockFS(t *testing.T) {
	fsys := MockFS(map[string]string{"dir/a.js": "contents"})

	contents, err := fsys.ReadFile("dir/a.js")
	require.NoError(t, err)
	assert.Equal(t, "contents", contents)

	_, err = fsys.ReadFile("dir/missing.js")
	require.Error(t, err)
	assert.True(t, IsNotExist(err))
}

func TestRealFSReadsAndCaches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.js")
	require.NoError(t, os.WriteFile(path, []byte("var a = 1;"), 0o644))

	fsys := RealFS()

	contents, err := fsys.ReadFile(filepath.ToSlash(path))
	require.NoError(t, err)
	assert.Equal(t, "var a = 1;", contents)

	// A second read comes from the cache even if the file changes
	require.NoError(t, os.WriteFile(path, []byte("var a = 2;"), 0o644))
	contents, err = fsys.ReadFile(filepath.ToSlash(path))
	require.NoError(t, err)
	assert.Equal(t, "var a = 1;", contents)

	_, err = fsys.ReadFile(filepath.ToSlash(filepath.Join(dir, "missing.js")))
	assert.True(t, IsNotExist(err))
}
