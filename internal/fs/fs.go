package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

// FS is the read surface the module loader sees. Paths use "/"
// separators; implementations translate to host separators as needed.
type FS interface {
	ReadFile(path string) (string, error)
}

// IsNotExist reports whether err means the file is absent, which the
// bundle loader treats as "this import is external".
func IsNotExist(err error) bool {
	return errors.Is(err, iofs.ErrNotExist)
}

type realFS struct {
	cache *lru.Cache[string, string]
}

// RealFS reads from disk through a bounded cache so that repeated
// bundles of the same tree don't re-read unchanged files.
func RealFS() FS {
	cache, err := lru.New[string, string](256)
	if err != nil {
		panic(err)
	}
	return &realFS{cache: cache}
}

func (fs *realFS) ReadFile(path string) (string, error) {
	if contents, ok := fs.cache.Get(path); ok {
		return contents, nil
	}
	buffer, err := os.ReadFile(filepath.FromSlash(path))
	if err != nil {
		return "", err
	}
	contents := string(buffer)
	fs.cache.Add(path, contents)
	return contents, nil
}

type mockFS struct {
	files map[string]string
}

// MockFS reads from a fixed map of paths to contents. Tests use this
// so bundling never touches the real file system.
func MockFS(input map[string]string) FS {
	files := make(map[string]string, len(input))
	for k, v := range input {
		files[k] = v
	}
	return &mockFS{files: files}
}

func (fs *mockFS) ReadFile(path string) (string, error) {
	if contents, ok := fs.files[path]; ok {
		return contents, nil
	}
	return "", iofs.ErrNotExist
}
