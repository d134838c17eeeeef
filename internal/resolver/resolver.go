// Package resolver maps import paths to canonical module ids and
// module ids to candidate files on disk. Ids are path-shaped, use "/"
// separators, and carry no extension.
package resolver

import (
	"strings"

	"github.com/jvdl/esperanto/internal/fs"
)

// Resolve canonicalizes an import path against the importing module's
// path. Non-relative paths name external modules and are returned
// as-is (minus a trailing ".js"); relative paths are joined with the
// importer's directory, collapsing "." and ".." segments. Both "/" and
// "\" separate components.
func Resolve(importPath string, importerPath string) string {
	if !strings.HasPrefix(importPath, ".") {
		return strings.TrimSuffix(importPath, ".js")
	}

	importerParts := split(importerPath)
	resolved := importerParts[:len(importerParts)-1]

	for _, part := range split(importPath) {
		switch part {
		case "", ".":
		case "..":
			if len(resolved) > 0 {
				resolved = resolved[:len(resolved)-1]
			}
		default:
			resolved = append(resolved, part)
		}
	}

	return strings.TrimSuffix(strings.Join(resolved, "/"), ".js")
}

func split(p string) []string {
	return strings.FieldsFunc(p, func(c rune) bool {
		return c == '/' || c == '\\'
	})
}

// Probe locates the file for a module id under base, trying
// "<base>/<id>.js" then "<base>/<id>/index.js". The not-exist error of
// the last candidate is returned when neither is present; any other
// read error aborts immediately.
func Probe(fsys fs.FS, base string, id string) (path string, contents string, err error) {
	candidates := [2]string{Join(base, id+".js"), Join(base, id+"/index.js")}
	for i, candidate := range candidates {
		contents, err = fsys.ReadFile(candidate)
		if err == nil {
			return candidate, contents, nil
		}
		if !fs.IsNotExist(err) || i == len(candidates)-1 {
			return "", "", err
		}
	}
	return "", "", err
}

// Join concatenates path fragments with "/", ignoring empty ones.
func Join(parts ...string) string {
	var kept []string
	for _, part := range parts {
		if part != "" {
			kept = append(kept, strings.TrimSuffix(part, "/"))
		}
	}
	return strings.Join(kept, "/")
}
