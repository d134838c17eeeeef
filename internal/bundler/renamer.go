package bundler

import (
	"fmt"
	"strings"

	"github.com/jvdl/esperanto/internal/js_ast"
	"github.com/jvdl/esperanto/internal/logger"
)

// AssignNames gives every module (local and external) a unique
// identifier prefix. The used set is seeded with the host builtin
// reservation list; user-supplied names win, then default-import
// aliases, then sanitized path suffixes.
func AssignNames(log logger.Log, b *Bundle, options Options) bool {
	used := make(map[string]bool, len(js_ast.Builtins))
	for name := range js_ast.Builtins {
		used[name] = true
	}

	userName := func(id string) string {
		if name := options.Names[id]; name != "" {
			return name
		}
		if options.GetModuleName != nil {
			return options.GetModuleName(id)
		}
		return ""
	}

	// User-assigned names first; a duplicate is fatal.
	ok := true
	claim := func(id string, setName func(string)) {
		name := userName(id)
		if name == "" {
			return
		}
		if used[name] {
			log.AddMsg(logger.Msg{Kind: logger.Error, ID: logger.IDNamingCollision,
				Text: fmt.Sprintf("Naming collision: module '%s' cannot be called '%s'", id, name)})
			ok = false
			return
		}
		used[name] = true
		setName(name)
	}
	for _, m := range b.Modules {
		m := m
		claim(m.ID, func(name string) { m.Name = name })
	}
	for _, ext := range b.ExternalModules {
		ext := ext
		claim(ext.ID, func(name string) { ext.Name = name })
	}
	if !ok {
		return false
	}

	// A module imported as a default adopts its first conflict-free
	// alias.
	adopt := func(id string, as string) {
		if used[as] {
			return
		}
		if m, local := b.ModuleLookup[id]; local {
			if m.Name == "" {
				m.Name = as
				used[as] = true
			}
		} else if ext, external := b.ExternalModuleLookup[id]; external {
			if ext.Name == "" {
				ext.Name = as
				used[as] = true
			}
		}
	}
	for _, m := range b.Modules {
		for _, imp := range m.Imports {
			for _, s := range imp.Specifiers {
				if s.Default {
					adopt(imp.ID, s.As)
				}
			}
		}
	}

	// Everything else gets a name from its path.
	for _, m := range b.Modules {
		if m.Name == "" {
			m.Name = nameFromPath(m.ID, used)
		}
	}
	for _, ext := range b.ExternalModules {
		if ext.Name == "" {
			ext.Name = nameFromPath(ext.ID, used)
		}
	}
	return true
}

// nameFromPath derives an identifier from a module id by trying
// increasingly long path suffixes ("c", then "b_c", then "a_b_c"),
// each component sanitized. If every suffix is taken, underscores are
// prepended until the name is free.
func nameFromPath(id string, used map[string]bool) string {
	parts := strings.FieldsFunc(id, func(c rune) bool {
		return c == '/' || c == '\\'
	})
	for i := range parts {
		parts[i] = js_ast.SanitizeIdentifier(parts[i])
	}

	candidate := parts[len(parts)-1]
	for i := len(parts) - 2; i >= 0 && used[candidate]; i-- {
		candidate = parts[i] + "_" + candidate
	}
	for used[candidate] {
		candidate = "_" + candidate
	}
	used[candidate] = true
	return candidate
}
