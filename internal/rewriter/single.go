package rewriter

import (
	"sort"
	"strings"

	"github.com/jvdl/esperanto/internal/bundler"
	"github.com/jvdl/esperanto/internal/js_ast"
	"github.com/jvdl/esperanto/internal/logger"
)

// SingleOptions configures a single-file rewrite. No cross-module
// prefixes apply; imports stay external and are reached through the
// wrapper-provided module bindings.
type SingleOptions struct {
	Strict bool

	// Replaces "export default " for defaults-mode default values:
	// "module.exports = " for the require/exports wrapper, "return "
	// for the factory-based ones.
	DefaultsPrefix string

	// Optional module name override, keyed by the import path as
	// written.
	GetModuleName func(path string) string
}

// SingleImport is one external dependency of a single-file transpile,
// in source order with the empty (side-effect only) imports last.
type SingleImport struct {
	Path    string
	Name    string
	IsEmpty bool
}

type SingleResult struct {
	Imports    []SingleImport
	HasExports bool
}

// RewriteSingle rewrites one module in place for single-file output.
func RewriteSingle(log logger.Log, m *bundler.Module, options SingleOptions) (SingleResult, bool) {
	if !options.Strict && !validateDefaultsMode(log, m) {
		return SingleResult{}, false
	}

	used := make(map[string]bool, len(js_ast.Builtins))
	for name := range js_ast.Builtins {
		used[name] = true
	}
	for _, name := range m.Annotations.ModuleScope.Names() {
		used[name] = true
	}

	// One binding name per distinct import path. A default alias
	// doubles as the module name; otherwise the name derives from the
	// last path component.
	nameByPath := make(map[string]string)
	ok := true
	moduleName := func(imp *js_ast.ImportDecl) string {
		if name, seen := nameByPath[imp.Path]; seen {
			return name
		}
		name := ""
		if options.GetModuleName != nil {
			name = options.GetModuleName(imp.Path)
			if name != "" && used[name] && !m.Annotations.ModuleScope.DeclaredHere(name) {
				log.AddMsg(logger.Msg{Kind: logger.Error, ID: logger.IDNamingCollision,
					Text: "Naming collision: module '" + imp.Path + "' cannot be called '" + name + "'"})
				ok = false
				name = ""
			}
		}
		if name == "" {
			for _, s := range imp.Specifiers {
				if s.Default {
					name = s.As
					break
				}
			}
		}
		if name == "" {
			base := strings.TrimSuffix(imp.Path, ".js")
			if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
				base = base[i+1:]
			}
			name = js_ast.SanitizeIdentifier(base)
			for used[name] {
				name = "_" + name
			}
		}
		used[name] = true
		nameByPath[imp.Path] = name
		return name
	}

	replacements := make(map[string]string)
	imported := make(map[string]bool)
	namespaces := make(map[string]bool)
	passthroughIdent := make(map[string]string)

	for _, imp := range m.Imports {
		if imp.IsEmpty() && !imp.Passthrough {
			nameByPath[imp.Path] = ""
			continue
		}
		name := moduleName(imp)
		for _, s := range imp.Specifiers {
			ident := ""
			switch {
			case s.Batch:
				ident = name
			case s.Default:
				if options.Strict {
					ident = name + "['default']"
				} else {
					ident = name
				}
			default:
				ident = name + "." + s.Name
			}
			if imp.Passthrough {
				passthroughIdent[s.As] = ident
				continue
			}
			imported[s.As] = true
			if s.Batch {
				namespaces[s.As] = true
				replacements[s.As] = name
			} else {
				replacements[s.As] = ident
			}
		}
	}
	if !ok {
		return SingleResult{}, false
	}

	// In strict mode every export mirrors into the exports object.
	exportsByLocal := make(map[string]string)
	if options.Strict {
		for _, exp := range m.Exports {
			switch {
			case exp.IsDefault && exp.Name != "":
				exportsByLocal[exp.Name] = "default"
			case exp.Type == js_ast.ExportVarDeclaration ||
				exp.Type == js_ast.ExportNamedFunction ||
				exp.Type == js_ast.ExportNamedClass:
				exportsByLocal[exp.Name] = exp.Name
			case exp.Type == js_ast.ExportNamed && !exp.Passthrough:
				for _, s := range exp.Specifiers {
					if !s.Batch {
						exportsByLocal[s.Name] = s.As
					}
				}
			}
		}
	}

	r := &context{
		log:            log,
		source:         m.Source,
		body:           m.Body,
		root:           m.Tree.Root,
		a:              m.Annotations,
		replacements:   replacements,
		imported:       imported,
		namespaces:     namespaces,
		exportsByLocal: exportsByLocal,
	}
	r.rewriteBody()
	if !r.ok {
		return SingleResult{}, false
	}

	// Delete module syntax
	for _, imp := range m.Imports {
		if !imp.Passthrough {
			m.Body.Remove(imp.Start, imp.Next)
		}
	}

	var appendix []string
	for _, exp := range m.Exports {
		switch exp.Type {
		case js_ast.ExportNamed:
			m.Body.Remove(exp.Start, exp.Next)

		case js_ast.ExportAnonFunction, js_ast.ExportAnonClass, js_ast.ExportExpression:
			if options.Strict {
				m.Body.Overwrite(exp.Start, exp.ValueStart, "exports['default'] = ")
			} else {
				m.Body.Overwrite(exp.Start, exp.ValueStart, options.DefaultsPrefix)
			}

		default:
			m.Body.Remove(exp.Start, exp.ValueStart)
			if exp.IsDefault && !options.Strict {
				appendix = append(appendix, options.DefaultsPrefix+exp.Name+";")
			}
		}
	}

	if options.Strict {
		topLevelFunctions := make(map[string]bool)
		for _, name := range m.Annotations.TopLevelFunctionNames {
			topLevelFunctions[name] = true
		}

		var early []string
		var late []string
		for _, name := range sortedDoesExport(m) {
			localName := m.ExportLocal(name)
			ident := ""
			switch {
			case name == "default" && localName == "":
				// Anonymous default already assigned inline
				continue
			case localName != "":
				ident = localName
			default:
				// Passthrough export; read through the source module
				ident = passthroughIdent[name]
				if ident == "" {
					continue
				}
			}
			if localName != "" && topLevelFunctions[localName] {
				early = append(early, exportsMember(name)+" = "+ident+";")
				continue
			}
			if r.mirrored[name] {
				continue
			}
			late = append(late, exportsMember(name)+" = "+ident+";")
		}

		m.Body.Trim()
		if len(late) > 0 {
			m.Body.Append("\n\n" + strings.Join(late, "\n"))
		}
		if len(early) > 0 {
			m.Body.Prepend(strings.Join(early, "\n") + "\n\n")
		}
	} else {
		m.Body.Trim()
		if len(appendix) > 0 {
			m.Body.Append("\n\n" + strings.Join(appendix, "\n"))
		}
	}

	return SingleResult{
		Imports:    collectImports(m, nameByPath),
		HasExports: len(m.DoesExport) > 0,
	}, true
}

// validateDefaultsMode rejects the import/export shapes that need an
// exports object: only default imports and a default export fit the
// "module.exports = value" contract.
func validateDefaultsMode(log logger.Log, m *bundler.Module) bool {
	ok := true
	for _, imp := range m.Imports {
		for _, s := range imp.Specifiers {
			if !s.Default {
				log.AddError(logger.IDStrictMode, m.Source, logger.Loc{Start: int32(s.Start)},
					"Named imports are only allowed in strict mode (pass `strict: true`)")
				ok = false
			}
		}
	}
	for _, exp := range m.Exports {
		if !exp.IsDefault {
			log.AddError(logger.IDStrictMode, m.Source, logger.Loc{Start: int32(exp.Start)},
				"Entry module can only have named exports in strict mode (pass `strict: true`)")
			ok = false
		}
	}
	return ok
}

// collectImports lists distinct dependencies in source order, shifting
// the side-effect-only imports behind the named ones so the wrapper's
// positional factory arguments line up.
func collectImports(m *bundler.Module, nameByPath map[string]string) []SingleImport {
	var named []SingleImport
	var empty []SingleImport
	seen := make(map[string]bool)

	for _, imp := range m.Imports {
		if seen[imp.Path] {
			continue
		}
		seen[imp.Path] = true
		name := nameByPath[imp.Path]
		if name == "" {
			empty = append(empty, SingleImport{Path: imp.Path, IsEmpty: true})
		} else {
			named = append(named, SingleImport{Path: imp.Path, Name: name})
		}
	}

	return append(named, empty...)
}

func sortedDoesExport(m *bundler.Module) []string {
	names := make([]string, 0, len(m.DoesExport))
	for name := range m.DoesExport {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
