package bundler

import (
	"github.com/jvdl/esperanto/internal/js_ast"
	"github.com/jvdl/esperanto/internal/js_parser"
	"github.com/jvdl/esperanto/internal/logger"
	"github.com/jvdl/esperanto/internal/magicstring"
)

// Module is one loaded source unit, mutated by planning and rewriting
// and consumed by emission.
type Module struct {
	// Canonical path-shaped id, no extension.
	ID string

	Source *logger.Source

	// The mutable edit buffer over the original text.
	Body *magicstring.MagicString

	Tree        *js_parser.Tree
	Annotations *js_ast.Annotations

	Imports []*js_ast.ImportDecl
	Exports []*js_ast.ExportDecl

	// At most one; a second default export is rejected at load time.
	DefaultExport *js_ast.ExportDecl

	// Names this module exports, including "default".
	DoesExport map[string]bool

	// local name -> final output identifier, filled by the planner.
	IdentifierReplacements map[string]string

	// The bundle-wide unique identifier prefix.
	Name string

	// The output identifier for the default export's value.
	DefaultName string

	// Some other module imports this one with "import * as ns".
	ExportsNamespace bool

	// Local aliases bound by import specifiers; assigning to one of
	// these is illegal.
	ImportedBindings map[string]bool

	// The subset bound by "import * as ns"; assigning to a property
	// of one of these is illegal too.
	NamespaceBindings map[string]bool
}

// ExternalModule is metadata for an import that stays external.
type ExternalModule struct {
	ID   string
	Name string

	// Which shapes of access the bundle makes, so the wrapper knows
	// whether an interop default binding is required.
	NeedsDefault bool
	NeedsNamed   bool
}

// Load parses, annotates, and extracts one file into a Module.
func Load(log logger.Log, source *logger.Source) (*Module, bool) {
	body := magicstring.New(source.Contents)
	body.SetSourcePath(source.PrettyPath)

	tree, ok := js_parser.Parse(log, source, body)
	if !ok {
		return nil, false
	}

	annotations, ok := js_parser.AnnotateScopes(log, source, tree)
	if !ok {
		tree.Close()
		return nil, false
	}
	for _, r := range annotations.TemplateRanges {
		body.ExcludeRange(r[0], r[1])
	}

	imports, exports, ok := js_parser.ExtractDeclarations(log, source, tree, annotations)
	if !ok {
		tree.Close()
		return nil, false
	}

	m := &Module{
		ID:                     source.ID,
		Source:                 source,
		Body:                   body,
		Tree:                   tree,
		Annotations:            annotations,
		Imports:                imports,
		Exports:                exports,
		DoesExport:             make(map[string]bool),
		IdentifierReplacements: make(map[string]string),
	}

	for _, exp := range exports {
		if exp.IsDefault {
			m.DefaultExport = exp
			m.DoesExport["default"] = true
			continue
		}
		switch exp.Type {
		case js_ast.ExportVarDeclaration, js_ast.ExportNamedFunction, js_ast.ExportNamedClass:
			m.DoesExport[exp.Name] = true
		case js_ast.ExportNamed:
			for _, s := range exp.Specifiers {
				if !s.Batch {
					m.DoesExport[s.As] = true
				}
			}
		}
	}

	return m, true
}

// ExportLocal maps one of this module's exported names to the local
// binding behind it, or "" when the export is re-exported from
// elsewhere (a chain continues past this module) or anonymous.
func (m *Module) ExportLocal(exported string) string {
	if exported == "default" {
		if m.DefaultExport != nil {
			return m.DefaultExport.Name
		}
		return ""
	}
	for _, exp := range m.Exports {
		if exp.IsDefault {
			continue
		}
		switch exp.Type {
		case js_ast.ExportVarDeclaration, js_ast.ExportNamedFunction, js_ast.ExportNamedClass:
			if exp.Name == exported {
				return exp.Name
			}
		case js_ast.ExportNamed:
			if exp.Passthrough {
				continue
			}
			for _, s := range exp.Specifiers {
				if s.As == exported {
					return s.Name
				}
			}
		}
	}
	return ""
}

// HasBatchExport reports whether the module re-exports an unknown set
// of names ("export * from ..."), which exempts it from missing-export
// validation.
func (m *Module) HasBatchExport() bool {
	for _, exp := range m.Exports {
		if exp.Type == js_ast.ExportNamed {
			for _, s := range exp.Specifiers {
				if s.Batch && s.As == "" {
					return true
				}
			}
		}
	}
	return false
}
