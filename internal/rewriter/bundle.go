package rewriter

import (
	"strings"

	"github.com/jvdl/esperanto/internal/bundler"
	"github.com/jvdl/esperanto/internal/js_ast"
	"github.com/jvdl/esperanto/internal/logger"
)

// RewriteBundleModule mutates one module of a bundle: references are
// renamed to their deconflicted identifiers, module syntax is deleted,
// and the exports this module is responsible for are emitted early,
// late, or as live getters.
func RewriteBundleModule(log logger.Log, b *bundler.Bundle, m *bundler.Module, strict bool) bool {
	exports := b.Exports[m.ID]

	exportsByLocal := make(map[string]string)
	for name, binding := range exports {
		if !strict && name == "default" {
			// The wrapper emits the entry default itself
			continue
		}
		if binding.LocalName != "" {
			exportsByLocal[binding.LocalName] = name
		}
	}

	r := &context{
		log:            log,
		source:         m.Source,
		body:           m.Body,
		root:           m.Tree.Root,
		a:              m.Annotations,
		replacements:   m.IdentifierReplacements,
		imported:       m.ImportedBindings,
		namespaces:     m.NamespaceBindings,
		exportsByLocal: exportsByLocal,
	}
	r.rewriteBody()
	if !r.ok {
		return false
	}

	// Delete module syntax. Passthrough imports share their span with
	// the export statement that produced them, which is removed below.
	for _, imp := range m.Imports {
		if !imp.Passthrough {
			m.Body.Remove(imp.Start, imp.Next)
		}
	}
	for _, exp := range m.Exports {
		switch exp.Type {
		case js_ast.ExportNamed:
			m.Body.Remove(exp.Start, exp.Next)
		case js_ast.ExportAnonFunction, js_ast.ExportAnonClass, js_ast.ExportExpression:
			m.Body.Overwrite(exp.Start, exp.ValueStart, "var "+m.DefaultName+" = ")
		default:
			// Keep the declaration, drop the keyword(s)
			m.Body.Remove(exp.Start, exp.ValueStart)
		}
	}

	topLevelFunctions := make(map[string]bool)
	for _, name := range m.Annotations.TopLevelFunctionNames {
		topLevelFunctions[name] = true
	}

	var early []string
	var late []string
	for _, name := range sortedExportNames(exports) {
		binding := exports[name]
		if !strict && name == "default" {
			continue
		}
		if binding.LocalName != "" && topLevelFunctions[binding.LocalName] {
			// Function declarations hoist, so their exports can lead
			// the body; cyclic dependents then see the binding early.
			early = append(early, exportsMember(name)+" = "+binding.Identifier+";")
			continue
		}
		if r.mirrored[name] {
			continue
		}
		if strict && binding.FromChain {
			late = append(late, "Object.defineProperty(exports, '"+name+"', { get: function () { return "+binding.Identifier+"; } });")
			continue
		}
		late = append(late, exportsMember(name)+" = "+binding.Identifier+";")
	}

	var prefix []string
	if m.ExportsNamespace {
		prefix = append(prefix, namespaceBlock(b, m))
	}
	prefix = append(prefix, early...)

	m.Body.Trim()
	if len(late) > 0 {
		m.Body.Append("\n\n" + strings.Join(late, "\n"))
	}
	if len(prefix) > 0 {
		m.Body.Prepend(strings.Join(prefix, "\n") + "\n\n")
	}

	return true
}

// namespaceBlock builds the getter object that stands in for
// "import * as ns": every property read delegates to the current
// binding, so mutable exports are never snapshotted.
func namespaceBlock(b *bundler.Bundle, m *bundler.Module) string {
	var names []string
	for _, exp := range m.Exports {
		if exp.IsDefault {
			names = append(names, "default")
			continue
		}
		switch exp.Type {
		case js_ast.ExportVarDeclaration, js_ast.ExportNamedFunction, js_ast.ExportNamedClass:
			names = append(names, exp.Name)
		case js_ast.ExportNamed:
			for _, s := range exp.Specifiers {
				if !s.Batch {
					names = append(names, s.As)
				}
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("var " + m.Name + " = {\n")
	for i, name := range names {
		sb.WriteString("\tget " + name + " () { return " + b.ResolvedIdentifier(m.ID, name) + "; }")
		if i < len(names)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("};")
	return sb.String()
}
