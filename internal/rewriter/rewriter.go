// Package rewriter mutates a module's source text in place: identifier
// references are renamed, import/export syntax deleted, top-level
// `this` replaced, and reassignments of exported bindings mirrored
// into the exports object. Every edit is keyed by original offset, so
// edit order is irrelevant.
package rewriter

import (
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jvdl/esperanto/internal/bundler"
	"github.com/jvdl/esperanto/internal/js_ast"
	"github.com/jvdl/esperanto/internal/logger"
	"github.com/jvdl/esperanto/internal/magicstring"
)

// context carries everything one module's rewrite needs. The bundle
// and single-file front ends build one of these and run the shared
// traversal.
type context struct {
	log    logger.Log
	source *logger.Source
	body   *magicstring.MagicString
	root   *sitter.Node
	a      *js_ast.Annotations

	// local name -> final output identifier
	replacements map[string]string

	// local aliases created by import specifiers / the batch subset
	imported   map[string]bool
	namespaces map[string]bool

	// local binding -> output export name, for mirroring
	exportsByLocal map[string]string

	// output export names that got a mirroring side-effect
	mirrored map[string]bool

	// updates captured inside a top-level declaration initializer,
	// keyed by the declaration's end offset
	captured map[int][]capturedUpdate

	ok bool
}

type capturedUpdate struct {
	exportName  string
	replacement string
}

// rewriteBody runs the traversal plus the `this` replacement. Import
// and export statement deletion is the front ends' job because it
// differs by mode.
func (r *context) rewriteBody() {
	if r.mirrored == nil {
		r.mirrored = make(map[string]bool)
	}
	r.captured = make(map[int][]capturedUpdate)
	r.ok = true

	for _, span := range r.a.TopLevelThis {
		r.body.Overwrite(span[0], span[1], "undefined")
	}

	r.walk(r.root, r.a.ModuleScope, nil)

	// Flush updates captured inside declaration initializers: a
	// mirroring append there would be syntactically invalid, so the
	// statements go after the declaration instead.
	ends := make([]int, 0, len(r.captured))
	for end := range r.captured {
		ends = append(ends, end)
	}
	sort.Ints(ends)
	for _, end := range ends {
		var sb strings.Builder
		for _, c := range r.captured[end] {
			sb.WriteString(" ")
			sb.WriteString(exportsMember(c.exportName))
			sb.WriteString(" = ")
			sb.WriteString(c.replacement)
			sb.WriteString(";")
		}
		r.body.Insert(end, sb.String())
	}
}

// walk rewrites one subtree. topDecl is the enclosing top-level
// variable declaration when the walk is inside one's initializer.
func (r *context) walk(node *sitter.Node, scope *js_ast.Scope, topDecl *sitter.Node) {
	switch node.Type() {
	case "import_statement":
		// Deleted wholesale; nothing inside is a body reference.
		return

	case "export_statement":
		// Only the declaration or default value is body text; the
		// clause and source are deleted with the keyword.
		target := node.ChildByFieldName("declaration")
		if target == nil {
			target = node.ChildByFieldName("value")
		}
		if target != nil {
			inner := topDecl
			switch target.Type() {
			case "variable_declaration", "lexical_declaration":
				inner = target
			}
			r.walk(target, scope, inner)
		}
		return
	}

	if inner := r.a.ScopeFor(node); inner != nil {
		scope = inner
	}

	switch node.Type() {
	case "identifier":
		r.rewriteIdentifier(node, scope)
		return

	case "shorthand_property_identifier", "shorthand_property_identifier_pattern":
		r.rewriteShorthand(node, scope)
		return

	case "assignment_expression", "augmented_assignment_expression":
		r.handleAssignment(node, scope, topDecl)

	case "update_expression":
		r.handleUpdate(node, scope, topDecl)
	}

	isTop := node.Type() == "program"
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		childTopDecl := topDecl
		if isTop {
			childTopDecl = nil
			switch child.Type() {
			case "variable_declaration", "lexical_declaration":
				childTopDecl = child
			}
		}
		r.walk(child, scope, childTopDecl)
	}
}

// rewriteIdentifier replaces one reference if a replacement exists and
// no enclosing non-top-level scope shadows the name.
func (r *context) rewriteIdentifier(node *sitter.Node, scope *js_ast.Scope) {
	name := js_ast.NodeText(node, r.source.Contents)
	replacement, exists := r.replacements[name]
	if !exists || replacement == name {
		return
	}
	if scope.Contains(name, true) {
		return
	}
	r.body.Overwrite(int(node.StartByte()), int(node.EndByte()), replacement)
}

// rewriteShorthand expands `{ x }` to `{ x: replacement }` (and the
// pattern form likewise) when x must be renamed.
func (r *context) rewriteShorthand(node *sitter.Node, scope *js_ast.Scope) {
	name := js_ast.NodeText(node, r.source.Contents)
	replacement, exists := r.replacements[name]
	if !exists || replacement == name {
		return
	}
	if scope.Contains(name, true) {
		return
	}
	r.body.Overwrite(int(node.StartByte()), int(node.EndByte()), name+": "+replacement)
}

func (r *context) handleAssignment(node *sitter.Node, scope *js_ast.Scope, topDecl *sitter.Node) {
	left := node.ChildByFieldName("left")
	if left == nil {
		return
	}

	switch left.Type() {
	case "identifier":
		name := js_ast.NodeText(left, r.source.Contents)
		if scope.Contains(name, true) {
			return
		}
		if r.imported[name] {
			r.log.AddError(logger.IDIllegalReassignment, r.source, logger.Loc{Start: int32(left.StartByte())},
				fmt.Sprintf("Cannot reassign imported binding `%s`", name))
			r.ok = false
			return
		}
		r.mirrorAssignment(node, name, topDecl)

	case "member_expression", "subscript_expression":
		object := left.ChildByFieldName("object")
		if object == nil || object.Type() != "identifier" {
			return
		}
		name := js_ast.NodeText(object, r.source.Contents)
		if r.namespaces[name] && !scope.Contains(name, true) {
			r.log.AddError(logger.IDIllegalReassignment, r.source, logger.Loc{Start: int32(object.StartByte())},
				fmt.Sprintf("Cannot reassign imported binding of namespace `%s`", name))
			r.ok = false
		}
	}
}

// mirrorAssignment prefixes `exports.X = ` so the new value lands in
// the exports object as a side effect of the assignment itself.
func (r *context) mirrorAssignment(node *sitter.Node, name string, topDecl *sitter.Node) {
	exportName, isExported := r.exportsByLocal[name]
	if !isExported {
		return
	}
	r.mirrored[exportName] = true

	if topDecl != nil {
		r.capture(topDecl, exportName, r.replacementFor(name))
		return
	}
	r.body.Insert(int(node.StartByte()), exportsMember(exportName)+" = ")
}

func (r *context) handleUpdate(node *sitter.Node, scope *js_ast.Scope, topDecl *sitter.Node) {
	arg := node.ChildByFieldName("argument")
	if arg == nil || arg.Type() != "identifier" {
		return
	}
	name := js_ast.NodeText(arg, r.source.Contents)
	if scope.Contains(name, true) {
		return
	}
	if r.imported[name] {
		r.log.AddError(logger.IDIllegalReassignment, r.source, logger.Loc{Start: int32(arg.StartByte())},
			fmt.Sprintf("Cannot reassign imported binding `%s`", name))
		r.ok = false
		return
	}

	exportName, isExported := r.exportsByLocal[name]
	if !isExported {
		return
	}
	r.mirrored[exportName] = true
	replacement := r.replacementFor(name)

	if topDecl != nil {
		r.capture(topDecl, exportName, replacement)
		return
	}

	if isPrefixUpdate(node, arg) {
		// ++x evaluates to the new value, so the mirror can lead
		r.body.Insert(int(node.StartByte()), exportsMember(exportName)+" = ")
		return
	}

	if parent := node.Parent(); parent != nil && parent.Type() == "expression_statement" {
		r.body.Insert(int(node.EndByte()), ", "+exportsMember(exportName)+" = "+replacement)
		return
	}

	// Postfix in expression position: keep the update first in a
	// sequence so the exports object still sees the new value.
	r.body.Insert(int(node.StartByte()), "( ")
	r.body.Insert(int(node.EndByte()), ", "+exportsMember(exportName)+" = "+replacement+" )")
}

func (r *context) capture(topDecl *sitter.Node, exportName string, replacement string) {
	end := int(topDecl.EndByte())
	r.captured[end] = append(r.captured[end], capturedUpdate{exportName: exportName, replacement: replacement})
}

func (r *context) replacementFor(name string) string {
	if replacement, exists := r.replacements[name]; exists {
		return replacement
	}
	return name
}

func isPrefixUpdate(node *sitter.Node, arg *sitter.Node) bool {
	return arg.StartByte() > node.StartByte()
}

// exportsMember renders property access on the exports object,
// bracketed for names (like "default") that are reserved words.
func exportsMember(name string) string {
	if js_ast.ReservedWords[name] {
		return "exports['" + name + "']"
	}
	return "exports." + name
}

// sortedExportNames returns the output export names a module is
// responsible for, in deterministic order.
func sortedExportNames(exports map[string]bundler.ExportBinding) []string {
	names := make([]string, 0, len(exports))
	for name := range exports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
