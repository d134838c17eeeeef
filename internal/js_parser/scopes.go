package js_parser

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jvdl/esperanto/internal/js_ast"
	"github.com/jvdl/esperanto/internal/logger"
)

// AnnotateScopes walks the tree once, building the lexical scope table
// keyed by node span, collecting template literal ranges, flagging
// top-level `this`, and recording top-level function names.
func AnnotateScopes(log logger.Log, source *logger.Source, tree *Tree) (*js_ast.Annotations, bool) {
	moduleScope := js_ast.NewScope(nil, false)
	a := &js_ast.Annotations{
		ModuleScope: moduleScope,
		Aliases:     make(map[string]bool),
		Scopes:      map[js_ast.NodeKey]*js_ast.Scope{js_ast.KeyOf(tree.Root): moduleScope},
	}
	ok := true

	// funcScope is where "var" and function declarations hoist to,
	// scope is the innermost environment, and boundThis is true inside
	// a non-arrow function (arrows keep the module-level `this`).
	var visit func(node *sitter.Node, funcScope *js_ast.Scope, scope *js_ast.Scope, boundThis bool)

	visitChildren := func(node *sitter.Node, funcScope *js_ast.Scope, scope *js_ast.Scope, boundThis bool) {
		for i := 0; i < int(node.NamedChildCount()); i++ {
			visit(node.NamedChild(i), funcScope, scope, boundThis)
		}
	}

	visit = func(node *sitter.Node, funcScope *js_ast.Scope, scope *js_ast.Scope, boundThis bool) {
		nodeType := node.Type()

		switch {
		case isFunctionNode(nodeType):
			if nodeType == "function_declaration" || nodeType == "generator_function_declaration" {
				if name := node.ChildByFieldName("name"); name != nil {
					text := js_ast.NodeText(name, source.Contents)
					funcScope.Declare(text)
					if funcScope == moduleScope {
						a.TopLevelFunctionNames = append(a.TopLevelFunctionNames, text)
					}
				}
			}

			inner := js_ast.NewScope(scope, false)
			a.Scopes[js_ast.KeyOf(node)] = inner

			// A named function expression binds its own name inside
			// itself only.
			if nodeType == "function_expression" || nodeType == "function" || nodeType == "generator_function" {
				if name := node.ChildByFieldName("name"); name != nil {
					inner.Declare(js_ast.NodeText(name, source.Contents))
				}
			}

			if params := node.ChildByFieldName("parameters"); params != nil {
				for i := 0; i < int(params.NamedChildCount()); i++ {
					declarePattern(params.NamedChild(i), inner, source.Contents)
				}
			}
			if param := node.ChildByFieldName("parameter"); param != nil {
				declarePattern(param, inner, source.Contents)
			}

			childBoundThis := boundThis || nodeType != "arrow_function"
			if body := node.ChildByFieldName("body"); body != nil {
				visit(body, inner, inner, childBoundThis)
			}
			return

		case isClassNode(nodeType):
			name := node.ChildByFieldName("name")
			// `this` inside a class body is the instance
			if nodeType == "class_declaration" {
				if name != nil {
					funcScope.Declare(js_ast.NodeText(name, source.Contents))
				}
				visitChildren(node, funcScope, scope, true)
				return
			}
			// Class expression: the name, if any, is visible inside only.
			inner := js_ast.NewScope(scope, false)
			a.Scopes[js_ast.KeyOf(node)] = inner
			if name != nil {
				inner.Declare(js_ast.NodeText(name, source.Contents))
			}
			visitChildren(node, inner, inner, true)
			return

		case isBlockNode(nodeType):
			inner := js_ast.NewScope(scope, true)
			a.Scopes[js_ast.KeyOf(node)] = inner
			if nodeType == "catch_clause" {
				if param := node.ChildByFieldName("parameter"); param != nil {
					declarePattern(param, inner, source.Contents)
				}
			}
			visitChildren(node, funcScope, inner, boundThis)
			return
		}

		switch nodeType {
		case "variable_declaration":
			// var: hoists to the nearest function scope
			for i := 0; i < int(node.NamedChildCount()); i++ {
				child := node.NamedChild(i)
				if child.Type() == "variable_declarator" {
					if name := child.ChildByFieldName("name"); name != nil {
						declarePattern(name, funcScope, source.Contents)
					}
				}
			}

		case "lexical_declaration":
			// let/const: stays in the innermost block
			for i := 0; i < int(node.NamedChildCount()); i++ {
				child := node.NamedChild(i)
				if child.Type() == "variable_declarator" {
					if name := child.ChildByFieldName("name"); name != nil {
						declarePattern(name, scope, source.Contents)
					}
				}
			}

		case "template_string":
			a.TemplateRanges = append(a.TemplateRanges, [2]int{int(node.StartByte()), int(node.EndByte())})

		case "this":
			if !boundThis {
				if parent := node.Parent(); parent != nil {
					parentType := parent.Type()
					if (parentType == "member_expression" || parentType == "subscript_expression") &&
						sameNode(parent.ChildByFieldName("object"), node) {
						log.AddError(logger.IDTopLevelThis, source, logger.Loc{Start: int32(node.StartByte())},
							"`this` at the top of a module is `undefined` and cannot be used in a member expression")
						ok = false
						return
					}
				}
				a.TopLevelThis = append(a.TopLevelThis, [2]int{int(node.StartByte()), int(node.EndByte())})
			}
		}

		visitChildren(node, funcScope, scope, boundThis)
	}

	visit(tree.Root, moduleScope, moduleScope, false)
	return a, ok
}

func sameNode(a *sitter.Node, b *sitter.Node) bool {
	return a != nil && b != nil && a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}

// declarePattern adds every identifier bound by a binding pattern to
// the scope. Rest parameters are included.
func declarePattern(node *sitter.Node, scope *js_ast.Scope, source string) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		scope.Declare(js_ast.NodeText(node, source))

	case "assignment_pattern", "object_assignment_pattern":
		declarePattern(node.ChildByFieldName("left"), scope, source)

	case "rest_pattern", "rest_parameter":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			declarePattern(node.NamedChild(i), scope, source)
		}

	case "pair_pattern":
		declarePattern(node.ChildByFieldName("value"), scope, source)

	case "object_pattern", "array_pattern":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			declarePattern(node.NamedChild(i), scope, source)
		}
	}
}
