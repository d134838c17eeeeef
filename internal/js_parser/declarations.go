package js_parser

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jvdl/esperanto/internal/js_ast"
	"github.com/jvdl/esperanto/internal/logger"
)

// ExtractDeclarations classifies every top-level import/export node
// into normalized declaration records. Re-export-from forms yield both
// an ExportDecl and a passthrough ImportDecl.
func ExtractDeclarations(log logger.Log, source *logger.Source, tree *Tree, a *js_ast.Annotations) (imports []*js_ast.ImportDecl, exports []*js_ast.ExportDecl, ok bool) {
	ok = true
	aliases := make(map[string]bool)
	hasDefault := false

	declareAlias := func(alias string, at int) {
		if aliases[alias] {
			log.AddError(logger.IDDuplicateImport, source, logger.Loc{Start: int32(at)}, fmt.Sprintf("Duplicated import '%s'", alias))
			ok = false
			return
		}
		aliases[alias] = true
		a.ModuleScope.Declare(alias)
		a.Aliases[alias] = true
	}

	for i := 0; i < int(tree.Root.NamedChildCount()); i++ {
		node := tree.Root.NamedChild(i)

		switch node.Type() {
		case "import_statement":
			imports = append(imports, extractImport(node, source.Contents, declareAlias))

		case "export_statement":
			exp, imp, isDefault := extractExport(node, source.Contents)
			if exp == nil {
				continue
			}
			if isDefault {
				if hasDefault {
					log.AddError(logger.IDDuplicateDefaultExport, source, logger.Loc{Start: int32(node.StartByte())}, "Duplicate default export")
					ok = false
					continue
				}
				hasDefault = true
			}
			exports = append(exports, exp)
			if imp != nil {
				imports = append(imports, imp)
			}
		}
	}

	return imports, exports, ok
}

func extractImport(node *sitter.Node, source string, declareAlias func(string, int)) *js_ast.ImportDecl {
	d := &js_ast.ImportDecl{
		Start: int(node.StartByte()),
		End:   int(node.EndByte()),
		Next:  nextStatementStart(source, int(node.EndByte())),
	}
	if src := node.ChildByFieldName("source"); src != nil {
		d.Path = stringValue(src, source)
	}

	clause := childOfType(node, "import_clause")
	if clause == nil {
		// Bare import, side effects only
		return d
	}

	for i := 0; i < int(clause.NamedChildCount()); i++ {
		item := clause.NamedChild(i)
		switch item.Type() {
		case "identifier":
			as := js_ast.NodeText(item, source)
			declareAlias(as, int(item.StartByte()))
			d.Specifiers = append(d.Specifiers, js_ast.Specifier{
				Name:    "default",
				As:      as,
				Default: true,
				Start:   int(item.StartByte()),
			})

		case "namespace_import":
			if name := firstNamedOfType(item, "identifier"); name != nil {
				as := js_ast.NodeText(name, source)
				declareAlias(as, int(name.StartByte()))
				d.Specifiers = append(d.Specifiers, js_ast.Specifier{
					Name:  "*",
					As:    as,
					Batch: true,
					Start: int(name.StartByte()),
				})
			}

		case "named_imports":
			for j := 0; j < int(item.NamedChildCount()); j++ {
				spec := item.NamedChild(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				name := spec.ChildByFieldName("name")
				alias := spec.ChildByFieldName("alias")
				nameText := js_ast.NodeText(name, source)
				asText := nameText
				if alias != nil {
					asText = js_ast.NodeText(alias, source)
				}
				declareAlias(asText, int(spec.StartByte()))
				d.Specifiers = append(d.Specifiers, js_ast.Specifier{
					Name:  nameText,
					As:    asText,
					Start: int(spec.StartByte()),
				})
			}
		}
	}

	return d
}

func extractExport(node *sitter.Node, source string) (exp *js_ast.ExportDecl, imp *js_ast.ImportDecl, isDefault bool) {
	start := int(node.StartByte())
	end := int(node.EndByte())
	next := nextStatementStart(source, end)

	srcNode := node.ChildByFieldName("source")
	decl := node.ChildByFieldName("declaration")
	value := node.ChildByFieldName("value")
	isDefault = childOfType(node, "default") != nil

	base := js_ast.ExportDecl{Start: start, End: end, Next: next, IsDefault: isDefault}

	if isDefault {
		candidate := decl
		if candidate == nil {
			candidate = value
		}
		if candidate == nil {
			return nil, nil, false
		}
		d := base
		d.ValueStart = int(candidate.StartByte())
		name := candidate.ChildByFieldName("name")
		switch {
		case isFunctionNode(candidate.Type()):
			if name != nil {
				d.Type = js_ast.ExportNamedFunction
				d.Name = js_ast.NodeText(name, source)
			} else {
				d.Type = js_ast.ExportAnonFunction
				d.Value = js_ast.NodeText(candidate, source)
			}
		case isClassNode(candidate.Type()):
			if name != nil {
				d.Type = js_ast.ExportNamedClass
				d.Name = js_ast.NodeText(name, source)
			} else {
				d.Type = js_ast.ExportAnonClass
				d.Value = js_ast.NodeText(candidate, source)
			}
		default:
			d.Type = js_ast.ExportExpression
			d.Value = js_ast.NodeText(candidate, source)
		}
		return &d, nil, true
	}

	if decl != nil {
		d := base
		d.ValueStart = int(decl.StartByte())
		switch decl.Type() {
		case "variable_declaration", "lexical_declaration":
			d.Type = js_ast.ExportVarDeclaration
			if declarator := firstNamedOfType(decl, "variable_declarator"); declarator != nil {
				if name := declarator.ChildByFieldName("name"); name != nil {
					d.Name = js_ast.NodeText(name, source)
				}
			}
		case "function_declaration", "generator_function_declaration":
			d.Type = js_ast.ExportNamedFunction
			if name := decl.ChildByFieldName("name"); name != nil {
				d.Name = js_ast.NodeText(name, source)
			}
		case "class_declaration":
			d.Type = js_ast.ExportNamedClass
			if name := decl.ChildByFieldName("name"); name != nil {
				d.Name = js_ast.NodeText(name, source)
			}
		default:
			return nil, nil, false
		}
		return &d, nil, false
	}

	var specifiers []js_ast.Specifier

	if clause := childOfType(node, "export_clause"); clause != nil {
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			spec := clause.NamedChild(j)
			if spec.Type() != "export_specifier" {
				continue
			}
			name := spec.ChildByFieldName("name")
			alias := spec.ChildByFieldName("alias")
			nameText := js_ast.NodeText(name, source)
			asText := nameText
			if alias != nil {
				asText = js_ast.NodeText(alias, source)
			}
			specifiers = append(specifiers, js_ast.Specifier{
				Name:  nameText,
				As:    asText,
				Start: int(spec.StartByte()),
			})
		}
	} else if ns := childOfType(node, "namespace_export"); ns != nil {
		as := ""
		if name := firstNamedOfType(ns, "identifier"); name != nil {
			as = js_ast.NodeText(name, source)
		}
		specifiers = append(specifiers, js_ast.Specifier{
			Name:  "*",
			As:    as,
			Batch: true,
			Start: int(ns.StartByte()),
		})
	} else if childOfType(node, "*") != nil {
		specifiers = append(specifiers, js_ast.Specifier{
			Name:  "*",
			Batch: true,
			Start: start,
		})
	} else {
		return nil, nil, false
	}

	d := base
	d.Type = js_ast.ExportNamed
	d.Specifiers = specifiers

	if srcNode != nil {
		d.Passthrough = true
		imp = &js_ast.ImportDecl{
			Path:        stringValue(srcNode, source),
			Specifiers:  specifiers,
			Passthrough: true,
			Start:       start,
			End:         end,
			Next:        next,
		}
	}

	return &d, imp, false
}

func firstNamedOfType(node *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child.Type() == nodeType {
			return child
		}
	}
	return nil
}
