// Package js_parser adapts the tree-sitter JavaScript grammar for the
// transpiler: parsing with byte offsets, lexical scope annotation, and
// import/export declaration extraction.
package js_parser

import (
	"context"
	"fmt"
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/jvdl/esperanto/internal/logger"
	"github.com/jvdl/esperanto/internal/magicstring"
)

// Tree owns a parsed syntax tree. The underlying cgo tree is kept
// alive for as long as the module is being rewritten.
type Tree struct {
	Root *sitter.Node
	tree *sitter.Tree
}

func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

var sourceMappingURL = regexp.MustCompile(`[#@]\s*sourceMappingURL=`)

// Parse builds a tree for one module. Source map annotation comments
// are removed from body as edits. On a syntax error the offending
// file's path is attached to the diagnostic and ok is false.
func Parse(log logger.Log, source *logger.Source, body *magicstring.MagicString) (*Tree, bool) {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(source.Contents))
	if err != nil {
		log.AddMsg(logger.Msg{
			Kind: logger.Error,
			Text: fmt.Sprintf("Failed to parse %s: %s", source.PrettyPath, err),
		})
		return nil, false
	}

	root := tree.RootNode()
	if root.HasError() {
		loc := firstSyntaxError(root)
		log.AddError(logger.IDParseError, source, loc, fmt.Sprintf("Failed to parse %s", source.PrettyPath))
		tree.Close()
		return nil, false
	}

	// Collect and delete source map annotations so a stale map URL
	// never survives into the output.
	walk(root, func(node *sitter.Node) bool {
		if node.Type() == "comment" {
			text := source.Contents[node.StartByte():node.EndByte()]
			if sourceMappingURL.MatchString(text) {
				body.Remove(int(node.StartByte()), int(node.EndByte()))
			}
			return false
		}
		return true
	})

	return &Tree{Root: root, tree: tree}, true
}

func firstSyntaxError(root *sitter.Node) logger.Loc {
	loc := logger.Loc{Start: int32(root.EndByte())}
	found := false
	walk(root, func(node *sitter.Node) bool {
		if found {
			return false
		}
		if node.Type() == "ERROR" || node.IsMissing() {
			loc = logger.Loc{Start: int32(node.StartByte())}
			found = true
			return false
		}
		return true
	})
	return loc
}

// walk visits node and its children depth-first, skipping a subtree
// when the visitor returns false. Anonymous (punctuation) nodes are
// not visited.
func walk(node *sitter.Node, visit func(*sitter.Node) bool) {
	if !visit(node) {
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		walk(node.NamedChild(i), visit)
	}
}

// childOfType returns the first direct child (anonymous included)
// whose type matches, or nil.
func childOfType(node *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.Type() == nodeType {
			return child
		}
	}
	return nil
}

// stringValue unquotes a string literal node.
func stringValue(node *sitter.Node, source string) string {
	text := source[node.StartByte():node.EndByte()]
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}

// nextStatementStart returns the offset one past a statement's
// trailing semicolon and whitespace: just after the last newline
// before the next token, or at the next token itself when it shares
// the line.
func nextStatementStart(source string, end int) int {
	i := end
	lastNewline := -1
	for i < len(source) {
		c := source[i]
		switch c {
		case ';', ' ', '\t', '\r':
		case '\n':
			lastNewline = i
		default:
			if lastNewline >= 0 {
				return lastNewline + 1
			}
			return i
		}
		i++
	}
	return len(source)
}

func isFunctionNode(nodeType string) bool {
	switch nodeType {
	case "function_declaration", "generator_function_declaration",
		"function_expression", "function", "generator_function",
		"arrow_function", "method_definition":
		return true
	}
	return false
}

func isClassNode(nodeType string) bool {
	switch nodeType {
	case "class_declaration", "class", "class_expression":
		return true
	}
	return false
}

func isBlockNode(nodeType string) bool {
	switch nodeType {
	case "statement_block", "for_statement", "for_in_statement", "catch_clause":
		return true
	}
	return false
}
