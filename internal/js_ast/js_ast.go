package js_ast

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// NodeKey identifies a syntax-tree node by its source span. Scope
// tables are keyed this way because tree nodes are opaque cgo handles
// that can't carry extra fields.
type NodeKey uint64

func KeyOf(node *sitter.Node) NodeKey {
	return NodeKey(node.StartByte())<<32 | NodeKey(node.EndByte())
}

// NodeText returns the source slice a node covers.
func NodeText(node *sitter.Node, source string) string {
	return source[node.StartByte():node.EndByte()]
}

// Scope is one lexical environment. Function scopes hold parameters,
// "var" declarations, hoisted function names, and class declaration
// names; block scopes hold lexical (let/const) declarations.
type Scope struct {
	Parent  *Scope
	IsBlock bool
	names   map[string]bool
}

func NewScope(parent *Scope, isBlock bool) *Scope {
	return &Scope{Parent: parent, IsBlock: isBlock, names: make(map[string]bool)}
}

func (s *Scope) Declare(name string) {
	s.names[name] = true
}

// DeclaredHere reports whether name was declared directly in this
// scope, without walking parents.
func (s *Scope) DeclaredHere(name string) bool {
	return s.names[name]
}

// Names returns the declared names in unspecified order.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.names))
	for name := range s.names {
		names = append(names, name)
	}
	return names
}

// Contains walks the scope chain looking for name. With ignoreTopLevel
// set, the root scope never matches; the rewriter uses this to tell a
// shadowing local apart from the top-level declaration it is about to
// rewrite.
func (s *Scope) Contains(name string, ignoreTopLevel bool) bool {
	if s.Parent == nil && ignoreTopLevel {
		return false
	}
	if s.names[name] {
		return true
	}
	if s.Parent != nil {
		return s.Parent.Contains(name, ignoreTopLevel)
	}
	return false
}

// Specifier is one item in an import or export list.
type Specifier struct {
	// The name on the source module's side ("default" for default
	// imports, "*" for batch imports).
	Name string

	// The local alias the name is bound to (or exported as, in an
	// export list).
	As string

	Default bool
	Batch   bool

	// Byte offset of the specifier, for diagnostics.
	Start int
}

// ImportDecl is one normalized import statement. An
// "export ... from ..." declaration also produces one of these with
// Passthrough set.
type ImportDecl struct {
	// The path exactly as written in the source.
	Path string

	// Canonical module id once the graph resolver has run. Empty until
	// then.
	ID string

	Specifiers []Specifier

	// Set for the import half of an "export ... from ..." declaration.
	// Its specifiers carry the exported names.
	Passthrough bool

	Start int
	End   int

	// One past the trailing semicolon and whitespace, up to the next
	// statement. The rewriter deletes [Start, Next).
	Next int
}

func (d *ImportDecl) IsEmpty() bool {
	return len(d.Specifiers) == 0
}

func (d *ImportDecl) HasDefault() bool {
	for _, s := range d.Specifiers {
		if s.Default {
			return true
		}
	}
	return false
}

func (d *ImportDecl) HasBatch() bool {
	for _, s := range d.Specifiers {
		if s.Batch {
			return true
		}
	}
	return false
}

func (d *ImportDecl) HasNamed() bool {
	for _, s := range d.Specifiers {
		if !s.Default && !s.Batch {
			return true
		}
	}
	return false
}

type ExportType uint8

const (
	// export var x = ...  (also let/const)
	ExportVarDeclaration ExportType = iota

	// export function f() {} / export default function f() {}
	ExportNamedFunction

	// export class C {} / export default class C {}
	ExportNamedClass

	// export { a, b as c } [from '...']
	ExportNamed

	// export default function () {}
	ExportAnonFunction

	// export default class {}
	ExportAnonClass

	// export default <expression>;
	ExportExpression
)

// ExportDecl is one normalized export statement.
type ExportDecl struct {
	Type ExportType

	// The declared identifier for the named forms.
	Name string

	// The source slice of the exported value for the anonymous default
	// forms.
	Value string

	// Where the declaration or value proper begins (after "export" or
	// "export default").
	ValueStart int

	// For ExportNamed: the listed specifiers (Name is the local name,
	// As the exported one).
	Specifiers []Specifier

	IsDefault bool

	// Set when the declaration has a "from" source; the companion
	// ImportDecl carries the path.
	Passthrough bool

	Start int
	End   int
	Next  int
}

// Annotations is the scope annotator's product for one module.
type Annotations struct {
	// The top-level module scope.
	ModuleScope *Scope

	// The subset of top-level names that are import aliases rather
	// than declarations. They vanish during rewriting, so some
	// conflict rules ignore them.
	Aliases map[string]bool

	// Scope-owning node span -> its scope.
	Scopes map[NodeKey]*Scope

	// Template literal spans; indentation must never be inserted
	// inside these.
	TemplateRanges [][2]int

	// Spans of top-level `this` expressions, replaced by "undefined".
	TopLevelThis [][2]int

	// Names of top-level function declarations, candidates for early
	// export.
	TopLevelFunctionNames []string
}

func (a *Annotations) ScopeFor(node *sitter.Node) *Scope {
	return a.Scopes[KeyOf(node)]
}
