// Package wrapper renders the legacy-module pre/postambles: an
// asynchronous define-style wrapper, a node-style require/exports
// wrapper, and a universal one that detects its host at load time.
// Each comes in a strict variant (named exports through an exports
// object) and a defaults-only variant (a single returned value).
package wrapper

import (
	"strings"
)

type Format uint8

const (
	AMD Format = iota
	CJS
	UMD
)

// Options is the subset of emit options the templates need.
type Options struct {
	Strict bool

	// The global property the universal wrapper reads and writes.
	// Required for UMD.
	Name string

	// Optional module name for a named define().
	AmdName string
}

// Dependency is one external module the wrapper must provide.
type Dependency struct {
	// The dependency path as required/defined.
	Path string

	// The factory parameter or require binding; empty for side-effect
	// only dependencies.
	Name string

	// The bundle accesses both the default and named exports, so an
	// interop binding "<name>__default" must be derived.
	Interop bool
}

// Wrapping is what gets wrapped around a finished body: the body is
// indented by Indent, then Intro and Outro are attached.
type Wrapping struct {
	Intro  string
	Outro  string
	Indent string
}

// Single renders the wrapper for one transpiled module or a bundle
// body. hasExports selects the exports-object plumbing in strict mode;
// in defaults mode the body itself carries the "module.exports ="
// or "return" statement.
func Single(format Format, options Options, deps []Dependency, hasExports bool) Wrapping {
	switch format {
	case AMD:
		return amd(options, deps, hasExports)
	case UMD:
		return umd(options, deps, hasExports)
	default:
		return cjs(options, deps, hasExports)
	}
}

func amd(options Options, deps []Dependency, hasExports bool) Wrapping {
	paths := depPaths(deps)
	params := depParams(deps)
	if options.Strict && hasExports {
		paths = append(paths, "'exports'")
		params = append(params, "exports")
	}

	var sb strings.Builder
	sb.WriteString("define(")
	if options.AmdName != "" {
		sb.WriteString("'" + options.AmdName + "', ")
	}
	if len(paths) > 0 {
		sb.WriteString("[" + strings.Join(paths, ", ") + "], ")
	}
	sb.WriteString("function (" + strings.Join(params, ", ") + ") {\n\n\t'use strict';\n\n")
	sb.WriteString(interop(deps, "\t"))

	return Wrapping{Intro: sb.String(), Outro: "\n\n});", Indent: "\t"}
}

func cjs(options Options, deps []Dependency, hasExports bool) Wrapping {
	var sb strings.Builder
	sb.WriteString("'use strict';\n\n")

	for _, dep := range deps {
		if dep.Name == "" {
			sb.WriteString("require('" + dep.Path + "');\n")
		} else {
			sb.WriteString("var " + dep.Name + " = require('" + dep.Path + "');\n")
		}
	}
	interopText := interop(deps, "")
	sb.WriteString(interopText)
	if len(deps) > 0 && interopText == "" {
		sb.WriteString("\n")
	}

	return Wrapping{Intro: sb.String(), Outro: ""}
}

func umd(options Options, deps []Dependency, hasExports bool) Wrapping {
	requires := make([]string, 0, len(deps)+1)
	amdDeps := make([]string, 0, len(deps)+1)
	globals := make([]string, 0, len(deps)+1)
	params := make([]string, 0, len(deps)+1)

	strictExports := options.Strict && hasExports
	if strictExports {
		requires = append(requires, "exports")
		amdDeps = append(amdDeps, "'exports'")
		globals = append(globals, "(global."+options.Name+" = {})")
		params = append(params, "exports")
	}
	for _, dep := range deps {
		requires = append(requires, "require('"+dep.Path+"')")
		amdDeps = append(amdDeps, "'"+dep.Path+"'")
		globals = append(globals, "global."+globalRef(dep))
		if dep.Name != "" {
			params = append(params, dep.Name)
		}
	}

	var factoryCall, globalCall string
	if strictExports {
		factoryCall = "factory(" + strings.Join(requires, ", ") + ")"
		globalCall = "factory(" + strings.Join(globals, ", ") + ")"
	} else {
		factoryCall = "module.exports = factory(" + strings.Join(requires, ", ") + ")"
		globalCall = "global." + options.Name + " = factory(" + strings.Join(globals, ", ") + ")"
	}

	defineArgs := ""
	if options.AmdName != "" {
		defineArgs = "'" + options.AmdName + "', "
	}
	if len(amdDeps) > 0 {
		defineArgs += "[" + strings.Join(amdDeps, ", ") + "], "
	}

	var sb strings.Builder
	sb.WriteString("(function (global, factory) {\n")
	sb.WriteString("\ttypeof exports === 'object' && typeof module !== 'undefined' ? " + factoryCall + " :\n")
	sb.WriteString("\ttypeof define === 'function' && define.amd ? define(" + defineArgs + "factory) :\n")
	sb.WriteString("\t(" + globalCall + ");\n")
	sb.WriteString("}(this, function (" + strings.Join(params, ", ") + ") { 'use strict';\n\n")
	sb.WriteString(interop(deps, "\t"))

	return Wrapping{Intro: sb.String(), Outro: "\n\n}));", Indent: "\t"}
}

// Concat wraps an import- and export-free bundle body in a plain IIFE.
func Concat(intro string, outro string, indent string) Wrapping {
	if intro == "" {
		intro = "(function () { 'use strict';\n\n"
	}
	if outro == "" {
		outro = "\n\n})();"
	}
	return Wrapping{Intro: intro, Outro: outro, Indent: indent}
}

// interop derives the default binding for externals accessed both ways.
// The conditional keeps legacy consumers of pre-ES modules working.
func interop(deps []Dependency, indent string) string {
	var sb strings.Builder
	for _, dep := range deps {
		if dep.Interop {
			sb.WriteString(indent + "var " + dep.Name + "__default = 'default' in " + dep.Name +
				" ? " + dep.Name + "['default'] : " + dep.Name + ";\n")
		}
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	return sb.String()
}

func depPaths(deps []Dependency) []string {
	paths := make([]string, 0, len(deps))
	for _, dep := range deps {
		paths = append(paths, "'"+dep.Path+"'")
	}
	return paths
}

func depParams(deps []Dependency) []string {
	params := make([]string, 0, len(deps))
	for _, dep := range deps {
		if dep.Name != "" {
			params = append(params, dep.Name)
		}
	}
	return params
}

// globalRef is the property name a dependency is read from on the
// global object in the universal wrapper's fallback branch.
func globalRef(dep Dependency) string {
	if dep.Name != "" {
		return dep.Name
	}
	return dep.Path
}
