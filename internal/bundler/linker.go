package bundler

import (
	"strings"

	"github.com/jvdl/esperanto/internal/js_ast"
)

// Link is the export planner. It computes cross-module top-level name
// conflicts, fills every module's identifier replacement table,
// resolves import specifiers through re-export chains, and decides
// which module is responsible for each of the entry's output exports.
func Link(b *Bundle) {
	conflicts := computeConflicts(b)

	// Replacements for top-level declarations, and the identifier
	// each default export's value ends up in.
	for _, m := range b.Modules {
		for _, n := range m.Annotations.ModuleScope.Names() {
			if conflicts[n] {
				m.IdentifierReplacements[n] = m.Name + "__" + n
			} else {
				m.IdentifierReplacements[n] = n
			}
		}

		if exp := m.DefaultExport; exp != nil {
			if exp.Name != "" {
				if conflicts[exp.Name] {
					m.DefaultName = m.Name + "__" + exp.Name
				} else {
					m.DefaultName = exp.Name
				}
			} else if conflicts[m.Name] || exp.Value == m.Name {
				// An anonymous default that could collide with the
				// module's own name gets the explicit suffix.
				m.DefaultName = m.Name + "__default"
			} else {
				m.DefaultName = m.Name
			}
		}
	}

	// First pass over imports: which externals need default or named
	// access.
	for _, m := range b.Modules {
		for _, imp := range m.Imports {
			for _, s := range imp.Specifiers {
				if s.Batch {
					continue
				}
				ownerID, name := b.FollowChains(imp.ID, s.Name)
				if ext, external := b.ExternalModuleLookup[ownerID]; external {
					if name == "default" {
						ext.NeedsDefault = true
					} else {
						ext.NeedsNamed = true
					}
				}
			}
		}
	}

	// Second pass: bind every import alias to its resolved identifier.
	for _, m := range b.Modules {
		m.ImportedBindings = make(map[string]bool)
		m.NamespaceBindings = make(map[string]bool)

		for _, imp := range m.Imports {
			for _, s := range imp.Specifiers {
				if imp.Passthrough {
					// Passthrough specifiers create no local binding;
					// the chains table already covers them.
					continue
				}
				m.ImportedBindings[s.As] = true

				if s.Batch {
					m.NamespaceBindings[s.As] = true
					if owner, local := b.ModuleLookup[imp.ID]; local {
						m.IdentifierReplacements[s.As] = owner.Name
					} else if ext, external := b.ExternalModuleLookup[imp.ID]; external {
						m.IdentifierReplacements[s.As] = ext.Name
					}
					continue
				}

				ownerID, name := b.FollowChains(imp.ID, s.Name)
				m.IdentifierReplacements[s.As] = b.ResolvedIdentifier(ownerID, name)
			}
		}
	}

	// Decide who emits each of the entry's exports. Chained exports
	// are attached to the module that owns the origin binding so its
	// mirroring side-effects keep the export live.
	entry := b.EntryModule
	for exported := range entry.DoesExport {
		ownerID, name := b.FollowChains(entry.ID, exported)

		binding := ExportBinding{
			Identifier: b.ResolvedIdentifier(ownerID, name),
			FromChain:  ownerID != entry.ID,
		}

		attachTo := ownerID
		if owner, local := b.ModuleLookup[ownerID]; local {
			if name == "default" {
				if owner.DefaultExport != nil {
					binding.LocalName = owner.DefaultExport.Name
				}
			} else {
				binding.LocalName = owner.ExportLocal(name)
			}
		} else {
			// The chain dead-ends at an external module; the entry
			// re-exports the external's binding itself.
			attachTo = entry.ID
		}

		if b.Exports[attachTo] == nil {
			b.Exports[attachTo] = make(map[string]ExportBinding)
		}
		b.Exports[attachTo][exported] = binding
	}
}

// ResolvedIdentifier names the identifier that reads (ownerID, name)
// in the final output.
func (b *Bundle) ResolvedIdentifier(ownerID string, name string) string {
	if owner, local := b.ModuleLookup[ownerID]; local {
		if name == "default" {
			return owner.DefaultName
		}
		localName := owner.ExportLocal(name)
		if localName == "" {
			// "export *" target; read through the name unprefixed
			localName = name
		}
		if repl, exists := owner.IdentifierReplacements[localName]; exists {
			return repl
		}
		return localName
	}

	ext := b.ExternalModuleLookup[ownerID]
	if name == "default" {
		if ext.NeedsNamed {
			return ext.Name + "__default"
		}
		return ext.Name
	}
	return ext.Name + "." + name
}

// computeConflicts finds every top-level name that must be prefixed: a
// name declared or imported at top level in more than one module, a
// name colliding with the builtin reservation set, a module name
// declared at top level in another module, and the name of every
// namespace-exporting
// module (its getter object claims it).
func computeConflicts(b *Bundle) map[string]bool {
	conflicts := make(map[string]bool)
	declaredIn := make(map[string]*Module)

	usedIn := make(map[string]*Module)
	for _, m := range b.Modules {
		for _, n := range m.Annotations.ModuleScope.Names() {
			if js_ast.Builtins[n] {
				conflicts[n] = true
				continue
			}
			if prev, seen := usedIn[n]; seen && prev != m {
				conflicts[n] = true
			} else {
				usedIn[n] = m
			}
			// Aliases disappear during rewriting, so they count as
			// usage but not as declarations.
			if !m.Annotations.Aliases[n] {
				declaredIn[n] = m
			}
		}
	}

	for _, m := range b.Modules {
		if prev, seen := declaredIn[m.Name]; seen && prev != m {
			conflicts[m.Name] = true
		}
		// A namespace-exporting module's own name is claimed by its
		// getter object, and every name its getters close over must be
		// stable, so the whole module is prefixed.
		if m.ExportsNamespace {
			conflicts[m.Name] = true
			for _, n := range m.Annotations.ModuleScope.Names() {
				if !m.Annotations.Aliases[n] {
					conflicts[n] = true
				}
			}
		}
	}
	for _, ext := range b.ExternalModules {
		if _, seen := declaredIn[ext.Name]; seen {
			conflicts[ext.Name] = true
		}
	}

	// A binding at the end of a re-export chain is read far from its
	// declaration; prefix it so the reading module can't capture it.
	for _, target := range b.Chains {
		at := strings.IndexByte(target, '@')
		if name := target[at+1:]; name != "default" {
			conflicts[name] = true
		}
	}

	return conflicts
}
