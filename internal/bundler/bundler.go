package bundler

import (
	"fmt"
	"strings"

	"github.com/jvdl/esperanto/internal/fs"
	"github.com/jvdl/esperanto/internal/js_ast"
	"github.com/jvdl/esperanto/internal/logger"
	"github.com/jvdl/esperanto/internal/resolver"
)

// Options configures a bundle scan.
type Options struct {
	// Entry is the entry file path relative to Base, with or without
	// its ".js" extension.
	Entry string

	// Base is the directory module ids resolve against.
	Base string

	// Skip marks ids that must stay external even when present on
	// disk.
	Skip map[string]bool

	// Names pre-assigns module names.
	Names map[string]string

	// GetModuleName supplies a name for a module id. A name already in
	// use is a fatal naming collision.
	GetModuleName func(id string) string

	// Transform rewrites a module's source before parsing.
	Transform func(source string, path string) (string, error)

	// ResolvePath overrides the on-disk probe for a module id. It
	// returns the file path to read, or "" to fall through to the
	// default probe.
	ResolvePath func(id string) string
}

// Bundle is the loaded module graph plus everything the planner
// attaches to it.
type Bundle struct {
	Entry       string
	EntryModule *Module

	// Topologically sorted: dependencies before dependents where the
	// graph is acyclic; a cycle is broken at the import that closes it
	// (see sortModules).
	Modules      []*Module
	ModuleLookup map[string]*Module

	ExternalModules      []*ExternalModule
	ExternalModuleLookup map[string]*ExternalModule

	// Re-export chains: "id@exportedName" -> "sourceID@sourceName".
	Chains map[string]string

	// Per module: output export name -> binding, for the exports the
	// entry surfaces through that module.
	Exports map[string]map[string]ExportBinding
}

// ExportBinding says how one output export is produced.
type ExportBinding struct {
	// The local binding inside the owning module; "" for an anonymous
	// default value.
	LocalName string

	// The final output identifier to read.
	Identifier string

	// Reached through a re-export chain rather than declared directly.
	FromChain bool
}

type loadResult struct {
	module   *Module
	id       string
	external bool
	ok       bool
}

// ScanBundle loads the entry module and every local module reachable
// from it. Reads and parses run in parallel, one goroutine per module,
// funneled through a results channel; everything after loading is
// synchronous and deterministic.
func ScanBundle(log logger.Log, fsys fs.FS, options Options) (*Bundle, bool) {
	entryID := strings.TrimSuffix(strings.ReplaceAll(options.Entry, "\\", "/"), ".js")

	b := &Bundle{
		Entry:                entryID,
		ModuleLookup:         make(map[string]*Module),
		ExternalModuleLookup: make(map[string]*ExternalModule),
		Chains:               make(map[string]string),
		Exports:              make(map[string]map[string]ExportBinding),
	}

	results := make(chan loadResult)
	visited := map[string]bool{entryID: true}
	remaining := 1
	ok := true

	load := func(id string, isEntry bool) {
		path := ""
		contents := ""
		var err error
		if options.ResolvePath != nil {
			if custom := options.ResolvePath(id); custom != "" {
				path = custom
				contents, err = fsys.ReadFile(custom)
			}
		}
		if path == "" {
			path, contents, err = resolver.Probe(fsys, options.Base, id)
		}

		if err != nil {
			if fs.IsNotExist(err) {
				if isEntry {
					log.AddMsg(logger.Msg{Kind: logger.Error, ID: logger.IDEntryMissing, Text: fmt.Sprintf("Could not find entry module '%s'", id)})
					results <- loadResult{id: id}
				} else {
					results <- loadResult{id: id, external: true, ok: true}
				}
				return
			}
			log.AddMsg(logger.Msg{Kind: logger.Error, ID: logger.IDReadError, Text: fmt.Sprintf("Could not read module '%s': %s", id, err)})
			results <- loadResult{id: id}
			return
		}

		if options.Transform != nil {
			transformed, err := options.Transform(contents, path)
			if err != nil {
				log.AddMsg(logger.Msg{Kind: logger.Error, ID: logger.IDTransformError, Text: fmt.Sprintf("Error transforming '%s': %s", path, err)})
				results <- loadResult{id: id}
				return
			}
			contents = transformed
		}

		source := &logger.Source{
			ID:             id,
			PrettyPath:     path,
			IdentifierName: js_ast.SanitizeIdentifier(lastComponent(id)),
			Contents:       contents,
		}
		module, loaded := Load(log, source)
		results <- loadResult{id: id, module: module, ok: loaded}
	}

	addExternal := func(id string) {
		if _, dup := b.ExternalModuleLookup[id]; !dup {
			ext := &ExternalModule{ID: id}
			b.ExternalModules = append(b.ExternalModules, ext)
			b.ExternalModuleLookup[id] = ext
		}
	}

	go load(entryID, true)

	for remaining > 0 {
		result := <-results
		remaining--

		if !result.ok {
			ok = false
			continue
		}
		if result.external {
			addExternal(result.id)
			continue
		}

		module := result.module
		b.ModuleLookup[module.ID] = module
		if module.ID == entryID {
			b.EntryModule = module
		}

		for _, imp := range module.Imports {
			id := resolver.Resolve(imp.Path, module.ID)
			imp.ID = id

			if id == module.ID {
				log.AddError(logger.IDSelfImport, module.Source, logger.Loc{Start: int32(imp.Start)},
					fmt.Sprintf("A module ('%s') cannot import itself", id))
				ok = false
				continue
			}

			if !strings.HasPrefix(imp.Path, ".") || options.Skip[id] {
				// Non-relative and skipped ids stay external without
				// touching the disk.
				addExternal(id)
				continue
			}

			if !visited[id] {
				visited[id] = true
				remaining++
				go load(id, false)
			}
		}
	}

	if !ok || b.EntryModule == nil {
		return nil, false
	}

	b.Modules = sortModules(b.EntryModule, b.ModuleLookup)
	orderExternals(b)
	computeChains(b)
	markNamespaceImports(b)
	if !validateImports(log, b) {
		return nil, false
	}
	return b, true
}

// sortModules orders dependencies before dependents (depth-first
// post-order from the entry). A module is marked seen before its
// imports are visited, so an import back into a module still in
// progress is skipped: in a cycle, the module reached last is placed
// first.
func sortModules(entry *Module, lookup map[string]*Module) []*Module {
	seen := make(map[string]bool)
	var ordered []*Module

	var visit func(m *Module)
	visit = func(m *Module) {
		seen[m.ID] = true
		for _, imp := range m.Imports {
			if dep, local := lookup[imp.ID]; local && !seen[imp.ID] {
				visit(dep)
			}
		}
		ordered = append(ordered, m)
	}

	visit(entry)
	return ordered
}

// orderExternals rewrites the external list into first-reference order
// over the sorted module list. Load order depends on goroutine timing
// and must never be observable in the output.
func orderExternals(b *Bundle) {
	ordered := make([]*ExternalModule, 0, len(b.ExternalModules))
	seen := make(map[string]bool)
	for _, m := range b.Modules {
		for _, imp := range m.Imports {
			if ext, external := b.ExternalModuleLookup[imp.ID]; external && !seen[imp.ID] {
				seen[imp.ID] = true
				ordered = append(ordered, ext)
			}
		}
	}
	b.ExternalModules = ordered
}

// computeChains records, for every export backed by an import, the
// link "thisModule@exportedName -> sourceModule@importedName". The
// planner follows these to a fixed point.
func computeChains(b *Bundle) {
	for _, m := range b.Modules {
		origin := make(map[string]string)
		for _, imp := range m.Imports {
			for _, s := range imp.Specifiers {
				if s.Batch {
					continue
				}
				origin[s.As] = imp.ID + "@" + s.Name
			}
		}

		for _, exp := range m.Exports {
			if exp.Type != js_ast.ExportNamed {
				continue
			}
			for _, s := range exp.Specifiers {
				if s.Batch {
					continue
				}
				// A passthrough specifier's alias is origin-mapped by
				// its companion import; a plain re-export of a local
				// binding chains when that binding was imported.
				if exp.Passthrough {
					if from, isImported := origin[s.As]; isImported {
						b.Chains[m.ID+"@"+s.As] = from
					}
				} else if from, isImported := origin[s.Name]; isImported {
					b.Chains[m.ID+"@"+s.As] = from
				}
			}
		}
	}
}

// FollowChains resolves an (id, name) pair through re-export links to
// its origin.
func (b *Bundle) FollowChains(id string, name string) (string, string) {
	key := id + "@" + name
	for {
		next, chained := b.Chains[key]
		if !chained {
			break
		}
		key = next
	}
	at := strings.IndexByte(key, '@')
	return key[:at], key[at+1:]
}

// markNamespaceImports flags modules bound by "import * as ns" (or
// "export * as ns from"), which makes the rewriter emit their getter
// namespace object.
func markNamespaceImports(b *Bundle) {
	for _, m := range b.Modules {
		for _, imp := range m.Imports {
			for _, s := range imp.Specifiers {
				if !s.Batch {
					continue
				}
				if target, local := b.ModuleLookup[imp.ID]; local {
					target.ExportsNamespace = true
				}
			}
		}
	}
}

// validateImports checks every named and default import against the
// target module's export set. Batch imports are exempt, as are targets
// that re-export an unknowable set via "export *".
func validateImports(log logger.Log, b *Bundle) bool {
	ok := true
	for _, m := range b.Modules {
		for _, imp := range m.Imports {
			target, local := b.ModuleLookup[imp.ID]
			if !local {
				continue
			}
			for _, s := range imp.Specifiers {
				if s.Batch {
					continue
				}
				ownerID, name := b.FollowChains(imp.ID, s.Name)
				owner, ownerLocal := b.ModuleLookup[ownerID]
				if !ownerLocal {
					continue
				}
				if !owner.DoesExport[name] && !owner.HasBatchExport() && !target.HasBatchExport() {
					log.AddError(logger.IDMissingExport, m.Source, logger.Loc{Start: int32(s.Start)},
						fmt.Sprintf("Module '%s' does not export '%s' (imported by '%s')", imp.ID, s.Name, m.ID))
					ok = false
				}
			}
		}
	}
	return ok
}

func lastComponent(id string) string {
	if i := strings.LastIndexByte(id, '/'); i >= 0 {
		return id[i+1:]
	}
	return id
}
