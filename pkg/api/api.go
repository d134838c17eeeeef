// Package api is the public surface of the transpiler: single-file
// transpilation from modern module syntax to a legacy wrapper, and
// whole-graph bundling into one wrapped file.
package api

import (
	"github.com/jvdl/esperanto/internal/fs"
	"github.com/jvdl/esperanto/internal/logger"
	"github.com/jvdl/esperanto/internal/sourcemap"
)

type Format uint8

const (
	FormatAMD Format = iota
	FormatCJS
	FormatUMD
)

type SourceMap uint8

const (
	SourceMapNone SourceMap = iota

	// Emit a map object and append a sourceMappingURL annotation
	// pointing at SourceMapFile + ".map".
	SourceMapFile

	// Append the map as a base64 data URL.
	SourceMapInline
)

// ErrorCode mirrors the diagnostic taxonomy; every failure of a public
// operation carries one.
type ErrorCode string

const (
	ErrParse                  ErrorCode = "PARSE_ERROR"
	ErrSelfImport             ErrorCode = "SELF_IMPORT"
	ErrEntryMissing           ErrorCode = "ENTRY_MISSING"
	ErrRead                   ErrorCode = "READ_ERROR"
	ErrTransform              ErrorCode = "TRANSFORM_ERROR"
	ErrDuplicateImport        ErrorCode = "DUPLICATE_IMPORT"
	ErrDuplicateDefaultExport ErrorCode = "DUPLICATE_DEFAULT_EXPORT"
	ErrMissingExport          ErrorCode = "MISSING_EXPORT"
	ErrIllegalReassignment    ErrorCode = "ILLEGAL_REASSIGNMENT"
	ErrTopLevelThis           ErrorCode = "TOP_LEVEL_THIS"
	ErrStrictMode             ErrorCode = "STRICT_MODE"
	ErrMissingName            ErrorCode = "MISSING_NAME"
	ErrMissingSourceMapConfig ErrorCode = "MISSING_SOURCEMAP_CONFIG"
	ErrNamingCollision        ErrorCode = "NAMING_COLLISION"
	ErrConcatNotAllowed       ErrorCode = "CONCAT_NOT_ALLOWED"
)

// Error is the failure of one operation. There is never partial
// output: when an Error is returned the Result is zero.
type Error struct {
	Code     ErrorCode
	Messages []logger.Msg
}

func (e *Error) Error() string {
	for _, msg := range e.Messages {
		if msg.Kind == logger.Error {
			if msg.Location != nil {
				return msg.Location.File + ": " + msg.Text
			}
			return msg.Text
		}
	}
	return string(e.Code)
}

// EmitOptions is the trailing option set shared by Transpile and every
// bundle emit method.
type EmitOptions struct {
	Strict bool

	// The global property name for the universal wrapper. Required
	// when the format is UMD.
	Name string

	// Module name for a named define().
	AmdName string

	// Resolve define() dependency paths against AmdName instead of
	// leaving them as written.
	AbsolutePaths bool

	// Module name overrides for single-file transpiles, keyed by the
	// import path as written.
	GetModuleName func(path string) string

	SourceMap SourceMap

	// The output file the map is generated for. Required whenever
	// SourceMap is requested.
	SourceMapFile string

	// The original file name recorded in a single-file map. Required
	// for single-file transpiles with source maps.
	SourceMapSource string

	// Embed original sources in the map.
	SourceMapIncludeContent bool

	Banner string
	Footer string
}

// TranspileOptions configures Transpile.
type TranspileOptions struct {
	Format Format
	EmitOptions
}

type Result struct {
	Code string
	Map  *sourcemap.SourceMap
}

// Transpile rewrites one module's source, leaving its imports as
// external references.
func Transpile(source string, options TranspileOptions) (Result, error) {
	return transpileImpl(source, options)
}

// BundleOptions configures NewBundle.
type BundleOptions struct {
	// Entry file path, relative to Base, extension optional.
	Entry string

	// Base directory all module ids resolve against.
	Base string

	// Module ids to leave external even when present on disk.
	Skip []string

	// Pre-assigned module names, keyed by id.
	Names map[string]string

	// Name supplier for ids not covered by Names.
	GetModuleName func(id string) string

	// Per-module source hook, applied before parsing.
	Transform func(source string, path string) (string, error)

	// Optional resolver from module id to file path, consulted before
	// the default "<id>.js" / "<id>/index.js" probe.
	ResolvePath func(id string) string

	// File system override for tests; nil uses the real one.
	FileSystem fs.FS
}

// Bundle is a loaded and linked module graph, ready to emit any number
// of times.
type Bundle struct {
	imports []string
	exports []string
	emit    func(format Format, options EmitOptions) (Result, error)
	concat  func(options ConcatOptions) (Result, error)
}

// Imports lists the ids that stayed external.
func (b *Bundle) Imports() []string { return b.imports }

// Exports lists the entry module's exported names.
func (b *Bundle) Exports() []string { return b.exports }

func (b *Bundle) ToAMD(options EmitOptions) (Result, error) { return b.emit(FormatAMD, options) }
func (b *Bundle) ToCJS(options EmitOptions) (Result, error) { return b.emit(FormatCJS, options) }
func (b *Bundle) ToUMD(options EmitOptions) (Result, error) { return b.emit(FormatUMD, options) }

// ConcatOptions configures Concat.
type ConcatOptions struct {
	Intro  string
	Outro  string
	Indent string

	SourceMap               SourceMap
	SourceMapFile           string
	SourceMapIncludeContent bool

	Banner string
	Footer string
}

// Concat wraps the bundle body in a plain IIFE. It fails unless the
// bundle has no imports and no exports.
func (b *Bundle) Concat(options ConcatOptions) (Result, error) {
	return b.concat(options)
}

// NewBundle resolves the entry's dependency graph and prepares it for
// emission.
func NewBundle(options BundleOptions) (*Bundle, error) {
	return bundleImpl(options)
}
