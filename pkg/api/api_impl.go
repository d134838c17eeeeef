package api

import (
	"sort"
	"strings"

	"github.com/jvdl/esperanto/internal/bundler"
	"github.com/jvdl/esperanto/internal/fs"
	"github.com/jvdl/esperanto/internal/logger"
	"github.com/jvdl/esperanto/internal/magicstring"
	"github.com/jvdl/esperanto/internal/resolver"
	"github.com/jvdl/esperanto/internal/rewriter"
	"github.com/jvdl/esperanto/internal/wrapper"
)

func transpileImpl(source string, options TranspileOptions) (Result, error) {
	if err := validateEmitOptions(options.Format, options.EmitOptions, true); err != nil {
		return Result{}, err
	}

	log := logger.NewDeferLog()

	prettyPath := options.SourceMapSource
	if prettyPath == "" {
		prettyPath = "<input>"
	}
	src := &logger.Source{PrettyPath: prettyPath, Contents: source}

	m, ok := bundler.Load(log, src)
	if !ok {
		return Result{}, errorFromLog(log)
	}
	defer m.Tree.Close()

	defaultsPrefix := "return "
	if options.Format == FormatCJS {
		defaultsPrefix = "module.exports = "
	}

	result, ok := rewriter.RewriteSingle(log, m, rewriter.SingleOptions{
		Strict:         options.Strict,
		DefaultsPrefix: defaultsPrefix,
		GetModuleName:  options.GetModuleName,
	})
	if !ok {
		return Result{}, errorFromLog(log)
	}

	deps := make([]wrapper.Dependency, 0, len(result.Imports))
	for _, imp := range result.Imports {
		deps = append(deps, wrapper.Dependency{
			Path: dependencyPath(imp.Path, options.EmitOptions),
			Name: imp.Name,
		})
	}

	w := wrapper.Single(wrapperFormat(options.Format), wrapper.Options{
		Strict:  options.Strict,
		Name:    options.Name,
		AmdName: options.AmdName,
	}, deps, result.HasExports)

	if w.Indent != "" {
		m.Body.Indent(w.Indent)
	}
	m.Body.Prepend(w.Intro)
	m.Body.Append(w.Outro)
	applyBannerFooter(options.Banner, options.Footer,
		func(s string) { m.Body.Prepend(s) },
		func(s string) { m.Body.Append(s) })

	res := Result{}
	if options.SourceMap != SourceMapNone {
		res.Map = m.Body.GenerateMap(magicstring.MapOptions{
			File:           options.SourceMapFile,
			Source:         options.SourceMapSource,
			IncludeContent: options.SourceMapIncludeContent,
		})
		m.Body.Append(mapAnnotation(options.SourceMap, options.SourceMapFile, res.Map))
	}
	res.Code = m.Body.String()
	return res, nil
}

func bundleImpl(options BundleOptions) (*Bundle, error) {
	fsys := options.FileSystem
	if fsys == nil {
		fsys = fs.RealFS()
	}

	scanOptions := bundler.Options{
		Entry:         options.Entry,
		Base:          options.Base,
		Skip:          make(map[string]bool, len(options.Skip)),
		Names:         options.Names,
		GetModuleName: options.GetModuleName,
		Transform:     options.Transform,
		ResolvePath:   options.ResolvePath,
	}
	for _, id := range options.Skip {
		scanOptions.Skip[strings.TrimSuffix(id, ".js")] = true
	}

	// scan runs the full load + plan pipeline. Emission mutates the
	// module bodies, so every emit call works on a fresh scan; the
	// file-system read cache keeps repeats cheap.
	scan := func() (*bundler.Bundle, logger.Log, error) {
		log := logger.NewDeferLog()
		b, ok := bundler.ScanBundle(log, fsys, scanOptions)
		if !ok {
			return nil, log, errorFromLog(log)
		}
		if !bundler.AssignNames(log, b, scanOptions) {
			return nil, log, errorFromLog(log)
		}
		bundler.Link(b)
		return b, log, nil
	}

	first, _, err := scan()
	if err != nil {
		return nil, err
	}

	imports := make([]string, 0, len(first.ExternalModules))
	for _, ext := range first.ExternalModules {
		imports = append(imports, ext.ID)
	}
	exports := make([]string, 0, len(first.EntryModule.DoesExport))
	for name := range first.EntryModule.DoesExport {
		exports = append(exports, name)
	}
	sort.Strings(exports)
	closeBundle(first)

	return &Bundle{
		imports: imports,
		exports: exports,
		emit: func(format Format, emitOptions EmitOptions) (Result, error) {
			if err := validateEmitOptions(format, emitOptions, false); err != nil {
				return Result{}, err
			}
			b, log, err := scan()
			if err != nil {
				return Result{}, err
			}
			defer closeBundle(b)
			return emitBundle(log, b, format, emitOptions)
		},
		concat: func(concatOptions ConcatOptions) (Result, error) {
			b, log, err := scan()
			if err != nil {
				return Result{}, err
			}
			defer closeBundle(b)
			return concatBundle(log, b, concatOptions)
		},
	}, nil
}

func emitBundle(log logger.Log, b *bundler.Bundle, format Format, options EmitOptions) (Result, error) {
	entry := b.EntryModule

	if !options.Strict {
		for name := range entry.DoesExport {
			if name != "default" {
				return Result{}, &Error{Code: ErrStrictMode, Messages: []logger.Msg{{
					Kind: logger.Error,
					ID:   logger.IDStrictMode,
					Text: "Entry module can only have named exports in strict mode (pass `strict: true`)",
				}}}
			}
		}
	}

	for _, m := range b.Modules {
		if !rewriter.RewriteBundleModule(log, b, m, options.Strict) {
			return Result{}, errorFromLog(log)
		}
	}

	body := magicstring.NewBundle("\n\n")
	for _, m := range b.Modules {
		body.AddSource(m.Body)
	}

	// The entry default is surfaced by the wrapper in defaults mode
	if !options.Strict && entry.DoesExport["default"] {
		ident := b.ResolvedIdentifier(b.FollowChains(entry.ID, "default"))
		if format == FormatCJS {
			body.Append("\n\nmodule.exports = " + ident + ";")
		} else {
			body.Append("\n\nreturn " + ident + ";")
		}
	}

	deps := make([]wrapper.Dependency, 0, len(b.ExternalModules))
	for _, ext := range b.ExternalModules {
		deps = append(deps, wrapper.Dependency{
			Path:    dependencyPath(ext.ID, options),
			Name:    ext.Name,
			Interop: ext.NeedsDefault && ext.NeedsNamed,
		})
	}

	w := wrapper.Single(wrapperFormat(format), wrapper.Options{
		Strict:  options.Strict,
		Name:    options.Name,
		AmdName: options.AmdName,
	}, deps, len(entry.DoesExport) > 0)

	body.Trim()
	if w.Indent != "" {
		body.Indent(w.Indent)
	}
	body.Prepend(w.Intro)
	body.Append(w.Outro)
	applyBannerFooter(options.Banner, options.Footer, wrapPrepend(body), wrapAppend(body))

	res := Result{}
	if options.SourceMap != SourceMapNone {
		res.Map = body.GenerateMap(magicstring.MapOptions{
			File:           options.SourceMapFile,
			IncludeContent: options.SourceMapIncludeContent,
		})
		body.Append(mapAnnotation(options.SourceMap, options.SourceMapFile, res.Map))
	}
	res.Code = body.String()
	return res, nil
}

func concatBundle(log logger.Log, b *bundler.Bundle, options ConcatOptions) (Result, error) {
	if len(b.ExternalModules) > 0 || len(b.EntryModule.DoesExport) > 0 {
		return Result{}, &Error{Code: ErrConcatNotAllowed, Messages: []logger.Msg{{
			Kind: logger.Error,
			ID:   logger.IDConcatNotAllowed,
			Text: "Bundles can only be concatenated if they have no imports and no exports",
		}}}
	}
	if options.SourceMap != SourceMapNone && options.SourceMapFile == "" {
		return Result{}, missingSourceMapConfig()
	}

	for _, m := range b.Modules {
		if !rewriter.RewriteBundleModule(log, b, m, true) {
			return Result{}, errorFromLog(log)
		}
	}

	body := magicstring.NewBundle("\n\n")
	for _, m := range b.Modules {
		body.AddSource(m.Body)
	}

	indent := options.Indent
	if indent == "" && options.Intro == "" {
		indent = "\t"
	}
	w := wrapper.Concat(options.Intro, options.Outro, indent)

	body.Trim()
	if w.Indent != "" {
		body.Indent(w.Indent)
	}
	body.Prepend(w.Intro)
	body.Append(w.Outro)
	applyBannerFooter(options.Banner, options.Footer, wrapPrepend(body), wrapAppend(body))

	res := Result{}
	if options.SourceMap != SourceMapNone {
		res.Map = body.GenerateMap(magicstring.MapOptions{
			File:           options.SourceMapFile,
			IncludeContent: options.SourceMapIncludeContent,
		})
		body.Append(mapAnnotation(options.SourceMap, options.SourceMapFile, res.Map))
	}
	res.Code = body.String()
	return res, nil
}

func closeBundle(b *bundler.Bundle) {
	for _, m := range b.Modules {
		m.Tree.Close()
	}
}

func validateEmitOptions(format Format, options EmitOptions, singleFile bool) error {
	if format == FormatUMD && options.Name == "" {
		return &Error{Code: ErrMissingName, Messages: []logger.Msg{{
			Kind: logger.Error,
			ID:   logger.IDMissingName,
			Text: "You must supply a `name` option for UMD modules",
		}}}
	}
	if options.SourceMap != SourceMapNone {
		if options.SourceMapFile == "" || (singleFile && options.SourceMapSource == "") {
			return missingSourceMapConfig()
		}
	}
	return nil
}

func missingSourceMapConfig() error {
	return &Error{Code: ErrMissingSourceMapConfig, Messages: []logger.Msg{{
		Kind: logger.Error,
		ID:   logger.IDMissingSourceMapConfig,
		Text: "You must supply `sourceMapFile` (and `sourceMapSource` for single-file transpiles) to generate a source map",
	}}}
}

func errorFromLog(log logger.Log) error {
	msgs := log.Done()
	code := ErrorCode("ERROR")
	for _, msg := range msgs {
		if msg.Kind == logger.Error && msg.ID != logger.IDNone {
			code = ErrorCode(msg.ID)
			break
		}
	}
	return &Error{Code: code, Messages: msgs}
}

func wrapperFormat(format Format) wrapper.Format {
	switch format {
	case FormatAMD:
		return wrapper.AMD
	case FormatUMD:
		return wrapper.UMD
	default:
		return wrapper.CJS
	}
}

// dependencyPath leaves paths as written unless absolute define()
// paths were requested, in which case they resolve against the AMD
// module name.
func dependencyPath(path string, options EmitOptions) string {
	if options.AbsolutePaths && options.AmdName != "" {
		return resolver.Resolve(path, options.AmdName)
	}
	return path
}

func applyBannerFooter(banner string, footer string, prepend func(string), appendFn func(string)) {
	if banner != "" {
		prepend(strings.TrimSuffix(banner, "\n") + "\n")
	}
	if footer != "" {
		appendFn("\n" + strings.TrimSuffix(footer, "\n"))
	}
}

func mapAnnotation(kind SourceMap, file string, m interface{ ToURL() string }) string {
	if kind == SourceMapInline {
		return "\n//# sourceMappingURL=" + m.ToURL()
	}
	base := file
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	return "\n//# sourceMappingURL=" + base + ".map"
}

func wrapPrepend(b *magicstring.Bundle) func(string) {
	return func(s string) { b.Prepend(s) }
}

func wrapAppend(b *magicstring.Bundle) func(string) {
	return func(s string) { b.Append(s) }
}
