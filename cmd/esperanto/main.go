package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/jvdl/esperanto/pkg/api"
)

type Command struct {
	Input  string `arg:"" help:"Input file (the entry module when bundling)." type:"existingfile"`
	Output string `help:"Output file; stdout when omitted." short:"o"`

	Type   string `help:"Output module wrapper." enum:"amd,cjs,umd" default:"cjs" short:"t"`
	Bundle bool   `help:"Resolve and inline local dependencies." short:"b"`
	Strict bool   `help:"Use strict export semantics (named exports via an exports object)." short:"s"`

	Name          string   `help:"Global name for the UMD wrapper."`
	AmdName       string   `help:"Module name for a named define()."`
	AbsolutePaths bool     `help:"Emit resolved ids as define() dependency paths."`
	Skip          []string `help:"Module ids to keep external when bundling."`

	SourceMap       string `help:"Source map output: 'file' or 'inline'." enum:",file,inline" default:""`
	SourceMapSource string `help:"Original file name recorded in a single-file map."`

	Banner string `help:"Text prepended to the output."`
	Footer string `help:"Text appended to the output."`
}

func main() {
	command := new(Command)
	ctx := kong.Parse(
		command,
		kong.Name("esperanto"),
		kong.Description("Transpile ES modules to AMD, CommonJS, or UMD."),
	)
	ctx.FatalIfErrorf(command.Run())
}

func (c *Command) Run() error {
	emit := api.EmitOptions{
		Strict:        c.Strict,
		Name:          c.Name,
		AmdName:       c.AmdName,
		AbsolutePaths: c.AbsolutePaths,
		Banner:        c.Banner,
		Footer:        c.Footer,
	}
	switch c.SourceMap {
	case "file":
		emit.SourceMap = api.SourceMapFile
	case "inline":
		emit.SourceMap = api.SourceMapInline
	}
	if emit.SourceMap != api.SourceMapNone {
		emit.SourceMapFile = c.Output
		emit.SourceMapSource = c.SourceMapSource
		if emit.SourceMapSource == "" {
			emit.SourceMapSource = c.Input
		}
	}

	var result api.Result
	var err error

	if c.Bundle {
		var bundle *api.Bundle
		bundle, err = api.NewBundle(api.BundleOptions{
			Entry: filepath.Base(c.Input),
			Base:  filepath.ToSlash(filepath.Dir(c.Input)),
			Skip:  c.Skip,
		})
		if err != nil {
			return err
		}
		switch c.Type {
		case "amd":
			result, err = bundle.ToAMD(emit)
		case "umd":
			result, err = bundle.ToUMD(emit)
		default:
			result, err = bundle.ToCJS(emit)
		}
	} else {
		source, readErr := os.ReadFile(c.Input)
		if readErr != nil {
			return readErr
		}
		options := api.TranspileOptions{EmitOptions: emit}
		switch c.Type {
		case "amd":
			options.Format = api.FormatAMD
		case "umd":
			options.Format = api.FormatUMD
		default:
			options.Format = api.FormatCJS
		}
		result, err = api.Transpile(string(source), options)
	}
	if err != nil {
		return err
	}

	if c.Output == "" {
		fmt.Println(result.Code)
		return nil
	}
	if err := os.WriteFile(c.Output, []byte(result.Code), 0o644); err != nil {
		return err
	}
	if result.Map != nil && emit.SourceMap == api.SourceMapFile {
		return os.WriteFile(c.Output+".map", []byte(result.Map.String()), 0o644)
	}
	return nil
}
