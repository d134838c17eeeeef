package magicstring

import (
	"strings"

	"github.com/jvdl/esperanto/internal/sourcemap"
)

// Bundle concatenates several MagicStrings with a separator while
// keeping per-file provenance so one combined source map can be
// generated for the whole output.
type Bundle struct {
	pieces    []piece
	sources   []sourceRecord
	excludes  [][][2]int
	separator string
}

func NewBundle(separator string) *Bundle {
	return &Bundle{separator: separator}
}

// AddSource appends one module's buffer. The buffer is flattened and
// must not be edited afterwards.
func (b *Bundle) AddSource(m *MagicString) {
	m.flatten()
	src := len(b.sources)
	b.sources = append(b.sources, sourceRecord{path: m.sourcePath, contents: m.original})
	b.excludes = append(b.excludes, m.excludes)

	if len(b.pieces) > 0 && b.separator != "" {
		b.pieces = append(b.pieces, piece{text: b.separator, orig: -1})
	}
	for _, p := range m.pieces {
		p.src = src
		b.pieces = append(b.pieces, p)
	}
}

func (b *Bundle) Trim() *Bundle {
	b.pieces = trimPieces(b.pieces)
	return b
}

func (b *Bundle) Indent(indentStr string) *Bundle {
	b.pieces = indentPieces(b.pieces, indentStr, func(src int, offset int) bool {
		if src < 0 || src >= len(b.excludes) {
			return false
		}
		for _, r := range b.excludes[src] {
			if offset > r[0] && offset < r[1] {
				return true
			}
		}
		return false
	})
	return b
}

func (b *Bundle) Prepend(content string) *Bundle {
	b.pieces = append([]piece{{text: content, orig: -1}}, b.pieces...)
	return b
}

func (b *Bundle) Append(content string) *Bundle {
	b.pieces = append(b.pieces, piece{text: content, orig: -1})
	return b
}

func (b *Bundle) String() string {
	var sb strings.Builder
	for _, p := range b.pieces {
		sb.WriteString(p.text)
	}
	return sb.String()
}

func (b *Bundle) GenerateMap(options MapOptions) *sourcemap.SourceMap {
	return generateMap(b.pieces, b.sources, options)
}
