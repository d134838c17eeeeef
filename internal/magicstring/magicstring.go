// Package magicstring implements a mutable text buffer over an
// immutable original string. Every edit is expressed in original byte
// offsets, so edits commute and positional fidelity survives into the
// generated source map.
package magicstring

import (
	"sort"
	"strings"

	"github.com/jvdl/esperanto/internal/sourcemap"
)

type edit struct {
	start   int
	end     int
	content string
	seq     int
}

// MagicString collects offset-keyed edits against one source, then
// flattens them into pieces for trimming, indenting, and wrapping.
// Edits must not overlap; an overlapping edit is an internal bug and
// panics.
type MagicString struct {
	original   string
	sourcePath string
	edits      []edit
	excludes   [][2]int
	pieces     []piece
	frozen     bool
}

// piece is one run of output text. For text copied from the original,
// src/orig identify its provenance; synthesized text carries the
// offset it was anchored at so indent exclusion still works, with
// anchored=false marking it absent from the source map.
type piece struct {
	text     string
	src      int
	orig     int
	anchored bool
}

func New(original string) *MagicString {
	return &MagicString{original: original}
}

// SetSourcePath records where the original text came from, for source
// map provenance.
func (m *MagicString) SetSourcePath(path string) {
	m.sourcePath = path
}

func (m *MagicString) SourcePath() string {
	return m.sourcePath
}

func (m *MagicString) Original() string {
	return m.original
}

// ExcludeRange marks [start, end) as exempt from indentation, used for
// template literals whose contents must survive byte-for-byte.
func (m *MagicString) ExcludeRange(start int, end int) {
	m.excludes = append(m.excludes, [2]int{start, end})
}

// Remove deletes the original bytes in [start, end).
func (m *MagicString) Remove(start int, end int) {
	m.Overwrite(start, end, "")
}

// Overwrite replaces the original bytes in [start, end) with content.
func (m *MagicString) Overwrite(start int, end int, content string) {
	if m.frozen {
		panic("magicstring: edit after flatten")
	}
	if start < 0 || end > len(m.original) || start > end {
		panic("magicstring: edit out of range")
	}
	m.edits = append(m.edits, edit{start: start, end: end, content: content, seq: len(m.edits)})
}

// Insert adds content at the given original offset. Multiple inserts
// at one offset keep their call order.
func (m *MagicString) Insert(at int, content string) {
	m.Overwrite(at, at, content)
}

// flatten turns the edit list into pieces. After this the buffer only
// supports whole-text operations (Trim, Indent, Prepend, Append).
func (m *MagicString) flatten() {
	if m.frozen {
		return
	}
	m.frozen = true

	edits := make([]edit, len(m.edits))
	copy(edits, m.edits)
	sort.SliceStable(edits, func(i int, j int) bool {
		a, b := edits[i], edits[j]
		if a.start != b.start {
			return a.start < b.start
		}
		// Inserts at an offset land before a replacement starting there
		aIns, bIns := a.start == a.end, b.start == b.end
		if aIns != bIns {
			return aIns
		}
		return a.seq < b.seq
	})

	cursor := 0
	for _, e := range edits {
		if e.start < cursor {
			panic("magicstring: overlapping edits")
		}
		if e.start > cursor {
			m.pieces = append(m.pieces, piece{
				text:     m.original[cursor:e.start],
				orig:     cursor,
				anchored: true,
			})
		}
		if e.content != "" {
			m.pieces = append(m.pieces, piece{text: e.content, orig: e.start})
		}
		cursor = e.end
	}
	if cursor < len(m.original) {
		m.pieces = append(m.pieces, piece{
			text:     m.original[cursor:],
			orig:     cursor,
			anchored: true,
		})
	}
}

// Trim strips leading and trailing whitespace from the rendered text.
func (m *MagicString) Trim() *MagicString {
	m.flatten()
	m.pieces = trimPieces(m.pieces)
	return m
}

// Indent prefixes every non-empty line with indentStr, skipping lines
// that start inside an excluded range.
func (m *MagicString) Indent(indentStr string) *MagicString {
	m.flatten()
	m.pieces = indentPieces(m.pieces, indentStr, func(src int, offset int) bool {
		return m.excluded(offset)
	})
	return m
}

func (m *MagicString) excluded(offset int) bool {
	for _, r := range m.excludes {
		if offset > r[0] && offset < r[1] {
			return true
		}
	}
	return false
}

// Prepend adds text before everything added so far.
func (m *MagicString) Prepend(content string) *MagicString {
	m.flatten()
	m.pieces = append([]piece{{text: content, orig: -1}}, m.pieces...)
	return m
}

// Append adds text after everything added so far.
func (m *MagicString) Append(content string) *MagicString {
	m.flatten()
	m.pieces = append(m.pieces, piece{text: content, orig: -1})
	return m
}

func (m *MagicString) String() string {
	m.flatten()
	var sb strings.Builder
	for _, p := range m.pieces {
		sb.WriteString(p.text)
	}
	return sb.String()
}

// MapOptions controls GenerateMap for both the single-source and the
// bundle forms.
type MapOptions struct {
	// The output file name recorded in the map.
	File string

	// Overrides the source path for single-source maps.
	Source string

	// Embed the original source text in the map.
	IncludeContent bool
}

// GenerateMap produces a source-map-v3 object for the current state.
func (m *MagicString) GenerateMap(options MapOptions) *sourcemap.SourceMap {
	m.flatten()
	source := options.Source
	if source == "" {
		source = m.sourcePath
	}
	return generateMap(m.pieces, []sourceRecord{{path: source, contents: m.original}}, options)
}

type sourceRecord struct {
	path     string
	contents string
}

func trimPieces(pieces []piece) []piece {
	// Leading whitespace
	for len(pieces) > 0 {
		trimmed := strings.TrimLeft(pieces[0].text, " \t\r\n")
		if trimmed == "" {
			pieces = pieces[1:]
			continue
		}
		if len(trimmed) != len(pieces[0].text) {
			cut := len(pieces[0].text) - len(trimmed)
			p := pieces[0]
			p.text = trimmed
			if p.anchored {
				p.orig += cut
			}
			pieces[0] = p
		}
		break
	}

	// Trailing whitespace
	for len(pieces) > 0 {
		last := len(pieces) - 1
		trimmed := strings.TrimRight(pieces[last].text, " \t\r\n")
		if trimmed == "" {
			pieces = pieces[:last]
			continue
		}
		pieces[last].text = trimmed
		break
	}

	return pieces
}

func indentPieces(pieces []piece, indentStr string, excluded func(src int, offset int) bool) []piece {
	if indentStr == "" {
		return pieces
	}

	var out []piece
	atLineStart := true
	for _, p := range pieces {
		text := p.text
		offset := 0
		for len(text) > 0 {
			nl := strings.IndexByte(text, '\n')
			var line string
			if nl < 0 {
				line = text
				text = ""
			} else {
				line = text[:nl+1]
				text = text[nl+1:]
			}

			lineStart := p.orig + offset
			if atLineStart && line != "\n" && line != "\r\n" && !(p.orig >= 0 && excluded(p.src, lineStart)) {
				out = append(out, piece{text: indentStr, orig: -1})
			}
			next := p
			next.text = line
			if next.anchored {
				next.orig = lineStart
			}
			out = append(out, next)
			atLineStart = nl >= 0
			offset += len(line)
		}
	}
	return out
}

func generateMap(pieces []piece, sources []sourceRecord, options MapOptions) *sourcemap.SourceMap {
	tables := make([]lineTable, len(sources))
	for i, src := range sources {
		tables[i] = newLineTable(src.contents)
	}

	var mappings []sourcemap.Mapping
	line, column := 0, 0
	for _, p := range pieces {
		if p.anchored && p.src < len(sources) {
			// Emit a segment at the piece start and after every newline
			// inside it so lines stay aligned.
			origLine, origColumn := tables[p.src].lineAndColumn(p.orig)
			mappings = append(mappings, sourcemap.Mapping{
				GeneratedLine:   line,
				GeneratedColumn: column,
				SourceIndex:     p.src,
				OriginalLine:    origLine,
				OriginalColumn:  origColumn,
			})
			offset := 0
			for {
				nl := strings.IndexByte(p.text[offset:], '\n')
				if nl < 0 {
					break
				}
				offset += nl + 1
				origLine, origColumn = tables[p.src].lineAndColumn(p.orig + offset)
				mappings = append(mappings, sourcemap.Mapping{
					GeneratedLine:   line + 1,
					GeneratedColumn: 0,
					SourceIndex:     p.src,
					OriginalLine:    origLine,
					OriginalColumn:  origColumn,
				})
				line++
				column = 0
			}
			column += len(p.text) - offset
			continue
		}

		for i := 0; i < len(p.text); i++ {
			if p.text[i] == '\n' {
				line++
				column = 0
			} else {
				column++
			}
		}
	}

	paths := make([]string, len(sources))
	for i, src := range sources {
		paths[i] = src.path
	}
	var contents []string
	if options.IncludeContent {
		contents = make([]string, len(sources))
		for i, src := range sources {
			contents[i] = src.contents
		}
	}
	return sourcemap.Generate(options.File, paths, contents, mappings)
}

type lineTable struct {
	starts []int
}

func newLineTable(contents string) lineTable {
	starts := []int{0}
	for i := 0; i < len(contents); i++ {
		if contents[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return lineTable{starts: starts}
}

func (t lineTable) lineAndColumn(offset int) (line int, column int) {
	line = sort.Search(len(t.starts), func(i int) bool {
		return t.starts[i] > offset
	}) - 1
	column = offset - t.starts[line]
	return
}
