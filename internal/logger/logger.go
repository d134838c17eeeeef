package logger

// Diagnostics are rendered in a clang-like format: one line naming the
// file, line, and column, the offending source line, and a caret marker
// underneath. Locations are byte offsets into the original source so
// they can be shared with the rewriter, which edits by offset.

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

type Log struct {
	AddMsg    func(Msg)
	HasErrors func() bool
	Done      func() []Msg
}

type MsgKind uint8

const (
	Error MsgKind = iota
	Warning
)

type Msg struct {
	Kind     MsgKind
	ID       MsgID
	Text     string
	Location *MsgLocation
}

type MsgLocation struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	Length   int // in bytes
	LineText string
}

// Loc is a 0-based byte offset from the start of the file.
type Loc struct {
	Start int32
}

type Range struct {
	Loc Loc
	Len int32
}

func (r Range) End() int32 {
	return r.Loc.Start + r.Len
}

// Source is one loaded input file.
type Source struct {
	// The canonical module id ("utils/math", no extension). Used as the
	// lookup key and in generated code; diagnostic locations show
	// PrettyPath instead, though message texts may quote the id.
	ID string

	// Shown in error messages and recorded in source maps.
	PrettyPath string

	// The last id component as a valid identifier, e.g. "utils". Bundle
	// module names come from the name allocator, not from this field.
	IdentifierName string

	Contents string
}

func (s *Source) TextForRange(r Range) string {
	return s.Contents[r.Loc.Start:r.End()]
}

// RangeOfString returns the range of a quoted string starting at loc,
// or a zero-length range if loc does not point at a quote.
func (s *Source) RangeOfString(loc Loc) Range {
	text := s.Contents[loc.Start:]
	if len(text) == 0 {
		return Range{Loc: loc}
	}

	quote := text[0]
	if quote == '"' || quote == '\'' {
		for i := 1; i < len(text); i++ {
			c := text[i]
			if c == quote {
				return Range{Loc: loc, Len: int32(i + 1)}
			} else if c == '\\' {
				i++
			}
		}
	}

	return Range{Loc: loc}
}

func plural(noun string, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, noun)
	}
	return fmt.Sprintf("%d %ss", count, noun)
}

func summary(errors int, warnings int) string {
	switch {
	case errors == 0:
		return plural("warning", warnings)
	case warnings == 0:
		return plural("error", errors)
	default:
		return fmt.Sprintf("%s and %s", plural("warning", warnings), plural("error", errors))
	}
}

type TerminalInfo struct {
	IsTTY           bool
	UseColorEscapes bool
	Width           int
}

type StderrColor uint8

const (
	ColorIfTerminal StderrColor = iota
	ColorNever
	ColorAlways
)

type StderrOptions struct {
	IncludeSource bool
	Color         StderrColor
}

// NewStderrLog streams messages to stderr as they arrive.
func NewStderrLog(options StderrOptions) Log {
	var mutex sync.Mutex
	var msgs []Msg
	terminalInfo := GetTerminalInfo(os.Stderr)
	errors := 0
	warnings := 0

	switch options.Color {
	case ColorNever:
		terminalInfo.UseColorEscapes = false
	case ColorAlways:
		terminalInfo.UseColorEscapes = SupportsColorEscapes
	}

	return Log{
		AddMsg: func(msg Msg) {
			mutex.Lock()
			defer mutex.Unlock()
			msgs = append(msgs, msg)
			switch msg.Kind {
			case Error:
				errors++
			case Warning:
				warnings++
			}
			os.Stderr.WriteString(msg.String(options, terminalInfo))
		},
		HasErrors: func() bool {
			mutex.Lock()
			defer mutex.Unlock()
			return errors > 0
		},
		Done: func() []Msg {
			mutex.Lock()
			defer mutex.Unlock()
			if errors != 0 || warnings != 0 {
				os.Stderr.WriteString(fmt.Sprintf("%s\n", summary(errors, warnings)))
			}
			sortMsgs(msgs)
			return msgs
		},
	}
}

// NewDeferLog collects messages without printing them. The API layer
// uses this and turns the collected messages into a typed error.
func NewDeferLog() Log {
	var mutex sync.Mutex
	var msgs []Msg
	hasErrors := false

	return Log{
		AddMsg: func(msg Msg) {
			mutex.Lock()
			defer mutex.Unlock()
			if msg.Kind == Error {
				hasErrors = true
			}
			msgs = append(msgs, msg)
		},
		HasErrors: func() bool {
			mutex.Lock()
			defer mutex.Unlock()
			return hasErrors
		},
		Done: func() []Msg {
			mutex.Lock()
			defer mutex.Unlock()
			sortMsgs(msgs)
			return msgs
		},
	}
}

// Sort by file, position, kind, then text so output is deterministic
// even though modules load in parallel.
func sortMsgs(msgs []Msg) {
	sort.SliceStable(msgs, func(i int, j int) bool {
		a, b := msgs[i], msgs[j]
		la, lb := a.Location, b.Location
		if la == nil && lb != nil {
			return true
		}
		if la != nil && lb == nil {
			return false
		}
		if la != nil && lb != nil {
			if la.File != lb.File {
				return la.File < lb.File
			}
			if la.Line != lb.Line {
				return la.Line < lb.Line
			}
			if la.Column != lb.Column {
				return la.Column < lb.Column
			}
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Text < b.Text
	})
}

const colorReset = "\033[0m"
const colorRed = "\033[31m"
const colorGreen = "\033[32m"
const colorMagenta = "\033[35m"
const colorBold = "\033[1m"
const colorResetBold = "\033[0;1m"

func (msg Msg) String(options StderrOptions, terminalInfo TerminalInfo) string {
	kind := "error"
	kindColor := colorRed
	if msg.Kind == Warning {
		kind = "warning"
		kindColor = colorMagenta
	}

	if msg.Location == nil {
		if terminalInfo.UseColorEscapes {
			return fmt.Sprintf("%s%s%s: %s%s%s\n",
				colorBold, kindColor, kind, colorResetBold, msg.Text, colorReset)
		}
		return fmt.Sprintf("%s: %s\n", kind, msg.Text)
	}

	if !options.IncludeSource {
		if terminalInfo.UseColorEscapes {
			return fmt.Sprintf("%s%s: %s%s: %s%s%s\n",
				colorBold, msg.Location.File, kindColor, kind, colorResetBold, msg.Text, colorReset)
		}
		return fmt.Sprintf("%s: %s: %s\n", msg.Location.File, kind, msg.Text)
	}

	loc := *msg.Location
	lineText, indent, marker := markerLine(loc)

	if terminalInfo.UseColorEscapes {
		return fmt.Sprintf("%s%s:%d:%d: %s%s: %s%s\n%s%s\n%s%s%s%s\n",
			colorBold, loc.File, loc.Line, loc.Column, kindColor, kind,
			colorResetBold, msg.Text, colorReset, lineText,
			colorGreen, indent, marker, colorReset)
	}

	return fmt.Sprintf("%s:%d:%d: %s: %s\n%s\n%s%s\n",
		loc.File, loc.Line, loc.Column, kind, msg.Text, lineText, indent, marker)
}

// markerLine renders the source line with tabs expanded plus the
// indent and caret marker for the line below it.
func markerLine(loc MsgLocation) (lineText string, indent string, marker string) {
	endOfLine := len(loc.LineText)
	for i, c := range loc.LineText {
		if c == '\r' || c == '\n' || c == '\u2028' || c == '\u2029' {
			endOfLine = i
			break
		}
	}
	firstLine := loc.LineText[:endOfLine]

	column := loc.Column
	if column > endOfLine {
		column = endOfLine
	}
	length := loc.Length
	if length > endOfLine-column {
		length = endOfLine - column
	}

	const spacesPerTab = 2
	lineText = renderTabStops(firstLine, spacesPerTab)
	indent = strings.Repeat(" ", len(renderTabStops(firstLine[:column], spacesPerTab)))
	if length > 1 {
		markerWidth := len(renderTabStops(firstLine[:column+length], spacesPerTab)) - len(indent)
		marker = strings.Repeat("~", markerWidth)
	} else {
		marker = "^"
	}
	return
}

func renderTabStops(withTabs string, spacesPerTab int) string {
	if !strings.ContainsRune(withTabs, '\t') {
		return withTabs
	}

	withoutTabs := strings.Builder{}
	count := 0
	for _, c := range withTabs {
		if c == '\t' {
			spaces := spacesPerTab - count%spacesPerTab
			for i := 0; i < spaces; i++ {
				withoutTabs.WriteRune(' ')
				count++
			}
		} else {
			withoutTabs.WriteRune(c)
			count++
		}
	}
	return withoutTabs.String()
}

func computeLineAndColumn(contents string, offset int) (line int, column int, lineStart int, lineEnd int) {
	var prev rune
	if offset > len(contents) {
		offset = len(contents)
	}

	for i, c := range contents[:offset] {
		switch c {
		case '\n':
			lineStart = i + 1
			if prev != '\r' {
				line++
			}
		case '\r':
			lineStart = i + 1
			line++
		case '\u2028', '\u2029':
			lineStart = i + 3 // three bytes in UTF-8
			line++
		}
		prev = c
	}

	lineEnd = len(contents)
loop:
	for i, c := range contents[offset:] {
		switch c {
		case '\r', '\n', '\u2028', '\u2029':
			lineEnd = offset + i
			break loop
		}
	}

	column = offset - lineStart
	return
}

// LineAndColumn converts a byte offset to a 0-based line and column.
func LineAndColumn(contents string, offset int) (line int, column int) {
	line, column, _, _ = computeLineAndColumn(contents, offset)
	return
}

func locationOrNil(source *Source, r Range) *MsgLocation {
	if source == nil {
		return nil
	}

	line, column, lineStart, lineEnd := computeLineAndColumn(source.Contents, int(r.Loc.Start))
	return &MsgLocation{
		File:     source.PrettyPath,
		Line:     line + 1,
		Column:   column,
		Length:   int(r.Len),
		LineText: source.Contents[lineStart:lineEnd],
	}
}

func (log Log) AddError(id MsgID, source *Source, loc Loc, text string) {
	log.AddMsg(Msg{
		Kind:     Error,
		ID:       id,
		Text:     text,
		Location: locationOrNil(source, Range{Loc: loc}),
	})
}

func (log Log) AddRangeError(id MsgID, source *Source, r Range, text string) {
	log.AddMsg(Msg{
		Kind:     Error,
		ID:       id,
		Text:     text,
		Location: locationOrNil(source, r),
	})
}

func (log Log) AddWarning(source *Source, loc Loc, text string) {
	log.AddMsg(Msg{
		Kind:     Warning,
		Text:     text,
		Location: locationOrNil(source, Range{Loc: loc}),
	})
}
