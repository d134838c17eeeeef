package magicstring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditsComposeByOriginalOffset(t *testing.T) {
	m := New("abcdef")
	m.Overwrite(4, 5, "Y")
	m.Remove(0, 2)
	m.Insert(3, "X")
	assert.Equal(t, "cXdYf", m.String())
}

func TestInsertsKeepCallOrder(t *testing.T) {
	m := New("abc")
	m.Insert(1, "A")
	m.Insert(1, "B")
	assert.Equal(t, "aABbc", m.String())
}

func TestInsertBeforeOverwriteAtSameOffset(t *testing.T) {
	m := New("abc")
	m.Overwrite(1, 2, "O")
	m.Insert(1, "I")
	assert.Equal(t, "aIOc", m.String())
}

func TestOverlappingEditsPanic(t *testing.T) {
	m := New("abcdef")
	m.Overwrite(0, 3, "x")
	m.Overwrite(2, 4, "y")
	assert.Panics(t, func() { _ = m.String() })
}

func TestTrim(t *testing.T) {
	m := New("  \n\tvar a = 1;\n\n")
	assert.Equal(t, "var a = 1;", m.Trim().String())
}

func TestIndent(t *testing.T) {
	m := New("a;\n\nb;")
	assert.Equal(t, "\ta;\n\n\tb;", m.Indent("\t").String())
}

func TestIndentSkipsExcludedRanges(t *testing.T) {
	m := New("x = `a\nb`;")
	m.ExcludeRange(4, 9)
	assert.Equal(t, "\tx = `a\nb`;", m.Indent("\t").String())
}

func TestPrependAppendAfterIndent(t *testing.T) {
	m := New("body;")
	m.Indent("\t").Prepend("head {\n").Append("\n}")
	assert.Equal(t, "head {\n\tbody;\n}", m.String())
}

func TestEditAfterFlattenPanics(t *testing.T) {
	m := New("abc")
	m.Trim()
	assert.Panics(t, func() { m.Insert(1, "x") })
}

func TestGenerateMap(t *testing.T) {
	m := New("var a = 1;\nvar b = 2;\n")
	m.SetSourcePath("in.js")
	m.Overwrite(4, 5, "a__a")
	m.Trim()

	sm := m.GenerateMap(MapOptions{File: "out.js", IncludeContent: true})
	require.NotNil(t, sm)
	assert.Equal(t, 3, sm.Version)
	assert.Equal(t, "out.js", sm.File)
	assert.Equal(t, []string{"in.js"}, sm.Sources)
	assert.Equal(t, []string{"var a = 1;\nvar b = 2;\n"}, sm.SourcesContent)
	assert.NotEmpty(t, sm.Mappings)
}

func TestBundleConcatenatesWithSeparator(t *testing.T) {
	a := New("one;")
	a.SetSourcePath("a.js")
	b := New("two;")
	b.SetSourcePath("b.js")

	bundle := NewBundle("\n\n")
	bundle.AddSource(a)
	bundle.AddSource(b)

	assert.Equal(t, "one;\n\ntwo;", bundle.String())

	sm := bundle.GenerateMap(MapOptions{File: "out.js"})
	assert.Equal(t, []string{"a.js", "b.js"}, sm.Sources)
}

func TestBundleIndentUsesPerSourceExcludes(t *testing.T) {
	a := New("`x\ny`;")
	a.ExcludeRange(0, 5)
	b := New("plain;\nmore;")

	bundle := NewBundle("\n\n")
	bundle.AddSource(a)
	bundle.AddSource(b)
	bundle.Indent("\t")

	assert.Equal(t, "\t`x\ny`;\n\n\tplain;\n\tmore;", bundle.String())
}
