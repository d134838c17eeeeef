package rewriter

import (
	"testing"

	"github.com/jvdl/esperanto/internal/bundler"
	"github.com/jvdl/esperanto/internal/logger"
	"github.com/jvdl/esperanto/internal/test"
)

func loadForTest(t *testing.T, contents string) (logger.Log, *bundler.Module) {
	t.Helper()
	log := logger.NewDeferLog()
	m, ok := bundler.Load(log, test.SourceForTest(contents))
	if !ok {
		t.Fatalf("load failed: %v", log.Done())
	}
	t.Cleanup(func() { m.Tree.Close() })
	return log, m
}

func rewriteStrict(t *testing.T, contents string) string {
	t.Helper()
	log, m := loadForTest(t, contents)
	_, ok := RewriteSingle(log, m, SingleOptions{Strict: true})
	if !ok {
		t.Fatalf("rewrite failed: %v", log.Done())
	}
	return m.Body.String()
}

func TestRoundTripWithoutModuleSyntax(t *testing.T) {
	body := "var a = 1;\nfunction go () {\n\treturn a;\n}"
	test.AssertEqualText(t, rewriteStrict(t, body), body)
}

func TestImportReferencesRewritten(t *testing.T) {
	observed := rewriteStrict(t, "import { join } from 'path';\nvar p = join('a');")
	test.AssertEqualText(t, observed, "var p = path.join('a');")
}

func TestShadowedImportIsNotRewritten(t *testing.T) {
	observed := rewriteStrict(t,
		"import { join } from 'path';\nvar p = join('a');\nfunction f (join) {\n\treturn join('b');\n}")
	test.AssertEqualText(t, observed,
		"var p = path.join('a');\nfunction f (join) {\n\treturn join('b');\n}")
}

func TestShorthandPropertyExpanded(t *testing.T) {
	observed := rewriteStrict(t, "import { join } from 'path';\nvar o = { join };")
	test.AssertEqualText(t, observed, "var o = { join: path.join };")
}

func TestExportedFunctionIsExportedEarly(t *testing.T) {
	observed := rewriteStrict(t, "export function go () {}")
	test.AssertEqualText(t, observed, "exports.go = go;\n\nfunction go () {}")
}

func TestMirroredUpdateInsideDeclaration(t *testing.T) {
	observed := rewriteStrict(t, "export var x = 1;\nvar y = x++;")
	test.AssertEqualText(t, observed, "var x = 1;\nvar y = x++; exports.x = x;")
}

func TestPrefixUpdateMirrorLeads(t *testing.T) {
	observed := rewriteStrict(t, "export var x = 1;\n++x;")
	test.AssertEqualText(t, observed, "var x = 1;\nexports.x = ++x;")
}

func TestNamespaceImportReassignmentFails(t *testing.T) {
	log, m := loadForTest(t, "import * as ns from 'x';\nns.prop = 1;")
	_, ok := RewriteSingle(log, m, SingleOptions{Strict: true})
	test.AssertEqual(t, ok, false)
	msgs := log.Done()
	test.AssertEqual(t, msgs[0].ID, logger.IDIllegalReassignment)
}
