package test

import (
	"testing"

	"github.com/jvdl/esperanto/internal/logger"
)

func AssertEqual(t *testing.T, observed interface{}, expected interface{}) {
	t.Helper()
	if observed != expected {
		t.Fatalf("%v != %v", observed, expected)
	}
}

// AssertEqualText fails with a line diff, which reads better than two
// interleaved multi-line dumps.
func AssertEqualText(t *testing.T, observed string, expected string) {
	t.Helper()
	if observed != expected {
		t.Fatalf("output mismatch:\n%s", Diff(expected, observed))
	}
}

func SourceForTest(contents string) *logger.Source {
	return &logger.Source{
		ID:             "stdin",
		PrettyPath:     "<stdin>",
		IdentifierName: "stdin",
		Contents:       contents,
	}
}
