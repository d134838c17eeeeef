package js_ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeContains(t *testing.T) {
	top := NewScope(nil, false)
	top.Declare("x")

	fn := NewScope(top, false)
	fn.Declare("y")

	block := NewScope(fn, true)
	block.Declare("z")

	assert.True(t, block.Contains("z", false))
	assert.True(t, block.Contains("y", false))
	assert.True(t, block.Contains("x", false))
	assert.False(t, block.Contains("w", false))
}

func TestScopeContainsIgnoreTopLevel(t *testing.T) {
	top := NewScope(nil, false)
	top.Declare("x")

	fn := NewScope(top, false)
	fn.Declare("x")

	// The shadowing local is found, the top-level declaration is not
	assert.True(t, fn.Contains("x", true))
	assert.False(t, top.Contains("x", true))

	empty := NewScope(top, false)
	assert.False(t, empty.Contains("x", true))
	assert.True(t, empty.Contains("x", false))
}

func TestSanitizeIdentifier(t *testing.T) {
	assert.Equal(t, "foo", SanitizeIdentifier("foo"))
	assert.Equal(t, "foo_bar", SanitizeIdentifier("foo-bar"))
	assert.Equal(t, "_123", SanitizeIdentifier("123"))
	assert.Equal(t, "_new", SanitizeIdentifier("new"))
	assert.Equal(t, "_default", SanitizeIdentifier("default"))
	assert.Equal(t, "$lib", SanitizeIdentifier("$lib"))
	assert.Equal(t, "_", SanitizeIdentifier(""))
}

func TestBuiltinsCoverHostGlobals(t *testing.T) {
	for _, name := range []string{"Object", "Math", "JSON", "undefined", "exports", "module", "require", "define"} {
		assert.True(t, Builtins[name], name)
	}
	assert.False(t, Builtins["myVariable"])
}

func TestReservedWords(t *testing.T) {
	assert.True(t, ReservedWords["default"])
	assert.True(t, ReservedWords["class"])
	assert.False(t, ReservedWords["exports"])
}
