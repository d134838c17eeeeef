package wrapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAMDStrict(t *testing.T) {
	w := Single(AMD, Options{Strict: true}, []Dependency{{Path: "dep", Name: "dep"}}, true)
	assert.Equal(t, "define(['dep', 'exports'], function (dep, exports) {\n\n\t'use strict';\n\n", w.Intro)
	assert.Equal(t, "\n\n});", w.Outro)
	assert.Equal(t, "\t", w.Indent)
}

func TestAMDDefaults(t *testing.T) {
	w := Single(AMD, Options{}, nil, true)
	assert.Equal(t, "define(function () {\n\n\t'use strict';\n\n", w.Intro)
}

func TestAMDNamedDefine(t *testing.T) {
	w := Single(AMD, Options{AmdName: "myModule"}, []Dependency{{Path: "a", Name: "a"}}, false)
	assert.Equal(t, "define('myModule', ['a'], function (a) {\n\n\t'use strict';\n\n", w.Intro)
}

func TestAMDSideEffectDependency(t *testing.T) {
	w := Single(AMD, Options{Strict: true}, []Dependency{
		{Path: "a", Name: "a"},
		{Path: "polyfill"},
	}, false)
	assert.Equal(t, "define(['a', 'polyfill'], function (a) {\n\n\t'use strict';\n\n", w.Intro)
}

func TestCJSStrict(t *testing.T) {
	w := Single(CJS, Options{Strict: true}, []Dependency{{Path: "a", Name: "a"}}, true)
	assert.Equal(t, "'use strict';\n\nvar a = require('a');\n\n", w.Intro)
	assert.Equal(t, "", w.Outro)
	assert.Equal(t, "", w.Indent)
}

func TestCJSSideEffectRequire(t *testing.T) {
	w := Single(CJS, Options{}, []Dependency{{Path: "polyfill"}}, false)
	assert.Equal(t, "'use strict';\n\nrequire('polyfill');\n\n", w.Intro)
}

func TestCJSInterop(t *testing.T) {
	w := Single(CJS, Options{Strict: true}, []Dependency{{Path: "ext", Name: "ext", Interop: true}}, true)
	assert.Contains(t, w.Intro, "var ext = require('ext');\n")
	assert.Contains(t, w.Intro, "var ext__default = 'default' in ext ? ext['default'] : ext;\n")
}

func TestUMDStrict(t *testing.T) {
	w := Single(UMD, Options{Strict: true, Name: "MyLib"}, []Dependency{{Path: "dep", Name: "dep"}}, true)

	assert.Equal(t, "(function (global, factory) {\n"+
		"\ttypeof exports === 'object' && typeof module !== 'undefined' ? factory(exports, require('dep')) :\n"+
		"\ttypeof define === 'function' && define.amd ? define(['exports', 'dep'], factory) :\n"+
		"\t(factory((global.MyLib = {}), global.dep));\n"+
		"}(this, function (exports, dep) { 'use strict';\n\n", w.Intro)
	assert.Equal(t, "\n\n}));", w.Outro)
}

func TestUMDDefaults(t *testing.T) {
	w := Single(UMD, Options{Name: "MyLib"}, []Dependency{{Path: "dep", Name: "dep"}}, true)

	assert.Equal(t, "(function (global, factory) {\n"+
		"\ttypeof exports === 'object' && typeof module !== 'undefined' ? module.exports = factory(require('dep')) :\n"+
		"\ttypeof define === 'function' && define.amd ? define(['dep'], factory) :\n"+
		"\t(global.MyLib = factory(global.dep));\n"+
		"}(this, function (dep) { 'use strict';\n\n", w.Intro)
}

func TestConcatDefaults(t *testing.T) {
	w := Concat("", "", "\t")
	assert.Equal(t, "(function () { 'use strict';\n\n", w.Intro)
	assert.Equal(t, "\n\n})();", w.Outro)
	assert.Equal(t, "\t", w.Indent)
}

func TestConcatOverrides(t *testing.T) {
	w := Concat("// intro\n", "\n// outro", "")
	assert.Equal(t, "// intro\n", w.Intro)
	assert.Equal(t, "\n// outro", w.Outro)
	assert.Equal(t, "", w.Indent)
}
