package api

import (
	"strings"
	"testing"

	"github.com/lithammer/dedent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvdl/esperanto/internal/fs"
	"github.com/jvdl/esperanto/internal/test"
)

func js(source string) string {
	return strings.TrimPrefix(dedent.Dedent(source), "\n")
}

func expectCode(t *testing.T, result Result, err error, expected string) {
	t.Helper()
	require.NoError(t, err)
	test.AssertEqualText(t, result.Code, js(expected))
}

func expectError(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	require.Error(t, err)
	apiErr, isTyped := err.(*Error)
	require.True(t, isTyped, "expected *api.Error, got %T", err)
	assert.Equal(t, code, apiErr.Code)
}

func TestTranspileDefaultExportToCJS(t *testing.T) {
	result, err := Transpile("export default 42;", TranspileOptions{Format: FormatCJS})
	expectCode(t, result, err, `
		'use strict';

		module.exports = 42;`)
}

func TestTranspileReassignmentMirroring(t *testing.T) {
	source := js(`
		export var x = 1;
		x = 2;
		x++;`)
	result, err := Transpile(source, TranspileOptions{
		Format:      FormatCJS,
		EmitOptions: EmitOptions{Strict: true},
	})
	expectCode(t, result, err, `
		'use strict';

		var x = 1;
		exports.x = x = 2;
		x++, exports.x = x;`)
}

func TestTranspileIllegalReassignment(t *testing.T) {
	source := js(`
		import { x } from 'a';
		x = 1;`)
	_, err := Transpile(source, TranspileOptions{
		Format:      FormatCJS,
		EmitOptions: EmitOptions{Strict: true},
	})
	expectError(t, err, ErrIllegalReassignment)
	assert.Contains(t, err.Error(), "Cannot reassign imported binding `x`")
}

func TestTranspileNamedImportToCJS(t *testing.T) {
	source := js(`
		import { relative } from 'path';
		export var x = relative('a', 'b');`)
	result, err := Transpile(source, TranspileOptions{
		Format:      FormatCJS,
		EmitOptions: EmitOptions{Strict: true},
	})
	expectCode(t, result, err, `
		'use strict';

		var path = require('path');

		var x = path.relative('a', 'b');

		exports.x = x;`)
}

func TestTranspileDefaultImportToAMD(t *testing.T) {
	source := js(`
		import foo from 'foo';
		export default foo;`)
	result, err := Transpile(source, TranspileOptions{Format: FormatAMD})
	expectCode(t, result, err, `
		define(['foo'], function (foo) {

			'use strict';

			return foo;

		});`)
}

func TestTranspileToUMD(t *testing.T) {
	result, err := Transpile("export var x = 1;", TranspileOptions{
		Format:      FormatUMD,
		EmitOptions: EmitOptions{Strict: true, Name: "MyLib"},
	})
	expectCode(t, result, err, `
		(function (global, factory) {
			typeof exports === 'object' && typeof module !== 'undefined' ? factory(exports) :
			typeof define === 'function' && define.amd ? define(['exports'], factory) :
			(factory((global.MyLib = {})));
		}(this, function (exports) { 'use strict';

			var x = 1;

			exports.x = x;

		}));`)
}

func TestTranspileUMDRequiresName(t *testing.T) {
	_, err := Transpile("export default 1;", TranspileOptions{Format: FormatUMD})
	expectError(t, err, ErrMissingName)
}

func TestTranspileTopLevelThis(t *testing.T) {
	result, err := Transpile("export default this;", TranspileOptions{Format: FormatCJS})
	expectCode(t, result, err, `
		'use strict';

		module.exports = undefined;`)

	_, err = Transpile("this.foo = 1;", TranspileOptions{Format: FormatCJS})
	expectError(t, err, ErrTopLevelThis)
}

func TestTranspileDefaultsModeRejectsNamedExports(t *testing.T) {
	_, err := Transpile("export var x = 1;", TranspileOptions{Format: FormatCJS})
	expectError(t, err, ErrStrictMode)
}

func TestTranspileDuplicateDefaultExport(t *testing.T) {
	source := js(`
		export default 1;
		export default 2;`)
	_, err := Transpile(source, TranspileOptions{Format: FormatCJS})
	expectError(t, err, ErrDuplicateDefaultExport)
}

func TestTranspileDuplicateImportAlias(t *testing.T) {
	source := js(`
		import { x } from 'a';
		import { x } from 'b';`)
	_, err := Transpile(source, TranspileOptions{
		Format:      FormatCJS,
		EmitOptions: EmitOptions{Strict: true},
	})
	expectError(t, err, ErrDuplicateImport)
}

func TestTranspileNamespaceReassignment(t *testing.T) {
	source := js(`
		import * as a from 'a';
		a.x = 1;`)
	_, err := Transpile(source, TranspileOptions{
		Format:      FormatCJS,
		EmitOptions: EmitOptions{Strict: true},
	})
	expectError(t, err, ErrIllegalReassignment)
	assert.Contains(t, err.Error(), "namespace")
}

func TestTranspileParseError(t *testing.T) {
	_, err := Transpile("import {", TranspileOptions{Format: FormatCJS})
	expectError(t, err, ErrParse)
}

func TestTranspileTemplateLiteralsKeepIndentation(t *testing.T) {
	result, err := Transpile("export default `a\nb`;", TranspileOptions{Format: FormatAMD})
	require.NoError(t, err)
	assert.Contains(t, result.Code, "\treturn `a\nb`;")
}

func TestTranspileBannerFooter(t *testing.T) {
	result, err := Transpile("export default 1;", TranspileOptions{
		Format:      FormatCJS,
		EmitOptions: EmitOptions{Banner: "/* banner */", Footer: "/* footer */"},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Code, "/* banner */\n"))
	assert.True(t, strings.HasSuffix(result.Code, "\n/* footer */"))
}

func TestTranspileInlineSourceMap(t *testing.T) {
	result, err := Transpile("export default 1;", TranspileOptions{
		Format: FormatCJS,
		EmitOptions: EmitOptions{
			SourceMap:       SourceMapInline,
			SourceMapFile:   "out.js",
			SourceMapSource: "in.js",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Map)
	assert.Equal(t, 3, result.Map.Version)
	assert.Equal(t, []string{"in.js"}, result.Map.Sources)
	assert.Contains(t, result.Code, "//# sourceMappingURL=data:application/json;charset=utf-8;base64,")
}

func TestTranspileSourceMapRequiresConfig(t *testing.T) {
	_, err := Transpile("export default 1;", TranspileOptions{
		Format:      FormatCJS,
		EmitOptions: EmitOptions{SourceMap: SourceMapFile},
	})
	expectError(t, err, ErrMissingSourceMapConfig)
}

func mockBundle(t *testing.T, files map[string]string, entry string) *Bundle {
	t.Helper()
	bundle, err := NewBundle(BundleOptions{
		Entry:      entry,
		FileSystem: fs.MockFS(files),
	})
	require.NoError(t, err)
	return bundle
}

func TestBundleDeconflictsTopLevelNames(t *testing.T) {
	bundle := mockBundle(t, map[string]string{
		"a.js": js(`
			export var foo = 1;
			export function bar () {
				return foo;
			}`),
		"b.js": js(`
			import { bar } from './a';
			export default bar();`),
	}, "b.js")

	assert.Empty(t, bundle.Imports())
	assert.Equal(t, []string{"default"}, bundle.Exports())

	result, err := bundle.ToCJS(EmitOptions{Strict: true})
	expectCode(t, result, err, `
		'use strict';

		var foo = 1;
		function a__bar () {
			return foo;
		}

		var b = a__bar();

		exports['default'] = b;`)
}

func TestBundleNamespaceImport(t *testing.T) {
	bundle := mockBundle(t, map[string]string{
		"a.js": js(`
			export var x = 1;
			export var y = 2;`),
		"main.js": js(`
			import * as a from './a';
			export default a.x;`),
	}, "main.js")

	result, err := bundle.ToCJS(EmitOptions{Strict: true})
	expectCode(t, result, err, `
		'use strict';

		var a = {
			get x () { return a__x; },
			get y () { return a__y; }
		};

		var a__x = 1;
		var a__y = 2;

		var main = a.x;

		exports['default'] = main;`)
}

func TestBundleReExportChain(t *testing.T) {
	bundle := mockBundle(t, map[string]string{
		"a.js": "export var v = 9;\n",
		"b.js": "export { v } from './a';\n",
		"c.js": "export { v } from './b';\n",
	}, "c.js")

	assert.Equal(t, []string{"v"}, bundle.Exports())

	result, err := bundle.ToCJS(EmitOptions{Strict: true})
	require.NoError(t, err)
	assert.Contains(t, result.Code, "var a__v = 9;")
	assert.Contains(t, result.Code,
		"Object.defineProperty(exports, 'v', { get: function () { return a__v; } });")
}

func TestBundleDefaultsModeToCJS(t *testing.T) {
	bundle := mockBundle(t, map[string]string{
		"answer.js": "export default 42;\n",
		"main.js": js(`
			import answer from './answer';
			export default answer + 0;`),
	}, "main.js")

	result, err := bundle.ToCJS(EmitOptions{})
	expectCode(t, result, err, `
		'use strict';

		var answer = 42;

		var main = answer + 0;

		module.exports = main;`)
}

func TestBundleExternalImports(t *testing.T) {
	bundle := mockBundle(t, map[string]string{
		"main.js": js(`
			import fs from 'fs';
			import { join } from 'path';
			export default fs.readFileSync(join('a', 'b'));`),
	}, "main.js")

	assert.Equal(t, []string{"fs", "path"}, bundle.Imports())

	result, err := bundle.ToCJS(EmitOptions{Strict: true})
	require.NoError(t, err)
	assert.Contains(t, result.Code, "var fs = require('fs');")
	assert.Contains(t, result.Code, "var path = require('path');")
	assert.Contains(t, result.Code, "path.join('a', 'b')")
}

func TestBundleExternalInterop(t *testing.T) {
	bundle := mockBundle(t, map[string]string{
		"main.js": js(`
			import ext, { named } from 'ext';
			export default ext + named;`),
	}, "main.js")

	result, err := bundle.ToCJS(EmitOptions{Strict: true})
	require.NoError(t, err)
	assert.Contains(t, result.Code, "var ext = require('ext');")
	assert.Contains(t, result.Code, "var ext__default = 'default' in ext ? ext['default'] : ext;")
	assert.Contains(t, result.Code, "ext__default + ext.named")
}

func TestBundleToAMD(t *testing.T) {
	bundle := mockBundle(t, map[string]string{
		"main.js": js(`
			import $ from 'jquery';
			export default $('body');`),
	}, "main.js")

	result, err := bundle.ToAMD(EmitOptions{AmdName: "app"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Code, "define('app', ['jquery'], function ($) {"))
	assert.Contains(t, result.Code, "\treturn main;")
}

func TestBundleEmitIsDeterministic(t *testing.T) {
	files := map[string]string{
		"a.js":    "export var x = 1;\nexport var y = 2;\n",
		"b.js":    "export { x } from './a';\nexport { y } from './a';\n",
		"main.js": "import { x, y } from './b';\nexport default x + y;\n",
	}
	first := mockBundle(t, files, "main.js")
	second := mockBundle(t, files, "main.js")

	a, err := first.ToCJS(EmitOptions{Strict: true})
	require.NoError(t, err)
	b, err := second.ToCJS(EmitOptions{Strict: true})
	require.NoError(t, err)
	test.AssertEqualText(t, a.Code, b.Code)

	again, err := first.ToCJS(EmitOptions{Strict: true})
	require.NoError(t, err)
	test.AssertEqualText(t, again.Code, a.Code)
}

func TestBundleMissingEntry(t *testing.T) {
	_, err := NewBundle(BundleOptions{
		Entry:      "missing.js",
		FileSystem: fs.MockFS(map[string]string{}),
	})
	expectError(t, err, ErrEntryMissing)
}

func TestBundleSelfImport(t *testing.T) {
	_, err := NewBundle(BundleOptions{
		Entry: "a.js",
		FileSystem: fs.MockFS(map[string]string{
			"a.js": "import './a';\nexport default 1;\n",
		}),
	})
	expectError(t, err, ErrSelfImport)
}

func TestBundleMissingExport(t *testing.T) {
	_, err := NewBundle(BundleOptions{
		Entry: "main.js",
		FileSystem: fs.MockFS(map[string]string{
			"a.js":    "export var x = 1;\n",
			"main.js": "import { y } from './a';\nexport default y;\n",
		}),
	})
	expectError(t, err, ErrMissingExport)
}

func TestBundleDefaultsModeRejectsNamedEntryExports(t *testing.T) {
	bundle := mockBundle(t, map[string]string{
		"main.js": "export var x = 1;\n",
	}, "main.js")

	_, err := bundle.ToCJS(EmitOptions{})
	expectError(t, err, ErrStrictMode)
}

func TestBundleNamingCollision(t *testing.T) {
	_, err := NewBundle(BundleOptions{
		Entry: "main.js",
		FileSystem: fs.MockFS(map[string]string{
			"a.js":    "export default 1;\n",
			"b.js":    "export default 2;\n",
			"main.js": "import a from './a';\nimport b from './b';\nexport default a + b;\n",
		}),
		GetModuleName: func(id string) string { return "same" },
	})
	expectError(t, err, ErrNamingCollision)
}

func TestBundleSkipKeepsModuleExternal(t *testing.T) {
	bundle, err := NewBundle(BundleOptions{
		Entry: "main.js",
		Skip:  []string{"a"},
		FileSystem: fs.MockFS(map[string]string{
			"a.js":    "export default 1;\n",
			"main.js": "import a from './a';\nexport default a;\n",
		}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, bundle.Imports())

	result, err := bundle.ToCJS(EmitOptions{Strict: true})
	require.NoError(t, err)
	assert.Contains(t, result.Code, "var a = require('a');")
}

func TestBundleTransformHook(t *testing.T) {
	bundle, err := NewBundle(BundleOptions{
		Entry: "main.js",
		FileSystem: fs.MockFS(map[string]string{
			"main.js": "export default PLACEHOLDER;\n",
		}),
		Transform: func(source string, path string) (string, error) {
			return strings.ReplaceAll(source, "PLACEHOLDER", "42"), nil
		},
	})
	require.NoError(t, err)

	result, err := bundle.ToCJS(EmitOptions{})
	require.NoError(t, err)
	assert.Contains(t, result.Code, "module.exports = main;")
	assert.Contains(t, result.Code, "var main = 42;")
}

func TestConcat(t *testing.T) {
	bundle := mockBundle(t, map[string]string{
		"log.js":  "console.log('side effect');\n",
		"main.js": "import './log';\nconsole.log('main');\n",
	}, "main.js")

	result, err := bundle.Concat(ConcatOptions{})
	expectCode(t, result, err, `
		(function () { 'use strict';

			console.log('side effect');

			console.log('main');

		})();`)
}

func TestConcatRejectsExports(t *testing.T) {
	bundle := mockBundle(t, map[string]string{
		"main.js": "export default 1;\n",
	}, "main.js")

	_, err := bundle.Concat(ConcatOptions{})
	expectError(t, err, ErrConcatNotAllowed)
}

func TestBundleCyclicModules(t *testing.T) {
	bundle := mockBundle(t, map[string]string{
		"a.js": js(`
			import { b } from './b';
			export function a () { return b; }`),
		"b.js": js(`
			import { a } from './a';
			export function b () { return a; }`),
		"main.js": js(`
			import { a } from './a';
			export default a();`),
	}, "main.js")

	result, err := bundle.ToCJS(EmitOptions{Strict: true})
	require.NoError(t, err)
	assert.NotContains(t, result.Code, "import")
	assert.NotContains(t, result.Code, "export ")
}
