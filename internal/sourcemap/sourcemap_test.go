package sourcemap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateEncodesVLQSegments(t *testing.T) {
	sm := Generate("out.js", []string{"in.js"}, nil, []Mapping{
		{GeneratedLine: 0, GeneratedColumn: 0, OriginalLine: 0, OriginalColumn: 0},
		{GeneratedLine: 0, GeneratedColumn: 5, OriginalLine: 0, OriginalColumn: 5},
	})
	assert.Equal(t, "AAAA,KAAK", sm.Mappings)
}

func TestGenerateAdvancesLines(t *testing.T) {
	sm := Generate("out.js", []string{"in.js"}, nil, []Mapping{
		{GeneratedLine: 1, GeneratedColumn: 0, OriginalLine: 1, OriginalColumn: 0},
	})
	assert.Equal(t, ";AACA", sm.Mappings)
}

func TestGenerateNegativeDeltas(t *testing.T) {
	sm := Generate("out.js", []string{"in.js"}, nil, []Mapping{
		{GeneratedLine: 0, GeneratedColumn: 0, OriginalLine: 3, OriginalColumn: 0},
		{GeneratedLine: 1, GeneratedColumn: 0, OriginalLine: 0, OriginalColumn: 0},
	})
	// The second segment steps the original line back by three
	assert.Equal(t, "AAGA;AAHA", sm.Mappings)
}

func TestString(t *testing.T) {
	sm := Generate("out.js", []string{"in.js"}, []string{"var a;"}, nil)
	text := sm.String()
	assert.Contains(t, text, `"version":3`)
	assert.Contains(t, text, `"file":"out.js"`)
	assert.Contains(t, text, `"sources":["in.js"]`)
	assert.Contains(t, text, `"sourcesContent":["var a;"]`)
}

func TestToURL(t *testing.T) {
	sm := Generate("out.js", []string{"in.js"}, nil, nil)
	url := sm.ToURL()
	assert.True(t, strings.HasPrefix(url, "data:application/json;charset=utf-8;base64,"))
}

func TestRelativePath(t *testing.T) {
	assert.Equal(t, "in.js", RelativePath("out.js", "in.js"))
	assert.Equal(t, "../src/in.js", RelativePath("dist/out.js", "src/in.js"))
	assert.Equal(t, "in.js", RelativePath("dist/out.js", "dist/in.js"))
}
