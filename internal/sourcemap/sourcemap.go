package sourcemap

import (
	b64 "encoding/base64"
	"encoding/json"
	"strings"
)

// Mapping relates one generated position to one original position.
// All values are 0-based.
type Mapping struct {
	GeneratedLine   int
	GeneratedColumn int
	SourceIndex     int
	OriginalLine    int
	OriginalColumn  int
}

// SourceMap is a source-map-v3 object.
type SourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

func (sm *SourceMap) String() string {
	buffer, err := json.Marshal(sm)
	if err != nil {
		// The struct contains nothing a JSON encoder can reject
		panic(err)
	}
	return string(buffer)
}

// ToURL encodes the map as a base64 data URL for inline annotation.
func (sm *SourceMap) ToURL() string {
	return "data:application/json;charset=utf-8;base64," +
		b64.StdEncoding.EncodeToString([]byte(sm.String()))
}

// Generate builds the map from a mapping list sorted by generated
// position. Mappings segments are delta-encoded VLQ per the format.
func Generate(file string, sources []string, sourcesContent []string, mappings []Mapping) *SourceMap {
	var encoded []byte
	generatedLine := 0
	generatedColumn := 0
	sourceIndex := 0
	originalLine := 0
	originalColumn := 0

	for _, m := range mappings {
		for generatedLine < m.GeneratedLine {
			encoded = append(encoded, ';')
			generatedLine++
			generatedColumn = 0
		}
		if len(encoded) > 0 && encoded[len(encoded)-1] != ';' {
			encoded = append(encoded, ',')
		}
		encoded = encodeVLQ(encoded, m.GeneratedColumn-generatedColumn)
		encoded = encodeVLQ(encoded, m.SourceIndex-sourceIndex)
		encoded = encodeVLQ(encoded, m.OriginalLine-originalLine)
		encoded = encodeVLQ(encoded, m.OriginalColumn-originalColumn)
		generatedColumn = m.GeneratedColumn
		sourceIndex = m.SourceIndex
		originalLine = m.OriginalLine
		originalColumn = m.OriginalColumn
	}

	return &SourceMap{
		Version:        3,
		File:           file,
		Sources:        sources,
		SourcesContent: sourcesContent,
		Names:          []string{},
		Mappings:       string(encoded),
	}
}

var base64 = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/")

func encodeVLQ(encoded []byte, value int) []byte {
	var vlq int
	if value < 0 {
		vlq = ((-value) << 1) | 1
	} else {
		vlq = value << 1
	}

	// Common case: a single digit
	if (vlq >> 5) == 0 {
		return append(encoded, base64[vlq&31])
	}

	for {
		digit := vlq & 31
		vlq >>= 5
		if vlq != 0 {
			digit |= 32 // continuation bit
		}
		encoded = append(encoded, base64[digit])
		if vlq == 0 {
			return encoded
		}
	}
}

// RelativePath rewrites target relative to the directory of file. Both
// are "/"-shaped paths; the result is what belongs in "sources".
func RelativePath(file string, target string) string {
	if file == "" {
		return target
	}
	dir := ""
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		dir = file[:i]
	}
	if dir == "" {
		return target
	}

	dirParts := strings.Split(dir, "/")
	targetParts := strings.Split(target, "/")
	common := 0
	for common < len(dirParts) && common < len(targetParts)-1 && dirParts[common] == targetParts[common] {
		common++
	}

	var out []string
	for i := common; i < len(dirParts); i++ {
		out = append(out, "..")
	}
	out = append(out, targetParts[common:]...)
	return strings.Join(out, "/")
}
