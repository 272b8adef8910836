package sourcemap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVLQ(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, "A"},
		{1, "C"},
		{-1, "D"},
		{15, "e"},
		{16, "gB"},
		{-16, "hB"},
		{123, "2H"},
	}

	for _, tt := range tests {
		var sb strings.Builder
		writeVLQ(&sb, tt.value)
		require.Equal(t, tt.want, sb.String(), "encode %d", tt.value)

		got, err := readVLQs(tt.want)
		require.NoError(t, err)
		require.Equal(t, []int{tt.value}, got)
	}
}

func TestReadVLQ_Invalid(t *testing.T) {
	_, err := readVLQs("g")
	require.Error(t, err, "dangling continuation bit")

	_, err = readVLQs("A*")
	require.Error(t, err)
}

func TestEncode(t *testing.T) {
	mappings := []Mapping{
		{GenLine: 0, GenCol: 0, Source: 0, SrcLine: 0, SrcCol: 0},
		{GenLine: 0, GenCol: 5, Source: 0, SrcLine: 1, SrcCol: 2},
		{GenLine: 2, GenCol: 1, Source: 1, SrcLine: 0, SrcCol: 0},
	}
	assert.Equal(t, "AAAA,KACE;;CCDF", Encode(mappings))

	decoded, err := Decode(Encode(mappings))
	require.NoError(t, err)
	assert.Equal(t, mappings, decoded)
}

func TestEncode_SortsByGeneratedPosition(t *testing.T) {
	a := []Mapping{
		{GenLine: 0, GenCol: 9, SrcLine: 3},
		{GenLine: 0, GenCol: 1, SrcLine: 1},
	}
	b := []Mapping{a[1], a[0]}
	assert.Equal(t, Encode(b), Encode(a))
}

func TestBuilder(t *testing.T) {
	b := NewBuilder()
	i := b.AddSource("../sass/main.sass", "body\n  color: red\n")
	j := b.AddSource("../sass/_vars.sass", "$x: 1\n")
	require.Equal(t, 0, i)
	require.Equal(t, 1, j)
	require.Equal(t, 0, b.AddSource("../sass/main.sass", "ignored"))

	b.Add(Mapping{GenCol: 0, Source: i, SrcLine: 0})
	b.Add(Mapping{GenCol: 5, Source: i, SrcLine: 1, SrcCol: 2})
	require.Equal(t, 2, b.Len())

	m := b.Map("main.css", true)
	data, err := m.Marshal()
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, 3, parsed.Version)
	assert.Equal(t, "main.css", parsed.File)
	assert.Equal(t, []string{"../sass/main.sass", "../sass/_vars.sass"}, parsed.Sources)
	assert.Equal(t, "body\n  color: red\n", parsed.SourcesContent[0])
	assert.Equal(t, "AAAA,KACE", parsed.Mappings)

	withoutContent := b.Map("main.css", false)
	assert.Nil(t, withoutContent.SourcesContent)
}

func TestParse_RejectsOtherVersions(t *testing.T) {
	_, err := Parse([]byte(`{"version":2,"mappings":""}`))
	require.Error(t, err)
}

func TestScriptMappings(t *testing.T) {
	source := []byte("function greet(name) {\n  return 'hi ' + name;\n}\n")
	generated := []byte("function greet(n){return'hi '+n}")

	mappings := ScriptMappings(source, generated, 0)
	require.NotEmpty(t, mappings)

	// "function" maps to the start of the source
	assert.Equal(t, Mapping{GenLine: 0, GenCol: 0, Source: 0, SrcLine: 0, SrcCol: 0}, mappings[0])

	// "return" maps to line 2, column 2
	var found bool
	for _, m := range mappings {
		if m.GenCol == strings.Index(string(generated), "return") {
			assert.Equal(t, 1, m.SrcLine)
			assert.Equal(t, 2, m.SrcCol)
			found = true
		}
	}
	assert.True(t, found, "return keyword should be mapped")
}

func TestScriptMappings_RegexpLiteral(t *testing.T) {
	source := []byte("var re = /a\\/b/g;\nvar x = 4 / 2;\n")
	toks := lexScript(source)

	var texts []string
	for _, tok := range toks {
		texts = append(texts, tok.text)
	}
	assert.Contains(t, texts, "/a\\/b/g")
	assert.Contains(t, texts, "/")
}
