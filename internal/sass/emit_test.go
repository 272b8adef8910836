package sass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/assetpipe/internal/sourcemap"
)

func TestEmit(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "nested rules",
			src:  ".a\n  color: red\n  .b\n    margin: 0 auto\n",
			want: ".a{color:red}.a .b{margin:0 auto}",
		},
		{
			name: "combinators are compressed",
			src:  "ul\n  > li\n    color: red\n",
			want: "ul>li{color:red}",
		},
		{
			name: "empty rules are skipped",
			src:  ".a\n  .b\n    color: red\n.c\n  // nothing\n",
			want: ".a .b{color:red}",
		},
		{
			name: "media query",
			src:  ".a\n  color: red\n  @media screen and (max-width: 760px)\n    color: blue\n",
			want: ".a{color:red}@media screen and (max-width:760px){.a{color:blue}}",
		},
		{
			name: "empty media is skipped",
			src:  "@media print\n  .a\n    // hidden\n",
			want: "",
		},
		{
			name: "charset and import",
			src:  "@charset \"UTF-8\"\n@import url(foo.css)\n",
			want: "@charset \"UTF-8\";@import url(foo.css);",
		},
		{
			name: "large numbers keep plain notation",
			src:  ".a\n  width: 1000px\n  perspective: 2000px\n  margin: 0 10000px\n",
			want: ".a{width:1000px;perspective:2000px;margin:0 10000px}",
		},
		{
			name: "custom properties are kept verbatim",
			src:  ":root\n  --gap: 4px\n",
			want: ":root{--gap:4px}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := CompileString(tt.src, "main.sass", Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(Emit(res.Sheet, nil, nil)))
		})
	}
}

func TestEmit_SourceMap(t *testing.T) {
	src := ".a\n  color: red\n  .b\n    width: 1px\n"
	res, err := CompileString(src, "sass/main.sass", Options{})
	require.NoError(t, err)

	b := sourcemap.NewBuilder()
	out := Emit(res.Sheet, b, func(file string) (string, string) {
		return "../" + file, res.Sources[file]
	})
	assert.Equal(t, ".a{color:red}.a .b{width:1px}", string(out))

	m := b.Map("main.css", true)
	assert.Equal(t, []string{"../sass/main.sass"}, m.Sources)
	assert.Equal(t, []string{src}, m.SourcesContent)

	mappings, err := sourcemap.Decode(m.Mappings)
	require.NoError(t, err)
	assert.Equal(t, []sourcemap.Mapping{
		{GenLine: 0, GenCol: 0, Source: 0, SrcLine: 0, SrcCol: 0},
		{GenLine: 0, GenCol: 3, Source: 0, SrcLine: 1, SrcCol: 2},
		{GenLine: 0, GenCol: 13, Source: 0, SrcLine: 2, SrcCol: 2},
		{GenLine: 0, GenCol: 19, Source: 0, SrcLine: 3, SrcCol: 4},
	}, mappings)
}

func TestEmit_Deterministic(t *testing.T) {
	src := "$c: #336699\n.a\n  color: $c\n  @media print\n    display: none\n"
	first, err := CompileString(src, "main.sass", Options{})
	require.NoError(t, err)
	second, err := CompileString(src, "main.sass", Options{})
	require.NoError(t, err)

	assert.Equal(t, Emit(first.Sheet, nil, nil), Emit(second.Sheet, nil, nil))
}
