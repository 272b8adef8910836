package sass

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func compile(t *testing.T, src string) *Stylesheet {
	t.Helper()
	res, err := CompileString(src, "main.sass", Options{})
	require.NoError(t, err)
	return res.Sheet
}

func rules(nodes []Node) []*Rule {
	var out []*Rule
	for _, n := range nodes {
		if r, ok := n.(*Rule); ok && len(r.Decls) > 0 && len(r.Selectors) > 0 {
			out = append(out, r)
		}
	}
	return out
}

func decls(r *Rule) map[string]string {
	m := make(map[string]string)
	for _, d := range r.Decls {
		m[d.Property] = d.Value
	}
	return m
}

func TestCompileString_Nesting(t *testing.T) {
	sheet := compile(t, `$primary: #336699
.nav
  color: $primary
  a
    text-decoration: none
    &:hover
      color: red
`)

	got := rules(sheet.Nodes)
	require.Len(t, got, 3)
	assert.Equal(t, []string{".nav"}, got[0].Selectors)
	assert.Equal(t, "#336699", decls(got[0])["color"])
	assert.Equal(t, []string{".nav a"}, got[1].Selectors)
	assert.Equal(t, "none", decls(got[1])["text-decoration"])
	assert.Equal(t, []string{".nav a:hover"}, got[2].Selectors)
}

func TestCompileString_SelectorLists(t *testing.T) {
	sheet := compile(t, `.a, .b
  .c, &.d
    color: red
`)

	got := rules(sheet.Nodes)
	require.Len(t, got, 1)
	assert.Equal(t, []string{".a .c", ".a.d", ".b .c", ".b.d"}, got[0].Selectors)
}

func TestCompileString_Values(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"multiply", "$w * 2", "20px"},
		{"subtract", "$w - 4", "6px"},
		{"parenthesized division", "($w / 2)", "5px"},
		{"literal slash", "12px/1.5", "12px/1.5"},
		{"variable division", "$w / 5", "2px"},
		{"space list", "0 auto", "0 auto"},
		{"negative list item", "$w -2px", "10px -2px"},
		{"comma list", "Helvetica, Arial, sans-serif", "Helvetica, Arial, sans-serif"},
		{"interpolation", "#{$w}-wide", "10px-wide"},
		{"quoted string", `"Open Sans"`, `"Open Sans"`},
		{"unquote", `unquote("a b")`, "a b"},
		{"rgba with color", "rgba(#000, .5)", "rgba(0, 0, 0, 0.5)"},
		{"lighten", "lighten(#000, 50%)", "#808080"},
		{"darken", "darken(#fff, 100%)", "#000000"},
		{"percentage", "percentage(0.25)", "25%"},
		{"round", "round(2.6px)", "3px"},
		{"calc passthrough", "calc(100% - #{$w})", "calc(100% - 10px)"},
		{"url passthrough", "url(img/a.png)", "url(img/a.png)"},
		{"unknown function", "rotate(45deg)", "rotate(45deg)"},
		{"unary minus", "-$w", "-10px"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet := compile(t, "$w: 10px\n.a\n  prop: "+tt.value+"\n")
			got := rules(sheet.Nodes)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, decls(got[0])["prop"])
		})
	}
}

func TestCompileString_NestedProperties(t *testing.T) {
	sheet := compile(t, `.a
  font:
    family: serif
    size: 12px
  border: 1px solid
    left: 0
`)

	got := rules(sheet.Nodes)
	require.Len(t, got, 1)
	assert.Equal(t, []Decl{
		{Property: "font-family", Value: "serif", Pos: Pos{File: "main.sass", Line: 3, Column: 5}},
		{Property: "font-size", Value: "12px", Pos: Pos{File: "main.sass", Line: 4, Column: 5}},
		{Property: "border", Value: "1px solid", Pos: Pos{File: "main.sass", Line: 5, Column: 3}},
		{Property: "border-left", Value: "0", Pos: Pos{File: "main.sass", Line: 6, Column: 5}},
	}, got[0].Decls)
}

func TestCompileString_OldPropertySyntax(t *testing.T) {
	sheet := compile(t, ".a\n  :color red\n")
	got := rules(sheet.Nodes)
	require.Len(t, got, 1)
	assert.Equal(t, "red", decls(got[0])["color"])
}

func TestCompileString_CustomPropertyIsRaw(t *testing.T) {
	sheet := compile(t, ":root\n  --gap: 4px  +  2px\n")
	got := rules(sheet.Nodes)
	require.Len(t, got, 1)
	assert.Equal(t, "4px  +  2px", decls(got[0])["--gap"])
}

func TestCompileString_VariableScope(t *testing.T) {
	t.Run("local does not leak", func(t *testing.T) {
		_, err := CompileString(".a\n  $x: 1px\n  width: $x\n.b\n  width: $x\n", "main.sass", Options{})
		require.Error(t, err)
		assert.True(t, IsSyntaxError(err))
		assert.Contains(t, err.Error(), "main.sass:5:3")
		assert.Contains(t, err.Error(), "undefined variable $x")
	})

	t.Run("global flag", func(t *testing.T) {
		sheet := compile(t, ".a\n  $x: 1px !global\n.b\n  width: $x\n")
		got := rules(sheet.Nodes)
		require.Len(t, got, 1)
		assert.Equal(t, "1px", decls(got[0])["width"])
	})

	t.Run("default keeps existing value", func(t *testing.T) {
		sheet := compile(t, "$x: 1px\n$x: 2px !default\n$y: 3px !default\n.a\n  width: $x\n  height: $y\n")
		got := rules(sheet.Nodes)
		require.Len(t, got, 1)
		assert.Equal(t, "1px", decls(got[0])["width"])
		assert.Equal(t, "3px", decls(got[0])["height"])
	})

	t.Run("hyphens and underscores are equivalent", func(t *testing.T) {
		sheet := compile(t, "$main_color: red\n.a\n  color: $main-color\n")
		got := rules(sheet.Nodes)
		require.Len(t, got, 1)
		assert.Equal(t, "red", decls(got[0])["color"])
	})
}

func TestCompileString_MediaBubbling(t *testing.T) {
	sheet := compile(t, `.a
  color: red
  @media screen
    color: blue
    .b
      color: green
    @media (max-width: 760px)
      color: black
`)

	require.Len(t, sheet.Nodes, 3)
	assert.Equal(t, []string{".a"}, sheet.Nodes[0].(*Rule).Selectors)

	media := sheet.Nodes[1].(*AtRule)
	assert.Equal(t, "media", media.Name)
	assert.Equal(t, "screen", media.Params)
	inner := rules(media.Nodes)
	require.Len(t, inner, 2)
	assert.Equal(t, []string{".a"}, inner[0].Selectors)
	assert.Equal(t, "blue", decls(inner[0])["color"])
	assert.Equal(t, []string{".a .b"}, inner[1].Selectors)

	nested := sheet.Nodes[2].(*AtRule)
	assert.Equal(t, "screen and (max-width: 760px)", nested.Params)
	inner = rules(nested.Nodes)
	require.Len(t, inner, 1)
	assert.Equal(t, "black", decls(inner[0])["color"])
}

func TestCompileString_MediaWithVariable(t *testing.T) {
	sheet := compile(t, "$bp: 760px\n@media (max-width: $bp)\n  .a\n    color: red\n")
	require.Len(t, sheet.Nodes, 1)
	assert.Equal(t, "(max-width: 760px)", sheet.Nodes[0].(*AtRule).Params)
}

func TestCompileString_Mixins(t *testing.T) {
	sheet := compile(t, `=box($size: 10px, $color: red)
  width: $size
  color: $color
  @content

@mixin plain
  display: block

.a
  +box(20px)
    float: left
.b
  +box($color: blue)
.c
  @include plain
`)

	got := rules(sheet.Nodes)
	require.Len(t, got, 3)
	assert.Equal(t, map[string]string{"width": "20px", "color": "red", "float": "left"}, decls(got[0]))
	assert.Equal(t, map[string]string{"width": "10px", "color": "blue"}, decls(got[1]))
	assert.Equal(t, map[string]string{"display": "block"}, decls(got[2]))
}

func TestCompileString_MixinWithNestedRules(t *testing.T) {
	sheet := compile(t, `=hover-color($c)
  &:hover
    color: $c
.a
  +hover-color(red)
`)

	got := rules(sheet.Nodes)
	require.Len(t, got, 1)
	assert.Equal(t, []string{".a:hover"}, got[0].Selectors)
}

func TestCompileString_Keyframes(t *testing.T) {
	sheet := compile(t, `@keyframes spin
  from
    transform: rotate(0deg)
  50%
    opacity: .5
  to
    transform: rotate(360deg)
`)

	require.Len(t, sheet.Nodes, 1)
	kf := sheet.Nodes[0].(*AtRule)
	assert.True(t, kf.IsKeyframes())
	assert.Equal(t, "spin", kf.Params)
	steps := rules(kf.Nodes)
	require.Len(t, steps, 3)
	assert.Equal(t, []string{"from"}, steps[0].Selectors)
	assert.Equal(t, []string{"50%"}, steps[1].Selectors)
	assert.Equal(t, "rotate(360deg)", decls(steps[2])["transform"])
}

func TestCompileString_FontFace(t *testing.T) {
	sheet := compile(t, "@font-face\n  font-family: \"Icons\"\n  src: url(icons.woff)\n")
	require.Len(t, sheet.Nodes, 1)
	ff := sheet.Nodes[0].(*AtRule)
	assert.Equal(t, "font-face", ff.Name)
	assert.True(t, ff.Block)
	require.Len(t, ff.Decls, 2)
	assert.Equal(t, "url(icons.woff)", ff.Decls[1].Value)
}

func TestCompileString_PlaceholdersAreDropped(t *testing.T) {
	sheet := compile(t, "%base\n  color: red\n.a\n  color: blue\n")
	got := rules(sheet.Nodes)
	require.Len(t, got, 1)
	assert.Equal(t, []string{".a"}, got[0].Selectors)
}

func TestCompileString_Comments(t *testing.T) {
	sheet := compile(t, `// header
/* block
   comment
.a
  color: red // trailing
  /* inline */ width: 1px
`)

	got := rules(sheet.Nodes)
	require.Len(t, got, 1)
	assert.Equal(t, map[string]string{"color": "red", "width": "1px"}, decls(got[0]))
}

func TestCompileString_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"parent at root", "&.a\n  color: red\n", "parent selector"},
		{"undefined mixin", ".a\n  +nope\n", "undefined mixin nope"},
		{"unsupported directive", "@supports (display: grid)\n  .a\n    color: red\n", "unsupported directive @supports"},
		{"extend target missing", ".a\n  @extend .b\n", "target selector .b was not found"},
		{"extend outside rule", "@extend .a\n", "only be used within style rules"},
		{"extend complex selector", ".a\n  color: red\n.b\n  @extend .x .a\n", "can't extend complex selector"},
		{"else without if", ".a\n  @else\n    color: red\n", "@else must come after @if"},
		{"else not last", "@if false\n  .a\n    color: red\n@else\n  .b\n    color: red\n@else if false\n  .c\n    color: red\n", "last branch"},
		{"return outside function", "@return 1\n", "within a function"},
		{"function without return", "@function f()\n  $a: 1\n.a\n  width: f()\n", "without @return"},
		{"rule in function", "@function f()\n  .a\n    color: red\n  @return 1\n.b\n  width: f()\n", "functions can only contain"},
		{"endless while", "$i: 1\n@while $i > 0\n  $j: 1\n", "more than 10000 times"},
		{"compare incompatible units", "@if 1px < 1em\n  .a\n    color: red\n", "incompatible units"},
		{"bad each", "@each in a, b\n  .a\n    color: red\n", "expected \"@each"},
		{"nth out of bounds", ".a\n  width: nth(1px 2px, 3)\n", "out of bounds"},
		{"error directive", "$x: 1\n@error \"bad $x\"\n", "bad 1"},
		{"property at root", "color: red\n", "only allowed within rules"},
		{"mixed indentation", ".a\n \tcolor: red\n", "mixes tabs and spaces"},
		{"inconsistent indentation", ".a\n    color: red\n  width: 1px\n", "inconsistent indentation"},
		{"incompatible units", ".a\n  width: 1px + 1em\n", "incompatible units"},
		{"division by zero", ".a\n  width: (1px / 0)\n", "division by zero"},
		{"content outside mixin", ".a\n  @content\n", "@content"},
		{"too many arguments", "=m($a)\n  width: $a\n.a\n  +m(1, 2)\n", "takes 1 arguments"},
		{"unknown keyword", "=m($a: 1)\n  width: $a\n.a\n  +m($b: 2)\n", "no parameter $b"},
		{"missing value", ".a\n  color:\n", "expected a value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileString(tt.src, "main.sass", Options{})
			require.Error(t, err)
			assert.True(t, IsSyntaxError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCompileString_RecursiveMixin(t *testing.T) {
	_, err := CompileString("=loop\n  +loop\n.a\n  +loop\n", "main.sass", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too deep")
}

func TestCompileString_DebugAndWarn(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	_, err := CompileString("$x: 2\n@debug value is $x\n@warn careful\n", "main.sass", Options{Logger: zap.New(core)})
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("value is 2").Len())
	warns := logs.FilterMessage("careful").All()
	require.Len(t, warns, 1)
	assert.Equal(t, zap.WarnLevel, warns[0].Level)
}

func memFiles(files map[string]string) func(string) ([]byte, error) {
	return func(path string) ([]byte, error) {
		if s, ok := files[path]; ok {
			return []byte(s), nil
		}
		return nil, fs.ErrNotExist
	}
}

func TestCompile_Imports(t *testing.T) {
	read := memFiles(map[string]string{
		"sass/main.sass":           "@import vars, mixins\n@import \"print.css\"\n.a\n  +pad\n  color: $c\n",
		"sass/_vars.sass":          "$c: red\n",
		"sass/mixins.sass":         "=pad\n  padding: 1px\n",
		"vendor/grid/_index.sass":  ".grid\n  display: block\n",
		"sass/uses_loadpath.sass":  "@import grid\n",
		"sass/partials/_base.sass": "$d: 1\n",
	})

	res, err := Compile("sass/main.sass", Options{ReadFile: read})
	require.NoError(t, err)
	assert.Equal(t, []string{"sass/main.sass", "sass/_vars.sass", "sass/mixins.sass"}, res.Files)
	assert.Equal(t, "$c: red\n", res.Sources["sass/_vars.sass"])

	require.Len(t, res.Sheet.Nodes, 2)
	imp := res.Sheet.Nodes[0].(*AtRule)
	assert.Equal(t, "import", imp.Name)
	assert.Equal(t, `"print.css"`, imp.Params)
	assert.Equal(t, map[string]string{"padding": "1px", "color": "red"}, decls(res.Sheet.Nodes[1].(*Rule)))

	res, err = Compile("sass/uses_loadpath.sass", Options{ReadFile: read, LoadPaths: []string{"vendor"}})
	require.NoError(t, err)
	assert.Equal(t, "vendor/grid/_index.sass", res.Files[1])
}

func TestCompile_ImportErrors(t *testing.T) {
	read := memFiles(map[string]string{
		"a.sass":    "@import b\n",
		"_b.sass":   "@import a\n",
		"miss.sass": "@import nowhere\n",
	})

	_, err := Compile("a.sass", Options{ReadFile: read})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import loop")

	_, err = Compile("miss.sass", Options{ReadFile: read})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't find stylesheet to import: nowhere")

	_, err = Compile("gone.sass", Options{ReadFile: read})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.False(t, IsSyntaxError(err))
}
