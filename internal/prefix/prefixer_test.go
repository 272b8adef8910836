package prefix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/assetpipe/internal/sass"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"exact versions", "ie 8, ie 9", []string{"ie 8", "ie 9"}},
		{"alias", "Explorer 11", []string{"ie 11"}},
		{"last versions of one browser", "last 2 firefox versions", []string{"firefox 131", "firefox 132"}},
		{"range", "ie < 8", []string{"ie 5.5", "ie 6", "ie 7"}},
		{"range inclusive", "firefox >= 131", []string{"firefox 131", "firefox 132"}},
		{"negation", "ie >= 9, not ie 10", []string{"ie 9", "ie 11"}},
		{"dotted version", "android 4.4.3", []string{"android 4.4.3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			targets, err := Resolve(tt.query)
			require.NoError(t, err)
			var got []string
			for _, target := range targets {
				got = append(got, target.String())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_LastVersions(t *testing.T) {
	targets, err := Resolve("last 2 versions")
	require.NoError(t, err)
	assert.Len(t, targets, 2*len(browserOrder))

	targets, err = Resolve("last 1 version, not chrome 130")
	require.NoError(t, err)
	assert.Len(t, targets, len(browserOrder)-1)
	for _, target := range targets {
		assert.NotEqual(t, "chrome", target.Browser)
	}
}

func TestResolve_Default(t *testing.T) {
	targets, err := Resolve(DefaultBrowsers)
	require.NoError(t, err)
	assert.Len(t, targets, 3*len(browserOrder)+2)
	assert.Contains(t, targets, Target{Browser: "safari", Version: Version{5}})
	assert.Contains(t, targets, Target{Browser: "ie", Version: Version{8}})
}

func TestResolve_Errors(t *testing.T) {
	for _, q := range []string{"foo 1", "ie 99", "last x versions", "> 5%", "chrome ~ 3", "last 2"} {
		t.Run(q, func(t *testing.T) {
			_, err := Resolve(q)
			assert.Error(t, err)
		})
	}
}

func TestVersionCompare(t *testing.T) {
	assert.Equal(t, 0, Version{5}.Compare(Version{5, 0}))
	assert.Equal(t, -1, Version{4, 4}.Compare(Version{4, 4, 3}))
	assert.Equal(t, 1, Version{10}.Compare(Version{9, 9}))

	_, err := ParseVersion("1.x")
	assert.Error(t, err)
}

func TestPrefixed_DefaultBrowsers(t *testing.T) {
	p, err := New(DefaultBrowsers)
	require.NoError(t, err)

	tests := []struct {
		prop string
		want []string
	}{
		{"transform", []string{"-webkit-transform", "-ms-transform"}},
		{"transition", []string{"-webkit-transition"}},
		{"box-shadow", []string{"-webkit-box-shadow"}},
		{"user-select", []string{"-webkit-user-select", "-ms-user-select"}},
		{"flex", []string{"-ms-flex"}},
		{"order", []string{"-ms-flex-order"}},
		{"border-radius", nil},
		{"color", nil},
	}
	for _, tt := range tests {
		t.Run(tt.prop, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Prefixed(tt.prop))
		})
	}
}

func compile(t *testing.T, src string) *sass.Stylesheet {
	t.Helper()
	res, err := sass.CompileString(src, "main.sass", sass.Options{})
	require.NoError(t, err)
	return res.Sheet
}

func flatten(decls []sass.Decl) []string {
	out := make([]string, len(decls))
	for i, d := range decls {
		out[i] = d.Property + ":" + d.Value
	}
	return out
}

func TestProcess_Declarations(t *testing.T) {
	p, err := New(DefaultBrowsers)
	require.NoError(t, err)

	sheet := compile(t, `.a
  transform: rotate(45deg)
  transition: transform 1s
  display: flex
  color: red
`)
	p.Process(sheet)

	require.Len(t, sheet.Nodes, 1)
	assert.Equal(t, []string{
		"-webkit-transform:rotate(45deg)",
		"-ms-transform:rotate(45deg)",
		"transform:rotate(45deg)",
		"-webkit-transition:-webkit-transform 1s",
		"transition:transform 1s",
		"display:-webkit-box",
		"display:-ms-flexbox",
		"display:flex",
		"color:red",
	}, flatten(sheet.Nodes[0].(*sass.Rule).Decls))
}

func TestProcess_KeepsExistingPrefixes(t *testing.T) {
	p, err := New(DefaultBrowsers)
	require.NoError(t, err)

	sheet := compile(t, ".a\n  -webkit-transform: none\n  transform: none\n")
	p.Process(sheet)

	assert.Equal(t, []string{
		"-webkit-transform:none",
		"-ms-transform:none",
		"transform:none",
	}, flatten(sheet.Nodes[0].(*sass.Rule).Decls))
}

func TestProcess_Idempotent(t *testing.T) {
	p, err := New(DefaultBrowsers)
	require.NoError(t, err)

	sheet := compile(t, ".a\n  transform: none\n  display: flex\n")
	p.Process(sheet)
	once := flatten(sheet.Nodes[0].(*sass.Rule).Decls)
	p.Process(sheet)
	assert.Equal(t, once, flatten(sheet.Nodes[0].(*sass.Rule).Decls))
}

func TestProcess_Keyframes(t *testing.T) {
	p, err := New(DefaultBrowsers)
	require.NoError(t, err)

	sheet := compile(t, "@keyframes spin\n  to\n    transform: rotate(360deg)\n")
	p.Process(sheet)

	require.Len(t, sheet.Nodes, 2)
	prefixed := sheet.Nodes[0].(*sass.AtRule)
	assert.Equal(t, "-webkit-keyframes", prefixed.Name)
	assert.Equal(t, "spin", prefixed.Params)
	require.Len(t, prefixed.Nodes, 1)
	assert.Equal(t, []string{
		"-webkit-transform:rotate(360deg)",
		"transform:rotate(360deg)",
	}, flatten(prefixed.Nodes[0].(*sass.Rule).Decls))

	plain := sheet.Nodes[1].(*sass.AtRule)
	assert.Equal(t, "keyframes", plain.Name)
	assert.Equal(t, []string{
		"-webkit-transform:rotate(360deg)",
		"-ms-transform:rotate(360deg)",
		"transform:rotate(360deg)",
	}, flatten(plain.Nodes[0].(*sass.Rule).Decls))
}

func TestProcess_Gradients(t *testing.T) {
	p, err := New("chrome 20")
	require.NoError(t, err)

	tests := []struct {
		value string
		want  string
	}{
		{"linear-gradient(to bottom, #fff, #000)", "-webkit-linear-gradient(top, #fff, #000)"},
		{"linear-gradient(to top right, red, blue)", "-webkit-linear-gradient(bottom left, red, blue)"},
		{"linear-gradient(180deg, red, blue)", "-webkit-linear-gradient(270deg, red, blue)"},
		{"linear-gradient(red, blue)", "-webkit-linear-gradient(red, blue)"},
		{"url(a.png), radial-gradient(red, blue)", "url(a.png), -webkit-radial-gradient(red, blue)"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			sheet := compile(t, ".a\n  background-image: "+tt.value+"\n")
			p.Process(sheet)
			decls := sheet.Nodes[0].(*sass.Rule).Decls
			require.Len(t, decls, 2)
			assert.Equal(t, tt.want, decls[0].Value)
			assert.Equal(t, tt.value, decls[1].Value)
		})
	}
}

func TestProcess_Display2009(t *testing.T) {
	p, err := New("chrome 20")
	require.NoError(t, err)

	sheet := compile(t, ".a\n  display: inline-flex\n")
	p.Process(sheet)
	assert.Equal(t, []string{
		"display:-webkit-inline-box",
		"display:inline-flex",
	}, flatten(sheet.Nodes[0].(*sass.Rule).Decls))
}

func TestNew_InvalidQuery(t *testing.T) {
	_, err := New("netscape 4")
	assert.Error(t, err)
}

func TestProcess_OldWebkitGradients(t *testing.T) {
	p, err := New("safari 5")
	require.NoError(t, err)

	tests := []struct {
		value string
		want  string
	}{
		{"linear-gradient(to bottom, #fff, #000)", "-webkit-gradient(linear, left top, left bottom, from(#fff), to(#000))"},
		{"linear-gradient(red, blue)", "-webkit-gradient(linear, left top, left bottom, from(red), to(blue))"},
		{"linear-gradient(to right, red, blue)", "-webkit-gradient(linear, left top, right top, from(red), to(blue))"},
		{"linear-gradient(to top left, red, blue)", "-webkit-gradient(linear, right bottom, left top, from(red), to(blue))"},
		{"linear-gradient(90deg, red 0%, blue 50%, green)", "-webkit-gradient(linear, left top, right top, from(red), color-stop(0.5, blue), to(green))"},
		{"linear-gradient(rgba(0, 0, 0, 0.5), red 80%)", "-webkit-gradient(linear, left top, left bottom, from(rgba(0, 0, 0, 0.5)), color-stop(0.8, red))"},
		{"url(a.png), linear-gradient(red, blue)", "url(a.png), -webkit-gradient(linear, left top, left bottom, from(red), to(blue))"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			sheet := compile(t, ".a\n  background-image: "+tt.value+"\n")
			p.Process(sheet)
			decls := sheet.Nodes[0].(*sass.Rule).Decls
			require.Len(t, decls, 2)
			assert.Equal(t, tt.want, decls[0].Value)
			assert.Equal(t, tt.value, decls[1].Value)
		})
	}
}

func TestProcess_OldWebkitGradientsSkipped(t *testing.T) {
	p, err := New("safari 5")
	require.NoError(t, err)

	for _, value := range []string{
		"radial-gradient(red, blue)",
		"linear-gradient(45deg, red, blue)",
		"linear-gradient(red 10px, blue)",
	} {
		t.Run(value, func(t *testing.T) {
			sheet := compile(t, ".a\n  background-image: "+value+"\n")
			p.Process(sheet)
			assert.Equal(t, []string{"background-image:" + value}, flatten(sheet.Nodes[0].(*sass.Rule).Decls))
		})
	}
}

func TestProcess_DefaultBrowsersGradients(t *testing.T) {
	p, err := New(DefaultBrowsers)
	require.NoError(t, err)

	sheet := compile(t, ".a\n  background: linear-gradient(to bottom, #fff, #000)\n")
	p.Process(sheet)
	assert.Equal(t, []string{
		"background:-webkit-gradient(linear, left top, left bottom, from(#fff), to(#000))",
		"background:linear-gradient(to bottom, #fff, #000)",
	}, flatten(sheet.Nodes[0].(*sass.Rule).Decls))
}
