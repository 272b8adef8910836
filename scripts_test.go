package assetpipe

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/assetpipe/internal/sourcemap"
)

const appJS = `// toggles the menu
function toggleMenu(menu) {
  var open = menu.classList.contains("open");
  if (open) {
    menu.classList.remove("open");
  } else {
    menu.classList.add("open");
  }
  return !open;
}
`

func TestCompileScripts(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"js/app.js":         appJS,
		"js/vendor.min.js":  "var a=1;",
		"js/lib/helpers.js": "var b = 2;\n",
	})

	res, err := CompileScripts(context.Background(), testConfig(root))
	require.NoError(t, err)

	assert.Equal(t, TaskScripts, res.Task)
	assert.Equal(t, 2, res.FilesScanned)
	assert.Equal(t, 1, res.FilesCompiled)
	assert.Equal(t, 1, res.FilesSkipped)
	assert.Equal(t, []string{"js/min/app.min.js", "js/min/app.min.js.map"}, res.Outputs)
	assert.Equal(t, []string{"js/min/app.min.js"}, res.Assets())

	out := readFile(t, root, "js/min/app.min.js")
	assert.True(t, strings.HasPrefix(out, "function toggleMenu("), out)
	assert.NotContains(t, out, "toggles the menu")
	assert.NotContains(t, out, "\n  ")
	assert.True(t, strings.HasSuffix(out, "\n//# sourceMappingURL=app.min.js.map\n"), out)

	m, err := sourcemap.Parse([]byte(readFile(t, root, "js/min/app.min.js.map")))
	require.NoError(t, err)
	assert.Equal(t, "app.min.js", m.File)
	assert.Equal(t, []string{"../app.js"}, m.Sources)
	assert.Equal(t, []string{appJS}, m.SourcesContent)
	assert.NotEmpty(t, m.Mappings)
}

func TestCompileScripts_MappingsPointIntoSource(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"js/app.js": appJS})

	_, err := CompileScripts(context.Background(), testConfig(root))
	require.NoError(t, err)
	assert.Equal(t, appJS, readFile(t, root, "js/app.js"))

	out := strings.Split(readFile(t, root, "js/min/app.min.js"), "\n")
	src := strings.Split(appJS, "\n")
	m, err := sourcemap.Parse([]byte(readFile(t, root, "js/min/app.min.js.map")))
	require.NoError(t, err)
	mappings, err := sourcemap.Decode(m.Mappings)
	require.NoError(t, err)
	require.NotEmpty(t, mappings)

	assert.Equal(t, sourcemap.Mapping{GenLine: 0, GenCol: 0, SrcLine: 1, SrcCol: 0}, mappings[0])
	for _, mp := range mappings {
		gen := out[mp.GenLine][mp.GenCol:]
		orig := src[mp.SrcLine][mp.SrcCol:]
		assert.Equal(t, gen[:1], orig[:1], "mapping %+v", mp)
	}
}

func TestCompileScripts_WithoutSourceMaps(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"js/app.js": appJS})

	cfg := testConfig(root)
	cfg.SourceMaps = false
	res, err := CompileScripts(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"js/min/app.min.js"}, res.Outputs)
	out := readFile(t, root, "js/min/app.min.js")
	assert.NotContains(t, out, "sourceMappingURL")
	assert.True(t, strings.HasSuffix(out, "}\n"), out)
}

func TestCompileScripts_SyntaxError(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"js/app.js":    appJS,
		"js/broken.js": "var ok = 1;\nvar = ;\n",
	})

	res, err := CompileScripts(context.Background(), testConfig(root))
	require.Error(t, err)
	assert.Equal(t, 1, res.FilesCompiled)
	assert.Equal(t, 1, res.FilesFailed)
	require.Len(t, res.Errors, 1)

	var fe *FileError
	require.True(t, errors.As(res.Errors[0], &fe))
	assert.Equal(t, "js/broken.js", fe.Path)
	assert.Equal(t, 2, fe.Line)
	assert.Positive(t, fe.Column)
}

func TestIsMinified(t *testing.T) {
	assert.True(t, isMinified("vendor.min.js"))
	assert.False(t, isMinified("app.js"))
	assert.False(t, isMinified("admin.js"))
}
