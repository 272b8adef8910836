package assetpipe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/assetpipe/internal/sourcemap"
)

func testConfig(root string) Config {
	cfg := DefaultConfig()
	cfg.Root = root
	return cfg
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestCompileStyles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"sass/_vars.sass": "$shadow: 0 1px 2px red\n",
		"sass/main.sass":  "@import \"vars\"\n.card\n  color: red\n  .title\n    box-shadow: $shadow\n",
	})

	res, err := CompileStyles(context.Background(), testConfig(root))
	require.NoError(t, err)

	assert.Equal(t, TaskStyles, res.Task)
	assert.Equal(t, 2, res.FilesScanned)
	assert.Equal(t, 1, res.FilesCompiled)
	assert.Equal(t, 1, res.FilesSkipped)
	assert.Equal(t, []string{"css/main.css", "css/main.css.map"}, res.Outputs)
	assert.Equal(t, []string{"css/main.css"}, res.Assets())
	assert.Empty(t, res.Errors)

	css := readFile(t, root, "css/main.css")
	assert.Contains(t, css, ".card{color:red}")
	assert.Contains(t, css, "-webkit-box-shadow:0 1px 2px red")
	assert.Contains(t, css, "box-shadow:0 1px 2px red")
	assert.Contains(t, css, "\n/*# sourceMappingURL=main.css.map */\n")

	_, err = os.Stat(filepath.Join(root, "css", "_vars.css"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	m, err := sourcemap.Parse([]byte(readFile(t, root, "css/main.css.map")))
	require.NoError(t, err)
	assert.Equal(t, "main.css", m.File)
	assert.Contains(t, m.Sources, "../sass/main.sass")
	assert.Len(t, m.SourcesContent, len(m.Sources))
}

func TestCompileStyles_NestedLayout(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"sass/pages/about.sass": ".about\n  margin: 0\n",
	})

	res, err := CompileStyles(context.Background(), testConfig(root))
	require.NoError(t, err)
	assert.Equal(t, []string{"css/pages/about.css", "css/pages/about.css.map"}, res.Outputs)

	m, err := sourcemap.Parse([]byte(readFile(t, root, "css/pages/about.css.map")))
	require.NoError(t, err)
	assert.Equal(t, []string{"../../sass/pages/about.sass"}, m.Sources)
}

func TestCompileStyles_WithoutSourceMaps(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"sass/main.sass": ".a\n  color: red\n",
	})

	cfg := testConfig(root)
	cfg.SourceMaps = false
	res, err := CompileStyles(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"css/main.css"}, res.Outputs)
	assert.Equal(t, ".a{color:red}\n", readFile(t, root, "css/main.css"))
}

func TestCompileStyles_ErrorsDoNotStopOtherFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"sass/_broken.sass": ".b\n  +nope\n",
		"sass/admin.sass":   "@import \"broken\"\n",
		"sass/main.sass":    ".a\n  color: red\n",
	})

	res, err := CompileStyles(context.Background(), testConfig(root))
	require.Error(t, err)

	assert.Equal(t, 1, res.FilesCompiled)
	assert.Equal(t, 1, res.FilesFailed)
	assert.Equal(t, []string{"css/main.css", "css/main.css.map"}, res.Outputs)
	require.Len(t, res.Errors, 1)

	var fe *FileError
	require.True(t, errors.As(res.Errors[0], &fe))
	assert.Equal(t, "sass/_broken.sass", fe.Path)
	assert.Equal(t, 2, fe.Line)
	assert.Equal(t, 3, fe.Column)
	assert.Equal(t, "sass/_broken.sass:2:3: undefined mixin nope", fe.Error())

	_, statErr := os.Stat(filepath.Join(root, "css", "admin.css"))
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestCompileStyles_Deterministic(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"sass/main.sass": "=rounded($r: 4px)\n  border-radius: $r\n.a\n  +rounded\n  transition: opacity 1s\n",
	})
	cfg := testConfig(root)

	_, err := CompileStyles(context.Background(), cfg)
	require.NoError(t, err)
	first := readFile(t, root, "css/main.css") + readFile(t, root, "css/main.css.map")

	_, err = CompileStyles(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, first, readFile(t, root, "css/main.css")+readFile(t, root, "css/main.css.map"))
}

func TestCompileStyles_MissingSourceDir(t *testing.T) {
	res, err := CompileStyles(context.Background(), testConfig(t.TempDir()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "styles: source directory")
	assert.Len(t, res.Errors, 1)
}

func TestCompileStyles_BadBrowsers(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"sass/main.sass": ".a\n  color: red\n"})

	cfg := testConfig(root)
	cfg.Browsers = "netscape 4"
	_, err := CompileStyles(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "browsers")
}

func TestCompileStyles_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := CompileStyles(ctx, testConfig(t.TempDir()))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.FilesCompiled)
}
