package assetpipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files below root from slash-separated paths.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func TestScanner_Expand(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":              "vendor/\n",
		"sass/main.sass":          "",
		"sass/_vars.sass":         "",
		"sass/pages/about.sass":   "",
		"sass/pages/_mixins.sass": "",
		"sass/vendor/grid.sass":   "",
		"sass/notes.md":           "",
	})

	sc, err := newScanner(root, nil)
	require.NoError(t, err)

	files, stats, err := sc.expand("sass", []string{"**/*.sass"}, isPartial)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.sass", "pages/about.sass"}, files)
	assert.Equal(t, ScanStats{FilesDiscovered: 5, FilesScanned: 2, FilesSkipped: 3}, stats)
}

func TestScanner_ExpandOverlappingPatterns(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"js/app.js":     "",
		"js/menu.js":    "",
		"js/lib/old.js": "",
	})

	sc, err := newScanner(root, nil)
	require.NoError(t, err)

	files, stats, err := sc.expand("js", []string{"*.js", "app.js"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.js", "menu.js"}, files)
	assert.Equal(t, 2, stats.FilesDiscovered)
}

func TestScanner_ExtraIgnorePatterns(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"js/app.js":   "",
		"js/draft.js": "",
	})

	sc, err := newScanner(root, []string{"js/draft.js"})
	require.NoError(t, err)

	files, stats, err := sc.expand("js", []string{"*.js"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.js"}, files)
	assert.Equal(t, 1, stats.FilesSkipped)
}

func TestScanner_MissingDirectory(t *testing.T) {
	sc, err := newScanner(t.TempDir(), nil)
	require.NoError(t, err)

	_, _, err = sc.expand("sass", []string{"**/*.sass"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScanner_WatchIgnore(t *testing.T) {
	sc, err := newScanner(t.TempDir(), []string{"node_modules/", "*.tmp"})
	require.NoError(t, err)

	tests := []struct {
		rel   string
		isDir bool
		want  bool
	}{
		{"node_modules", true, true},
		{"sass/main.sass", false, false},
		{"sass/main.sass.tmp", false, true},
		{"sass", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, sc.watchIgnore(tt.rel, tt.isDir))
		})
	}
}

func TestIsPartial(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"main.sass", false},
		{"_vars.sass", true},
		{"pages/_mixins.sass", true},
		{"_pages/home.sass", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isPartial(tt.name))
		})
	}
}

func TestRelPath(t *testing.T) {
	base := filepath.Join("project", "css")
	assert.Equal(t, "../sass/main.sass", relPath(base, filepath.Join("project", "sass", "main.sass")))
	assert.Equal(t, "main.css", relPath(base, filepath.Join(base, "main.css")))
}
