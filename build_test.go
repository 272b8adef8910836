package assetpipe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestBuild(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"sass/main.sass": ".a\n  color: red\n",
		"js/app.js":      "function hi() { return 1; }\n",
	})

	results, err := Build(context.Background(), testConfig(root))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, TaskStyles, results[0].Task)
	assert.Equal(t, TaskScripts, results[1].Task)
	assert.Equal(t, 1, results[0].FilesCompiled)
	assert.Equal(t, 1, results[1].FilesCompiled)
}

func TestBuild_CombinesErrors(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"sass/main.sass": ".a\n  +nope\n",
		"sass/ok.sass":   ".a\n  color: red\n",
		"js/app.js":      "var = ;\n",
	})

	results, err := Build(context.Background(), testConfig(root))
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)

	// a failing task does not stop the other files or tasks
	assert.Equal(t, 1, results[0].FilesCompiled)
	assert.Len(t, results[0].Errors, 1)
	assert.Len(t, results[1].Errors, 1)
}

func TestBuild_MissingScriptDir(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"sass/main.sass": ".a\n  color: red\n"})

	results, err := Build(context.Background(), testConfig(root))
	require.Error(t, err)
	assert.Empty(t, results[0].Errors)
	assert.Equal(t, []string{"css/main.css", "css/main.css.map"}, results[0].Outputs)
	assert.Len(t, results[1].Errors, 1)
}
