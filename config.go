package assetpipe

import (
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yacobolo/assetpipe/internal/livereload"
	"github.com/yacobolo/assetpipe/internal/prefix"
	"github.com/yacobolo/assetpipe/internal/watch"
)

// Task names a build task.
type Task string

const (
	TaskStyles  Task = "styles"
	TaskScripts Task = "scripts"
)

// Config holds the build configuration. Directories are relative to Root
// and patterns are relative to their source directory.
type Config struct {
	Root string

	StyleDir      string   // "sass"
	StyleIncludes []string // "**/*.sass"
	StyleOutput   string   // "css"
	Browsers      string   // prefixing targets, browserslist syntax
	LoadPaths     []string // extra import directories

	ScriptDir      string   // "js"
	ScriptIncludes []string // "*.js"
	ScriptOutput   string   // "js/min"

	SourceMaps bool

	LiveReloadAddr string
	Debounce       time.Duration

	// Ignore holds gitignore-style patterns matched against root-relative
	// paths, in addition to the root .gitignore.
	Ignore []string

	Logger *zap.Logger
}

// DefaultConfig returns the conventional project layout.
func DefaultConfig() Config {
	return Config{
		Root:           ".",
		StyleDir:       "sass",
		StyleIncludes:  []string{"**/*.sass"},
		StyleOutput:    "css",
		Browsers:       prefix.DefaultBrowsers,
		ScriptDir:      "js",
		ScriptIncludes: []string{"*.js"},
		ScriptOutput:   "js/min",
		SourceMaps:     true,
		LiveReloadAddr: livereload.DefaultAddr,
		Debounce:       watch.DefaultDelay,
	}
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// TaskResult summarizes one run of a task.
type TaskResult struct {
	Task          Task
	FilesScanned  int // sources matched by the include patterns
	FilesCompiled int
	FilesSkipped  int // partials and ignored files
	FilesFailed   int
	// Outputs lists written files relative to Root, slash separated.
	Outputs []string
	// Errors holds one entry per failure, usually a *FileError.
	Errors   []error
	Duration time.Duration
}

func (r *TaskResult) done(start time.Time, err error) (*TaskResult, error) {
	r.Duration = time.Since(start)
	r.Errors = multierr.Errors(err)
	return r, err
}

// Assets returns the outputs browsers load, leaving out source maps.
func (r *TaskResult) Assets() []string {
	var out []string
	for _, o := range r.Outputs {
		if !isSourceMap(o) {
			out = append(out, o)
		}
	}
	return out
}
