package assetpipe

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// ScanStats tracks source discovery for one task.
type ScanStats struct {
	FilesDiscovered int // Files matched by the include patterns
	FilesScanned    int // Files kept for compilation
	FilesSkipped    int // Partials and ignored files
}

// scanner finds source files below a project root.
//
// Two-layer filtering:
// 1. Task check: partials are never compiled on their own
// 2. Ignore check: the root .gitignore plus configured patterns
type scanner struct {
	root   string
	ignore *ignore.GitIgnore
}

// newScanner loads the root .gitignore if present and adds extra patterns.
func newScanner(root string, extra []string) (*scanner, error) {
	gitignore := filepath.Join(root, ".gitignore")

	var gi *ignore.GitIgnore
	if _, err := os.Stat(gitignore); err == nil {
		gi, err = ignore.CompileIgnoreFileAndLines(gitignore, extra...)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", gitignore, err)
		}
	} else if len(extra) > 0 {
		gi = ignore.CompileIgnoreLines(extra...)
	}
	return &scanner{root: root, ignore: gi}, nil
}

// ignored reports whether a root-relative, slash-separated path is excluded.
// Directory paths must end with a slash.
func (s *scanner) ignored(rel string) bool {
	return s.ignore != nil && s.ignore.MatchesPath(rel)
}

// watchIgnore adapts ignored to the watcher callback.
func (s *scanner) watchIgnore(rel string, isDir bool) bool {
	if isDir {
		rel += "/"
	}
	return s.ignored(rel)
}

// expand returns the files below dir matching includes, relative to dir,
// slash separated and sorted. skip drops files that match but are not
// compiled on their own.
func (s *scanner) expand(dir string, includes []string, skip func(name string) bool) ([]string, ScanStats, error) {
	var stats ScanStats

	abs := filepath.Join(s.root, dir)
	info, err := os.Stat(abs)
	if err != nil {
		return nil, stats, fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, stats, fmt.Errorf("source directory %s is not a directory", abs)
	}

	fsys := os.DirFS(abs)
	seen := make(map[string]bool)
	var files []string

	for _, pattern := range includes {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, stats, fmt.Errorf("glob pattern %q: %w", pattern, err)
		}

		for _, match := range matches {
			if seen[match] {
				continue
			}
			seen[match] = true
			stats.FilesDiscovered++

			if (skip != nil && skip(match)) || s.ignored(path.Join(filepath.ToSlash(dir), match)) {
				stats.FilesSkipped++
				continue
			}
			files = append(files, match)
			stats.FilesScanned++
		}
	}

	sort.Strings(files)
	return files, stats, nil
}

// isPartial reports whether a style source is a partial, meant only for import.
func isPartial(name string) bool {
	return strings.HasPrefix(path.Base(name), "_")
}

func isSourceMap(name string) bool {
	return strings.HasSuffix(name, ".map")
}

// relPath returns target relative to base in slash form, or target itself
// when no relative path exists.
func relPath(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}

func resolvePath(root, rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(root, filepath.FromSlash(rel))
}
