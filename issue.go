package assetpipe

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tdewolff/parse/v2"

	"github.com/yacobolo/assetpipe/internal/sass"
)

// FileError is a failure to compile one source file. Path is relative to the
// project root; Line and Column are 1-based and zero when unknown.
type FileError struct {
	Path   string
	Line   int
	Column int
	Err    error
}

func (e *FileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.message())
	}
	return fmt.Sprintf("%s: %s", e.Path, e.message())
}

func (e *FileError) Unwrap() error { return e.Err }

func (e *FileError) message() string {
	var se *sass.Error
	if errors.As(e.Err, &se) {
		return se.Msg
	}
	var pe *parse.Error
	if errors.As(e.Err, &pe) {
		return pe.Message
	}
	return e.Err.Error()
}

// newFileError positions err when it carries a source location. Sass errors
// may point into an imported partial, in which case Path names the partial.
func newFileError(root, path string, err error) *FileError {
	fe := &FileError{Path: relPath(root, path), Err: err}

	var se *sass.Error
	var pe *parse.Error
	switch {
	case errors.As(err, &se):
		if se.Pos.File != "" {
			fe.Path = relPath(root, se.Pos.File)
		}
		fe.Line, fe.Column = se.Pos.Line, se.Pos.Column
	case errors.As(err, &pe):
		fe.Line, fe.Column = pe.Line, pe.Column
	}
	return fe
}

// Issue is a compile failure in golangci-lint style.
type Issue struct {
	Task        Task     `json:"task"`
	Text        string   `json:"text"`
	Severity    string   `json:"severity"`
	SourceLines []string `json:"source_lines,omitempty"`
	Pos         IssuePos `json:"pos"`
}

// IssuePos specifies the exact location of an issue
type IssuePos struct {
	Filename string `json:"filename,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"` // 1-based
}

// IssueSeverity constants
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issues converts task failures into issues. root resolves file paths when
// loading source lines.
func Issues(task Task, root string, errs []error) []Issue {
	var issues []Issue
	for _, e := range errs {
		issue := Issue{Task: task, Text: e.Error(), Severity: SeverityError}

		var fe *FileError
		if errors.As(e, &fe) {
			issue.Text = fe.message()
			issue.Pos = IssuePos{Filename: fe.Path, Line: fe.Line, Column: fe.Column}
			if line, ok := sourceLine(root, fe.Path, fe.Line); ok {
				issue.SourceLines = []string{line}
			}
		}
		issues = append(issues, issue)
	}
	return issues
}

func sourceLine(root, rel string, n int) (string, bool) {
	if n <= 0 {
		return "", false
	}
	f, err := os.Open(resolvePath(root, rel))
	if err != nil {
		return "", false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for i := 1; sc.Scan(); i++ {
		if i == n {
			return strings.TrimRight(sc.Text(), "\r"), true
		}
	}
	return "", false
}
