package assetpipe

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// OutputFormat selects how task results are reported.
type OutputFormat string

const (
	OutputIssues  OutputFormat = "issues"
	OutputSummary OutputFormat = "summary"
	OutputJSON    OutputFormat = "json"
)

// DetermineOutputFormat selects the output format from the flag value.
// Unknown values fall back to the default.
func DetermineOutputFormat(formatFlag string, quiet bool) OutputFormat {
	// Explicit -quiet flag wins (exit code only)
	if quiet {
		return OutputIssues
	}

	switch formatFlag {
	case "summary":
		return OutputSummary
	case "json":
		return OutputJSON
	default:
		return OutputIssues
	}
}

// ReportOptions configures a Reporter.
type ReportOptions struct {
	UseColors  bool
	PrintLines bool // Show source lines with issues
}

// Reporter prints task results in golangci-lint style.
type Reporter struct {
	w          io.Writer
	useColors  bool
	printLines bool
}

// NewReporter creates a new reporter writing to w.
func NewReporter(w io.Writer, opts ReportOptions) *Reporter {
	return &Reporter{
		w:          w,
		useColors:  opts.UseColors,
		printLines: opts.PrintLines,
	}
}

// UseColors returns whether colors are enabled
func (r *Reporter) UseColors() bool {
	return r.useColors
}

// PrintIssues outputs issues sorted by file, line and column.
func (r *Reporter) PrintIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Pos.Filename != issues[j].Pos.Filename {
			return issues[i].Pos.Filename < issues[j].Pos.Filename
		}
		if issues[i].Pos.Line != issues[j].Pos.Line {
			return issues[i].Pos.Line < issues[j].Pos.Line
		}
		return issues[i].Pos.Column < issues[j].Pos.Column
	})

	for _, issue := range issues {
		r.printIssue(issue)
	}
}

// printIssue formats a single issue: file:line:col: message (task)
func (r *Reporter) printIssue(issue Issue) {
	location := issue.Pos.Filename
	if issue.Pos.Line > 0 {
		location = fmt.Sprintf("%s:%d:%d", issue.Pos.Filename, issue.Pos.Line, issue.Pos.Column)
	}

	taskSuffix := fmt.Sprintf(" (%s)", issue.Task)
	if location == "" {
		fmt.Fprintf(r.w, "%s%s\n", issue.Text, RenderStyle(StyleGray, taskSuffix, r.useColors))
		return
	}

	fmt.Fprintf(r.w, "%s %s%s\n",
		RenderStyle(StyleCyan, location+":", r.useColors),
		issue.Text,
		RenderStyle(StyleGray, taskSuffix, r.useColors))

	if r.printLines && len(issue.SourceLines) > 0 {
		for _, line := range issue.SourceLines {
			fmt.Fprintf(r.w, "\t%s\n", line)
		}
		caret := buildCaretIndicator(issue.SourceLines[0], issue.Pos.Column)
		fmt.Fprintf(r.w, "\t%s\n", RenderStyle(StyleYellow, caret, r.useColors))
	}
}

// buildCaretIndicator creates the "^" indicator aligned with the column.
// Tabs in the prefix are kept so the caret lines up under the source.
func buildCaretIndicator(sourceLine string, column int) string {
	if column <= 0 {
		return "^"
	}

	prefixLen := min(column-1, len(sourceLine))
	var padding strings.Builder
	for _, ch := range sourceLine[:prefixLen] {
		if ch == '\t' {
			padding.WriteRune('\t')
		} else {
			padding.WriteRune(' ')
		}
	}
	return padding.String() + "^"
}

// PrintResult outputs the issues of one task run followed by its status line.
func (r *Reporter) PrintResult(res *TaskResult, issues []Issue) {
	r.PrintIssues(issues)

	if res == nil {
		return
	}
	name := string(res.Task)
	if len(issues) > 0 {
		fmt.Fprintf(r.w, "%s %s: %s, %s\n",
			RenderStyle(StyleRed, "✗", r.useColors),
			name,
			pluralizeCount(len(issues), "issue", "issues"),
			pluralizeCount(res.FilesCompiled, "file compiled", "files compiled"))
		return
	}
	fmt.Fprintf(r.w, "%s %s: %s in %s\n",
		RenderStyle(StyleGreen, "✓", r.useColors),
		name,
		pluralizeCount(res.FilesCompiled, "file compiled", "files compiled"),
		res.Duration.Round(time.Millisecond))
}

// PrintStatistics outputs the per-task counters as a table.
func (r *Reporter) PrintStatistics(results []*TaskResult) {
	fmt.Fprintln(r.w, "")
	fmt.Fprintln(r.w, RenderStyle(StyleCyan, "Build Statistics", r.useColors))
	fmt.Fprintln(r.w, "----------------")
	fmt.Fprintf(r.w, "%-8s %8s %8s %8s %8s %8s\n", "task", "scanned", "compiled", "skipped", "failed", "outputs")
	for _, res := range results {
		if res == nil {
			continue
		}
		fmt.Fprintf(r.w, "%-8s %8d %8d %8d %8d %8d\n",
			res.Task, res.FilesScanned, res.FilesCompiled, res.FilesSkipped, res.FilesFailed, len(res.Outputs))
	}
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, out := range res.Outputs {
			fmt.Fprintf(r.w, "  %s\n", RenderStyle(StyleGray, out, r.useColors))
		}
	}
}

// pluralizeCount returns a formatted string with count and singular/plural form
func pluralizeCount(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

// WriteOutput reports the results of a one-shot build in the given format.
func WriteOutput(w io.Writer, root string, results []*TaskResult, format OutputFormat, opts ReportOptions) error {
	if format == OutputJSON {
		return WriteJSON(w, root, results)
	}

	reporter := NewReporter(w, opts)
	for _, res := range results {
		if res == nil {
			continue
		}
		reporter.PrintResult(res, Issues(res.Task, root, res.Errors))
	}
	if format == OutputSummary {
		reporter.PrintStatistics(results)
	}
	return nil
}
