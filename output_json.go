package assetpipe

import (
	"io"
	"time"

	"github.com/goccy/go-json"
)

// JSONOutput represents the structured JSON export schema
type JSONOutput struct {
	Version   string      `json:"version"`
	Timestamp string      `json:"timestamp"`
	Summary   JSONSummary `json:"summary"`
	Tasks     []JSONTask  `json:"tasks"`
}

// JSONSummary contains totals over all tasks
type JSONSummary struct {
	FilesCompiled int  `json:"files_compiled"`
	FilesFailed   int  `json:"files_failed"`
	Outputs       int  `json:"outputs"`
	OK            bool `json:"ok"`
}

// JSONTask is the result of one task
type JSONTask struct {
	Task          string   `json:"task"`
	FilesScanned  int      `json:"files_scanned"`
	FilesCompiled int      `json:"files_compiled"`
	FilesSkipped  int      `json:"files_skipped"`
	FilesFailed   int      `json:"files_failed"`
	Outputs       []string `json:"outputs"`
	DurationMS    int64    `json:"duration_ms"`
	Issues        []Issue  `json:"issues"`
}

// WriteJSON writes the build results as JSON
func WriteJSON(w io.Writer, root string, results []*TaskResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildJSONOutput(root, results))
}

func buildJSONOutput(root string, results []*TaskResult) JSONOutput {
	out := JSONOutput{
		Version:   "1.0",
		Timestamp: time.Now().Format(time.RFC3339),
		Summary:   JSONSummary{OK: true},
		Tasks:     []JSONTask{},
	}

	for _, res := range results {
		if res == nil {
			continue
		}
		issues := Issues(res.Task, root, res.Errors)
		if issues == nil {
			issues = []Issue{}
		}
		outputs := res.Outputs
		if outputs == nil {
			outputs = []string{}
		}

		out.Tasks = append(out.Tasks, JSONTask{
			Task:          string(res.Task),
			FilesScanned:  res.FilesScanned,
			FilesCompiled: res.FilesCompiled,
			FilesSkipped:  res.FilesSkipped,
			FilesFailed:   res.FilesFailed,
			Outputs:       outputs,
			DurationMS:    res.Duration.Milliseconds(),
			Issues:        issues,
		})

		out.Summary.FilesCompiled += res.FilesCompiled
		out.Summary.FilesFailed += res.FilesFailed
		out.Summary.Outputs += len(res.Outputs)
		if len(res.Errors) > 0 {
			out.Summary.OK = false
		}
	}
	return out
}
