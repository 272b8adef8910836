package assetpipe

import (
	"context"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// TaskFunc runs one build task.
type TaskFunc func(ctx context.Context, cfg Config) (*TaskResult, error)

// Tasks maps task names to their implementation.
var Tasks = map[Task]TaskFunc{
	TaskStyles:  CompileStyles,
	TaskScripts: CompileScripts,
}

// Build runs the styles and scripts tasks concurrently. Both always run to
// completion; their errors are combined. Results are in task order.
func Build(ctx context.Context, cfg Config) ([]*TaskResult, error) {
	order := []Task{TaskStyles, TaskScripts}
	results := make([]*TaskResult, len(order))
	errs := make([]error, len(order))

	var g errgroup.Group
	for i, task := range order {
		i, task := i, task
		g.Go(func() error {
			results[i], errs[i] = Tasks[task](ctx, cfg)
			return nil
		})
	}
	_ = g.Wait()

	return results, multierr.Combine(errs...)
}
