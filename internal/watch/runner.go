package watch

import "context"

// Runner runs one task on its own goroutine. A task is never run twice at
// once; triggers that arrive while it runs collapse into one more run.
type Runner struct {
	task    func(context.Context)
	pending chan struct{}
}

// NewRunner wraps task.
func NewRunner(task func(context.Context)) *Runner {
	return &Runner{task: task, pending: make(chan struct{}, 1)}
}

// Trigger schedules a run. It never blocks.
func (r *Runner) Trigger() {
	select {
	case r.pending <- struct{}{}:
	default:
	}
}

// Run executes scheduled runs until ctx is cancelled. A run in progress
// when ctx is cancelled is allowed to finish.
func (r *Runner) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.pending:
			if ctx.Err() != nil {
				return
			}
			r.task(ctx)
		}
	}
}
