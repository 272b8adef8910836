package assetpipe

import (
	"context"
	"fmt"
	"net"
	"path"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yacobolo/assetpipe/internal/livereload"
	"github.com/yacobolo/assetpipe/internal/watch"
)

// ReportFunc receives the outcome of every task run in watch mode.
type ReportFunc func(res *TaskResult, err error)

// Watch serves live reload on cfg.LiveReloadAddr and recompiles a task
// whenever one of its sources changes. Failed runs are reported and watching
// continues; connected browsers are told to reload each written asset.
// Changes that arrive while a task runs trigger exactly one more run.
// Watch returns when ctx is cancelled, after in-flight runs have finished.
func Watch(ctx context.Context, cfg Config, report ReportFunc) error {
	ln, err := net.Listen("tcp", cfg.LiveReloadAddr)
	if err != nil {
		return fmt.Errorf("live reload: %w", err)
	}
	return WatchListener(ctx, cfg, ln, report)
}

// WatchListener is Watch with live reload served on an existing listener.
func WatchListener(ctx context.Context, cfg Config, ln net.Listener, report ReportFunc) error {
	log := cfg.logger()
	if report == nil {
		report = func(*TaskResult, error) {}
	}

	sc, err := newScanner(cfg.Root, cfg.Ignore)
	if err != nil {
		ln.Close()
		return err
	}

	w, err := watch.New(cfg.Root, watch.Options{
		Delay:  cfg.Debounce,
		Logger: log,
		Ignore: sc.watchIgnore,
	})
	if err != nil {
		ln.Close()
		return fmt.Errorf("watch: %w", err)
	}

	lr := livereload.New(log)

	sources := []struct {
		task     Task
		dir      string
		includes []string
	}{
		{TaskStyles, cfg.StyleDir, cfg.StyleIncludes},
		{TaskScripts, cfg.ScriptDir, cfg.ScriptIncludes},
	}

	var runners []*watch.Runner
	for _, s := range sources {
		run := Tasks[s.task]
		r := watch.NewRunner(func(ctx context.Context) {
			res, err := run(ctx, cfg)
			report(res, err)
			if res != nil {
				if assets := res.Assets(); len(assets) > 0 {
					lr.Reload(assets...)
				}
			}
		})
		runners = append(runners, r)

		patterns := make([]string, len(s.includes))
		for i, inc := range s.includes {
			patterns[i] = path.Join(s.dir, inc)
		}
		w.On(patterns, r.Trigger)
		log.Info("watching", zap.String("task", string(s.task)), zap.Strings("patterns", patterns))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return lr.Serve(gctx, ln)
	})
	for _, r := range runners {
		r := r
		g.Go(func() error {
			r.Run(gctx)
			return nil
		})
	}

	if err := w.Start(gctx); err != nil {
		w.Stop()
		cancel()
		_ = g.Wait()
		return fmt.Errorf("watch: %w", err)
	}

	<-gctx.Done()
	w.Stop()
	if err := g.Wait(); err != nil {
		return fmt.Errorf("live reload: %w", err)
	}
	return nil
}
