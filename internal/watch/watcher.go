// Package watch turns filesystem events into debounced task triggers.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDelay is how long a burst of events must be quiet before a rule
// fires.
const DefaultDelay = 100 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Delay  time.Duration
	Logger *zap.Logger
	// Ignore reports whether a root-relative, slash-separated path should
	// be skipped. Ignored directories are not watched.
	Ignore func(rel string, isDir bool) bool
}

type rule struct {
	patterns []string
	fire     func()
	debounce func(func())
}

// Watcher watches the directories that glob patterns can match below a root
// and fires the registered callback when a matching file changes.
type Watcher struct {
	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	root    string
	opts    Options
	log     *zap.Logger
	rules   []*rule
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// New creates a watcher rooted at root.
func New(root string, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Ignore == nil {
		opts.Ignore = func(string, bool) bool { return false }
	}
	return &Watcher{
		fsw:    fsw,
		root:   root,
		opts:   opts,
		log:    opts.Logger.Named("watch"),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

// On registers fire for changes to files matching any of patterns. Bursts of
// events are debounced into a single call. On must be called before Start.
func (w *Watcher) On(patterns []string, fire func()) {
	w.rules = append(w.rules, &rule{
		patterns: patterns,
		fire:     fire,
		debounce: debounce.New(w.opts.Delay),
	})
}

// Start adds the watched directories and begins delivering events in the
// background.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, r := range w.rules {
		for _, p := range r.patterns {
			base, _ := doublestar.SplitPattern(p)
			if err := w.addTree(filepath.Join(w.root, filepath.FromSlash(base))); err != nil {
				w.mu.Lock()
				w.running = false
				w.mu.Unlock()
				return err
			}
		}
	}

	go w.run(ctx)
	return nil
}

// Stop stops event delivery and releases the underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.fsw.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.fsw.Close(); err != nil {
		w.log.Error("close watcher", zap.Error(err))
	}
}

// addTree watches dir and every directory below it.
func (w *Watcher) addTree(dir string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.rel(path); ok && rel != "." && w.opts.Ignore(rel, true) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return err
		}
		w.log.Debug("watching", zap.String("dir", path))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		w.log.Warn("watch directory does not exist", zap.String("dir", dir))
		return nil
	}
	return err
}

func (w *Watcher) rel(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.log.Warn("watch new directory", zap.String("dir", event.Name), zap.Error(err))
			}
			return
		}
	}

	rel, ok := w.rel(event.Name)
	if !ok || w.opts.Ignore(rel, false) {
		return
	}
	for _, r := range w.rules {
		if matchAny(r.patterns, rel) {
			w.log.Debug("change", zap.String("path", rel), zap.Stringer("op", event.Op))
			r.debounce(r.fire)
		}
	}
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
