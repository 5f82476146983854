// Package watch rebuilds a manuscript whenever files under its root change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/manuscript/internal/logfields"
)

// DefaultDebounce is how long the tree must stay quiet before a rebuild.
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc performs one build. Its error is logged; watching continues.
type BuildFunc func(ctx context.Context) error

// Options configures Run.
type Options struct {
	Root string
	// Exclude lists directories whose changes never trigger a build, such as
	// the build's own output directory.
	Exclude  []string
	Debounce time.Duration
	Logger   *slog.Logger
	// OnBuild, when set, is called after every build with its result.
	OnBuild func(err error)
}

// Run builds once, then rebuilds after every burst of changes until ctx is
// done.
func Run(ctx context.Context, opts Options, build BuildFunc) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return fmt.Errorf("resolve watch root: %w", err)
	}
	excluded := make([]string, 0, len(opts.Exclude))
	for _, e := range opts.Exclude {
		if abs, err := filepath.Abs(e); err == nil {
			excluded = append(excluded, abs)
		}
	}

	w := &watcher{root: root, excluded: excluded, logger: opts.Logger}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fw.Close() }()
	w.addDirsRecursive(fw, root)

	rebuildReq, trigger, stop := debouncer(opts.Debounce)
	defer stop()

	runBuild := func() {
		err := build(ctx)
		if err != nil && ctx.Err() == nil {
			opts.Logger.Warn("Rebuild failed", logfields.Error(err))
		}
		if opts.OnBuild != nil {
			opts.OnBuild(err)
		}
	}

	opts.Logger.Info("Watching for changes", logfields.Path(root))
	runBuild()

	for {
		select {
		case <-ctx.Done():
			opts.Logger.Info("Stopped watching")
			return nil
		case <-rebuildReq:
			opts.Logger.Info("Change detected; rebuilding")
			runBuild()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.handle(fw, ev) {
				trigger()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			opts.Logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// debouncer returns a channel that receives once per quiet period following
// one or more trigger calls.
func debouncer(wait time.Duration) (<-chan struct{}, func(), func()) {
	var mu sync.Mutex
	var timer *time.Timer
	req := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(wait, func() {
			select {
			case req <- struct{}{}:
			default:
			}
		})
	}
	stop := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
	return req, trigger, stop
}

type watcher struct {
	root     string
	excluded []string
	logger   *slog.Logger
}

// handle reports whether ev should trigger a rebuild. New directories are
// added to the watch.
func (w *watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event) bool {
	if shouldIgnore(ev.Name) || w.isExcluded(ev.Name) {
		return false
	}
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addDirsRecursive(fw, ev.Name)
		}
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Name), "op", ev.Op.String())
	return true
}

func (w *watcher) isExcluded(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, e := range w.excluded {
		if abs == e || strings.HasPrefix(abs, e+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *watcher) addDirsRecursive(fw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if w.isExcluded(path) || (path != w.root && strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			w.logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnore filters hidden, editor swap and OS metadata files.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}
