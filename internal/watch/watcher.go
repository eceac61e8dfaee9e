package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/tsbuild/internal/fileset"
	"git.home.luguber.info/inful/tsbuild/internal/logfields"
)

// DefaultDebounce is the quiet period before a burst of changes triggers.
const DefaultDebounce = 200 * time.Millisecond

// Watcher registers a callback on changes to files matching globs.
type Watcher interface {
	Watch(ctx context.Context, globs fileset.Globs, fn func()) (*Handle, error)
}

// Handle controls a running watch.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func newHandle(cancel context.CancelFunc) *Handle {
	return &Handle{cancel: cancel, done: make(chan struct{})}
}

// NewHandle returns a Handle whose Stop calls stop and whose Done closes
// once finished is closed. Watcher implementations outside this package
// use it to report their lifecycle.
func NewHandle(stop func(), finished <-chan struct{}) *Handle {
	h := newHandle(stop)
	go func() {
		<-finished
		h.finish()
	}()
	return h
}

// Stop ends the watch. It is safe to call more than once.
func (h *Handle) Stop() {
	h.cancel()
}

// Done is closed once the watch has released its resources.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (h *Handle) finish() {
	h.once.Do(func() { close(h.done) })
}

// FSWatcher is a Watcher backed by fsnotify.
type FSWatcher struct {
	Debounce time.Duration
	Logger   *slog.Logger
}

// NewFSWatcher creates an FSWatcher with the default debounce.
func NewFSWatcher() *FSWatcher {
	return &FSWatcher{Debounce: DefaultDebounce}
}

// Watch starts observing the base directories of globs. fn is called after
// the debounce period once any matching file is created, written, removed or
// renamed. Directories created later are picked up automatically.
func (w *FSWatcher) Watch(ctx context.Context, globs fileset.Globs, fn func()) (*Handle, error) {
	matcher, err := fileset.NewMatcher(globs)
	if err != nil {
		return nil, fmt.Errorf("compile watch globs: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	log := w.logger()
	for _, base := range globs.Bases() {
		if err := addDirsRecursive(fsw, base, log); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	delay := w.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}
	deb := newDebouncer(delay, fn)

	ctx, cancel := context.WithCancel(ctx)
	h := newHandle(cancel)
	go func() {
		defer h.finish()
		defer deb.stop()
		defer func() { _ = fsw.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				handleEvent(fsw, ev, matcher, deb, log)
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				log.Warn("watcher error", logfields.Error(err))
			}
		}
	}()
	return h, nil
}

func (w *FSWatcher) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

func handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event, matcher *fileset.Matcher, deb *debouncer, log *slog.Logger) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(fsw, ev.Name, log)
			// Files moved in with the directory produce no events of their own.
			if containsMatch(ev.Name, matcher) {
				log.Debug("Directory with matching files added", logfields.Path(ev.Name))
				deb.trigger()
			}
			return
		}
	}
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return
	}
	ok, err := matcher.Match(filepath.ToSlash(ev.Name))
	if err != nil || !ok {
		return
	}
	log.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	deb.trigger()
}

// addDirsRecursive watches root and every directory below it. A missing
// root is not an error: nothing exists yet to watch.
func addDirsRecursive(w *fsnotify.Watcher, root string, log *slog.Logger) error {
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		log.Warn("watch root does not exist", logfields.Path(root))
		return nil
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (d.Name() == "node_modules" || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			log.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// containsMatch reports whether any file below dir is selected by matcher.
func containsMatch(dir string, matcher *fileset.Matcher) bool {
	found := false
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if ok, _ := matcher.Match(filepath.ToSlash(p)); ok {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

// shouldIgnoreEvent returns true for editor temp files and OS metadata.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
