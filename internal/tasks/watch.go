package tasks

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/tsbuild/internal/config"
	"git.home.luguber.info/inful/tsbuild/internal/fileset"
	"git.home.luguber.info/inful/tsbuild/internal/logfields"
	"git.home.luguber.info/inful/tsbuild/internal/metrics"
	"git.home.luguber.info/inful/tsbuild/internal/watch"
)

// Trigger sources reported to metrics and logs.
const (
	TriggerFS       = "fs"
	TriggerSchedule = "schedule"
)

// WatchTask re-runs a target task whenever a source file changes. Runs
// never overlap: triggers arriving mid-run collapse into one rerun.
type WatchTask struct {
	globs     fileset.Globs
	target    Task
	watcher   watch.Watcher
	recorder  metrics.Recorder
	logger    *slog.Logger
	coalescer *watch.Coalescer
}

func newWatchTask(cfg config.ResolvedConfig, deps Deps, target Task) *WatchTask {
	w := &WatchTask{
		globs:    fileset.WatchGlobs(cfg.SourcePath),
		target:   target,
		watcher:  deps.Watcher,
		recorder: deps.Recorder,
		logger:   deps.Logger,
	}
	w.coalescer = watch.NewCoalescer(w.rebuild)
	return w
}

func (w *WatchTask) Name() string { return NameWatch }

// Globs returns the watched glob list.
func (w *WatchTask) Globs() fileset.Globs { return w.globs }

// Start registers the target on the watched globs and returns the active
// watch. Stopping the handle ends the watch; a run in flight finishes.
func (w *WatchTask) Start(ctx context.Context) (*watch.Handle, error) {
	h, err := w.watcher.Watch(ctx, w.globs, func() { w.Trigger(ctx, TriggerFS) })
	if err != nil {
		return nil, err
	}
	w.logger.Info("Watching for changes", logfields.Task(w.target.Name()), slog.Any("globs", []string(w.globs)))
	return h, nil
}

// Trigger requests a run of the target.
func (w *WatchTask) Trigger(ctx context.Context, trigger string) {
	w.recorder.IncWatchTrigger(trigger)
	if w.Busy() {
		w.logger.Info("Rebuild queued behind the run in flight", logfields.Trigger(trigger))
	} else {
		w.logger.Debug("Rebuild requested", logfields.Trigger(trigger))
	}
	w.coalescer.Trigger(ctx)
}

// Busy reports whether a triggered run is in flight.
func (w *WatchTask) Busy() bool {
	return w.coalescer.Running()
}

// Wait blocks until no triggered run is in flight or pending.
func (w *WatchTask) Wait() {
	w.coalescer.Wait()
}

// Run watches until ctx is cancelled, then waits for the watch to release
// its resources and for any run in flight to finish.
func (w *WatchTask) Run(ctx context.Context) error {
	h, err := w.Start(ctx)
	if err != nil {
		return err
	}
	<-ctx.Done()
	h.Stop()
	<-h.Done()
	w.Wait()
	w.logger.Info("Watch stopped")
	return nil
}

func (w *WatchTask) rebuild(ctx context.Context) {
	ctx = WithRunID(ctx, uuid.NewString())
	if err := w.target.Run(ctx); err != nil && ctx.Err() == nil {
		w.logger.Warn("Rebuild failed", logfields.Error(err))
	}
}
