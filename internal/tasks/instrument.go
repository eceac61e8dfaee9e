package tasks

import (
	"context"
	"errors"
	"time"

	"git.home.luguber.info/inful/tsbuild/internal/events"
	"git.home.luguber.info/inful/tsbuild/internal/logfields"
	"git.home.luguber.info/inful/tsbuild/internal/metrics"
	"git.home.luguber.info/inful/tsbuild/internal/state"
)

// stepFunc does a task's work and reports how many files it processed.
type stepFunc func(ctx context.Context) (int, error)

// instrumented wraps a step with logging, metrics, lifecycle events and run
// bookkeeping.
type instrumented struct {
	name string
	deps Deps
	step stepFunc
}

func (t *instrumented) Name() string { return t.name }

func (t *instrumented) Run(ctx context.Context) error {
	ctx, runID := ensureRunID(ctx)
	log := t.deps.Logger.With(logfields.Task(t.name), logfields.RunID(runID))

	started := time.Now()
	log.Info("Starting task")
	t.publish(ctx, events.Event{RunID: runID, Task: t.name, Type: events.TypeStarted, Timestamp: started})

	files, err := t.step(ctx)

	finished := time.Now()
	elapsed := finished.Sub(started)
	outcome, result, evType := state.OutcomeSuccess, metrics.ResultSuccess, events.TypeSucceeded
	if err != nil {
		outcome, result, evType = state.OutcomeFailed, metrics.ResultFailed, events.TypeFailed
		if errors.Is(err, context.Canceled) {
			outcome, result = state.OutcomeCanceled, metrics.ResultCanceled
		}
	}

	t.deps.Recorder.ObserveTaskDuration(t.name, elapsed)
	t.deps.Recorder.IncTaskResult(t.name, result)
	t.deps.Recorder.AddFilesProcessed(t.name, files)

	run := state.Run{
		RunID:    runID,
		Task:     t.name,
		Started:  started,
		Finished: finished,
		Outcome:  outcome,
		Files:    files,
	}
	ev := events.Event{
		RunID:      runID,
		Task:       t.name,
		Type:       evType,
		Timestamp:  finished,
		DurationMS: elapsed.Milliseconds(),
		Files:      files,
	}
	if err != nil {
		run.Error = err.Error()
		ev.Error = err.Error()
	}
	// Bookkeeping must survive a cancelled run context.
	bookCtx := context.WithoutCancel(ctx)
	if recErr := t.deps.Store.RecordRun(bookCtx, run); recErr != nil {
		log.Warn("Failed to record task run", logfields.Error(recErr))
	}
	t.publish(bookCtx, ev)

	attrs := []any{logfields.Files(files), logfields.DurationMS(float64(elapsed.Microseconds()) / 1000)}
	if err != nil {
		log.Error("Task failed", append(attrs, logfields.Error(err))...)
		return err
	}
	log.Info("Task finished", attrs...)
	return nil
}

func (t *instrumented) publish(ctx context.Context, ev events.Event) {
	if err := t.deps.Publisher.Publish(ctx, ev); err != nil {
		t.deps.Logger.Warn("Failed to publish task event",
			logfields.Task(ev.Task),
			logfields.RunID(ev.RunID),
			logfields.Error(err))
	}
}
