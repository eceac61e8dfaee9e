package tasks

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/tsbuild/internal/events"
	"git.home.luguber.info/inful/tsbuild/internal/fileset"
	ferrors "git.home.luguber.info/inful/tsbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/tsbuild/internal/metrics"
	"git.home.luguber.info/inful/tsbuild/internal/state"
	"git.home.luguber.info/inful/tsbuild/internal/toolchain"
	"git.home.luguber.info/inful/tsbuild/internal/watch"
)

// Selector picks the files a task works on.
type Selector interface {
	Select(ctx context.Context, globs fileset.Globs, since time.Time) ([]fileset.File, error)
}

// Deps are the collaborators the tasks delegate to. Compiler, Linter and
// Deleter are required; Transformer is required in production mode. The
// rest default to local, in-memory or no-op implementations.
type Deps struct {
	Compiler    toolchain.Compiler
	Linter      toolchain.Linter
	Transformer toolchain.Transformer
	Deleter     toolchain.Deleter
	Watcher     watch.Watcher

	Selector  Selector
	Store     state.Store
	Recorder  metrics.Recorder
	Publisher events.Publisher
	Logger    *slog.Logger
}

func (d Deps) withDefaults(production bool) (Deps, error) {
	missing := func(name string) error {
		return ferrors.ValidationError("missing collaborator: "+name).
			WithContext("collaborator", name).
			Build()
	}
	switch {
	case d.Compiler == nil:
		return d, missing("compiler")
	case d.Linter == nil:
		return d, missing("linter")
	case d.Deleter == nil:
		return d, missing("deleter")
	case production && d.Transformer == nil:
		return d, missing("transformer")
	}
	if d.Watcher == nil {
		d.Watcher = watch.NewFSWatcher()
	}
	if d.Selector == nil {
		d.Selector = fileset.NewSelector()
	}
	if d.Store == nil {
		d.Store = state.NewMemoryStore()
	}
	if d.Recorder == nil {
		d.Recorder = metrics.NoopRecorder{}
	}
	if d.Publisher == nil {
		d.Publisher = events.NoopPublisher{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d, nil
}
