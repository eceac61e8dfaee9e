package tasks

import (
	"context"
	"strings"
	"time"

	"git.home.luguber.info/inful/tsbuild/internal/config"
	"git.home.luguber.info/inful/tsbuild/internal/fileset"
	ferrors "git.home.luguber.info/inful/tsbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/tsbuild/internal/logfields"
	"git.home.luguber.info/inful/tsbuild/internal/toolchain"
)

// Task names.
const (
	NameClean   = "clean"
	NameCopy    = "copy"
	NameLint    = "lint"
	NameCompile = "compile"
	NameWatch   = "watch"
	NameDefault = "default"
)

// Option customizes the task set.
type Option func(*factory)

// WithCleanGlobs replaces the output path as the target of clean.
func WithCleanGlobs(globs ...string) Option {
	return func(f *factory) { f.cleanGlobs = globs }
}

type factory struct {
	cfg        config.ResolvedConfig
	deps       Deps
	cleanGlobs []string
}

// Builder resolves opts and builds the task set from the result. A nil
// resolver uses the process environment for the production default.
// Nothing is built when resolution fails.
func Builder(opts config.Options, resolver *config.Resolver, deps Deps, options ...Option) (*Set, error) {
	if resolver == nil {
		resolver = config.NewResolver()
	}
	cfg, err := resolver.Resolve(opts)
	if err != nil {
		return nil, err
	}
	return New(cfg, deps, options...)
}

// New builds the task set for cfg.
func New(cfg config.ResolvedConfig, deps Deps, options ...Option) (*Set, error) {
	deps, err := deps.withDefaults(cfg.IsProductionMode)
	if err != nil {
		return nil, err
	}
	f := &factory{cfg: cfg, deps: deps, cleanGlobs: []string{cfg.OutputPath}}
	for _, opt := range options {
		opt(f)
	}

	s := &Set{
		Config:     cfg,
		cleanGlobs: f.cleanGlobs,
		Clean:      f.task(NameClean, f.clean),
		Copy:       f.task(NameCopy, f.copy),
		Lint:       f.task(NameLint, f.lint),
		Compile:    f.task(NameCompile, f.compile),
	}
	pipeline := Series(NameDefault, s.Clean, s.Lint, Parallel("copy+compile", s.Copy, s.Compile))
	s.Default = f.task(NameDefault, func(ctx context.Context) (int, error) {
		return 0, pipeline.Run(ctx)
	})
	s.Watch = newWatchTask(cfg, deps, s.Default)
	return s, nil
}

func (f *factory) task(name string, step stepFunc) Task {
	return &instrumented{name: name, deps: f.deps, step: step}
}

// since returns the reference time for an incremental selection. A zero
// time selects everything.
func (f *factory) since(ctx context.Context, task string) time.Time {
	if !f.cfg.Incremental {
		return time.Time{}
	}
	last, ok, err := f.deps.Store.LastRun(ctx, task)
	if err != nil {
		f.deps.Logger.Warn("Failed to read last run; selecting all files",
			logfields.Task(task), logfields.Error(err))
		return time.Time{}
	}
	if !ok {
		return time.Time{}
	}
	return last
}

func (f *factory) selectFiles(ctx context.Context, task string, globs fileset.Globs) ([]fileset.File, error) {
	files, err := f.deps.Selector.Select(ctx, globs, f.since(ctx, task))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "select files").
			WithContext("task", task).
			Build()
	}
	return files, nil
}

func (f *factory) write(ctx context.Context, files []fileset.File) error {
	if err := fileset.Write(ctx, f.cfg.OutputPath, files); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write output").
			WithContext("path", f.cfg.OutputPath).
			Build()
	}
	return nil
}

func (f *factory) clean(ctx context.Context) (int, error) {
	if len(f.cleanGlobs) == 0 {
		return 0, ferrors.ConfigError("clean requires at least one path").Build()
	}
	for _, g := range f.cleanGlobs {
		if strings.TrimSpace(g) == "" || strings.TrimSpace(strings.TrimPrefix(g, "!")) == "" {
			return 0, ferrors.ConfigError("clean path must not be empty").
				WithContext("globs", f.cleanGlobs).
				Build()
		}
	}
	deleted, err := f.deps.Deleter.Delete(ctx, f.cleanGlobs)
	if err != nil {
		return len(deleted), err
	}
	// Output is gone, so the next copy and compile must start from scratch.
	if err := f.deps.Store.Reset(context.WithoutCancel(ctx), NameCopy, NameCompile); err != nil {
		f.deps.Logger.Warn("Failed to reset incremental state", logfields.Error(err))
	}
	for _, p := range deleted {
		f.deps.Logger.Debug("Deleted", logfields.Path(p))
	}
	return len(deleted), nil
}

func (f *factory) copy(ctx context.Context) (int, error) {
	files, err := f.selectFiles(ctx, NameCopy, fileset.CopyGlobs(f.cfg.SourcePath))
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, nil
	}
	return len(files), f.write(ctx, files)
}

func (f *factory) lint(ctx context.Context) (int, error) {
	files, err := f.selectFiles(ctx, NameLint, fileset.SourceGlobs(f.cfg.SourcePath, f.cfg.IgnoreGlobs))
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, nil
	}
	return len(files), f.deps.Linter.Lint(ctx, toolchain.LintRequest{
		Files:       files,
		ConfigPath:  f.cfg.LintConfigPath,
		ProjectPath: f.cfg.TypeCheckConfigPath,
	})
}

func (f *factory) compile(ctx context.Context) (int, error) {
	files, err := f.selectFiles(ctx, NameCompile, fileset.SourceGlobs(f.cfg.SourcePath, f.cfg.IgnoreGlobs))
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, nil
	}
	out, err := f.deps.Compiler.Compile(ctx, toolchain.CompileRequest{
		Files:      files,
		ConfigPath: f.cfg.TypeCheckConfigPath,
	})
	if err != nil {
		return len(files), err
	}
	if f.cfg.IsProductionMode {
		out, err = f.deps.Transformer.Transform(ctx, toolchain.TransformRequest{
			Files:      out,
			ConfigPath: f.cfg.TransformConfigPath,
			Module:     toolchain.ModuleFormat(f.cfg.ModuleFormat()),
		})
		if err != nil {
			return len(files), err
		}
	}
	return len(files), f.write(ctx, out)
}
