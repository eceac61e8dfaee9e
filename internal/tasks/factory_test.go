package tasks

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/tsbuild/internal/config"
	"git.home.luguber.info/inful/tsbuild/internal/events"
	"git.home.luguber.info/inful/tsbuild/internal/fileset"
	"git.home.luguber.info/inful/tsbuild/internal/foundation"
	ferrors "git.home.luguber.info/inful/tsbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/tsbuild/internal/metrics"
	"git.home.luguber.info/inful/tsbuild/internal/state"
	"git.home.luguber.info/inful/tsbuild/internal/toolchain"
)

func TestDefaultRunsFullPipeline(t *testing.T) {
	h := newHarness(t)
	set := h.build(t)

	require.NoError(t, set.Default.Run(t.Context()))

	assert.Equal(t, 1, h.deleter.count())
	assert.Equal(t, []string{h.cfg.OutputPath}, h.deleter.globs[0])
	assert.Equal(t, int32(1), h.linter.calls.Load())
	assert.Equal(t, int32(1), h.compiler.calls.Load())
	assert.Equal(t, int32(0), h.transformer.calls.Load(), "development mode skips the down-level step")

	assert.Equal(t, "<svg/>", readOutput(t, h, "assets/logo.svg"))
	assert.Equal(t, "// compiled index.ts", readOutput(t, h, "index.js"))
	assert.Equal(t, "// compiled lib/util.ts", readOutput(t, h, "lib/util.js"))
	_, err := os.Stat(filepath.Join(h.cfg.OutputPath, "index.ts"))
	assert.True(t, os.IsNotExist(err), "sources are not copied")
}

func TestDefaultFailingLintSkipsCopyAndCompile(t *testing.T) {
	h := newHarness(t)
	lintErr := ferrors.CollaboratorError("tslint", errors.New("src/index.ts:1:1 no-var-keyword")).Build()
	h.linter.err = lintErr
	set := h.build(t)

	err := set.Default.Run(t.Context())
	require.Error(t, err)
	assert.ErrorIs(t, err, lintErr)
	assert.Contains(t, err.Error(), "no-var-keyword")

	assert.Equal(t, int32(1), h.linter.calls.Load())
	assert.Equal(t, int32(0), h.compiler.calls.Load())
	assert.False(t, h.selector.selected(fileset.CopyGlobs(h.cfg.SourcePath)), "copy never selects")
	_, statErr := os.Stat(h.cfg.OutputPath)
	assert.True(t, os.IsNotExist(statErr), "no partial output")
}

func TestDefaultFailingCleanSkipsEverything(t *testing.T) {
	h := newHarness(t)
	h.deleter.err = errors.New("permission denied")
	set := h.build(t)

	err := set.Default.Run(t.Context())
	require.EqualError(t, err, "permission denied")
	assert.Equal(t, int32(0), h.linter.calls.Load())
	assert.Equal(t, int32(0), h.compiler.calls.Load())
}

func TestDefaultWaitsForCopyAndCompile(t *testing.T) {
	h := newHarness(t)
	h.compiler.delay = 100 * time.Millisecond
	set := h.build(t)

	require.NoError(t, set.Default.Run(t.Context()))

	assert.True(t, h.compiler.finished.Load(), "compile completes before default returns")
	assert.FileExists(t, filepath.Join(h.cfg.OutputPath, "index.js"))
	assert.FileExists(t, filepath.Join(h.cfg.OutputPath, "assets", "data.json"))
}

func TestDefaultCompileFailureStillFinishesCopy(t *testing.T) {
	h := newHarness(t)
	h.compiler.delay = 20 * time.Millisecond
	h.compiler.err = errors.New("TS2322: Type 'string' is not assignable")
	set := h.build(t)

	err := set.Default.Run(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TS2322")
	assert.FileExists(t, filepath.Join(h.cfg.OutputPath, "assets", "logo.svg"))
}

func TestCleanWithEmptyPathIsConfigError(t *testing.T) {
	for name, globs := range map[string][]string{
		"no globs":    {},
		"empty entry": {""},
		"blank entry": {"  "},
		"bare negate": {"!"},
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			set := h.build(t, WithCleanGlobs(globs...))

			err := set.Clean.Run(t.Context())
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig), err.Error())
			assert.Equal(t, 0, h.deleter.count())
		})
	}
}

func TestCleanEmptyOutputPathIsConfigError(t *testing.T) {
	h := newHarness(t)
	h.cfg.OutputPath = ""
	set := h.build(t)

	err := set.Clean.Run(t.Context())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestCleanOverrideGlobs(t *testing.T) {
	h := newHarness(t)
	set := h.build(t, WithCleanGlobs("dist/**/*.js", "!dist/vendor/**"))

	require.NoError(t, set.Clean.Run(t.Context()))
	assert.Equal(t, []string{"dist/**/*.js", "!dist/vendor/**"}, h.deleter.globs[0])
}

func TestCopyIsIncrementalAndCleanResetsIt(t *testing.T) {
	h := newHarness(t)
	set := h.build(t)
	ctx := t.Context()

	require.NoError(t, set.Copy.Run(ctx))
	require.NoError(t, set.Copy.Run(ctx))

	history := historyFor(t, set, NameCopy)
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[1].Files, "first run copies every asset")
	assert.Equal(t, 0, history[0].Files, "unchanged assets are skipped")

	require.NoError(t, set.Clean.Run(ctx))
	require.NoError(t, set.Copy.Run(ctx))
	history = historyFor(t, set, NameCopy)
	assert.Equal(t, 2, history[0].Files, "clean forces a full copy")
}

func TestNonIncrementalCopySelectsEverything(t *testing.T) {
	h := newHarness(t)
	h.cfg.Incremental = false
	set := h.build(t)

	require.NoError(t, set.Copy.Run(t.Context()))
	require.NoError(t, set.Copy.Run(t.Context()))
	history := historyFor(t, set, NameCopy)
	assert.Equal(t, 2, history[0].Files)
}

func TestLintScopesSourcesAndConfig(t *testing.T) {
	h := newHarness(t)
	set := h.build(t)

	require.NoError(t, set.Lint.Run(t.Context()))

	req := h.linter.lastReq
	assert.Equal(t, []string{h.cfg.SourcePath + "/index.ts", h.cfg.SourcePath + "/lib/util.ts"}, fileset.Paths(req.Files),
		"declaration files and ignored directories are excluded")
	assert.Equal(t, h.root+"/tslint.json", req.ConfigPath)
	assert.Equal(t, h.root+"/tsconfig.json", req.ProjectPath)
}

func TestLintWithNothingSelectedIsNoop(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.RemoveAll(filepath.Join(h.root, "src")))
	set := h.build(t)

	require.NoError(t, set.Lint.Run(t.Context()))
	assert.Equal(t, int32(0), h.linter.calls.Load())
}

func TestCompileProductionTransforms(t *testing.T) {
	for _, tc := range []struct {
		name     string
		esm      bool
		wantMod  toolchain.ModuleFormat
		wantInJS string
	}{
		{name: "commonjs", wantMod: toolchain.ModuleCommonJS, wantInJS: "/* commonjs */"},
		{name: "esm", esm: true, wantMod: toolchain.ModuleESM, wantInJS: "/* esm */"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			cfg, err := config.NewResolver(config.WithProductionDefault(true)).Resolve(config.Options{
				SourcePath:    someString(h.cfg.SourcePath),
				OutputPath:    someString(h.cfg.OutputPath),
				RootPath:      someString(h.root),
				EmitEsModules: someBool(tc.esm),
			})
			require.NoError(t, err)
			h.cfg = cfg
			set := h.build(t)

			require.NoError(t, set.Compile.Run(t.Context()))

			assert.Equal(t, int32(1), h.transformer.calls.Load())
			assert.Equal(t, tc.wantMod, h.transformer.lastReq.Module)
			assert.Equal(t, h.root+"/.babelrc.prod.json", h.transformer.lastReq.ConfigPath)
			assert.Equal(t, h.root+"/tsconfig.prod.json", h.compiler.lastReq.ConfigPath)
			assert.Contains(t, readOutput(t, h, "index.js"), tc.wantInJS)
			assert.Equal(t, "{}", readOutput(t, h, "index.js.map"), "maps pass through")
		})
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	h := newHarness(t)

	deps := h.deps()
	deps.Compiler = nil
	_, err := New(h.cfg, deps)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	prod := h.cfg
	prod.IsProductionMode = true
	deps = h.deps()
	deps.Transformer = nil
	_, err = New(prod, deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transformer")

	_, err = New(h.cfg, deps)
	assert.NoError(t, err, "transformer is optional outside production")
}

func TestBuilderFailsBeforeBuilding(t *testing.T) {
	h := newHarness(t)
	set, err := Builder(config.Options{IgnoreGlobs: foundation.Some[any](42)}, nil, h.deps())
	require.Error(t, err)
	assert.Nil(t, set)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	assert.Contains(t, err.Error(), "ignoreGlobs must be a non-empty string or array")
}

func TestBuilderResolvesDefaults(t *testing.T) {
	h := newHarness(t)
	set, err := Builder(config.Options{}, config.NewResolver(config.WithProductionDefault(false)), h.deps())
	require.NoError(t, err)
	assert.Equal(t, "src", set.Config.SourcePath)
	assert.Equal(t, "dist", set.Config.OutputPath)
	assert.Equal(t, []string{"src/demo", "src/test*"}, set.Config.IgnoreGlobs)
}

func TestInstrumentationSharesRunID(t *testing.T) {
	h := newHarness(t)
	set := h.build(t)
	ctx := WithRunID(t.Context(), "run-42")

	require.NoError(t, set.Default.Run(ctx))

	h.publisher.mu.Lock()
	defer h.publisher.mu.Unlock()
	started := map[string]bool{}
	succeeded := map[string]bool{}
	for _, ev := range h.publisher.events {
		assert.Equal(t, "run-42", ev.RunID)
		switch ev.Type {
		case events.TypeStarted:
			started[ev.Task] = true
		case events.TypeSucceeded:
			succeeded[ev.Task] = true
		}
	}
	for _, name := range []string{NameClean, NameLint, NameCopy, NameCompile, NameDefault} {
		assert.True(t, started[name], name)
		assert.True(t, succeeded[name], name)
		assert.Equal(t, metrics.ResultSuccess, h.recorder.results[name], name)
	}
}

func TestInstrumentationRecordsFailure(t *testing.T) {
	h := newHarness(t)
	h.linter.err = errors.New("3 errors")
	store := state.NewMemoryStore()
	deps := h.deps()
	deps.Store = store
	set, err := New(h.cfg, deps)
	require.NoError(t, err)

	require.Error(t, set.Lint.Run(t.Context()))

	runs, err := store.History(t.Context(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, state.OutcomeFailed, runs[0].Outcome)
	assert.Equal(t, "3 errors", runs[0].Error)
	assert.NotEmpty(t, runs[0].RunID, "a run id is generated when absent")
	assert.Equal(t, metrics.ResultFailed, h.recorder.results[NameLint])

	_, ok, err := store.LastRun(t.Context(), NameLint)
	require.NoError(t, err)
	assert.False(t, ok, "failed runs are not a reference point")
}

func TestSetLookupAndPlan(t *testing.T) {
	h := newHarness(t)
	set := h.build(t)

	for _, name := range set.Names() {
		task, ok := set.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, name, task.Name())
	}
	_, ok := set.Lookup("deploy")
	assert.False(t, ok)

	plan := set.Plan()
	assert.Equal(t, []string{h.cfg.OutputPath}, plan.CleanGlobs)
	assert.Equal(t, []string(fileset.CopyGlobs(h.cfg.SourcePath)), plan.CopyGlobs)
	assert.Equal(t, [][]string{{"clean"}, {"lint"}, {"copy", "compile"}}, plan.Pipeline)
}

func historyFor(t *testing.T, set *Set, task string) []state.Run {
	t.Helper()
	inst, ok := set.Copy.(*instrumented)
	require.True(t, ok)
	all, err := inst.deps.Store.History(t.Context(), 0)
	require.NoError(t, err)
	var out []state.Run
	for _, r := range all {
		if r.Task == task {
			out = append(out, r)
		}
	}
	return out
}
