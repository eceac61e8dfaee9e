package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/tsbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/tsbuild/internal/tasks"
)

// project is a throwaway TypeScript project layout for CLI tests.
type project struct {
	root string
}

func newProject(t *testing.T) *project {
	t.Helper()
	root := filepath.ToSlash(t.TempDir())
	for rel, contents := range map[string]string{
		"src/index.ts":        "export const main = 1",
		"src/assets/logo.svg": "<svg/>",
	} {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(contents), 0o600))
	}
	return &project{root: root}
}

func (p *project) path(rel string) string { return p.root + "/" + rel }

// args prefixes the flags that pin every file the CLI would otherwise look
// up in the working directory.
func (p *project) args(extra ...string) []string {
	base := []string{
		"--config", p.path("tsbuild.yaml"),
		"--env-file", p.path(".env"),
		"--state", p.path(".tsbuild/state.db"),
		"--src", p.path("src"),
		"--dist", p.path("dist"),
		"--root", p.root,
	}
	return append(base, extra...)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("tsbuild"), Vars(), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	g := &Global{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), Out: &out}
	err = kctx.Run(g, &cli)
	return out.String(), err
}

func TestOverrideFlagsOptions(t *testing.T) {
	opts := OverrideFlags{
		Src:         "app",
		Ignore:      "app/demo, app/e2e",
		Mode:        "production",
		Module:      "esm",
		Incremental: "off",
	}.Options()

	assert.Equal(t, "app", opts.SourcePath.UnwrapOr(""))
	assert.True(t, opts.OutputPath.IsNone())
	assert.Equal(t, "app/demo, app/e2e", opts.IgnoreGlobs.UnwrapOr(nil))
	assert.True(t, opts.IsProductionMode.UnwrapOr(false))
	assert.True(t, opts.EmitEsModules.UnwrapOr(false))
	assert.False(t, opts.Incremental.UnwrapOr(true))

	auto := OverrideFlags{Mode: "auto", Module: "auto", Incremental: "auto"}.Options()
	assert.True(t, auto.IsProductionMode.IsNone())
	assert.True(t, auto.EmitEsModules.IsNone())
	assert.True(t, auto.Incremental.IsNone())
}

func TestPlanLayersFlagsOverFile(t *testing.T) {
	p := newProject(t)
	require.NoError(t, os.WriteFile(p.path("tsbuild.yaml"), []byte("outputPath: build\nignoreGlobs: [src/fixtures]\nemitEsModules: true\n"), 0o600))

	args := []string{
		"--config", p.path("tsbuild.yaml"),
		"--env-file", p.path(".env"),
		"--root", p.root,
		"--mode", "production",
		"plan",
	}
	out, err := run(t, args...)
	require.NoError(t, err)

	var plan tasks.Plan
	require.NoError(t, yaml.Unmarshal([]byte(out), &plan))
	assert.Equal(t, "src", plan.Config.SourcePath)
	assert.Equal(t, "build", plan.Config.OutputPath, "file value kept when no flag is set")
	assert.Equal(t, []string{"src/fixtures"}, plan.Config.IgnoreGlobs)
	assert.True(t, plan.Config.IsProductionMode)
	assert.True(t, plan.Config.EmitEsModules)
	assert.Equal(t, p.root+"/tslint.prod.json", plan.Config.LintConfigPath)
	assert.Equal(t, []string{"build"}, plan.CleanGlobs)
	assert.Contains(t, plan.SourceGlobs, "!src/fixtures/**/*.ts*")
}

func TestPlanReadsEnvFile(t *testing.T) {
	t.Setenv("NODE_ENV", "")
	require.NoError(t, os.Unsetenv("NODE_ENV"))

	p := newProject(t)
	require.NoError(t, os.WriteFile(p.path(".env"), []byte("NODE_ENV=production\n"), 0o600))

	out, err := run(t, p.args("plan")...)
	require.NoError(t, err)

	var plan tasks.Plan
	require.NoError(t, yaml.Unmarshal([]byte(out), &plan))
	assert.True(t, plan.Config.IsProductionMode)
	assert.Equal(t, p.root+"/tsconfig.prod.json", plan.Config.TypeCheckConfigPath)
}

func TestPlanRejectsMalformedOptionFile(t *testing.T) {
	p := newProject(t)
	require.NoError(t, os.WriteFile(p.path("tsbuild.yaml"), []byte("ignoreGlobs: 42\n"), 0o600))

	_, err := run(t, p.args("plan")...)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	assert.Equal(t, 7, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestCopyCommandAndHistory(t *testing.T) {
	p := newProject(t)

	_, err := run(t, p.args("copy")...)
	require.NoError(t, err)
	assert.FileExists(t, p.path("dist/assets/logo.svg"))
	assert.NoFileExists(t, p.path("dist/index.ts"))

	out, err := run(t, p.args("history", "--task", "copy")...)
	require.NoError(t, err)
	assert.Contains(t, out, "copy")
	assert.Contains(t, out, "success")
}

func TestCleanCommandDeletesOutput(t *testing.T) {
	p := newProject(t)
	require.NoError(t, os.MkdirAll(p.path("dist/nested"), 0o755))
	require.NoError(t, os.WriteFile(p.path("dist/nested/app.js"), []byte("x"), 0o600))

	_, err := run(t, p.args("clean")...)
	require.NoError(t, err)
	assert.NoDirExists(t, p.path("dist"))
}

func TestLintCommandSurfacesToolReport(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	p := newProject(t)

	_, err := run(t, p.args("--tslint-cmd", `sh -c 'echo "src/index.ts[1, 1]: no-var-keyword" >&2; exit 2' tslint`, "lint")...)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryCollaborator))
	assert.Contains(t, err.Error(), "no-var-keyword")
	assert.Equal(t, 11, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestDefaultCommandStopsAfterFailingLint(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	p := newProject(t)

	_, err := run(t, p.args("--tslint-cmd", `sh -c 'exit 1' tslint`, "--tsc-cmd", `sh -c 'exit 1' tsc`)...)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryCollaborator))
	assert.NoDirExists(t, p.path("dist"), "copy never ran")

	out, err := run(t, p.args("history")...)
	require.NoError(t, err)
	assert.Contains(t, out, "lint")
	assert.NotContains(t, out, "compile")
}

func TestWatchLogsNextScheduledRun(t *testing.T) {
	p := newProject(t)
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("tsbuild"), Vars(), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	_, err = parser.Parse(p.args("watch", "--schedule", "1h"))
	require.NoError(t, err)

	var logs bytes.Buffer
	g := &Global{Logger: slog.New(slog.NewTextHandler(&logs, nil)), Out: io.Discard}
	rt, err := cli.NewRuntime(g, runtimeOptions{debounce: cli.Watch.Debounce})
	require.NoError(t, err)
	defer func() { require.NoError(t, rt.Close()) }()

	ctx, cancel := context.WithTimeout(t.Context(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, cli.Watch.watch(ctx, g, rt.Set))

	assert.Contains(t, logs.String(), "Scheduled rebuilds enabled")
	assert.Contains(t, logs.String(), "next_run=")
	assert.Contains(t, logs.String(), "Watch stopped")
}
