package commands

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/tsbuild/internal/config"
	"git.home.luguber.info/inful/tsbuild/internal/events"
	"git.home.luguber.info/inful/tsbuild/internal/foundation"
	ferrors "git.home.luguber.info/inful/tsbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/tsbuild/internal/toolchain"
	"git.home.luguber.info/inful/tsbuild/internal/version"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

// NewGlobal returns the Global used by the binary.
func NewGlobal() *Global {
	return &Global{Logger: slog.Default(), Out: os.Stdout}
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Option file path (missing file means defaults)" default:"${config_file}"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`
	EnvFile []string         `name:"env-file" help:"Environment files loaded before resolving options" default:"${env_files}" sep:","`

	Overrides OverrideFlags `embed:""`

	State       string `help:"SQLite file for incremental state and run history (empty keeps state in memory)" default:".tsbuild/state.db"`
	NATSURL     string `name:"nats-url" help:"Publish task lifecycle events to this NATS server" env:"TSBUILD_NATS_URL"`
	NATSPrefix  string `name:"nats-prefix" help:"Subject prefix for task events" default:"${nats_prefix}"`
	MetricsAddr string `name:"metrics-addr" help:"Serve Prometheus metrics on this address (e.g. :9464)"`

	TSCCmd    string `name:"tsc-cmd" help:"Compiler command line" default:"${tsc_cmd}"`
	TSLintCmd string `name:"tslint-cmd" help:"Lint command line" default:"${tslint_cmd}"`
	BabelCmd  string `name:"babel-cmd" help:"Down-level transformer command line" default:"${babel_cmd}"`

	Default DefaultCmd `cmd:"" default:"1" aliases:"build" help:"Run clean, lint, then copy and compile in parallel"`
	Clean   CleanCmd   `cmd:"" help:"Delete the output directory"`
	Copy    CopyCmd    `cmd:"" help:"Copy non-source files to the output directory"`
	Lint    LintCmd    `cmd:"" help:"Lint TypeScript sources"`
	Compile CompileCmd `cmd:"" help:"Compile TypeScript sources to the output directory"`
	Watch   WatchCmd   `cmd:"" help:"Re-run the default pipeline whenever a source file changes"`
	Plan    PlanCmd    `cmd:"" help:"Print the resolved options and glob lists"`
	History HistoryCmd `cmd:"" help:"Show recent task runs"`
}

// Vars are the kong interpolation variables the CLI needs.
func Vars() kong.Vars {
	return kong.Vars{
		"version":     version.String(),
		"tsc_cmd":     toolchain.DefaultTSCCommand,
		"tslint_cmd":  toolchain.DefaultTSLintCommand,
		"babel_cmd":   toolchain.DefaultBabelCommand,
		"nats_prefix": events.DefaultSubjectPrefix,
		"config_file": config.DefaultConfigFile,
		"env_files":   strings.Join(config.DefaultEnvFiles, ","),
	}
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// OverrideFlags mirror the option record. Unset flags leave the option file
// (and then the defaults) in charge.
type OverrideFlags struct {
	Src         string `help:"Source directory (sourcePath)"`
	Dist        string `help:"Output directory (outputPath)"`
	Ignore      string `help:"Comma-separated directories excluded from lint and compile (ignoreGlobs)"`
	Root        string `help:"Directory the config paths are relative to (rootPath)"`
	Tsconfig    string `help:"Type-check configuration (typeCheckConfigPath)"`
	Tslint      string `help:"Lint configuration (lintConfigPath)"`
	Babelrc     string `help:"Down-level transformer configuration (transformConfigPath)"`
	Mode        string `help:"Build mode" enum:"auto,production,development" default:"auto"`
	Module      string `help:"Module format of production output" enum:"auto,commonjs,esm" default:"auto"`
	Incremental string `help:"Only process files changed since the last successful run" enum:"auto,on,off" default:"auto"`
}

// Options converts the set flags into an option record.
func (o OverrideFlags) Options() config.Options {
	var opts config.Options
	setString := func(dst *foundation.Option[string], v string) {
		if v != "" {
			*dst = foundation.Some(v)
		}
	}
	setString(&opts.SourcePath, o.Src)
	setString(&opts.OutputPath, o.Dist)
	setString(&opts.RootPath, o.Root)
	setString(&opts.TypeCheckConfigPath, o.Tsconfig)
	setString(&opts.LintConfigPath, o.Tslint)
	setString(&opts.TransformConfigPath, o.Babelrc)
	if strings.TrimSpace(o.Ignore) != "" {
		opts.IgnoreGlobs = foundation.Some[any](o.Ignore)
	}
	switch o.Mode {
	case "production":
		opts.IsProductionMode = foundation.Some(true)
	case "development":
		opts.IsProductionMode = foundation.Some(false)
	}
	switch o.Module {
	case "esm":
		opts.EmitEsModules = foundation.Some(true)
	case "commonjs":
		opts.EmitEsModules = foundation.Some(false)
	}
	switch o.Incremental {
	case "on":
		opts.Incremental = foundation.Some(true)
	case "off":
		opts.Incremental = foundation.Some(false)
	}
	return opts
}

// LoadOptions loads the environment files, then layers the flags over the
// option file.
func (c *CLI) LoadOptions() (config.Options, error) {
	loaded, err := config.LoadEnvFiles(c.EnvFile...)
	if err != nil {
		return config.Options{}, ferrors.WrapError(err, ferrors.CategoryConfig, "load environment files").Build()
	}
	if len(loaded) > 0 {
		slog.Debug("Environment files loaded", "files", loaded)
	}
	fileOpts, err := config.LoadFile(c.Config)
	if err != nil {
		return config.Options{}, err
	}
	return fileOpts.Override(c.Overrides.Options()), nil
}
