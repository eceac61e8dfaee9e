package config

import (
	"os"
	"path"

	"git.home.luguber.info/inful/tsbuild/internal/foundation"
	ferrors "git.home.luguber.info/inful/tsbuild/internal/foundation/errors"
)

// Defaults applied when an option is absent.
const (
	DefaultSourcePath          = "src"
	DefaultOutputPath          = "dist"
	DefaultRootPath            = "."
	DefaultTypeCheckConfigPath = "./tsconfig.json"
	DefaultLintConfigPath      = "./tslint.json"
	DefaultTransformConfigPath = "./.babelrc.json"

	// ProductionEnvVar is the one piece of process-wide state consulted
	// during resolution.
	ProductionEnvVar   = "NODE_ENV"
	productionEnvValue = "production"
)

// defaultIgnoreDirs are placed under the resolved source path when
// ignoreGlobs is absent.
var defaultIgnoreDirs = []string{"demo", "test*"}

// ResolvedConfig is the fully populated configuration. It is computed once
// per resolution and must be treated as read-only.
type ResolvedConfig struct {
	SourcePath          string   `yaml:"sourcePath"`
	OutputPath          string   `yaml:"outputPath"`
	IgnoreGlobs         []string `yaml:"ignoreGlobs"`
	IsProductionMode    bool     `yaml:"isProductionMode"`
	RootPath            string   `yaml:"rootPath"`
	TypeCheckConfigPath string   `yaml:"typeCheckConfigPath"`
	LintConfigPath      string   `yaml:"lintConfigPath"`
	TransformConfigPath string   `yaml:"transformConfigPath"`
	EmitEsModules       bool     `yaml:"emitEsModules"`
	Incremental         bool     `yaml:"incremental"`
}

// ModuleFormat returns the module format the down-level step targets.
func (c ResolvedConfig) ModuleFormat() string {
	if c.EmitEsModules {
		return "esm"
	}
	return "commonjs"
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithEnvLookup replaces os.LookupEnv for the production-mode default.
func WithEnvLookup(fn func(string) (string, bool)) ResolverOption {
	return func(r *Resolver) { r.lookupEnv = fn }
}

// WithProductionDefault pins the production-mode default so the environment
// is never read.
func WithProductionDefault(prod bool) ResolverOption {
	return func(r *Resolver) { r.prodDefault = foundation.Some(prod) }
}

// Resolver turns sparse Options into a ResolvedConfig.
type Resolver struct {
	lookupEnv   func(string) (string, bool)
	prodDefault foundation.Option[bool]
}

// NewResolver creates a Resolver reading the process environment unless
// overridden.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve resolves opts with a default Resolver.
func Resolve(opts Options) (ResolvedConfig, error) {
	return NewResolver().Resolve(opts)
}

// Resolve fills every absent field with its default. It fails before
// producing anything when a provided value is malformed.
func (r *Resolver) Resolve(opts Options) (ResolvedConfig, error) {
	var cfg ResolvedConfig
	var err error

	if cfg.SourcePath, err = nonEmpty("sourcePath", opts.SourcePath, DefaultSourcePath); err != nil {
		return ResolvedConfig{}, err
	}
	if cfg.OutputPath, err = nonEmpty("outputPath", opts.OutputPath, DefaultOutputPath); err != nil {
		return ResolvedConfig{}, err
	}
	if cfg.RootPath, err = nonEmpty("rootPath", opts.RootPath, DefaultRootPath); err != nil {
		return ResolvedConfig{}, err
	}

	if raw, ok := opts.IgnoreGlobs.Get(); ok && raw != nil {
		if cfg.IgnoreGlobs, err = ParseIgnoreGlobs(raw); err != nil {
			return ResolvedConfig{}, err
		}
	} else {
		cfg.IgnoreGlobs = make([]string, 0, len(defaultIgnoreDirs))
		for _, d := range defaultIgnoreDirs {
			cfg.IgnoreGlobs = append(cfg.IgnoreGlobs, path.Join(cfg.SourcePath, d))
		}
	}

	cfg.IsProductionMode = opts.IsProductionMode.UnwrapOrElse(r.productionDefault)
	cfg.EmitEsModules = opts.EmitEsModules.UnwrapOr(false)
	cfg.Incremental = opts.Incremental.UnwrapOr(true)

	if cfg.TypeCheckConfigPath, err = r.configPath("typeCheckConfigPath", opts.TypeCheckConfigPath, DefaultTypeCheckConfigPath, cfg); err != nil {
		return ResolvedConfig{}, err
	}
	if cfg.LintConfigPath, err = r.configPath("lintConfigPath", opts.LintConfigPath, DefaultLintConfigPath, cfg); err != nil {
		return ResolvedConfig{}, err
	}
	if cfg.TransformConfigPath, err = r.configPath("transformConfigPath", opts.TransformConfigPath, DefaultTransformConfigPath, cfg); err != nil {
		return ResolvedConfig{}, err
	}
	return cfg, nil
}

func (r *Resolver) productionDefault() bool {
	if prod, ok := r.prodDefault.Get(); ok {
		return prod
	}
	if r.lookupEnv == nil {
		return false
	}
	v, _ := r.lookupEnv(ProductionEnvVar)
	return v == productionEnvValue
}

func (r *Resolver) configPath(field string, opt foundation.Option[string], def string, cfg ResolvedConfig) (string, error) {
	p, err := nonEmpty(field, opt, def)
	if err != nil {
		return "", err
	}
	if cfg.IsProductionMode {
		if p, err = ProductionPath(p); err != nil {
			return "", err
		}
	}
	return joinRoot(cfg.RootPath, p), nil
}

func nonEmpty(field string, opt foundation.Option[string], def string) (string, error) {
	v := opt.UnwrapOr(def)
	if v == "" {
		return "", ferrors.ConfigError(field+" must not be empty").
			WithContext("field", field).
			Build()
	}
	return v, nil
}
