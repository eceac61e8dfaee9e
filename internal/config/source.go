package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/tsbuild/internal/foundation"
	ferrors "git.home.luguber.info/inful/tsbuild/internal/foundation/errors"
)

// DefaultConfigFile is the option file the CLI reads when --config is not given.
const DefaultConfigFile = "tsbuild.yaml"

// rawOptions is the wire shape shared by YAML files and key/value maps. Nil
// pointers are absent fields; YAML null and map nil values leave them nil.
type rawOptions struct {
	SourcePath          *string `yaml:"sourcePath" mapstructure:"sourcePath"`
	OutputPath          *string `yaml:"outputPath" mapstructure:"outputPath"`
	IgnoreGlobs         any     `yaml:"ignoreGlobs" mapstructure:"ignoreGlobs"`
	IsProductionMode    *bool   `yaml:"isProductionMode" mapstructure:"isProductionMode"`
	RootPath            *string `yaml:"rootPath" mapstructure:"rootPath"`
	TypeCheckConfigPath *string `yaml:"typeCheckConfigPath" mapstructure:"typeCheckConfigPath"`
	LintConfigPath      *string `yaml:"lintConfigPath" mapstructure:"lintConfigPath"`
	TransformConfigPath *string `yaml:"transformConfigPath" mapstructure:"transformConfigPath"`
	EmitEsModules       *bool   `yaml:"emitEsModules" mapstructure:"emitEsModules"`
	Incremental         *bool   `yaml:"incremental" mapstructure:"incremental"`
}

func (r rawOptions) options() Options {
	opts := Options{
		SourcePath:          foundation.FromPointer(r.SourcePath),
		OutputPath:          foundation.FromPointer(r.OutputPath),
		IsProductionMode:    foundation.FromPointer(r.IsProductionMode),
		RootPath:            foundation.FromPointer(r.RootPath),
		TypeCheckConfigPath: foundation.FromPointer(r.TypeCheckConfigPath),
		LintConfigPath:      foundation.FromPointer(r.LintConfigPath),
		TransformConfigPath: foundation.FromPointer(r.TransformConfigPath),
		EmitEsModules:       foundation.FromPointer(r.EmitEsModules),
		Incremental:         foundation.FromPointer(r.Incremental),
	}
	if r.IgnoreGlobs != nil {
		opts.IgnoreGlobs = foundation.Some(r.IgnoreGlobs)
	}
	return opts
}

// FromMap decodes a plain key/value option record. Unknown keys and values of
// the wrong type are configuration errors; nil values count as absent.
func FromMap(m map[string]any) (Options, error) {
	var raw rawOptions
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &raw,
		ErrorUnused: true,
	})
	if err != nil {
		return Options{}, ferrors.InternalError("create option decoder").WithCause(err).Build()
	}
	if err := dec.Decode(m); err != nil {
		return Options{}, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid option record").Fatal().Build()
	}
	return raw.options(), nil
}

// Parse decodes a YAML option document. An empty document yields empty Options.
func Parse(data []byte) (Options, error) {
	var raw rawOptions
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return Options{}, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid option file").Fatal().Build()
	}
	return raw.options(), nil
}

// LoadFile reads a YAML option file. A missing file is not an error and
// yields empty Options, so the CLI works without any config file.
func LoadFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Options{}, nil
	}
	if err != nil {
		return Options{}, ferrors.WrapError(err, ferrors.CategoryConfig, "read option file").
			WithContext("path", path).
			Fatal().
			Build()
	}
	opts, err := Parse(data)
	if err != nil {
		return Options{}, err
	}
	return opts, nil
}
