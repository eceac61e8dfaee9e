package config

import "git.home.luguber.info/inful/tsbuild/internal/foundation"

// Options is the sparse option record a caller hands to the factory. Every
// field is optional; an absent field and a null one resolve the same way.
type Options struct {
	SourcePath          foundation.Option[string]
	OutputPath          foundation.Option[string]
	IgnoreGlobs         foundation.Option[any] // string (comma-delimited) or []string
	IsProductionMode    foundation.Option[bool]
	RootPath            foundation.Option[string]
	TypeCheckConfigPath foundation.Option[string]
	LintConfigPath      foundation.Option[string]
	TransformConfigPath foundation.Option[string]
	EmitEsModules       foundation.Option[bool]
	Incremental         foundation.Option[bool]
}

// Override returns a copy of o where every field present in over replaces the
// value from o. Used to layer CLI flags on top of a config file.
func (o Options) Override(over Options) Options {
	return Options{
		SourcePath:          over.SourcePath.Or(o.SourcePath),
		OutputPath:          over.OutputPath.Or(o.OutputPath),
		IgnoreGlobs:         over.IgnoreGlobs.Or(o.IgnoreGlobs),
		IsProductionMode:    over.IsProductionMode.Or(o.IsProductionMode),
		RootPath:            over.RootPath.Or(o.RootPath),
		TypeCheckConfigPath: over.TypeCheckConfigPath.Or(o.TypeCheckConfigPath),
		LintConfigPath:      over.LintConfigPath.Or(o.LintConfigPath),
		TransformConfigPath: over.TransformConfigPath.Or(o.TransformConfigPath),
		EmitEsModules:       over.EmitEsModules.Or(o.EmitEsModules),
		Incremental:         over.Incremental.Or(o.Incremental),
	}
}
