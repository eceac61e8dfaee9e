package tasks

import (
	"git.home.luguber.info/inful/tsbuild/internal/config"
	"git.home.luguber.info/inful/tsbuild/internal/fileset"
)

// Set holds the task handles built for one resolved configuration.
type Set struct {
	Config config.ResolvedConfig

	Clean   Task
	Copy    Task
	Lint    Task
	Compile Task
	Watch   *WatchTask
	Default Task

	cleanGlobs []string
}

// Names lists the handles in registration order.
func (s *Set) Names() []string {
	return []string{NameClean, NameCopy, NameLint, NameCompile, NameWatch, NameDefault}
}

// Lookup returns the handle registered under name.
func (s *Set) Lookup(name string) (Task, bool) {
	switch name {
	case NameClean:
		return s.Clean, true
	case NameCopy:
		return s.Copy, true
	case NameLint:
		return s.Lint, true
	case NameCompile:
		return s.Compile, true
	case NameWatch:
		return s.Watch, true
	case NameDefault:
		return s.Default, true
	}
	return nil, false
}

// Plan describes what the handles operate on.
type Plan struct {
	Config      config.ResolvedConfig `yaml:"config"`
	CleanGlobs  []string              `yaml:"cleanGlobs"`
	CopyGlobs   []string              `yaml:"copyGlobs"`
	SourceGlobs []string              `yaml:"sourceGlobs"`
	WatchGlobs  []string              `yaml:"watchGlobs"`
	Pipeline    [][]string            `yaml:"pipeline"`
}

// Plan returns the globs and stage order the handles use.
func (s *Set) Plan() Plan {
	return Plan{
		Config:      s.Config,
		CleanGlobs:  s.cleanGlobs,
		CopyGlobs:   fileset.CopyGlobs(s.Config.SourcePath),
		SourceGlobs: fileset.SourceGlobs(s.Config.SourcePath, s.Config.IgnoreGlobs),
		WatchGlobs:  fileset.WatchGlobs(s.Config.SourcePath),
		Pipeline:    [][]string{{NameClean}, {NameLint}, {NameCopy, NameCompile}},
	}
}
