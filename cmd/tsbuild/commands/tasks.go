package commands

import "git.home.luguber.info/inful/tsbuild/internal/tasks"

// DefaultCmd implements the 'default' command.
type DefaultCmd struct{}

func (d *DefaultCmd) Run(g *Global, root *CLI) error {
	return runTask(g, root, tasks.NameDefault, runtimeOptions{})
}

// CleanCmd implements the 'clean' command.
type CleanCmd struct {
	Globs []string `arg:"" optional:"" help:"Globs to delete instead of the output directory"`
}

func (c *CleanCmd) Run(g *Global, root *CLI) error {
	return runTask(g, root, tasks.NameClean, runtimeOptions{cleanGlobs: c.Globs})
}

// CopyCmd implements the 'copy' command.
type CopyCmd struct{}

func (c *CopyCmd) Run(g *Global, root *CLI) error {
	return runTask(g, root, tasks.NameCopy, runtimeOptions{})
}

// LintCmd implements the 'lint' command.
type LintCmd struct{}

func (l *LintCmd) Run(g *Global, root *CLI) error {
	return runTask(g, root, tasks.NameLint, runtimeOptions{})
}

// CompileCmd implements the 'compile' command.
type CompileCmd struct{}

func (c *CompileCmd) Run(g *Global, root *CLI) error {
	return runTask(g, root, tasks.NameCompile, runtimeOptions{})
}
