package toolchain

import (
	"context"

	"git.home.luguber.info/inful/tsbuild/internal/fileset"
)

// DefaultTSLintCommand runs the project-local tslint.
const DefaultTSLintCommand = "npx --no-install tslint"

// TSLint lints a selection with tslint using the stylish formatter.
type TSLint struct {
	Command   Command
	Formatter string
}

// NewTSLint creates a linter running cmd.
func NewTSLint(cmd Command) *TSLint {
	return &TSLint{Command: cmd, Formatter: "stylish"}
}

// Lint implements Linter. An empty selection is not linted.
func (l *TSLint) Lint(ctx context.Context, req LintRequest) error {
	if len(req.Files) == 0 {
		return nil
	}
	args := []string{"--config", req.ConfigPath}
	if req.ProjectPath != "" {
		args = append(args, "--project", req.ProjectPath)
	}
	if l.Formatter != "" {
		args = append(args, "--format", l.Formatter)
	}
	args = append(args, fileset.Paths(req.Files)...)
	_, err := l.Command.Run(ctx, nil, nil, args...)
	return err
}
