package commands

import (
	"context"

	"git.home.luguber.info/inful/tsbuild/internal/fileset"
	ferrors "git.home.luguber.info/inful/tsbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/tsbuild/internal/toolchain"
)

// unavailable satisfies every collaborator and refuses to do any work.
type unavailable struct{}

func (unavailable) err() error {
	return ferrors.InternalError("collaborator not available while planning").Build()
}

func (u unavailable) Compile(context.Context, toolchain.CompileRequest) ([]fileset.File, error) {
	return nil, u.err()
}

func (u unavailable) Lint(context.Context, toolchain.LintRequest) error { return u.err() }

func (u unavailable) Transform(context.Context, toolchain.TransformRequest) ([]fileset.File, error) {
	return nil, u.err()
}

func (u unavailable) Delete(context.Context, []string) ([]string, error) { return nil, u.err() }
