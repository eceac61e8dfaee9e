// Package toolchain defines the external collaborators the build tasks
// delegate to, and process-backed implementations of them.
//
// The tasks never interpret what a tool reports. A failing tool surfaces as a
// CollaboratorError whose cause carries the tool's own output.
package toolchain

import (
	"context"

	"git.home.luguber.info/inful/tsbuild/internal/fileset"
)

// ModuleFormat selects the module system emitted by the down-level step.
type ModuleFormat string

const (
	ModuleCommonJS ModuleFormat = "commonjs"
	ModuleESM      ModuleFormat = "esm"
)

// CompileRequest asks the type-checker/compiler to compile a selection.
type CompileRequest struct {
	Files      []fileset.File
	ConfigPath string // tsconfig
}

// Compiler type-checks and transpiles sources. Returned files carry Rel
// paths relative to the compiled selection's base.
type Compiler interface {
	Compile(ctx context.Context, req CompileRequest) ([]fileset.File, error)
}

// LintRequest asks the lint engine to check a selection.
type LintRequest struct {
	Files       []fileset.File
	ConfigPath  string // lint rules
	ProjectPath string // tsconfig for type-aware rules
}

// Linter reports rule violations as an error.
type Linter interface {
	Lint(ctx context.Context, req LintRequest) error
}

// TransformRequest asks the down-level transformer to rewrite compiled output.
type TransformRequest struct {
	Files      []fileset.File
	ConfigPath string
	Module     ModuleFormat
}

// Transformer rewrites files for an older target and module format.
type Transformer interface {
	Transform(ctx context.Context, req TransformRequest) ([]fileset.File, error)
}

// Deleter removes every path matched by globs and returns what it removed.
type Deleter interface {
	Delete(ctx context.Context, globs []string) ([]string, error)
}
