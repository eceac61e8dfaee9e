package toolchain

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/tsbuild/internal/fileset"
	ferrors "git.home.luguber.info/inful/tsbuild/internal/foundation/errors"
)

// DefaultTSCCommand runs the project-local TypeScript compiler.
const DefaultTSCCommand = "npx --no-install tsc"

// TypeScriptCompiler compiles a selection with tsc. It writes a throwaway
// project file that extends the configured tsconfig, lists exactly the
// selected files and redirects output to a temporary directory.
type TypeScriptCompiler struct {
	Command Command
	TempDir string // parent for scratch directories; "" uses os.TempDir
}

// NewTypeScriptCompiler creates a compiler running cmd.
func NewTypeScriptCompiler(cmd Command) *TypeScriptCompiler {
	return &TypeScriptCompiler{Command: cmd}
}

// tsProject is the generated project file. tsc inherits include, exclude and
// files separately from the extended config, so include and exclude are
// always written as empty lists to leave files as the only input.
type tsProject struct {
	Extends         string            `json:"extends"`
	Files           []string          `json:"files"`
	Include         []string          `json:"include"`
	Exclude         []string          `json:"exclude"`
	CompilerOptions tsCompilerOptions `json:"compilerOptions"`
}

type tsCompilerOptions struct {
	OutDir  string `json:"outDir"`
	RootDir string `json:"rootDir"`
	NoEmit  bool   `json:"noEmit"`
}

// Compile implements Compiler.
func (c *TypeScriptCompiler) Compile(ctx context.Context, req CompileRequest) ([]fileset.File, error) {
	if len(req.Files) == 0 {
		return nil, nil
	}
	work, err := os.MkdirTemp(c.TempDir, "tsbuild-tsc-")
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create compiler workspace").Build()
	}
	defer func() { _ = os.RemoveAll(work) }()

	outDir := filepath.Join(work, "out")
	project, err := c.project(req, outDir)
	if err != nil {
		return nil, err
	}
	projectPath := filepath.Join(work, "tsconfig.json")
	data, err := json.MarshalIndent(project, "", "  ")
	if err != nil {
		return nil, ferrors.InternalError("encode compiler project").WithCause(err).Build()
	}
	if err := os.WriteFile(projectPath, data, 0o600); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "write compiler project").Build()
	}

	if _, err := c.Command.Run(ctx, nil, nil, "--project", projectPath); err != nil {
		return nil, err
	}
	return collect(outDir, req.Files[0].Base)
}

func (c *TypeScriptCompiler) project(req CompileRequest, outDir string) (tsProject, error) {
	extends, err := filepath.Abs(req.ConfigPath)
	if err != nil {
		return tsProject{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve tsconfig path").Build()
	}
	rootDir, err := filepath.Abs(filepath.FromSlash(req.Files[0].Base))
	if err != nil {
		return tsProject{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve source root").Build()
	}
	files := make([]string, 0, len(req.Files))
	for _, f := range req.Files {
		abs, err := filepath.Abs(filepath.FromSlash(f.Path))
		if err != nil {
			return tsProject{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve source path").Build()
		}
		files = append(files, abs)
	}
	return tsProject{
		Extends: extends,
		Files:   files,
		Include: []string{},
		Exclude: []string{},
		CompilerOptions: tsCompilerOptions{
			OutDir:  outDir,
			RootDir: rootDir,
		},
	}, nil
}

// collect reads every file emitted under dir. Rel is relative to dir; Base is
// reported as the source base the files were compiled from.
func collect(dir, base string) ([]fileset.File, error) {
	var out []fileset.File
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == dir {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		contents, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, fileset.File{
			Path:     filepath.ToSlash(filepath.Join(base, rel)),
			Base:     base,
			Rel:      filepath.ToSlash(rel),
			Mode:     info.Mode().Perm(),
			ModTime:  info.ModTime(),
			Contents: contents,
		})
		return nil
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read compiler output").Build()
	}
	return out, nil
}
