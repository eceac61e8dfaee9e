package toolchain

import (
	"bytes"
	"context"
	"strings"

	"git.home.luguber.info/inful/tsbuild/internal/fileset"
)

const (
	// DefaultBabelCommand runs the project-local babel CLI.
	DefaultBabelCommand = "npx --no-install babel"

	// ModuleFormatEnvVar is exported to the transformer so a JS babel config
	// can branch on the requested module format.
	ModuleFormatEnvVar = "TSBUILD_MODULE_FORMAT"

	commonJSPlugin = "@babel/plugin-transform-modules-commonjs"
)

// Babel down-levels compiled output one file at a time through stdin/stdout.
type Babel struct {
	Command Command
}

// NewBabel creates a transformer running cmd.
func NewBabel(cmd Command) *Babel {
	return &Babel{Command: cmd}
}

// Transform implements Transformer. Declaration files and source maps pass
// through untouched.
func (b *Babel) Transform(ctx context.Context, req TransformRequest) ([]fileset.File, error) {
	out := make([]fileset.File, 0, len(req.Files))
	env := []string{ModuleFormatEnvVar + "=" + string(req.Module)}
	for _, f := range req.Files {
		if !Transformable(f.Rel) {
			out = append(out, f)
			continue
		}
		args := []string{"--config-file", req.ConfigPath, "--filename", f.Path}
		if req.Module == ModuleCommonJS {
			args = append(args, "--plugins", commonJSPlugin)
		}
		code, err := b.Command.Run(ctx, bytes.NewReader(f.Contents), env, args...)
		if err != nil {
			return nil, err
		}
		f.Contents = code
		out = append(out, f)
	}
	return out, nil
}

// Transformable reports whether the down-level step rewrites the file at rel.
func Transformable(rel string) bool {
	return !strings.HasSuffix(rel, ".d.ts") && !strings.HasSuffix(rel, ".map")
}
