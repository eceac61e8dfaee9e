package toolchain

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/tsbuild/internal/fileset"
	ferrors "git.home.luguber.info/inful/tsbuild/internal/foundation/errors"
)

// FSDeleter deletes paths matched by glob lists on the local filesystem.
// A matched directory is removed with everything below it.
type FSDeleter struct {
	// WorkDir is the directory deletions are guarded against; "" uses the
	// process working directory.
	WorkDir string
}

// NewFSDeleter creates a deleter guarding the process working directory.
func NewFSDeleter() *FSDeleter {
	return &FSDeleter{}
}

// Delete implements Deleter. Nothing matching is not an error.
func (d *FSDeleter) Delete(ctx context.Context, globs []string) ([]string, error) {
	g := fileset.Globs(globs)
	m, err := fileset.NewMatcher(g)
	if err != nil {
		return nil, ferrors.CollaboratorError("delete", err).Build()
	}

	var matched []string
	for _, base := range g.Bases() {
		walkErr := filepath.WalkDir(filepath.FromSlash(base), func(p string, entry fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return filepath.SkipDir
				}
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			ok, err := m.MatchTree(filepath.ToSlash(p))
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			matched = append(matched, p)
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		})
		if walkErr != nil {
			return nil, ferrors.CollaboratorError("delete", walkErr).Build()
		}
	}

	if err := d.guard(matched); err != nil {
		return nil, err
	}

	deleted := make([]string, 0, len(matched))
	for i := len(matched) - 1; i >= 0; i-- {
		if err := os.RemoveAll(matched[i]); err != nil {
			return deleted, ferrors.CollaboratorError("delete", err).WithContext("path", matched[i]).Build()
		}
		deleted = append(deleted, filepath.ToSlash(matched[i]))
	}
	return deleted, nil
}

// guard refuses to delete the working directory or any of its ancestors.
func (d *FSDeleter) guard(paths []string) error {
	wd := d.WorkDir
	if wd == "" {
		var err error
		if wd, err = os.Getwd(); err != nil {
			return ferrors.CollaboratorError("delete", err).Build()
		}
	}
	wd, err := filepath.Abs(wd)
	if err != nil {
		return ferrors.CollaboratorError("delete", err).Build()
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return ferrors.CollaboratorError("delete", err).Build()
		}
		if abs == wd || strings.HasPrefix(wd, strings.TrimSuffix(abs, string(filepath.Separator))+string(filepath.Separator)) {
			return ferrors.CollaboratorError("delete",
				errors.New("refusing to delete the working directory or its parent: "+p)).
				WithContext("path", p).
				Build()
		}
	}
	return nil
}
