package fileset

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// File is one selected file. Rel is the path relative to Base and decides
// where the file lands when written to an output directory.
type File struct {
	Path     string
	Base     string
	Rel      string
	Mode     fs.FileMode
	ModTime  time.Time
	Contents []byte
}

// Paths returns the Path of every file.
func Paths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

// Selector walks glob bases and reads matching files.
type Selector struct {
	// SkipDirs are directory names never descended into.
	SkipDirs []string
}

// NewSelector returns a Selector that skips VCS and dependency directories.
func NewSelector() *Selector {
	return &Selector{SkipDirs: []string{".git", "node_modules"}}
}

// Select returns the files matched by globs, modified after since (a zero
// since selects everything), sorted by path. Bases that do not exist select
// nothing.
func (s *Selector) Select(ctx context.Context, globs Globs, since time.Time) ([]File, error) {
	m, err := NewMatcher(globs)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var files []File
	for _, base := range globs.Bases() {
		walkErr := filepath.WalkDir(filepath.FromSlash(base), func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) && p == filepath.FromSlash(base) {
					return filepath.SkipDir
				}
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if d.IsDir() {
				if s.skip(d.Name()) && p != filepath.FromSlash(base) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || seen[p] {
				return nil
			}
			ok, err := m.Match(filepath.ToSlash(p))
			if err != nil || !ok {
				return err
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			if !since.IsZero() && !info.ModTime().After(since) {
				return nil
			}
			contents, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(filepath.FromSlash(base), p)
			if err != nil {
				return err
			}
			seen[p] = true
			files = append(files, File{
				Path:     filepath.ToSlash(p),
				Base:     base,
				Rel:      filepath.ToSlash(rel),
				Mode:     info.Mode().Perm(),
				ModTime:  info.ModTime(),
				Contents: contents,
			})
			return nil
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (s *Selector) skip(name string) bool {
	for _, d := range s.SkipDirs {
		if d == name {
			return true
		}
	}
	return false
}

// Write writes every file to dest/Rel, creating directories as needed.
func Write(ctx context.Context, dest string, files []File) error {
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := filepath.Join(dest, filepath.FromSlash(f.Rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		mode := f.Mode
		if mode == 0 {
			mode = 0o644
		}
		if err := os.WriteFile(target, f.Contents, mode); err != nil {
			return err
		}
	}
	return nil
}
