package config

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
)

// DefaultEnvFiles are read in order by LoadEnvFiles.
var DefaultEnvFiles = []string{".env", ".env.local"}

// LoadEnvFiles loads KEY=VALUE files into the process environment so values
// such as NODE_ENV can come from a project .env. Variables already set in the
// environment are never overwritten. Missing files are skipped.
func LoadEnvFiles(paths ...string) ([]string, error) {
	if len(paths) == 0 {
		paths = DefaultEnvFiles
	}
	var loaded []string
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, err
		}
		slog.Debug("Loaded environment file", "path", p)
		loaded = append(loaded, p)
	}
	return loaded, nil
}
