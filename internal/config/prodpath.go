package config

import (
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/tsbuild/internal/foundation/errors"
)

const productionInfix = ".prod"

// ProductionPath inserts ".prod" before the final extension of p's base name,
// so "./tslint.json" becomes "./tslint.prod.json". A path whose base name has
// no extension (including dotfiles such as ".eslintrc") is rejected.
func ProductionPath(p string) (string, error) {
	dir, base := splitBase(p)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if ext == "" || ext == "." || stem == "" {
		return "", ferrors.ConfigError("cannot derive production path").
			WithContext("path", p).
			Build()
	}
	return dir + stem + productionInfix + ext, nil
}

// splitBase splits p after its last separator without cleaning it, keeping
// prefixes like "./" intact.
func splitBase(p string) (string, string) {
	i := strings.LastIndexAny(p, `/\`)
	if i < 0 {
		return "", p
	}
	return p[:i+1], p[i+1:]
}

// joinRoot places p under root. The default root and absolute paths leave p
// untouched.
func joinRoot(root, p string) string {
	if root == "" || root == DefaultRootPath || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
