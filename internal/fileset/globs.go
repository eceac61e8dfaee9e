package fileset

import (
	"path"
	"strings"
)

// Globs is an ordered glob list. Entries starting with "!" exclude.
type Globs []string

// CopyGlobs selects every file under src except TypeScript sources.
func CopyGlobs(src string) Globs {
	src = clean(src)
	return Globs{
		src + "/**/*.*",
		"!" + src + "/**/*.ts*",
	}
}

// SourceGlobs selects TypeScript sources under src, excluding declaration
// files and anything below an ignored directory.
func SourceGlobs(src string, ignores []string) Globs {
	src = clean(src)
	g := Globs{
		src + "/**/*.ts*",
		"!**/*.d.ts",
	}
	for _, ig := range ignores {
		g = append(g, "!"+clean(ig)+"/**/*.ts*")
	}
	return g
}

// WatchGlobs selects every file under src.
func WatchGlobs(src string) Globs {
	return Globs{clean(src) + "/**/*.*"}
}

// Positive returns the non-negated entries.
func (g Globs) Positive() []string {
	var out []string
	for _, p := range g {
		if !strings.HasPrefix(p, "!") {
			out = append(out, p)
		}
	}
	return out
}

// Bases returns the distinct static directory prefixes of the positive
// entries, in order.
func (g Globs) Bases() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range g.Positive() {
		b := Base(p)
		if !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	return out
}

// Base returns the directory prefix of glob up to the first segment holding
// a wildcard. A glob without wildcards is its own base.
func Base(glob string) string {
	glob = clean(strings.TrimPrefix(glob, "!"))
	if !HasMeta(glob) {
		return glob
	}
	segments := strings.Split(glob, "/")
	var static []string
	for _, s := range segments {
		if HasMeta(s) {
			break
		}
		static = append(static, s)
	}
	if len(static) == 0 {
		return "."
	}
	if len(static) == 1 && static[0] == "" {
		return "/"
	}
	return strings.Join(static, "/")
}

// HasMeta reports whether s contains glob metacharacters.
func HasMeta(s string) bool {
	return strings.ContainsAny(s, `*?[`)
}

// normalize cleans the path part of a glob entry while keeping its negation.
func normalize(p string) string {
	if rest, ok := strings.CutPrefix(p, "!"); ok {
		return "!" + clean(rest)
	}
	return clean(p)
}

func clean(p string) string {
	return path.Clean(strings.ReplaceAll(p, `\`, "/"))
}
