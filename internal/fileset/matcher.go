package fileset

import (
	"path/filepath"

	"github.com/moby/patternmatcher"
)

// Matcher evaluates a Globs list against slash-separated paths.
type Matcher struct {
	pm *patternmatcher.PatternMatcher
}

// NewMatcher compiles globs. Paths passed to Match must use the same prefix
// convention as the globs (both relative to the working directory, or both
// absolute).
func NewMatcher(globs Globs) (*Matcher, error) {
	patterns := make([]string, 0, len(globs))
	for _, g := range globs {
		patterns = append(patterns, filepath.FromSlash(normalize(g)))
	}
	pm, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, err
	}
	return &Matcher{pm: pm}, nil
}

// Match reports whether the full path p is selected by the glob list. A
// matching parent directory does not select p: src/lib.ts/readme.md is not
// a source file.
func (m *Matcher) Match(p string) (bool, error) {
	// With parentMatched=false only p itself is tested against each pattern,
	// in order, with exclusions applied.
	return m.pm.MatchesUsingParentResult(filepath.FromSlash(clean(p)), false) //nolint:staticcheck // full-path semantics wanted
}

// MatchTree reports whether p or one of its parent directories is selected.
// Deleting a matched directory removes everything below it.
func (m *Matcher) MatchTree(p string) (bool, error) {
	return m.pm.MatchesOrParentMatches(filepath.FromSlash(clean(p)))
}
