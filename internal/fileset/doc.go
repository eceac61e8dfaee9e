// Package fileset assembles the glob lists each build task works on and turns
// them into concrete file selections.
//
// Glob lists are ordered and may contain negated entries ("!pattern"). A path
// is selected when the last entry that matches it is not negated, the same
// rule gulp and .dockerignore files use. Matching is delegated to
// github.com/moby/patternmatcher.
package fileset
