// Package errors provides the classified error primitives used across tsbuild.
//
// Two kinds of failure matter to callers of the build factory:
//   - CategoryConfig: a malformed or ambiguous option record. Raised by the
//     options resolver before any task handle exists, and by clean when it is
//     asked to delete nothing.
//   - CategoryCollaborator: anything reported by an external tool (compiler,
//     linter, transformer, deleter, watcher). The tool's message is kept verbatim.
//
// Example usage:
//
//	err := errors.ConfigError("ignoreGlobs must be a non-empty string or array").
//		WithContext("field", "ignoreGlobs").
//		Build()
package errors
