// Package tasks builds the named build operations (clean, copy, lint,
// compile, watch) and the composed default pipeline from a resolved
// configuration.
//
// Every handle satisfies Task and runs to completion or fails. The default
// pipeline runs clean, then lint, then copy and compile concurrently, and
// stops at the first failure. The actual work is delegated to the
// collaborators in Deps.
package tasks
