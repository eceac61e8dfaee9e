// Package watch turns filesystem changes into coalesced rebuild triggers.
//
// FSWatcher observes the directories behind a glob list and calls back,
// debounced, when a matching file changes. Coalescer guarantees that the
// rebuild callback never runs twice at once: triggers that arrive while a run
// is in flight collapse into a single follow-up run.
package watch
