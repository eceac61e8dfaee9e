// Package state keeps per-task bookkeeping between invocations: when each
// task last completed successfully (the reference point for incremental
// selections) and a history of task runs.
package state

import (
	"context"
	"time"
)

// Outcome is the final status of a task run.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Run records one task execution.
type Run struct {
	ID       int64
	RunID    string
	Task     string
	Started  time.Time
	Finished time.Time
	Outcome  Outcome
	Error    string
	Files    int
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Store persists task runs.
type Store interface {
	// LastRun returns the start time of the most recent successful run of
	// task that has not been reset since.
	LastRun(ctx context.Context, task string) (time.Time, bool, error)

	// RecordRun appends run to the history. A successful run also becomes
	// the task's last run.
	RecordRun(ctx context.Context, run Run) error

	// Reset forgets the last run of each task, forcing a full selection.
	Reset(ctx context.Context, tasks ...string) error

	// History returns up to limit runs, newest first. limit <= 0 returns all.
	History(ctx context.Context, limit int) ([]Run, error)

	Close() error
}
