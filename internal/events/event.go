// Package events publishes task lifecycle notifications.
package events

import (
	"context"
	"time"
)

// Type is the lifecycle stage an Event reports.
type Type string

const (
	TypeStarted   Type = "started"
	TypeSucceeded Type = "succeeded"
	TypeFailed    Type = "failed"
)

// Event describes a change in a task's lifecycle.
type Event struct {
	RunID      string    `json:"run_id"`
	Task       string    `json:"task"`
	Type       Type      `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMS int64     `json:"duration_ms,omitempty"`
	Files      int       `json:"files,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Publisher delivers events. Publish failures are reported to the caller,
// which decides whether they matter; task runs treat them as warnings.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
