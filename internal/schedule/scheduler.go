// Package schedule runs callbacks periodically, on a Go duration or a cron
// expression.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"

	ferrors "git.home.luguber.info/inful/tsbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/tsbuild/internal/logfields"
)

// Scheduler wraps gocron scheduler for managing periodic task runs.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Definition turns spec into a job definition. A spec that parses as a Go
// duration ("30s", "5m") runs at that interval; anything else is a cron
// expression, with an optional leading seconds field when it has six fields.
func Definition(spec string) (gocron.JobDefinition, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, ferrors.ConfigError("schedule must not be empty").Build()
	}
	if d, err := time.ParseDuration(spec); err == nil {
		if d <= 0 {
			return nil, ferrors.ConfigError("schedule interval must be positive").
				WithContext("schedule", spec).
				Build()
		}
		return gocron.DurationJob(d), nil
	}
	withSeconds := len(strings.Fields(spec)) == 6
	return gocron.CronJob(spec, withSeconds), nil
}

// Every registers fn under name on spec and returns the job ID.
// Overlapping runs of the same job are skipped.
func (s *Scheduler) Every(spec, name string, fn func()) (string, error) {
	def, err := Definition(spec)
	if err != nil {
		return "", err
	}
	job, err := s.scheduler.NewJob(
		def,
		gocron.NewTask(func() {
			slog.Info("Executing scheduled run", logfields.Task(name), logfields.Trigger("schedule"))
			fn()
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", ferrors.ConfigError("invalid schedule").
			WithCause(err).
			WithContext("schedule", spec).
			Build()
	}
	return job.ID().String(), nil
}

// NextRun returns the next run time of the job with the given ID.
func (s *Scheduler) NextRun(id string) (time.Time, error) {
	for _, j := range s.scheduler.Jobs() {
		if j.ID().String() == id {
			return j.NextRun()
		}
	}
	return time.Time{}, fmt.Errorf("job %s not found", id)
}

// Start begins the scheduler.
func (s *Scheduler) Start(_ context.Context) {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop(_ context.Context) error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}
