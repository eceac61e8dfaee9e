package commands

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/tsbuild/internal/logfields"
	"git.home.luguber.info/inful/tsbuild/internal/schedule"
	"git.home.luguber.info/inful/tsbuild/internal/tasks"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Schedule string        `help:"Also rebuild periodically: a Go duration (10m) or a cron expression"`
	Debounce time.Duration `help:"Quiet period before a burst of changes triggers a rebuild" default:"200ms"`
	Initial  bool          `help:"Run the default pipeline once before watching"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	rt, err := root.NewRuntime(g, runtimeOptions{debounce: w.Debounce})
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			g.Logger.Warn("Failed to release resources", logfields.Error(err))
		}
	}()

	ctx, cancel := signalContext()
	defer cancel()
	return w.watch(ctx, g, rt.Set)
}

func (w *WatchCmd) watch(ctx context.Context, g *Global, set *tasks.Set) error {
	if w.Initial {
		if err := set.Default.Run(ctx); err != nil {
			g.Logger.Warn("Initial build failed", logfields.Error(err))
		}
	}

	var sched *schedule.Scheduler
	if w.Schedule != "" {
		var err error
		if sched, err = schedule.NewScheduler(); err != nil {
			return err
		}
		id, err := sched.Every(w.Schedule, tasks.NameDefault, func() {
			set.Watch.Trigger(ctx, tasks.TriggerSchedule)
		})
		if err != nil {
			_ = sched.Stop(ctx)
			return err
		}
		sched.Start(ctx)
		if next, err := sched.NextRun(id); err == nil {
			g.Logger.Info("Scheduled rebuilds enabled", slog.String("schedule", w.Schedule), slog.Time("next_run", next))
		}
	}

	err := set.Watch.Run(ctx)

	if sched != nil {
		if stopErr := sched.Stop(context.WithoutCancel(ctx)); stopErr != nil {
			g.Logger.Warn("Failed to stop scheduler", logfields.Error(stopErr))
		}
		set.Watch.Wait()
	}
	return err
}
