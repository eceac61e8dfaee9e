package tasks

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Task is a named build operation.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

type funcTask struct {
	name string
	fn   func(ctx context.Context) error
}

// Func adapts fn into a Task called name.
func Func(name string, fn func(ctx context.Context) error) Task {
	return &funcTask{name: name, fn: fn}
}

func (t *funcTask) Name() string                  { return t.name }
func (t *funcTask) Run(ctx context.Context) error { return t.fn(ctx) }

// Series runs tasks one after another and stops at the first failure.
func Series(name string, tasks ...Task) Task {
	return Func(name, func(ctx context.Context) error {
		for _, t := range tasks {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := t.Run(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// Parallel runs tasks concurrently and returns once all of them have
// finished. The first error is returned; siblings are not cancelled.
func Parallel(name string, tasks ...Task) Task {
	return Func(name, func(ctx context.Context) error {
		var g errgroup.Group
		for _, t := range tasks {
			g.Go(func() error { return t.Run(ctx) })
		}
		return g.Wait()
	})
}
