package watch

import (
	"context"
	"sync"
)

// Coalescer runs fn for triggers, with at most one run in flight and at most
// one run pending.
type Coalescer struct {
	fn func(ctx context.Context)

	mu      sync.Mutex
	running bool
	pending bool
	wg      sync.WaitGroup
}

// NewCoalescer creates a Coalescer around fn.
func NewCoalescer(fn func(ctx context.Context)) *Coalescer {
	return &Coalescer{fn: fn}
}

// Trigger requests a run. It never blocks: if a run is in flight the request
// is folded into the pending rerun.
func (c *Coalescer) Trigger(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.pending = true
		c.mu.Unlock()
		return
	}
	c.running = true
	c.wg.Add(1)
	c.mu.Unlock()

	go c.loop(ctx)
}

func (c *Coalescer) loop(ctx context.Context) {
	defer c.wg.Done()
	for {
		c.fn(ctx)

		c.mu.Lock()
		if c.pending && ctx.Err() == nil {
			c.pending = false
			c.mu.Unlock()
			continue
		}
		c.pending = false
		c.running = false
		c.mu.Unlock()
		return
	}
}

// Running reports whether a run is in flight.
func (c *Coalescer) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Wait blocks until no run is in flight or pending.
func (c *Coalescer) Wait() {
	c.wg.Wait()
}
