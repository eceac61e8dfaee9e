package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/tsbuild/internal/state"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of runs to show (0 for all)" default:"20"`
	Task  string `short:"t" help:"Only show runs of this task"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	store, err := root.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := h.runs(context.Background(), store)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tTASK\tOUTCOME\tDURATION\tFILES\tRUN\tERROR")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.Started.Format(time.RFC3339),
			r.Task,
			r.Outcome,
			r.Duration().Round(time.Millisecond),
			r.Files,
			shortID(r.RunID),
			firstLine(r.Error),
		)
	}
	return tw.Flush()
}

func (h *HistoryCmd) runs(ctx context.Context, store state.Store) ([]state.Run, error) {
	if h.Task == "" {
		return store.History(ctx, h.Limit)
	}
	all, err := store.History(ctx, 0)
	if err != nil {
		return nil, err
	}
	var out []state.Run
	for _, r := range all {
		if r.Task != h.Task {
			continue
		}
		out = append(out, r)
		if h.Limit > 0 && len(out) == h.Limit {
			break
		}
	}
	return out, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
