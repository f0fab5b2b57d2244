package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/docsync/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of runs to show (0 for all)" default:"10"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	out := g.out()
	if !cfg.History.Enabled {
		_, _ = fmt.Fprintln(out, "Run history is disabled (set history.enabled: true)")
		return nil
	}

	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.List(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "STARTED\tRUN\tSOURCES\tFILES\tINDEXED\tDURATION")
	for _, r := range runs {
		failed := len(r.Failed())
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d\t%d\t%s\n",
			r.StartedAt.Local().Format(time.DateTime),
			shortID(r.RunID),
			len(r.Sources)-failed, len(r.Sources),
			r.FilesCopied(),
			r.IndexedFiles,
			r.Duration.Round(time.Millisecond))
		for _, f := range r.Failed() {
			_, _ = fmt.Fprintf(w, "\t  %s\t%s\t\t\t\n", f.Name, f.Status)
		}
	}
	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
