package commands

import (
	"context"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
	"git.home.luguber.info/inful/docsync/internal/git"
	"git.home.luguber.info/inful/docsync/internal/history"
	"git.home.luguber.info/inful/docsync/internal/logfields"
	"git.home.luguber.info/inful/docsync/internal/metrics"
	"git.home.luguber.info/inful/docsync/internal/notify"
	"git.home.luguber.info/inful/docsync/internal/pipeline"
	"git.home.luguber.info/inful/docsync/internal/report"
	"git.home.luguber.info/inful/docsync/internal/workspace"
)

// SyncCmd implements the 'sync' command, which is also the default.
type SyncCmd struct {
	Output      string `short:"o" help:"Output directory (overrides output.directory)"`
	Workspace   string `short:"w" help:"Directory holding working copies (overrides sync.workspace_dir)"`
	Index       string `help:"Index document path (overrides output.index_file)"`
	Strict      bool   `help:"Exit non-zero when any source fails"`
	Prune       bool   `help:"Remove working copies of sources that are no longer configured"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics to this textfile (overrides metrics.textfile)"`
}

func (s *SyncCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if s.MetricsFile != "" {
		cfg.Metrics.Textfile = s.MetricsFile
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rep, err := RunSync(ctx, cfg, SyncOptions{
		Output:    s.Output,
		Workspace: s.Workspace,
		Index:     s.Index,
		Prune:     s.Prune,
	}, g.out())
	if err != nil {
		return err
	}
	if s.Strict && rep.HasFailures() {
		return errors.NewError(errors.CategoryRuntime, "sync finished with failures").
			WithContext("failed_sources", len(rep.Failed())).
			WithContext("missing_links", len(rep.MissingLinks)).
			Build()
	}
	return nil
}

// SyncOptions carries command-line overrides for one run.
type SyncOptions struct {
	Output    string
	Workspace string
	Index     string
	Prune     bool
	// GitOptions are appended after the options derived from the sync section.
	GitOptions []git.Option
}

// RunSync wires the configured side channels around a pipeline run and executes it.
// Side channels that cannot be opened are skipped with a warning.
func RunSync(ctx context.Context, cfg *config.Config, o SyncOptions, out io.Writer) (*report.Report, error) {
	plan, err := pipeline.NewPlanBuilder(cfg).
		WithOutput(o.Output).
		WithWorkspace(o.Workspace).
		WithIndex(o.Index).
		WithPrune(o.Prune).
		Build()
	if err != nil {
		return nil, err
	}

	ws := workspace.NewManager(plan.WorkspaceDir)
	if err := ws.Create(); err != nil {
		return nil, err
	}
	client := git.NewClientFromConfig(ws, cfg.Sync, o.GitOptions...)

	opts := []pipeline.Option{pipeline.WithOutput(out)}

	var recorder *metrics.PrometheusRecorder
	if cfg.Metrics.Textfile != "" {
		recorder = metrics.NewPrometheusRecorder(nil)
		opts = append(opts, pipeline.WithRecorder(recorder))
	}

	if cfg.History.Enabled {
		store, herr := history.NewSQLiteStore(cfg.History.Path)
		if herr != nil {
			slog.Warn("Run history unavailable", logfields.Path(cfg.History.Path), logfields.Error(herr))
		} else {
			defer func() { _ = store.Close() }()
			opts = append(opts, pipeline.WithHistory(store))
		}
	}

	if cfg.Notify.NATSURL != "" {
		n, nerr := notify.NewNATSNotifier(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if nerr != nil {
			slog.Warn("Run notifications unavailable", logfields.URL(cfg.Notify.NATSURL), logfields.Error(nerr))
		} else {
			defer func() { _ = n.Close() }()
			opts = append(opts, pipeline.WithNotifier(n))
		}
	}

	rep, err := pipeline.NewRunner(plan, cfg.Sources, client, opts...).Run(ctx)
	if recorder != nil {
		if werr := recorder.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			slog.Warn("Writing metrics textfile failed", logfields.Path(cfg.Metrics.Textfile), logfields.Error(werr))
		}
	}
	return rep, err
}
