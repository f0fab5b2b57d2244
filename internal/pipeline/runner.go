// Package pipeline drives a complete sync run.
//
// A run resets the output root, then fetches and copies every source in
// configuration order. A source that cannot be fetched or copied is recorded in
// the report and skipped. The index is generated once at the end. History,
// metrics and notifications are side channels whose failures only log.
package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/docs"
	"git.home.luguber.info/inful/docsync/internal/git"
	"git.home.luguber.info/inful/docsync/internal/history"
	"git.home.luguber.info/inful/docsync/internal/index"
	"git.home.luguber.info/inful/docsync/internal/logfields"
	"git.home.luguber.info/inful/docsync/internal/metrics"
	"git.home.luguber.info/inful/docsync/internal/notify"
	"git.home.luguber.info/inful/docsync/internal/report"
	"git.home.luguber.info/inful/docsync/internal/source"
	"git.home.luguber.info/inful/docsync/internal/workspace"
)

// Fetcher guarantees an up-to-date working copy for a source.
type Fetcher interface {
	Sync(ctx context.Context, src config.Source) (git.Result, error)
}

// Runner executes sync runs.
type Runner struct {
	plan     Plan
	sources  []config.Source
	fetcher  Fetcher
	copier   *docs.Copier
	recorder metrics.Recorder
	history  history.Store
	notifier notify.Notifier
	out      io.Writer
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithRecorder sends per-source and per-run measurements to r.
func WithRecorder(r metrics.Recorder) Option { return func(rn *Runner) { rn.recorder = r } }

// WithHistory records each report in s.
func WithHistory(s history.Store) Option { return func(rn *Runner) { rn.history = s } }

// WithNotifier publishes each finished report through n.
func WithNotifier(n notify.Notifier) Option { return func(rn *Runner) { rn.notifier = n } }

// WithOutput sets where user-facing progress lines go (stdout by default).
func WithOutput(w io.Writer) Option { return func(rn *Runner) { rn.out = w } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(rn *Runner) { rn.now = now } }

// NewRunner returns a runner for sources.
func NewRunner(plan Plan, sources []config.Source, fetcher Fetcher, opts ...Option) *Runner {
	r := &Runner{
		plan:     plan,
		sources:  sources,
		fetcher:  fetcher,
		copier:   docs.NewCopier(plan.Extensions),
		recorder: metrics.NoopRecorder{},
		notifier: notify.Noop{},
		out:      os.Stdout,
		now:      time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run performs one full rebuild. The returned error is non-nil only for failures
// that abort the run (output root, index, cancellation); per-source failures are
// reported in the Report.
func (r *Runner) Run(ctx context.Context) (*report.Report, error) {
	rep := &report.Report{RunID: uuid.NewString(), StartedAt: r.now()}
	log := slog.With(logfields.RunID(rep.RunID))
	log.Info("Starting sync run", logfields.Count(len(r.sources)), logfields.Dest(r.plan.OutputDir))

	if r.plan.Prune {
		r.prune(log)
	}
	if err := workspace.Reset(r.plan.OutputDir); err != nil {
		return rep, err
	}

	for _, src := range r.sources {
		if err := ctx.Err(); err != nil {
			return rep, fmt.Errorf("run canceled: %w", err)
		}
		res := r.syncSource(ctx, log, src)
		r.recorder.IncSourceResult(string(res.Status))
		r.recorder.AddFilesCopied(res.Name, res.Files)
		rep.Sources = append(rep.Sources, res)
	}

	gen := index.NewGenerator(r.plan.OutputDir, r.plan.IndexPath, r.plan.IndexTitle, r.plan.Extensions)
	idx, err := gen.Generate()
	if err != nil {
		return rep, err
	}
	rep.IndexPath = idx.Path
	rep.IndexedFiles = len(idx.Entries)
	r.recorder.SetIndexedFiles(rep.IndexedFiles)

	if r.plan.VerifyIndex {
		missing, verr := index.Verify(idx.Path)
		if verr != nil {
			log.Warn("Index verification failed", logfields.Error(verr))
		}
		for _, m := range missing {
			log.Warn("Index link target missing", logfields.Path(m))
		}
		rep.MissingLinks = missing
	}

	if digest, derr := docs.TreeDigest(r.plan.OutputDir); derr != nil {
		log.Warn("Could not hash output tree", logfields.Error(derr))
	} else {
		rep.OutputDigest = digest
	}

	rep.Duration = r.now().Sub(rep.StartedAt)
	r.recorder.ObserveRunDuration(rep.Duration)
	r.publish(ctx, log, rep)

	failed := len(rep.Failed())
	_, _ = fmt.Fprintf(r.out, "Sync complete: %d of %d sources synced, %d files indexed in %s\n",
		len(rep.Sources)-failed, len(rep.Sources), rep.IndexedFiles, rep.IndexPath)
	log.Info("Sync run finished",
		logfields.Count(rep.FilesCopied()),
		slog.Int("failed", failed),
		logfields.Duration(rep.Duration))
	return rep, nil
}

func (r *Runner) syncSource(ctx context.Context, log *slog.Logger, src config.Source) (res report.SourceResult) {
	name := src.DisplayName()
	res = report.SourceResult{Name: name, URL: src.URL}
	start := r.now()
	defer func() { res.Duration = r.now().Sub(start) }()

	fetched, err := r.fetcher.Sync(ctx, src)
	r.recorder.ObserveFetchDuration(name, r.now().Sub(start), err == nil)
	if err != nil {
		_, _ = fmt.Fprintf(r.out, "Failed to clone or pull repository: %s\n", src.URL)
		log.Error("Fetch failed, skipping source", logfields.Source(name), logfields.URL(src.URL), logfields.Error(err))
		res.Status = report.StatusFetchFailed
		res.Error = err.Error()
		return res
	}
	res.Commit = fetched.Commit

	tasks, err := source.Expand(src, fetched.Path, r.plan.OutputDir)
	if err != nil {
		log.Error("Could not resolve source paths", logfields.Source(name), logfields.Error(err))
		res.Status = report.StatusCopyFailed
		res.Error = err.Error()
		return res
	}
	res.Tasks = len(tasks)

	var errs []error
	for _, task := range tasks {
		n, cerr := r.copier.Copy(task)
		res.Files += n
		if cerr != nil {
			log.Warn("Copy failed", logfields.Source(name), logfields.Subfolder(task.Subfolder), logfields.Error(cerr))
			errs = append(errs, cerr)
		}
	}
	if len(errs) > 0 {
		res.Status = report.StatusCopyFailed
		res.Error = stderrors.Join(errs...).Error()
		return res
	}

	res.Status = report.StatusOK
	log.Info("Source synced", logfields.Source(name), logfields.Commit(res.Commit), logfields.Count(res.Files))
	return res
}

func (r *Runner) prune(log *slog.Logger) {
	keep := make([]string, 0, len(r.sources))
	for _, s := range r.sources {
		keep = append(keep, s.DisplayName())
	}
	removed, err := workspace.NewManager(r.plan.WorkspaceDir).Prune(keep)
	if err != nil {
		log.Warn("Pruning stale working copies failed", logfields.Error(err))
	}
	for _, name := range removed {
		log.Info("Removed stale working copy", logfields.Source(name))
	}
}

func (r *Runner) publish(ctx context.Context, log *slog.Logger, rep *report.Report) {
	if r.history != nil {
		if err := r.history.Record(ctx, rep); err != nil {
			log.Warn("Recording run history failed", logfields.Error(err))
		}
	}
	if err := r.notifier.Notify(ctx, rep); err != nil {
		log.Warn("Publishing run report failed", logfields.Error(err))
	}
}
