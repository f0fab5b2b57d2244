package git

import (
	"context"
	"io"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/logfields"
	"git.home.luguber.info/inful/docsync/internal/retry"
	"git.home.luguber.info/inful/docsync/internal/workspace"
)

const (
	opClone  = "clone"
	opUpdate = "update"
)

// Result describes the working copy after a successful Sync.
type Result struct {
	Path   string
	Commit string
	Branch string
	Cloned bool // false when an existing copy was updated
}

// Client performs clone and update operations inside a workspace.
type Client struct {
	workspace    *workspace.Manager
	depth        int
	policy       retry.Policy
	fetchTimeout time.Duration
	progress     io.Writer
}

// Option configures a Client.
type Option func(*Client)

// WithDepth sets the clone/fetch depth; 0 fetches full history.
func WithDepth(depth int) Option { return func(c *Client) { c.depth = depth } }

func WithRetryPolicy(p retry.Policy) Option { return func(c *Client) { c.policy = p } }

// WithFetchTimeout bounds each clone or fetch attempt; 0 disables the bound.
func WithFetchTimeout(d time.Duration) Option { return func(c *Client) { c.fetchTimeout = d } }

// WithProgress streams remote progress messages to w.
func WithProgress(w io.Writer) Option { return func(c *Client) { c.progress = w } }

// NewClient returns a client that shallow-clones (depth 1) without retries.
func NewClient(ws *workspace.Manager, opts ...Option) *Client {
	c := &Client{workspace: ws, depth: config.DefaultDepth, policy: retry.DefaultPolicy()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewClientFromConfig applies the sync section of cfg.
func NewClientFromConfig(ws *workspace.Manager, cfg config.SyncConfig, opts ...Option) *Client {
	depth := cfg.Depth
	if depth == config.FullHistoryDepth {
		depth = 0
	}
	base := []Option{
		WithDepth(depth),
		WithRetryPolicy(retry.FromSyncConfig(cfg)),
		WithFetchTimeout(cfg.FetchTimeoutDuration()),
	}
	return NewClient(ws, append(base, opts...)...)
}

// Sync guarantees an up-to-date working copy for src under the workspace.
func (c *Client) Sync(ctx context.Context, src config.Source) (Result, error) {
	name := src.DisplayName()
	repoPath, err := c.workspace.RepoPath(name)
	if err != nil {
		return Result{}, &FetchError{Source: name, URL: src.URL, Op: opClone, Err: err}
	}

	op := opClone
	if c.workspace.HasClone(name) {
		op = opUpdate
	}

	var res Result
	err = c.policy.Do(ctx, func(ctx context.Context) error {
		attemptCtx, cancel := c.attemptContext(ctx)
		defer cancel()
		var opErr error
		if op == opUpdate {
			res, opErr = c.update(attemptCtx, repoPath, src)
		} else {
			res, opErr = c.clone(attemptCtx, repoPath, src)
		}
		return ClassifyGitError(opErr, op, src.URL)
	}, IsPermanent, func(attempt int, delay time.Duration, lastErr error) {
		slog.Warn("Retrying git operation",
			slog.String("operation", op),
			logfields.Source(name),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			logfields.Error(lastErr))
	})
	if err != nil {
		return Result{}, &FetchError{Source: name, URL: src.URL, Op: op, Err: err}
	}
	return res, nil
}

func (c *Client) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.fetchTimeout > 0 {
		return context.WithTimeout(ctx, c.fetchTimeout)
	}
	return context.WithCancel(ctx)
}
