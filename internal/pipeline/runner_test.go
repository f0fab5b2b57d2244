package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/git"
	"git.home.luguber.info/inful/docsync/internal/report"
	"git.home.luguber.info/inful/docsync/internal/testutil/testutils"
	"git.home.luguber.info/inful/docsync/internal/workspace"
)

// fakeFetcher serves pre-built working copies and canned failures.
type fakeFetcher struct {
	clones map[string]string
	fail   map[string]error
	calls  []string
}

func (f *fakeFetcher) Sync(_ context.Context, src config.Source) (git.Result, error) {
	name := src.DisplayName()
	f.calls = append(f.calls, name)
	if err, ok := f.fail[name]; ok {
		return git.Result{}, &git.FetchError{Source: name, URL: src.URL, Op: "clone", Err: err}
	}
	return git.Result{Path: f.clones[name], Commit: "0123456789abcdef"}, nil
}

type recordingHistory struct {
	reports []*report.Report
	err     error
}

func (h *recordingHistory) Record(_ context.Context, r *report.Report) error {
	h.reports = append(h.reports, r)
	return h.err
}
func (h *recordingHistory) List(context.Context, int) ([]report.Report, error) { return nil, nil }
func (h *recordingHistory) Close() error                                       { return nil }

type recordingNotifier struct{ runIDs []string }

func (n *recordingNotifier) Notify(_ context.Context, r *report.Report) error {
	n.runIDs = append(n.runIDs, r.RunID)
	return errors.New("broker unavailable")
}
func (n *recordingNotifier) Close() error { return nil }

type fixture struct {
	root   string
	plan   Plan
	stdout *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	return &fixture{
		root: root,
		plan: Plan{
			OutputDir:    filepath.Join(root, "docs"),
			WorkspaceDir: filepath.Join(root, "source"),
			IndexPath:    filepath.Join(root, "README.md"),
		},
		stdout: &bytes.Buffer{},
	}
}

func (f *fixture) clone(t *testing.T, name string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(f.plan.WorkspaceDir, name)
	testutils.WriteTree(t, dir, files)
	return dir
}

func (f *fixture) readIndex(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile(f.plan.IndexPath)
	require.NoError(t, err)
	return string(b)
}

func TestRunCopiesMarkdownAndWritesIndex(t *testing.T) {
	f := newFixture(t)
	fetcher := &fakeFetcher{clones: map[string]string{
		"repo": f.clone(t, "repo", map[string]string{
			"docs/a.md":      "# A",
			"docs/b.txt":     "text",
			"docs/sub/c.mdx": "# C",
		}),
	}}
	sources := []config.Source{{URL: "https://example.com/org/repo", Path: "docs/", Dest: "out"}}

	rep, err := NewRunner(f.plan, sources, fetcher, WithOutput(f.stdout)).Run(context.Background())
	require.NoError(t, err)

	testutils.NewFileAssertions(t, f.plan.OutputDir).AssertTree("out/a.md", "out/sub/c.mdx")
	assert.Equal(t, "# Documentation Index\n\n- [docs/out/a.md](docs/out/a.md)\n- [docs/out/sub/c.mdx](docs/out/sub/c.mdx)\n", f.readIndex(t))

	require.Len(t, rep.Sources, 1)
	assert.Equal(t, report.StatusOK, rep.Sources[0].Status)
	assert.Equal(t, 2, rep.Sources[0].Files)
	assert.Equal(t, "0123456789abcdef", rep.Sources[0].Commit)
	assert.Equal(t, 2, rep.IndexedFiles)
	assert.NotEmpty(t, rep.RunID)
	assert.NotEmpty(t, rep.OutputDigest)
	assert.Contains(t, f.stdout.String(), "Sync complete: 1 of 1 sources synced, 2 files indexed")
}

func TestRunIsIdempotent(t *testing.T) {
	f := newFixture(t)
	fetcher := &fakeFetcher{clones: map[string]string{
		"ark": f.clone(t, "ark", map[string]string{
			"website/pages/intro.mdx":        "intro",
			"website/pages/guides/setup.md":  "setup",
			"website/pages/guides/image.png": "png",
		}),
		"solid-primitives": f.clone(t, "solid-primitives", map[string]string{
			"packages/storage/README.md": "storage",
			"packages/bounds/README.md":  "bounds",
		}),
	}}
	sources := []config.Source{
		{URL: "https://github.com/chakra-ui/ark", Name: "ark", Path: "website/pages", Dest: "ark-ui"},
		{URL: "https://github.com/solidjs-community/solid-primitives", Path: "packages/{subfolder}/README.md", Dest: "solid-primitives/{subfolder}.md"},
	}
	runner := NewRunner(f.plan, sources, fetcher, WithOutput(f.stdout))

	first, err := runner.Run(context.Background())
	require.NoError(t, err)
	tree1 := testutils.ListFiles(t, f.plan.OutputDir)
	index1 := f.readIndex(t)

	second, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, tree1, testutils.ListFiles(t, f.plan.OutputDir))
	assert.Equal(t, index1, f.readIndex(t))
	assert.Equal(t, first.OutputDigest, second.OutputDigest)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, []string{
		"ark-ui/guides/setup.md",
		"ark-ui/intro.mdx",
		"solid-primitives/bounds.md",
		"solid-primitives/storage.md",
	}, tree1)
}

func TestRunFetchFailureSkipsSource(t *testing.T) {
	f := newFixture(t)
	fetcher := &fakeFetcher{
		clones: map[string]string{
			"first": f.clone(t, "first", map[string]string{"README.md": "first"}),
			"third": f.clone(t, "third", map[string]string{"README.md": "third"}),
		},
		fail: map[string]error{"second": errors.New("repository not found")},
	}
	sources := []config.Source{
		{URL: "https://example.com/first", Path: "README.md", Dest: "first.md"},
		{URL: "https://example.com/second", Path: "docs", Dest: "second"},
		{URL: "https://example.com/third", Path: "README.md", Dest: "third.md"},
	}
	rec := &recordingHistory{}

	rep, err := NewRunner(f.plan, sources, fetcher, WithOutput(f.stdout), WithHistory(rec)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "third"}, fetcher.calls)
	testutils.NewFileAssertions(t, f.plan.OutputDir).
		AssertTree("first.md", "third.md").
		AssertNotExists("second")
	assert.Contains(t, f.stdout.String(), "Failed to clone or pull repository: https://example.com/second\n")
	assert.NotContains(t, f.readIndex(t), "second")

	require.Len(t, rep.Sources, 3)
	assert.Equal(t, report.StatusFetchFailed, rep.Sources[1].Status)
	assert.Contains(t, rep.Sources[1].Error, "repository not found")
	assert.True(t, rep.HasFailures())
	require.Len(t, rec.reports, 1)
	assert.Same(t, rep, rec.reports[0])
}

func TestRunCopyFailureIsRecorded(t *testing.T) {
	f := newFixture(t)
	fetcher := &fakeFetcher{clones: map[string]string{
		"moved": f.clone(t, "moved", map[string]string{"other/README.md": "x"}),
		"fine":  f.clone(t, "fine", map[string]string{"README.md": "fine"}),
	}}
	sources := []config.Source{
		{URL: "https://example.com/moved", Path: "docs", Dest: "moved"},
		{URL: "https://example.com/fine", Path: "README.md", Dest: "fine.md"},
	}

	rep, err := NewRunner(f.plan, sources, fetcher, WithOutput(f.stdout)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.StatusCopyFailed, rep.Sources[0].Status)
	assert.Contains(t, rep.Sources[0].Error, "source path not found")
	assert.Equal(t, report.StatusOK, rep.Sources[1].Status)
	testutils.NewFileAssertions(t, f.plan.OutputDir).AssertTree("fine.md")
}

func TestRunRemovesStaleOutput(t *testing.T) {
	f := newFixture(t)
	testutils.WriteTree(t, f.plan.OutputDir, map[string]string{"removed-upstream.md": "stale"})
	fetcher := &fakeFetcher{clones: map[string]string{"r": f.clone(t, "r", map[string]string{"a.md": "a"})}}

	_, err := NewRunner(f.plan, []config.Source{{URL: "u/r", Path: "a.md", Dest: "a.md"}}, fetcher, WithOutput(f.stdout)).Run(context.Background())
	require.NoError(t, err)
	testutils.NewFileAssertions(t, f.plan.OutputDir).AssertTree("a.md")
	assert.NotContains(t, f.readIndex(t), "removed-upstream")
}

func TestRunSideChannelFailuresDoNotAbort(t *testing.T) {
	f := newFixture(t)
	fetcher := &fakeFetcher{clones: map[string]string{"r": f.clone(t, "r", map[string]string{"a.md": "a"})}}
	hist := &recordingHistory{err: errors.New("disk full")}
	notifier := &recordingNotifier{}

	rep, err := NewRunner(f.plan, []config.Source{{URL: "u/r", Path: "a.md", Dest: "a.md"}}, fetcher,
		WithOutput(f.stdout), WithHistory(hist), WithNotifier(notifier)).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, hist.reports, 1)
	assert.Equal(t, []string{rep.RunID}, notifier.runIDs)
}

type countingRecorder struct {
	fetches  map[string]bool
	statuses []string
	files    map[string]int
	runs     int
	indexed  int
}

func (r *countingRecorder) ObserveFetchDuration(source string, _ time.Duration, success bool) {
	r.fetches[source] = success
}
func (r *countingRecorder) IncSourceResult(status string)       { r.statuses = append(r.statuses, status) }
func (r *countingRecorder) AddFilesCopied(source string, n int) { r.files[source] += n }
func (r *countingRecorder) ObserveRunDuration(time.Duration)    { r.runs++ }
func (r *countingRecorder) SetIndexedFiles(n int)               { r.indexed = n }

func TestRunFeedsRecorder(t *testing.T) {
	f := newFixture(t)
	fetcher := &fakeFetcher{
		clones: map[string]string{"ok": f.clone(t, "ok", map[string]string{"docs/a.md": "a", "docs/b.md": "b"})},
		fail:   map[string]error{"down": errors.New("connection refused")},
	}
	rec := &countingRecorder{fetches: map[string]bool{}, files: map[string]int{}}
	sources := []config.Source{
		{URL: "https://example.com/ok", Path: "docs", Dest: "ok"},
		{URL: "https://example.com/down", Path: "docs", Dest: "down"},
	}

	_, err := NewRunner(f.plan, sources, fetcher, WithOutput(f.stdout), WithRecorder(rec)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{"ok": true, "down": false}, rec.fetches)
	assert.Equal(t, []string{string(report.StatusOK), string(report.StatusFetchFailed)}, rec.statuses)
	assert.Equal(t, 2, rec.files["ok"])
	assert.Equal(t, 1, rec.runs)
	assert.Equal(t, 2, rec.indexed)
}

func TestRunVerifyIndex(t *testing.T) {
	f := newFixture(t)
	f.plan.VerifyIndex = true
	fetcher := &fakeFetcher{clones: map[string]string{"r": f.clone(t, "r", map[string]string{"docs/x (1).md": "x"})}}

	rep, err := NewRunner(f.plan, []config.Source{{URL: "u/r", Path: "docs", Dest: "r"}}, fetcher, WithOutput(f.stdout)).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rep.MissingLinks)
	assert.False(t, rep.HasFailures())
}

func TestRunDurationUsesClock(t *testing.T) {
	f := newFixture(t)
	fetcher := &fakeFetcher{clones: map[string]string{"r": f.clone(t, "r", map[string]string{"a.md": "a"})}}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	rep, err := NewRunner(f.plan, []config.Source{{URL: "u/r", Path: "a.md", Dest: "a.md"}}, fetcher,
		WithOutput(f.stdout), WithClock(clock)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, base.Add(time.Second), rep.StartedAt)
	assert.Positive(t, rep.Duration)
	assert.Positive(t, rep.Sources[0].Duration)
}

func TestRunCanceled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(f.plan, []config.Source{{URL: "u/r", Path: "a.md", Dest: "a.md"}}, &fakeFetcher{}, WithOutput(f.stdout)).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunPrunesStaleClones(t *testing.T) {
	f := newFixture(t)
	f.plan.Prune = true
	fetcher := &fakeFetcher{clones: map[string]string{"kept": f.clone(t, "kept", map[string]string{"a.md": "a"})}}
	f.clone(t, "dropped", map[string]string{"a.md": "old"})

	_, err := NewRunner(f.plan, []config.Source{{URL: "u/kept", Path: "a.md", Dest: "a.md"}}, fetcher, WithOutput(f.stdout)).Run(context.Background())
	require.NoError(t, err)
	testutils.NewFileAssertions(t, f.plan.WorkspaceDir).AssertNotExists("dropped").AssertFileExists("kept/a.md")
}

func TestRunWithGitClient(t *testing.T) {
	f := newFixture(t)
	remote := testutils.NewRemoteRepo(t, map[string]string{
		"docs/a.md":      "# A",
		"docs/b.txt":     "text",
		"docs/sub/c.mdx": "# C",
	})
	missing := filepath.Join(t.TempDir(), "missing.git")
	ws := workspace.NewManager(f.plan.WorkspaceDir)
	require.NoError(t, ws.Create())
	client := git.NewClient(ws, git.WithDepth(0))

	sources := []config.Source{
		{URL: remote.URL(), Name: "good", Path: "docs/", Dest: "out"},
		{URL: missing, Name: "bad", Path: "docs/", Dest: "bad"},
	}
	rep, err := NewRunner(f.plan, sources, client, WithOutput(f.stdout)).Run(context.Background())
	require.NoError(t, err)

	testutils.NewFileAssertions(t, f.plan.OutputDir).AssertTree("out/a.md", "out/sub/c.mdx")
	assert.Equal(t, report.StatusOK, rep.Sources[0].Status)
	assert.Len(t, rep.Sources[0].Commit, 40)
	assert.Equal(t, report.StatusFetchFailed, rep.Sources[1].Status)
	assert.Contains(t, f.stdout.String(), "Failed to clone or pull repository: "+missing)

	head := remote.Commit(map[string]string{"docs/d.md": "# D"}, "docs/a.md")
	rep, err = NewRunner(f.plan, sources[:1], client, WithOutput(f.stdout)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, head, rep.Sources[0].Commit)
	testutils.NewFileAssertions(t, f.plan.OutputDir).AssertTree("out/d.md", "out/sub/c.mdx")
}
