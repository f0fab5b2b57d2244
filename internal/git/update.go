package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/logfields"
)

// update fetches origin and hard-resets the tracked branch to the remote head.
// A working copy that cannot be opened is replaced by a fresh clone.
func (c *Client) update(ctx context.Context, repoPath string, src config.Source) (Result, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		slog.Warn("Working copy unreadable, cloning again", logfields.Source(src.DisplayName()), logfields.Error(err))
		return c.clone(ctx, repoPath, src)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return Result{}, fmt.Errorf("worktree: %w", err)
	}

	branch := resolveTargetBranch(repo, src)
	if err := c.fetchOrigin(ctx, repo, src, branch); err != nil {
		return Result{}, err
	}

	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		return Result{}, fmt.Errorf("remote ref origin/%s: %w", branch, err)
	}

	before := ""
	if head, herr := repo.Head(); herr == nil {
		before = head.Hash().String()
	}
	if err := checkoutAndReset(repo, wt, branch, remoteRef.Hash()); err != nil {
		return Result{}, err
	}
	if err := wt.Clean(&git.CleanOptions{Dir: true}); err != nil {
		slog.Warn("Cleaning untracked files failed", logfields.Source(src.DisplayName()), logfields.Error(err))
	}

	after := remoteRef.Hash().String()
	if before == after {
		slog.Info("Repository already up-to-date", logfields.Source(src.DisplayName()), logfields.Branch(branch), logfields.Commit(after))
	} else {
		slog.Info("Repository updated", logfields.Source(src.DisplayName()), logfields.Branch(branch), slog.String("from", short(before)), slog.String("to", short(after)))
	}
	return Result{Path: repoPath, Commit: after, Branch: branch}, nil
}

func (c *Client) fetchOrigin(ctx context.Context, repo *git.Repository, src config.Source, branch string) error {
	refSpec := ggitcfg.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/remotes/origin/%s", branch, branch))
	opts := &git.FetchOptions{
		RemoteName: "origin",
		RemoteURL:  src.URL,
		RefSpecs:   []ggitcfg.RefSpec{refSpec},
		Depth:      c.depth,
		Tags:       git.NoTags,
		Force:      true,
		Progress:   c.progress,
	}
	auth, err := authMethod(src.Auth)
	if err != nil {
		return err
	}
	opts.Auth = auth
	if err := repo.FetchContext(ctx, opts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetch %s: %w", src.URL, err)
	}
	return nil
}

// resolveTargetBranch: explicit branch, else the checked-out branch, else origin/HEAD, else "main".
func resolveTargetBranch(repo *git.Repository, src config.Source) string {
	if src.Branch != "" {
		return src.Branch
	}
	if head, err := repo.Head(); err == nil && head.Name().IsBranch() {
		return head.Name().Short()
	}
	if ref, err := repo.Reference(plumbing.ReferenceName("refs/remotes/origin/HEAD"), false); err == nil && ref.Target() != "" {
		return strings.TrimPrefix(ref.Target().String(), "refs/remotes/origin/")
	}
	return "main"
}

func checkoutAndReset(repo *git.Repository, wt *git.Worktree, branch string, target plumbing.Hash) error {
	local := plumbing.NewBranchReferenceName(branch)
	head, err := repo.Head()
	onBranch := err == nil && head.Name() == local
	if !onBranch {
		_, lerr := repo.Reference(local, false)
		opts := &git.CheckoutOptions{Branch: local, Force: true}
		if lerr != nil {
			opts.Create = true
			opts.Hash = target
		}
		if err := wt.Checkout(opts); err != nil {
			return fmt.Errorf("checkout %s: %w", branch, err)
		}
	}
	if err := wt.Reset(&git.ResetOptions{Commit: target, Mode: git.HardReset}); err != nil {
		return fmt.Errorf("reset %s: %w", branch, err)
	}
	return nil
}

func short(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
