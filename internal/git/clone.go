package git

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/logfields"
)

func (c *Client) clone(ctx context.Context, repoPath string, src config.Source) (Result, error) {
	slog.Debug("Cloning repository", logfields.Source(src.DisplayName()), logfields.URL(src.URL), logfields.Path(repoPath), slog.Int("depth", c.depth))
	if err := os.RemoveAll(repoPath); err != nil {
		return Result{}, fmt.Errorf("remove existing directory: %w", err)
	}

	opts := &git.CloneOptions{
		URL:          src.URL,
		Depth:        c.depth,
		SingleBranch: true,
		Tags:         git.NoTags,
		Progress:     c.progress,
	}
	if src.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(src.Branch)
	}
	auth, err := authMethod(src.Auth)
	if err != nil {
		return Result{}, err
	}
	opts.Auth = auth

	repo, err := git.PlainCloneContext(ctx, repoPath, false, opts)
	if err != nil {
		_ = os.RemoveAll(repoPath)
		return Result{}, fmt.Errorf("clone %s: %w", src.URL, err)
	}

	res := Result{Path: repoPath, Cloned: true}
	if head, herr := repo.Head(); herr == nil {
		res.Commit = head.Hash().String()
		res.Branch = head.Name().Short()
	}
	slog.Info("Repository cloned", logfields.Source(src.DisplayName()), logfields.Commit(res.Commit), logfields.Branch(res.Branch))
	return res, nil
}
