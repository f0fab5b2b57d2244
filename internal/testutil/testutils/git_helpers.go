// Package testutils holds helpers shared by package tests: throwaway git remotes
// built with go-git and filesystem assertions.
package testutils

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// RemoteRepo is a bare repository fed through a seed working copy.
type RemoteRepo struct {
	t        *testing.T
	bare     string
	seed     *git.Repository
	seedPath string
}

// NewRemoteRepo creates a bare remote whose first commit contains files (slash paths -> content).
func NewRemoteRepo(t *testing.T, files map[string]string) *RemoteRepo {
	t.Helper()
	root := t.TempDir()
	bare := filepath.Join(root, "remote.git")
	if _, err := git.PlainInit(bare, true); err != nil {
		t.Fatalf("init bare: %v", err)
	}
	seedPath := filepath.Join(root, "seed")
	seed, err := git.PlainInit(seedPath, false)
	if err != nil {
		t.Fatalf("init seed: %v", err)
	}
	if _, err := seed.CreateRemote(&ggitcfg.RemoteConfig{Name: "origin", URLs: []string{bare}}); err != nil {
		t.Fatalf("create remote: %v", err)
	}
	r := &RemoteRepo{t: t, bare: bare, seed: seed, seedPath: seedPath}
	r.Commit(files)
	return r
}

// URL returns the clone URL (a local path).
func (r *RemoteRepo) URL() string { return r.bare }

// Commit writes files, deletes removals, commits and pushes. It returns the new head hash.
func (r *RemoteRepo) Commit(files map[string]string, removals ...string) string {
	r.t.Helper()
	wt, err := r.seed.Worktree()
	if err != nil {
		r.t.Fatalf("worktree: %v", err)
	}
	WriteTree(r.t, r.seedPath, files)
	for _, rel := range sortedKeys(files) {
		if _, err := wt.Add(rel); err != nil {
			r.t.Fatalf("add %s: %v", rel, err)
		}
	}
	for _, rel := range removals {
		if _, err := wt.Remove(rel); err != nil {
			r.t.Fatalf("remove %s: %v", rel, err)
		}
	}
	h, err := wt.Commit("update docs", &git.CommitOptions{
		Author:            &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
		AllowEmptyCommits: true,
	})
	if err != nil {
		r.t.Fatalf("commit: %v", err)
	}
	if err := r.seed.Push(&git.PushOptions{RemoteName: "origin"}); err != nil && err != git.NoErrAlreadyUpToDate {
		r.t.Fatalf("push: %v", err)
	}
	return h.String()
}

// WriteTree creates files below root, making parent directories as needed.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

// ListFiles returns every regular file below root as sorted slash paths.
func ListFiles(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("walk %s: %v", root, err)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
