package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/testutil/testutils"
)

func TestExpandWithoutPlaceholder(t *testing.T) {
	clone := t.TempDir()
	src := config.Source{URL: "https://github.com/solidjs/solid-docs", Path: "langs/en/", Dest: "solid-docs", Include: []string{"guides"}}

	tasks, err := Expand(src, clone, "/out")
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	task := tasks[0]
	assert.Empty(t, task.Subfolder)
	assert.Equal(t, filepath.Join(clone, "langs", "en"), task.SourcePath)
	assert.Equal(t, filepath.Join("/out", "solid-docs"), task.DestPath)
	assert.Equal(t, []string{"guides"}, task.Include)
}

func TestExpandPlaceholderListsChildDirectoriesSorted(t *testing.T) {
	clone := t.TempDir()
	testutils.WriteTree(t, clone, map[string]string{
		"packages/storage/README.md": "storage",
		"packages/active/README.md":  "active",
		"packages/bounds/index.ts":   "x",
		"packages/NOTES.md":          "not a directory",
	})
	src := config.Source{
		URL:  "https://github.com/solidjs-community/solid-primitives",
		Path: "packages/{subfolder}/README.md",
		Dest: "solid-primitives/{subfolder}.md",
	}

	tasks, err := Expand(src, clone, "/out")
	require.NoError(t, err)

	var subs []string
	for _, task := range tasks {
		subs = append(subs, task.Subfolder)
	}
	assert.Equal(t, []string{"active", "bounds", "storage"}, subs)
	assert.Equal(t, filepath.Join(clone, "packages", "active", "README.md"), tasks[0].SourcePath)
	assert.Equal(t, filepath.Join("/out", "solid-primitives", "active.md"), tasks[0].DestPath)

	// Each task carries the unmodified descriptor.
	for _, task := range tasks {
		assert.Equal(t, "packages/{subfolder}/README.md", task.Source.Path)
	}
}

func TestExpandPlaceholderWithExplicitParent(t *testing.T) {
	clone := t.TempDir()
	testutils.WriteTree(t, clone, map[string]string{"libs/one/docs/a.md": "a"})
	src := config.Source{URL: "u", Path: "libs/{subfolder}/docs", Dest: "{subfolder}", SubfolderParent: "libs"}

	tasks, err := Expand(src, clone, "/out")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, filepath.Join(clone, "libs", "one", "docs"), tasks[0].SourcePath)
	assert.Equal(t, filepath.Join("/out", "one"), tasks[0].DestPath)
}

func TestExpandFollowsSymlinkedDirectories(t *testing.T) {
	clone := t.TempDir()
	testutils.WriteTree(t, clone, map[string]string{"real/README.md": "r", "packages/plain/README.md": "p"})
	if err := os.Symlink(filepath.Join(clone, "real"), filepath.Join(clone, "packages", "linked")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	tasks, err := Expand(config.Source{URL: "u", Path: "packages/{subfolder}/README.md", Dest: "{subfolder}.md"}, clone, "/out")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "linked", tasks[0].Subfolder)
	assert.Equal(t, "plain", tasks[1].Subfolder)
}

func TestExpandMissingParent(t *testing.T) {
	_, err := Expand(config.Source{URL: "u", Path: "packages/{subfolder}/README.md", Dest: "{subfolder}.md"}, t.TempDir(), "/out")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParentNotFound))
}

func TestExpandEmptyParentYieldsNoTasks(t *testing.T) {
	clone := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(clone, "packages"), 0o750))

	tasks, err := Expand(config.Source{URL: "u", Path: "packages/{subfolder}", Dest: "{subfolder}"}, clone, "/out")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestSubstitute(t *testing.T) {
	assert.Equal(t, "packages/x/README.md", Substitute("packages/{subfolder}/README.md", "x"))
	assert.Equal(t, "plain", Substitute("plain", "x"))
}
