// Package source turns configured sources into concrete copy tasks.
package source

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/logfields"
)

// ErrParentNotFound indicates the directory enumerated for a placeholder does not exist in the clone.
var ErrParentNotFound = errors.New("subfolder parent not found")

// Task is one resolved copy instruction.
type Task struct {
	Source     config.Source
	Subfolder  string   // empty when the source has no placeholder
	SourcePath string   // inside the clone
	DestPath   string   // inside the output root
	Include    []string // direct children of SourcePath; nil copies everything
}

// Expand resolves src against its working copy at clonePath and the output root.
// A placeholder yields one task per child directory of the parent, sorted by name.
func Expand(src config.Source, clonePath, outputRoot string) ([]Task, error) {
	if !src.HasPlaceholder() {
		return []Task{newTask(src, "", clonePath, outputRoot)}, nil
	}

	parent := filepath.Join(clonePath, filepath.FromSlash(src.ParentDir()))
	entries, err := os.ReadDir(parent)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrParentNotFound, src.ParentDir())
		}
		return nil, fmt.Errorf("list %s: %w", parent, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if isDir(filepath.Join(parent, e.Name())) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	tasks := make([]Task, 0, len(names))
	for _, name := range names {
		tasks = append(tasks, newTask(src, name, clonePath, outputRoot))
	}
	slog.Debug("Expanded placeholder", logfields.Source(src.DisplayName()), logfields.Path(src.ParentDir()), logfields.Count(len(tasks)))
	return tasks, nil
}

func newTask(src config.Source, subfolder, clonePath, outputRoot string) Task {
	return Task{
		Source:     src,
		Subfolder:  subfolder,
		SourcePath: filepath.Join(clonePath, filepath.FromSlash(Substitute(src.Path, subfolder))),
		DestPath:   filepath.Join(outputRoot, filepath.FromSlash(Substitute(src.Dest, subfolder))),
		Include:    src.Include,
	}
}

// Substitute replaces the placeholder in p with name.
func Substitute(p, name string) string {
	return strings.ReplaceAll(p, config.Placeholder, name)
}

// isDir follows symlinks, so a linked package directory still counts.
func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}
