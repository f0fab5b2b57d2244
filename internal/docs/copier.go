package docs

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/logfields"
	"git.home.luguber.info/inful/docsync/internal/source"
)

// Copier copies documentation files for resolved tasks.
type Copier struct {
	extensions []string
}

// NewCopier returns a copier for the given extensions, config.DefaultExtensions when empty.
// Extensions match exactly; list ".MD" as well to copy upper-case names.
func NewCopier(extensions []string) *Copier {
	if len(extensions) == 0 {
		extensions = config.DefaultExtensions
	}
	return &Copier{extensions: slices.Clone(extensions)}
}

// IsDocFile reports whether name ends in one of the copier's extensions.
func (c *Copier) IsDocFile(name string) bool {
	return slices.Contains(c.extensions, filepath.Ext(name))
}

// Copy executes task and returns the number of files written.
func (c *Copier) Copy(task source.Task) (int, error) {
	info, err := os.Stat(task.SourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrSourcePathNotFound, task.SourcePath)
		}
		return 0, fmt.Errorf("%w: stat %s: %w", ErrCopyFailed, task.SourcePath, err)
	}

	if len(task.Include) == 0 || !info.IsDir() {
		return c.copyPath(task.SourcePath, task.DestPath, info)
	}

	if err := os.RemoveAll(task.DestPath); err != nil {
		return 0, fmt.Errorf("%w: clear %s: %w", ErrCopyFailed, task.DestPath, err)
	}
	total := 0
	for _, name := range task.Include {
		child := filepath.Join(task.SourcePath, name)
		childInfo, err := os.Stat(child)
		if err != nil {
			if os.IsNotExist(err) {
				slog.Debug("Include entry not present, skipping", logfields.Source(task.Source.DisplayName()), logfields.Path(name))
				continue
			}
			return total, fmt.Errorf("%w: stat %s: %w", ErrCopyFailed, child, err)
		}
		n, err := c.copyPath(child, filepath.Join(task.DestPath, name), childInfo)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (c *Copier) copyPath(src, dst string, info os.FileInfo) (int, error) {
	if !info.IsDir() {
		if !info.Mode().IsRegular() || !c.IsDocFile(src) {
			return 0, nil
		}
		if err := copyFile(src, dst, info.Mode()); err != nil {
			return 0, err
		}
		return 1, nil
	}

	if err := os.RemoveAll(dst); err != nil {
		return 0, fmt.Errorf("%w: clear %s: %w", ErrCopyFailed, dst, err)
	}
	return c.copyTree(src, dst)
}

// copyTree mirrors matching files below src into dst. Symlinks to regular files are
// followed; symlinked directories and special files are ignored.
func (c *Copier) copyTree(src, dst string) (int, error) {
	count := 0
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" && p != src {
				return filepath.SkipDir
			}
			return nil
		}
		if !c.IsDocFile(d.Name()) {
			return nil
		}

		info, err := os.Stat(p)
		if err != nil {
			slog.Debug("Skipping unreadable entry", logfields.File(p), logfields.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if err := copyFile(p, filepath.Join(dst, rel), info.Mode()); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("%w: walk %s: %w", ErrCopyFailed, src, err)
	}
	return count, nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("%w: mkdir %s: %w", ErrCopyFailed, filepath.Dir(dst), err)
	}

	in, err := os.Open(src) // #nosec G304 -- path comes from a configured working copy
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrCopyFailed, src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm()|0o600) // #nosec G304
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrCopyFailed, dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("%w: write %s: %w", ErrCopyFailed, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrCopyFailed, dst, err)
	}
	return nil
}
