package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
	"git.home.luguber.info/inful/docsync/internal/logfields"
)

// Manager owns the clone directory.
type Manager struct {
	baseDir string
}

// NewManager returns a manager rooted at baseDir ("source" when empty).
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = "source"
	}
	return &Manager{baseDir: baseDir}
}

// Create ensures the clone directory exists.
func (m *Manager) Create() error {
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return errors.FileSystemError("failed to create workspace directory").
			WithCause(err).
			WithContext("path", m.baseDir).
			Fatal().
			Build()
	}
	return nil
}

// GetPath returns the clone directory.
func (m *Manager) GetPath() string { return m.baseDir }

// RepoPath returns the working copy location for a source display name.
func (m *Manager) RepoPath(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid workspace entry name %q", name)
	}
	return filepath.Join(m.baseDir, name), nil
}

// HasClone reports whether name already has a git working copy.
func (m *Manager) HasClone(name string) bool {
	p, err := m.RepoPath(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(p, ".git"))
	return err == nil
}

// Prune removes working copies whose names are not in keep and returns the removed names.
func (m *Manager) Prune(keep []string) ([]string, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.FileSystemError("failed to read workspace directory").
			WithCause(err).
			WithContext("path", m.baseDir).
			Build()
	}
	var removed []string
	for _, e := range entries {
		if !e.IsDir() || slices.Contains(keep, e.Name()) {
			continue
		}
		p := filepath.Join(m.baseDir, e.Name())
		if err := os.RemoveAll(p); err != nil {
			return removed, errors.FileSystemError("failed to remove stale working copy").
				WithCause(err).
				WithContext("path", p).
				Build()
		}
		slog.Info("Removed stale working copy", logfields.Path(p))
		removed = append(removed, e.Name())
	}
	return removed, nil
}

// Reset deletes dir and everything below it, then recreates it empty.
func Reset(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return errors.FileSystemError("failed to remove output directory").
			WithCause(err).
			WithContext("path", dir).
			Fatal().
			Build()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.FileSystemError("failed to create output directory").
			WithCause(err).
			WithContext("path", dir).
			Fatal().
			Build()
	}
	slog.Debug("Output directory reset", logfields.Path(dir))
	return nil
}
