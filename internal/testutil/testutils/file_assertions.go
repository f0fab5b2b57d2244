package testutils

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// FileAssertions checks filesystem state below a base directory.
type FileAssertions struct {
	t       *testing.T
	baseDir string
}

func NewFileAssertions(t *testing.T, baseDir string) *FileAssertions {
	return &FileAssertions{t: t, baseDir: baseDir}
}

// AssertFileExists validates that a regular file exists.
func (fa *FileAssertions) AssertFileExists(relativePath string) *FileAssertions {
	fa.t.Helper()
	fullPath := filepath.Join(fa.baseDir, filepath.FromSlash(relativePath))
	stat, err := os.Stat(fullPath)
	if err != nil {
		fa.t.Errorf("Expected file to exist: %s (%v)", fullPath, err)
	} else if stat.IsDir() {
		fa.t.Errorf("Expected %s to be a file, but it's a directory", fullPath)
	}
	return fa
}

// AssertNotExists validates that nothing exists at the path.
func (fa *FileAssertions) AssertNotExists(relativePath string) *FileAssertions {
	fa.t.Helper()
	fullPath := filepath.Join(fa.baseDir, filepath.FromSlash(relativePath))
	if _, err := os.Stat(fullPath); !os.IsNotExist(err) {
		fa.t.Errorf("Expected %s to be absent, stat err=%v", fullPath, err)
	}
	return fa
}

// AssertFileContains validates that a file contains expected content.
func (fa *FileAssertions) AssertFileContains(relativePath, expectedContent string) *FileAssertions {
	fa.t.Helper()
	fullPath := filepath.Join(fa.baseDir, filepath.FromSlash(relativePath))
	// #nosec G304 - test helper, paths are controlled by test code
	content, err := os.ReadFile(fullPath)
	if err != nil {
		fa.t.Errorf("Failed to read file %s: %v", fullPath, err)
		return fa
	}
	if !strings.Contains(string(content), expectedContent) {
		fa.t.Errorf("Expected file %s to contain %q\nActual content:\n%s", relativePath, expectedContent, string(content))
	}
	return fa
}

// AssertTree validates that the files below the base directory are exactly want.
func (fa *FileAssertions) AssertTree(want ...string) *FileAssertions {
	fa.t.Helper()
	got := ListFiles(fa.t, fa.baseDir)
	want = slices.Clone(want)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		fa.t.Errorf("Unexpected tree under %s\n got: %v\nwant: %v", fa.baseDir, got, want)
	}
	return fa
}
