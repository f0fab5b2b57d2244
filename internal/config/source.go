package config

import (
	"path"
	"strings"
)

// Placeholder is substituted with each discovered subfolder name.
const Placeholder = "{subfolder}"

// DefaultSubfolderParent is used when a placeholder path has no leading directory.
const DefaultSubfolderParent = "packages"

// Source describes one external repository and which of its files to copy.
type Source struct {
	URL             string      `yaml:"url"`
	Name            string      `yaml:"name,omitempty"`
	Branch          string      `yaml:"branch,omitempty"`
	Path            string      `yaml:"path"`
	Dest            string      `yaml:"dest"`
	Include         []string    `yaml:"include,omitempty"`
	SubfolderParent string      `yaml:"subfolder_parent,omitempty"`
	Auth            *AuthConfig `yaml:"auth,omitempty"`
}

// DisplayName returns Name, or the last path segment of URL without a ".git" suffix.
func (s Source) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	u := strings.TrimRight(s.URL, "/")
	if i := strings.LastIndexAny(u, "/:"); i >= 0 {
		u = u[i+1:]
	}
	return strings.TrimSuffix(u, ".git")
}

// HasPlaceholder reports whether Path fans out over subfolders.
func (s Source) HasPlaceholder() bool {
	return strings.Contains(s.Path, Placeholder)
}

// ParentDir returns the clone-relative directory whose children replace the placeholder.
// It is SubfolderParent when set, otherwise the segments of Path before the placeholder.
func (s Source) ParentDir() string {
	if s.SubfolderParent != "" {
		return path.Clean(s.SubfolderParent)
	}
	idx := strings.Index(s.Path, Placeholder)
	if idx < 0 {
		return ""
	}
	prefix := strings.TrimRight(s.Path[:idx], "/")
	if prefix == "" {
		return DefaultSubfolderParent
	}
	return path.Clean(prefix)
}
