package config

import "path/filepath"

const (
	DefaultOutputDirectory = "docs"
	DefaultIndexFile       = "README.md"
	DefaultIndexTitle      = "Documentation Index"
	DefaultWorkspaceDir    = "source"
	DefaultDepth           = 1
	// FullHistoryDepth in sync.depth clones without a depth limit; 0 means DefaultDepth.
	FullHistoryDepth       = -1
	DefaultHistoryPath     = ".docsync/history.db"
	DefaultNotifySubject   = "docsync.runs"
)

// DefaultExtensions lists the file extensions copied and indexed.
var DefaultExtensions = []string{".md", ".mdx"}

func applyDefaults(cfg *Config) {
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDirectory
	}
	if cfg.Output.IndexFile == "" {
		cfg.Output.IndexFile = DefaultIndexFile
	}
	if cfg.Output.IndexTitle == "" {
		cfg.Output.IndexTitle = DefaultIndexTitle
	}
	if len(cfg.Output.Extensions) == 0 {
		cfg.Output.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if cfg.Sync.WorkspaceDir == "" {
		cfg.Sync.WorkspaceDir = DefaultWorkspaceDir
	}
	if cfg.Sync.Depth == 0 {
		cfg.Sync.Depth = DefaultDepth
	}
	if cfg.Sync.RetryBackoff == "" {
		cfg.Sync.RetryBackoff = RetryBackoffLinear
	} else if m := NormalizeRetryBackoff(string(cfg.Sync.RetryBackoff)); m != "" {
		cfg.Sync.RetryBackoff = m
	}
	if cfg.History.Enabled && cfg.History.Path == "" {
		cfg.History.Path = filepath.FromSlash(DefaultHistoryPath)
	}
	if cfg.Notify.NATSURL != "" && cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultNotifySubject
	}
	for i := range cfg.Sources {
		if cfg.Sources[i].Name == "" {
			cfg.Sources[i].Name = cfg.Sources[i].DisplayName()
		}
	}
}
