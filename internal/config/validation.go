package config

import (
	"fmt"
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
)

// Validate checks the configuration after defaults have been applied.
func Validate(cfg *Config) error {
	if len(cfg.Sources) == 0 {
		return errors.ValidationError("at least one source must be configured").Build()
	}
	if cfg.Sync.Depth < FullHistoryDepth {
		return errors.ValidationError("sync.depth must be positive, or -1 for full history").
			WithContext("value", cfg.Sync.Depth).
			Build()
	}
	if cfg.Sync.MaxRetries < 0 {
		return errors.ValidationError("sync.max_retries cannot be negative").Build()
	}
	if NormalizeRetryBackoff(string(cfg.Sync.RetryBackoff)) == "" {
		return errors.ValidationError("unknown sync.retry_backoff").
			WithContext("value", string(cfg.Sync.RetryBackoff)).
			Build()
	}
	durations := map[string]string{
		"sync.fetch_timeout":       cfg.Sync.FetchTimeout,
		"sync.retry_initial_delay": cfg.Sync.RetryInitialDelay,
		"sync.retry_max_delay":     cfg.Sync.RetryMaxDelay,
		"daemon.interval":          cfg.Daemon.Interval,
	}
	for field, raw := range durations {
		if raw == "" {
			continue
		}
		if d, err := time.ParseDuration(raw); err != nil || d < 0 {
			return errors.ValidationError("invalid duration").
				WithContext("field", field).
				WithContext("value", raw).
				Build()
		}
	}
	for _, ext := range cfg.Output.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return errors.ValidationError("output.extensions entries must start with a dot").
				WithContext("value", ext).
				Build()
		}
	}

	names := make(map[string]int, len(cfg.Sources))
	for i, src := range cfg.Sources {
		if err := validateSource(src); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
		name := src.DisplayName()
		if prev, dup := names[name]; dup {
			return errors.ValidationError("duplicate source name").
				WithContext("name", name).
				WithContext("first", prev).
				WithContext("second", i).
				Build()
		}
		names[name] = i
	}
	return nil
}

func validateSource(src Source) error {
	if strings.TrimSpace(src.URL) == "" {
		return errors.ValidationError("source url is required").Build()
	}
	if src.Path == "" {
		return errors.ValidationError("source path is required").WithContext("url", src.URL).Build()
	}
	if src.Dest == "" {
		return errors.ValidationError("source dest is required").WithContext("url", src.URL).Build()
	}
	name := src.DisplayName()
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errors.ValidationError("source name must be a single path segment").
			WithContext("name", name).
			Build()
	}
	if strings.Count(src.Path, Placeholder) > 1 || strings.Count(src.Dest, Placeholder) > 1 {
		return errors.ValidationError("at most one {subfolder} placeholder per path").
			WithContext("source", name).
			Build()
	}
	if src.HasPlaceholder() && !strings.Contains(src.Dest, Placeholder) {
		return errors.ValidationError("dest must contain {subfolder} when path does").
			WithContext("source", name).
			Build()
	}
	if !src.HasPlaceholder() && strings.Contains(src.Dest, Placeholder) {
		return errors.ValidationError("dest uses {subfolder} but path does not").
			WithContext("source", name).
			Build()
	}
	if escapes(src.Path) {
		return errors.ValidationError("source path must stay inside the repository").
			WithContext("source", name).
			WithContext("path", src.Path).
			Build()
	}
	if escapes(src.Dest) || strings.Trim(path.Clean(filepathToSlash(src.Dest)), "/") == "." {
		return errors.ValidationError("dest must be a relative path inside the output directory").
			WithContext("source", name).
			WithContext("dest", src.Dest).
			Build()
	}
	if src.SubfolderParent != "" && escapes(src.SubfolderParent) {
		return errors.ValidationError("subfolder_parent must stay inside the repository").
			WithContext("source", name).
			Build()
	}
	for _, inc := range src.Include {
		if inc == "" || inc == "." || inc == ".." || strings.ContainsAny(inc, `/\`) {
			return errors.ValidationError("include entries must be direct child names").
				WithContext("source", name).
				WithContext("entry", inc).
				Build()
		}
	}
	if src.Auth != nil {
		if err := validateAuth(name, src.Auth); err != nil {
			return err
		}
	}
	return nil
}

func validateAuth(name string, a *AuthConfig) error {
	switch a.Type {
	case "", AuthTypeNone:
		return nil
	case AuthTypeToken:
		if a.Token == "" {
			return errors.ValidationError("token auth requires token").WithContext("source", name).Build()
		}
	case AuthTypeBasic:
		if a.Username == "" || a.Password == "" {
			return errors.ValidationError("basic auth requires username and password").WithContext("source", name).Build()
		}
	case AuthTypeSSH:
		if a.KeyPath == "" {
			return errors.ValidationError("ssh auth requires key_path").WithContext("source", name).Build()
		}
	default:
		return errors.ValidationError("unsupported auth type").
			WithContext("source", name).
			WithContext("type", string(a.Type)).
			Build()
	}
	return nil
}

// escapes reports whether p is absolute or climbs above its root.
func escapes(p string) bool {
	p = filepathToSlash(p)
	if strings.HasPrefix(p, "/") {
		return true
	}
	clean := path.Clean(p)
	return clean == ".." || strings.HasPrefix(clean, "../")
}

func filepathToSlash(p string) string { return strings.ReplaceAll(p, `\`, "/") }
