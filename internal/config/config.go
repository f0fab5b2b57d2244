// Package config loads and validates the docsync configuration: the list of
// source descriptors plus output, sync and side-channel settings.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
)

//go:embed default.yaml
var defaultConfig []byte

// Config is the root configuration document.
type Config struct {
	Output  OutputConfig  `yaml:"output"`
	Sync    SyncConfig    `yaml:"sync"`
	Sources []Source      `yaml:"sources"`
	History HistoryConfig `yaml:"history"`
	Metrics MetricsConfig `yaml:"metrics"`
	Notify  NotifyConfig  `yaml:"notify"`
	Daemon  DaemonConfig  `yaml:"daemon"`
}

// OutputConfig controls the destination tree and the index document.
type OutputConfig struct {
	Directory   string   `yaml:"directory"`
	IndexFile   string   `yaml:"index_file"`
	IndexTitle  string   `yaml:"index_title"`
	Extensions  []string `yaml:"extensions,omitempty"`
	VerifyIndex bool     `yaml:"verify_index,omitempty"`
}

// SyncConfig controls how working copies are fetched.
type SyncConfig struct {
	WorkspaceDir      string           `yaml:"workspace_dir"`
	Depth             int              `yaml:"depth"` // 0 = DefaultDepth, -1 = full history
	FetchTimeout      string           `yaml:"fetch_timeout,omitempty"`
	MaxRetries        int              `yaml:"max_retries,omitempty"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff,omitempty"`
	RetryInitialDelay string           `yaml:"retry_initial_delay,omitempty"`
	RetryMaxDelay     string           `yaml:"retry_max_delay,omitempty"`
}

// HistoryConfig enables the SQLite run history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// MetricsConfig points at a node-exporter textfile; empty disables metrics output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// NotifyConfig enables publishing run reports to NATS.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

type DaemonConfig struct {
	Interval string `yaml:"interval,omitempty"`
}

// Load reads configPath, expands ${VAR} references, applies defaults and validates.
// Variables from .env or .env.local are loaded first without overriding the process env.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithCause(err).
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.ConfigError("failed to read configuration file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	slog.Debug("Configuration loaded", slog.String("path", configPath), slog.Int("sources", len(cfg.Sources)))
	return cfg, nil
}

// LoadDefault returns the embedded default configuration.
func LoadDefault() (*Config, error) {
	loadEnvFiles()
	return Parse(defaultConfig)
}

// LoadOrDefault loads configPath, falling back to the embedded configuration when the file does not exist.
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		slog.Info("Configuration file not found, using embedded source list", slog.String("path", configPath))
		return LoadDefault()
	}
	return Load(configPath)
}

// Parse decodes a YAML document. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.ConfigError("failed to parse configuration").WithCause(err).Build()
	}

	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init writes the embedded default configuration to configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}
	if err := os.WriteFile(configPath, defaultConfig, 0o600); err != nil {
		return errors.FileSystemError("failed to write configuration file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	return nil
}

// DefaultYAML exposes the embedded configuration document.
func DefaultYAML() []byte { return bytes.Clone(defaultConfig) }

func loadEnvFiles() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			fmt.Fprintf(os.Stderr, "Note: could not load %s: %v\n", name, err)
			continue
		}
		slog.Debug("Loaded environment file", slog.String("path", name))
		return
	}
}
