package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
)

func validConfig() *Config {
	cfg := &Config{Sources: []Source{{URL: "https://example.com/org/repo", Path: "docs", Dest: "repo"}}}
	applyDefaults(cfg)
	return cfg
}

func TestValidateAcceptsMinimalConfig(t *testing.T) {
	require.NoError(t, Validate(validConfig()))
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no sources", func(c *Config) { c.Sources = nil }},
		{"missing url", func(c *Config) { c.Sources[0].URL = " " }},
		{"missing path", func(c *Config) { c.Sources[0].Path = "" }},
		{"missing dest", func(c *Config) { c.Sources[0].Dest = "" }},
		{"dest escapes", func(c *Config) { c.Sources[0].Dest = "../outside" }},
		{"dest absolute", func(c *Config) { c.Sources[0].Dest = "/etc" }},
		{"dest is root", func(c *Config) { c.Sources[0].Dest = "./" }},
		{"path escapes", func(c *Config) { c.Sources[0].Path = "../../etc" }},
		{"name with slash", func(c *Config) { c.Sources[0].Name = "a/b" }},
		{"double placeholder", func(c *Config) {
			c.Sources[0].Path = "{subfolder}/{subfolder}"
			c.Sources[0].Dest = "{subfolder}"
		}},
		{"placeholder only in path", func(c *Config) { c.Sources[0].Path = "packages/{subfolder}/README.md" }},
		{"placeholder only in dest", func(c *Config) { c.Sources[0].Dest = "{subfolder}.md" }},
		{"nested include", func(c *Config) { c.Sources[0].Include = []string{"guides/intro.md"} }},
		{"empty include", func(c *Config) { c.Sources[0].Include = []string{""} }},
		{"token without token", func(c *Config) { c.Sources[0].Auth = &AuthConfig{Type: AuthTypeToken} }},
		{"unknown auth", func(c *Config) { c.Sources[0].Auth = &AuthConfig{Type: "kerberos"} }},
		{"negative depth", func(c *Config) { c.Sync.Depth = -2 }},
		{"bad backoff", func(c *Config) { c.Sync.RetryBackoff = "random" }},
		{"bad timeout", func(c *Config) { c.Sync.FetchTimeout = "soon" }},
		{"bad extension", func(c *Config) { c.Output.Extensions = []string{"md"} }},
		{"duplicate name", func(c *Config) {
			c.Sources = append(c.Sources, Source{URL: "https://other.example/repo.git", Path: "docs", Dest: "other"})
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryValidation), "got %v", err)
		})
	}
}

func TestValidatePlaceholderPair(t *testing.T) {
	cfg := validConfig()
	cfg.Sources[0].Path = "packages/{subfolder}/README.md"
	cfg.Sources[0].Dest = "prims/{subfolder}.md"
	require.NoError(t, Validate(cfg))
}
