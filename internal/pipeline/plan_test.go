package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
)

func baseConfig() *config.Config {
	return &config.Config{
		Output: config.OutputConfig{Directory: "docs", IndexFile: "README.md", IndexTitle: "Docs", Extensions: []string{".md"}},
		Sync:   config.SyncConfig{WorkspaceDir: "source"},
	}
}

func TestPlanBuilderDefaultsFromConfig(t *testing.T) {
	p, err := NewPlanBuilder(baseConfig()).Build()
	require.NoError(t, err)
	assert.Equal(t, Plan{OutputDir: "docs", WorkspaceDir: "source", IndexPath: "README.md", IndexTitle: "Docs", Extensions: []string{".md"}}, p)
}

func TestPlanBuilderOverrides(t *testing.T) {
	p, err := NewPlanBuilder(baseConfig()).
		WithOutput("site/docs").
		WithWorkspace("").
		WithIndex("site/INDEX.md").
		WithVerify(true).
		WithPrune(true).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "site/docs", p.OutputDir)
	assert.Equal(t, "source", p.WorkspaceDir)
	assert.Equal(t, "site/INDEX.md", p.IndexPath)
	assert.True(t, p.VerifyIndex)
	assert.True(t, p.Prune)
}

func TestPlanBuilderRejectsDangerousOutput(t *testing.T) {
	for _, out := range []string{".", "./", "/", "..", "source", "source/x"} {
		_, err := NewPlanBuilder(baseConfig()).WithOutput(out).Build()
		require.Error(t, err, out)
		assert.True(t, errors.HasCategory(err, errors.CategoryValidation), out)
	}

	cfg := baseConfig()
	cfg.Sync.WorkspaceDir = filepath.Join("docs", "clones")
	_, err := NewPlanBuilder(cfg).Build()
	require.Error(t, err)
}
