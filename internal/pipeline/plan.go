package pipeline

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
)

// Plan is the resolved set of paths and switches for one run.
type Plan struct {
	OutputDir    string
	WorkspaceDir string
	IndexPath    string
	IndexTitle   string
	Extensions   []string
	VerifyIndex  bool
	Prune        bool
}

// PlanBuilder derives a Plan from configuration plus command-line overrides.
type PlanBuilder struct {
	plan Plan
}

// NewPlanBuilder starts from the configured output and sync sections.
func NewPlanBuilder(cfg *config.Config) *PlanBuilder {
	return &PlanBuilder{plan: Plan{
		OutputDir:    cfg.Output.Directory,
		WorkspaceDir: cfg.Sync.WorkspaceDir,
		IndexPath:    cfg.Output.IndexFile,
		IndexTitle:   cfg.Output.IndexTitle,
		Extensions:   cfg.Output.Extensions,
		VerifyIndex:  cfg.Output.VerifyIndex,
	}}
}

// WithOutput overrides the output root when dir is non-empty.
func (b *PlanBuilder) WithOutput(dir string) *PlanBuilder {
	if dir != "" {
		b.plan.OutputDir = dir
	}
	return b
}

// WithWorkspace overrides the clone directory when dir is non-empty.
func (b *PlanBuilder) WithWorkspace(dir string) *PlanBuilder {
	if dir != "" {
		b.plan.WorkspaceDir = dir
	}
	return b
}

// WithIndex overrides the index document path when p is non-empty.
func (b *PlanBuilder) WithIndex(p string) *PlanBuilder {
	if p != "" {
		b.plan.IndexPath = p
	}
	return b
}

func (b *PlanBuilder) WithVerify(v bool) *PlanBuilder {
	b.plan.VerifyIndex = b.plan.VerifyIndex || v
	return b
}

func (b *PlanBuilder) WithPrune(p bool) *PlanBuilder {
	b.plan.Prune = p
	return b
}

// Build validates the plan. The output root is deleted on every run, so it must
// not be the working directory, the filesystem root, or overlap the clones.
func (b *PlanBuilder) Build() (Plan, error) {
	p := b.plan
	out := filepath.Clean(p.OutputDir)
	if p.OutputDir == "" || out == "." || out == string(filepath.Separator) || out == ".." {
		return Plan{}, errors.ValidationError("output directory must name a dedicated directory").
			WithContext("output", p.OutputDir).
			Build()
	}
	ws := filepath.Clean(p.WorkspaceDir)
	if p.WorkspaceDir == "" {
		return Plan{}, errors.ValidationError("workspace directory is required").Build()
	}
	if within(out, ws) || within(ws, out) {
		return Plan{}, errors.ValidationError("output and workspace directories must not overlap").
			WithContext("output", p.OutputDir).
			WithContext("workspace", p.WorkspaceDir).
			Build()
	}
	if p.IndexPath == "" {
		return Plan{}, errors.ValidationError("index file is required").Build()
	}
	return p, nil
}

// within reports whether child equals parent or lies below it.
func within(child, parent string) bool {
	absChild, err1 := filepath.Abs(child)
	absParent, err2 := filepath.Abs(parent)
	if err1 != nil || err2 != nil {
		return child == parent
	}
	rel, err := filepath.Rel(absParent, absChild)
	return err == nil && (rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))))
}
