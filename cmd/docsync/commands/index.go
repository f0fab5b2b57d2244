package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docsync/internal/index"
	"git.home.luguber.info/inful/docsync/internal/pipeline"
)

// IndexCmd implements the 'index' command.
type IndexCmd struct {
	Output string `short:"o" help:"Output directory to index (overrides output.directory)"`
	Index  string `help:"Index document path (overrides output.index_file)"`
}

func (i *IndexCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	plan, err := pipeline.NewPlanBuilder(cfg).WithOutput(i.Output).WithIndex(i.Index).Build()
	if err != nil {
		return err
	}
	res, err := index.NewGenerator(plan.OutputDir, plan.IndexPath, plan.IndexTitle, plan.Extensions).Generate()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "Index written to %s (%d entries)\n", res.Path, len(res.Entries))
	return nil
}
