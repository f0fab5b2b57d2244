package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
	"git.home.luguber.info/inful/docsync/internal/index"
)

// VerifyCmd implements the 'verify' command.
type VerifyCmd struct {
	Index string `help:"Index document path (overrides output.index_file)"`
}

func (v *VerifyCmd) Run(g *Global, root *CLI) error {
	path := v.Index
	if path == "" {
		cfg, err := loadConfig(root)
		if err != nil {
			return err
		}
		path = cfg.Output.IndexFile
	}

	missing, err := index.Verify(path)
	if err != nil {
		return err
	}
	out := g.out()
	for _, m := range missing {
		_, _ = fmt.Fprintf(out, "missing: %s\n", m)
	}
	if len(missing) > 0 {
		return errors.ValidationError("index references missing files").
			WithContext("index", path).
			WithContext("missing", len(missing)).
			Build()
	}
	_, _ = fmt.Fprintf(out, "All links in %s resolve\n", path)
	return nil
}
