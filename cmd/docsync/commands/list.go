package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// ListCmd implements the 'list' command.
type ListCmd struct{}

func (l *ListCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(g.out(), 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tURL\tPATH\tDEST\tINCLUDE")
	for _, src := range cfg.Sources {
		include := "-"
		if len(src.Include) > 0 {
			include = strings.Join(src.Include, ",")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", src.DisplayName(), src.URL, src.Path, src.Dest, include)
	}
	return w.Flush()
}
