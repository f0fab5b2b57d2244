package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docsync/internal/config"
)

// Global is shared state handed to every command.
type Global struct {
	Logger *slog.Logger
	// Out receives user-facing progress lines; nil means stdout.
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path (embedded source list is used when absent)" default:"docsync.yaml"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log format (text|json)" enum:"text,json" default:"text"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Sync    SyncCmd    `cmd:"" default:"withargs" help:"Fetch all sources, rebuild the output tree and write the index"`
	Index   IndexCmd   `cmd:"" help:"Regenerate the index from the existing output tree"`
	Verify  VerifyCmd  `cmd:"" help:"Check that every index link points at an existing file"`
	Init    InitCmd    `cmd:"" help:"Write the default configuration file"`
	List    ListCmd    `cmd:"" help:"Print the configured sources"`
	History HistoryCmd `cmd:"" help:"Show recent runs from the history database"`
	Daemon  DaemonCmd  `cmd:"" help:"Sync periodically and reload the configuration on change"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(NewLogger(os.Stderr, c.LogFormat, c.Verbose))
	return nil
}

// NewLogger builds the process logger. Verbose enables debug records.
func NewLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func loadConfig(root *CLI) (*config.Config, error) {
	return config.LoadOrDefault(root.Config)
}
