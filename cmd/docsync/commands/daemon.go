package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Every time.Duration `help:"Time between runs (overrides daemon.interval, default 1h)"`
	Prune bool          `help:"Remove working copies of sources that are no longer configured"`
}

func (d *DaemonCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	out := g.out()
	dm := daemon.New(root.Config, cfg, d.Every, func(ctx context.Context, cfg *config.Config) error {
		_, err := RunSync(ctx, cfg, SyncOptions{Prune: d.Prune}, out)
		return err
	})
	slog.Info("Starting daemon mode", slog.Duration("interval", dm.Interval()))
	return dm.Run(ctx)
}
