package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/docsync/internal/config"
	"git.home.luguber.info/inful/docsync/internal/logfields"
)

// DefaultInterval applies when neither the flag nor the configuration sets one.
const DefaultInterval = time.Hour

// RunFunc performs one sync run with the current configuration.
type RunFunc func(ctx context.Context, cfg *config.Config) error

// Daemon owns the schedule and the live configuration.
type Daemon struct {
	configPath string
	interval   time.Duration
	run        RunFunc

	mu  sync.RWMutex
	cfg *config.Config

	runs           atomic.Int64
	reloadDebounce time.Duration
}

// New returns a daemon. An interval of zero falls back to daemon.interval from
// cfg, then to DefaultInterval. The config file is watched only if it exists.
func New(configPath string, cfg *config.Config, interval time.Duration, run RunFunc) *Daemon {
	if interval <= 0 {
		interval = cfg.Daemon.IntervalDuration()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Daemon{
		configPath:     configPath,
		interval:       interval,
		run:            run,
		cfg:            cfg,
		reloadDebounce: 2 * time.Second,
	}
}

// Interval is the time between runs.
func (d *Daemon) Interval() time.Duration { return d.interval }

// GetConfig returns the configuration the next run will use.
func (d *Daemon) GetConfig() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// ReloadConfig swaps in cfg for subsequent runs.
func (d *Daemon) ReloadConfig(cfg *config.Config) {
	d.mu.Lock()
	prev := d.cfg
	d.cfg = cfg
	d.mu.Unlock()

	if iv := cfg.Daemon.IntervalDuration(); iv > 0 && iv != prev.Daemon.IntervalDuration() {
		slog.Warn("Daemon interval change takes effect after restart", slog.Duration("interval", iv))
	}
	slog.Info("Configuration applied", logfields.Count(len(cfg.Sources)))
}

// Runs reports how many scheduled runs have started.
func (d *Daemon) Runs() int64 { return d.runs.Load() }

// Run blocks until ctx is done, syncing every interval.
func (d *Daemon) Run(ctx context.Context) error {
	sched, err := NewScheduler()
	if err != nil {
		return err
	}
	if _, err := sched.ScheduleEvery("docsync-sync", d.interval, func() { d.tick(ctx) }); err != nil {
		_ = sched.Stop()
		return err
	}

	watcher, err := d.startWatcher(ctx)
	if err != nil {
		_ = sched.Stop()
		return err
	}

	slog.Info("Daemon started", slog.Duration("interval", d.interval))
	sched.Start()
	<-ctx.Done()

	if watcher != nil {
		_ = watcher.Stop()
	}
	if err := sched.Stop(); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	slog.Info("Daemon stopped", slog.Int64("runs", d.Runs()))
	return nil
}

func (d *Daemon) startWatcher(ctx context.Context) (*ConfigWatcher, error) {
	if d.configPath == "" {
		return nil, nil
	}
	if _, err := os.Stat(d.configPath); err != nil {
		slog.Info("Configuration file absent, reload disabled", logfields.Path(d.configPath))
		return nil, nil
	}
	w, err := NewConfigWatcher(d.configPath, d)
	if err != nil {
		return nil, err
	}
	w.debounceTime = d.reloadDebounce
	if err := w.Start(ctx); err != nil {
		_ = w.Stop()
		return nil, err
	}
	return w, nil
}

func (d *Daemon) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	n := d.runs.Add(1)
	slog.Info("Scheduled sync starting", slog.Int64("run", n))
	if err := d.run(ctx, d.GetConfig()); err != nil {
		slog.Error("Scheduled sync failed", logfields.Error(err))
	}
}
