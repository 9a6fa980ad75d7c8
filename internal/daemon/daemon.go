package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"loom/internal/cleanup"
	"loom/internal/compose"
	"loom/internal/config"
	"loom/internal/jobs"
	"loom/internal/logging"
	"loom/internal/preflight"
)

// Daemon coordinates the background services and enforces single-instance
// execution. It owns the cleanup sweeper and the HTTP API; composition
// requests arrive through the API and run on its runner.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *jobs.Store
	runner  *compose.Runner
	sweeper *cleanup.Sweeper

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	JobDBPath    string
	LockFilePath string
	Stats        jobs.StatsSummary
	Checks       []preflight.Result
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *jobs.Store, runner *compose.Runner, sweeper *cleanup.Sweeper, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || runner == nil || sweeper == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, runner, sweeper, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "loomd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		runner:   runner,
		sweeper:  sweeper,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the single-instance lock, verifies the environment, and
// launches the sweeper and the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another loom daemon instance is already running")
	}

	if err := preflight.Require(ctx, d.cfg); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.sweeper.Start(runCtx); err != nil {
		d.releaseStart()
		return fmt.Errorf("start sweeper: %w", err)
	}
	if err := d.api.start(runCtx); err != nil {
		d.sweeper.Stop()
		d.releaseStart()
		return err
	}

	d.running.Store(true)
	d.logger.Info("loom daemon started", logging.String("lock", d.lockPath))
	return nil
}

func (d *Daemon) releaseStart() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	_ = d.lock.Unlock()
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.sweeper.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("loom daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the bound API listener address, or "" before Start.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Status returns current daemon diagnostics. Store errors degrade the stats
// block rather than failing the call.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		JobDBPath:    filepath.Join(d.cfg.Paths.LogDir, "loom.db"),
		LockFilePath: d.lockPath,
		Checks:       preflight.RunAll(ctx, d.cfg),
	}
	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Warn("failed to read job stats", logging.Error(err))
	} else {
		status.Stats = stats
	}
	return status
}
