// Package daemon ties the job store, workflow manager, and HTTP surface
// into a single-instance background process.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"waveforge/internal/config"
	"waveforge/internal/jobs"
	"waveforge/internal/logging"
	"waveforge/internal/workflow"
)

// Daemon coordinates background processing and enforces single-instance
// execution through a lock file.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *jobs.Store
	workflow *workflow.Manager

	lockPath string
	lock     *flock.Flock

	server   *http.Server
	listener net.Listener

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *jobs.Store, logger *slog.Logger, wf *workflow.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "waveforged.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workflow: wf,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the lock, sweeps jobs stranded by a previous run, launches
// the workflow manager, and begins serving the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another waveforge daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	reset, err := d.store.ResetStuckProcessing(runCtx)
	if err != nil {
		d.releaseLock()
		cancel()
		return fmt.Errorf("sweep stranded jobs: %w", err)
	}
	if reset > 0 {
		d.logger.Warn("failed jobs stranded by previous run", logging.Int64("count", reset))
	}

	if err := d.workflow.Start(runCtx); err != nil {
		d.releaseLock()
		cancel()
		return fmt.Errorf("start workflow: %w", err)
	}

	listener, err := net.Listen("tcp", d.cfg.Paths.APIBind)
	if err != nil {
		d.workflow.Stop()
		d.releaseLock()
		cancel()
		return fmt.Errorf("listen on %s: %w", d.cfg.Paths.APIBind, err)
	}
	d.listener = listener
	d.server = &http.Server{
		Handler:           d.newHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	server := d.server
	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			d.logger.Error("api server stopped", logging.Error(serveErr))
		}
	}()

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("bind", listener.Addr().String()),
		logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the HTTP server, stops background processing, and releases
// the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.server.Shutdown(shutdownCtx); err != nil {
			d.logger.Warn("api shutdown", logging.Error(err))
		}
		cancel()
		d.server = nil
		d.listener = nil
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	d.releaseLock()
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and closes the job store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Addr returns the bound API address, or empty when not running.
func (d *Daemon) Addr() string {
	if d.listener == nil {
		return ""
	}
	return d.listener.Addr().String()
}

// Running reports whether background processing is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

func (d *Daemon) releaseLock() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release daemon lock", logging.Error(err))
	}
}
