package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"gamelib/internal/api"
	"gamelib/internal/config"
	"gamelib/internal/enrichment"
	"gamelib/internal/events"
	"gamelib/internal/ingest"
	"gamelib/internal/library"
	"gamelib/internal/logging"
	"gamelib/internal/notifications"
)

// Components are the services the daemon serves over the API.
type Components struct {
	Processor *ingest.Processor
	Pipeline  *enrichment.Pipeline
	Hub       *events.Hub
	Sources   api.SourceResolver
}

// Daemon owns the single-instance lock and the API server.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *library.Store
	components Components

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running           bool
	PID               int
	DatabasePath      string
	LockFilePath      string
	APIAddress        string
	ActiveEnrichments []string
	LastEventSequence uint64
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *library.Store, logger *slog.Logger, components Components) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		store:      store,
		components: components,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and starts the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := os.MkdirAll(d.cfg.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another gamelib daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	srv, err := newAPIServer(d.cfg, d, d.logger)
	if err == nil {
		err = srv.start(d.ctx)
	}
	if err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api server: %w", err)
	}
	d.api = srv

	d.running.Store(true)
	d.logger.Info("gamelib daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.address()),
	)
	return nil
}

// Stop cancels enrichment runs, stops the API server, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if pipeline := d.components.Pipeline; pipeline != nil {
		for _, store := range pipeline.Active() {
			pipeline.Cancel(store)
		}
		pipeline.Wait()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.api = nil
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_unlock_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no daemon is running"),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("gamelib daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(_ context.Context) Status {
	status := Status{
		Running:           d.running.Load(),
		PID:               os.Getpid(),
		DatabasePath:      d.store.Path(),
		LockFilePath:      d.lockPath,
		LastEventSequence: d.components.Hub.LastSequence(),
	}
	if d.api != nil {
		status.APIAddress = d.api.address()
	}
	if d.components.Pipeline != nil {
		status.ActiveEnrichments = d.components.Pipeline.Active()
	}
	return status
}
