package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"gamelib/internal/config"
	"gamelib/internal/daemon"
	"gamelib/internal/enrichment"
	"gamelib/internal/events"
	"gamelib/internal/ingest"
	"gamelib/internal/library"
	"gamelib/internal/logging"
	"gamelib/internal/notifications"
	"gamelib/internal/preflight"
	"gamelib/internal/storefront"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Services is the wired service graph shared by the daemon and the CLI.
type Services struct {
	Store     *library.Store
	Hub       *events.Hub
	Pipeline  *enrichment.Pipeline
	Processor *ingest.Processor
}

// Build opens the store and wires the hub, enrichment pipeline, and sync
// processor from cfg. Callers own Store and must close it.
func Build(cfg *config.Config, logger *slog.Logger) (*Services, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	store, err := library.Open(cfg)
	if err != nil {
		return nil, err
	}
	fetcher, err := storefront.SteamClient(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	hub := events.NewHub(0)
	pipeline := enrichment.NewPipeline(store, fetcher, logger,
		enrichment.WithPublisher(hub),
		enrichment.WithPacing(enrichment.PacingFromConfig(cfg.Enrichment)),
		enrichment.WithSentinel(cfg.Enrichment.Sentinel),
	)
	procOpts := []ingest.Option{
		ingest.WithPublisher(hub),
		ingest.WithSentinel(cfg.Enrichment.Sentinel),
	}
	if cfg.Enrichment.AutoStart {
		procOpts = append(procOpts, ingest.WithEnrichment(pipeline, library.StoreSteam))
	}
	return &Services{
		Store:     store,
		Hub:       hub,
		Pipeline:  pipeline,
		Processor: ingest.NewProcessor(store, logger, procOpts...),
	}, nil
}

// Run starts the gamelib daemon runtime loop and blocks until SIGINT/SIGTERM
// or cmdCtx ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("gamelib-%s.log", runID))
	logCfg := *cfg
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		logCfg.Logging.Level = level
	}
	logger, err := logging.NewFromConfig(&logCfg, logPath)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logging.PruneLogs(logger, cfg.Paths.LogDir, "gamelib-*.log", cfg.Logging.RetentionDays, logPath)

	logConfigSnapshot(logger, cfg)
	for _, check := range preflight.Failed(preflight.Paths(cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail),
			logging.String(logging.FieldErrorHint, "fix directory permissions in paths.data_dir and paths.log_dir"),
		)
	}

	notifier := notifications.NewService(cfg)
	svcs, err := Build(cfg, logger)
	if err != nil {
		logging.ErrorWithContext(logger, "open library failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check data_dir permissions or delete a database with a stale schema"),
		)
		_ = notifier.NotifyError(signalCtx, err, "daemon startup")
		return err
	}

	d, err := daemon.New(cfg, svcs.Store, logger, daemon.Components{
		Processor: svcs.Processor,
		Pipeline:  svcs.Pipeline,
		Hub:       svcs.Hub,
		Sources: func(store string) (ingest.Source, error) {
			return storefront.Source(cfg, store, "")
		},
	})
	if err != nil {
		svcs.Store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		_ = notifier.NotifyError(signalCtx, err, "daemon startup")
		return err
	}

	// The pid file belongs to whoever holds the instance lock.
	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		d.Stop()
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	g, gctx := errgroup.WithContext(signalCtx)
	g.Go(func() error {
		notifications.Forward(gctx, svcs.Hub, notifier, logger)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("gamelib daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
		d.Stop()
		return nil
	})
	return g.Wait()
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.Bool("steam_key_present", strings.TrimSpace(cfg.Steam.APIKey) != ""),
		logging.Bool("steam_id_present", strings.TrimSpace(cfg.Steam.SteamID) != ""),
		logging.Bool("gog_session_present", strings.TrimSpace(cfg.GOG.SessionToken) != ""),
		logging.String("gog_export_path", cfg.GOG.ExportPath),
		logging.Bool("enrichment_auto_start", cfg.Enrichment.AutoStart),
		logging.Bool("ntfy_enabled", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.Bool("api_token_set", strings.TrimSpace(cfg.Paths.APIToken) != ""),
		logging.String("api_bind", cfg.Paths.APIBind),
	)
}
