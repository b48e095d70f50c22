package daemon_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"gamelib/internal/api"
	"gamelib/internal/daemon"
	"gamelib/internal/enrichment"
	"gamelib/internal/events"
	"gamelib/internal/ingest"
	"gamelib/internal/logging"
	"gamelib/internal/testsupport"
)

func newDaemon(t *testing.T, opts ...testsupport.ConfigOption) *daemon.Daemon {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	hub := events.NewHub(16)
	logger := logging.NewNop()
	fetcher := enrichment.FetcherFunc(func(context.Context, string) (enrichment.Metadata, error) {
		return enrichment.Metadata{}, nil
	})
	pipeline := enrichment.NewPipeline(store, fetcher, logger, enrichment.WithPublisher(hub))
	proc := ingest.NewProcessor(store, logger, ingest.WithPublisher(hub))
	d, err := daemon.New(cfg, store, logger, daemon.Components{
		Processor: proc,
		Pipeline:  pipeline,
		Hub:       hub,
	})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
	})
	return d
}

func TestDaemonStartStop(t *testing.T) {
	d := newDaemon(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running || status.APIAddress == "" || status.DatabasePath == "" {
		t.Fatalf("unexpected status: %+v", status)
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("restart after stop failed: %v", err)
	}
}

func TestDaemonLockIsExclusive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	first, err := daemon.New(cfg, store, logger, daemon.Components{Hub: events.NewHub(4)})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	second, err := daemon.New(cfg, store, logger, daemon.Components{Hub: events.NewHub(4)})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected second daemon to fail acquiring the lock")
	}
}

func TestDaemonServesStatus(t *testing.T) {
	d := newDaemon(t, testsupport.WithAPIToken("token"))
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	addr := d.Status(context.Background()).APIAddress

	req, _ := http.NewRequest(http.MethodGet, "http://"+addr+"/api/status", nil)
	req.Header.Set("Authorization", "Bearer token")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code %d", resp.StatusCode)
	}
	var status api.DaemonStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !status.Running || status.LockFilePath == "" {
		t.Fatalf("unexpected api status: %+v", status)
	}
}

func TestTestNotificationWithoutTopic(t *testing.T) {
	d := newDaemon(t)
	ok, message, err := d.TestNotification(context.Background())
	if ok || err != nil || message != "ntfy topic not configured" {
		t.Fatalf("unexpected result: %v %q %v", ok, message, err)
	}
}
