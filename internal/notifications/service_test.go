package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"gamelib/internal/config"
	"gamelib/internal/events"
	"gamelib/internal/logging"
	"gamelib/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

type recorder struct {
	mu   sync.Mutex
	reqs []captured
	hit  chan struct{}
}

func newRecorder(t *testing.T) (*recorder, *httptest.Server) {
	t.Helper()
	rec := &recorder{hit: make(chan struct{}, 16)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.reqs = append(rec.reqs, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		rec.mu.Unlock()
		select {
		case rec.hit <- struct{}{}:
		default:
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return rec, srv
}

func (r *recorder) all() []captured {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]captured(nil), r.reqs...)
}

func configFor(url string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = url
	cfg.Notifications.Sync = true
	cfg.Notifications.Enrichment = true
	cfg.Notifications.Errors = true
	return &cfg
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifySyncCompleted(context.Background(), "GOG", 1, 2, 3); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("expected nil config to produce noop, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "sync completed",
			send: func(s notifications.Service) error {
				return s.NotifySyncCompleted(context.Background(), "GOG", 3, 1, 0)
			},
			expectTitle:   "gamelib - GOG Sync Complete",
			expectMessage: "GOG library synced: 3 added, 1 updated",
			expectTags:    "gamelib,sync,gog",
		},
		{
			name: "sync with failures",
			send: func(s notifications.Service) error {
				return s.NotifySyncCompleted(context.Background(), "Steam", 0, 0, 2)
			},
			expectTitle:   "gamelib - Steam Sync Complete (with errors)",
			expectMessage: "Steam library synced: 0 added, 0 updated, 2 failed",
			expectTags:    "gamelib,sync,steam",
		},
		{
			name: "enrichment finished",
			send: func(s notifications.Service) error {
				return s.NotifyEnrichmentFinished(context.Background(), "Steam", 10, 9, 1, false)
			},
			expectTitle:   "gamelib - Steam Enrichment Complete (with errors)",
			expectMessage: "Enriched 9 of 10 Steam games, 1 failed",
			expectTags:    "gamelib,enrichment,steam",
		},
		{
			name: "enrichment cancelled",
			send: func(s notifications.Service) error {
				return s.NotifyEnrichmentFinished(context.Background(), "Steam", 4, 4, 0, true)
			},
			expectTitle:   "gamelib - Steam Enrichment Cancelled",
			expectMessage: "Enriched 4 of 4 Steam games",
			expectTags:    "gamelib,enrichment,steam",
		},
		{
			name: "error",
			send: func(s notifications.Service) error {
				return s.NotifyError(context.Background(), errors.New("boom "), "steam sync")
			},
			expectTitle:    "gamelib - Error",
			expectMessage:  "Error with steam sync: boom",
			expectTags:     "gamelib,error,alert",
			expectPriority: "high",
		},
		{
			name: "test",
			send: func(s notifications.Service) error {
				return s.TestNotification(context.Background())
			},
			expectTitle:    "gamelib - Test",
			expectMessage:  "Notification system test",
			expectTags:     "gamelib,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, srv := newRecorder(t)
			svc := notifications.NewService(configFor(srv.URL))
			if err := tc.send(svc); err != nil {
				t.Fatalf("send: %v", err)
			}
			reqs := rec.all()
			if len(reqs) != 1 {
				t.Fatalf("expected 1 request, got %d", len(reqs))
			}
			got := reqs[0]
			if got.title != tc.expectTitle {
				t.Fatalf("title = %q, want %q", got.title, tc.expectTitle)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("message = %q, want %q", got.body, tc.expectMessage)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("tags = %q, want %q", got.tags, tc.expectTags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("priority = %q, want %q", got.priority, tc.expectPriority)
			}
		})
	}
}

func TestNtfyServiceHonoursCategoryToggles(t *testing.T) {
	rec, srv := newRecorder(t)
	cfg := configFor(srv.URL)
	cfg.Notifications.Sync = false
	cfg.Notifications.Errors = false
	svc := notifications.NewService(cfg)

	if err := svc.NotifySyncCompleted(context.Background(), "GOG", 1, 0, 0); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := svc.NotifyError(context.Background(), errors.New("x"), ""); err != nil {
		t.Fatalf("error: %v", err)
	}
	if err := svc.NotifyEnrichmentFinished(context.Background(), "Steam", 1, 1, 0, false); err != nil {
		t.Fatalf("enrichment: %v", err)
	}
	if got := len(rec.all()); got != 1 {
		t.Fatalf("expected only the enrichment notification, got %d", got)
	}
}

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "topic closed", http.StatusForbidden)
	}))
	defer srv.Close()

	svc := notifications.NewService(configFor(srv.URL))
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestForwardRelaysCompletionEvents(t *testing.T) {
	rec, srv := newRecorder(t)
	svc := notifications.NewService(configFor(srv.URL))
	hub := events.NewHub(16)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	subscribed := make(chan struct{})
	go func() {
		defer close(done)
		close(subscribed)
		notifications.Forward(ctx, hub, svc, logging.NewNop())
	}()
	<-subscribed

	// Forward subscribes asynchronously; publish until the relay picks events up.
	deadline := time.After(2 * time.Second)
	for len(rec.all()) == 0 {
		hub.Publish(context.Background(), events.ItemHydrated{Store: "Steam", AppID: "1"})
		hub.Publish(context.Background(), events.SyncCompleted{Store: "GOG", Added: 2})
		select {
		case <-rec.hit:
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			t.Fatal("timed out waiting for forwarded notification")
		}
	}
	hub.Publish(context.Background(), events.EnrichmentFinished{Store: "Steam", Processed: 1, Hydrated: 1})

	waitFor := time.After(2 * time.Second)
	for {
		found := false
		for _, req := range rec.all() {
			if req.title == "gamelib - Steam Enrichment Complete" {
				found = true
			}
			if req.tags == "" {
				t.Fatalf("unexpected request without tags: %+v", req)
			}
		}
		if found {
			break
		}
		select {
		case <-rec.hit:
		case <-waitFor:
			t.Fatal("enrichment notification not forwarded")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Forward did not stop after cancel")
	}
}
