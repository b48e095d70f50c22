package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gamelib/internal/config"
)

const userAgent = "gamelib/1.0"

// Service defines the notification surface exposed to sync and enrichment.
type Service interface {
	NotifySyncCompleted(ctx context.Context, store string, added, updated, failed int) error
	NotifyEnrichmentFinished(ctx context.Context, store string, processed, hydrated, failed int, cancelled bool) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		sync:       cfg.Notifications.Sync,
		enrichment: cfg.Notifications.Enrichment,
		errors:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	sync       bool
	enrichment bool
	errors     bool
}

func (n *ntfyService) NotifySyncCompleted(ctx context.Context, store string, added, updated, failed int) error {
	if !n.sync {
		return nil
	}
	store = strings.TrimSpace(store)
	title := fmt.Sprintf("gamelib - %s Sync Complete", store)
	if failed > 0 {
		title += " (with errors)"
	}
	message := fmt.Sprintf("%s library synced: %d added, %d updated", store, added, updated)
	if failed > 0 {
		message = fmt.Sprintf("%s, %d failed", message, failed)
	}
	data := payload{
		title:   title,
		message: message,
		tags:    []string{"gamelib", "sync", strings.ToLower(store)},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyEnrichmentFinished(ctx context.Context, store string, processed, hydrated, failed int, cancelled bool) error {
	if !n.enrichment {
		return nil
	}
	store = strings.TrimSpace(store)
	title := fmt.Sprintf("gamelib - %s Enrichment Complete", store)
	switch {
	case cancelled:
		title = fmt.Sprintf("gamelib - %s Enrichment Cancelled", store)
	case failed > 0:
		title += " (with errors)"
	}
	message := fmt.Sprintf("Enriched %d of %d %s games", hydrated, processed, store)
	if failed > 0 {
		message = fmt.Sprintf("%s, %d failed", message, failed)
	}
	data := payload{
		title:   title,
		message: message,
		tags:    []string{"gamelib", "enrichment", strings.ToLower(store)},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "gamelib - Error",
		message:  builder.String(),
		tags:     []string{"gamelib", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "gamelib - Test",
		message:  "Notification system test",
		tags:     []string{"gamelib", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifySyncCompleted(context.Context, string, int, int, int) error { return nil }
func (noopService) NotifyEnrichmentFinished(context.Context, string, int, int, int, bool) error {
	return nil
}
func (noopService) NotifyError(context.Context, error, string) error { return nil }
func (noopService) TestNotification(context.Context) error           { return nil }
