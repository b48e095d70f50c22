package notifications

import (
	"context"
	"log/slog"

	"gamelib/internal/events"
	"gamelib/internal/logging"
)

// Subscriber is the read side of the event hub.
type Subscriber interface {
	Subscribe() (<-chan events.Event, func())
}

// Forward relays sync and enrichment completion events to svc until ctx is
// done. Delivery failures are logged and never stop the relay.
func Forward(ctx context.Context, hub Subscriber, svc Service, logger *slog.Logger) {
	if hub == nil || svc == nil {
		return
	}
	logger = logging.NewComponentLogger(logger, "notifications")
	ch, cancel := hub.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := deliver(ctx, svc, evt); err != nil {
				logging.WarnWithContext(logger, "notification delivery failed", "notify_failed",
					logging.String("event_type", string(evt.Type)),
					logging.Error(err),
				)
			}
		}
	}
}

func deliver(ctx context.Context, svc Service, evt events.Event) error {
	switch msg := evt.Payload.(type) {
	case events.SyncCompleted:
		return svc.NotifySyncCompleted(ctx, msg.Store, msg.Added, msg.Updated, msg.Failed)
	case events.EnrichmentFinished:
		return svc.NotifyEnrichmentFinished(ctx, msg.Store, msg.Processed, msg.Hydrated, msg.Failed, msg.Cancelled)
	default:
		return nil
	}
}
