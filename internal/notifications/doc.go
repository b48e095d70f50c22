// Package notifications delivers library milestones via ntfy.
//
// NewService publishes to the topic configured in config.toml and degrades to
// a no-op when no topic is set. Each category (sync, enrichment, errors) can
// be switched off independently. Forward subscribes to the event hub and turns
// completion events into notifications so sync and enrichment never call the
// notifier directly.
package notifications
