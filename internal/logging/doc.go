// Package logging assembles structured slog loggers and formatting helpers used
// across gamelib.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so sync and enrichment code can tag log
// lines with the storefront, run ID, and request correlation ID. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
package logging
