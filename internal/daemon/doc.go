// Package daemon coordinates the long-running gamelib process.
//
// It wires configuration, the library store, the enrichment pipeline, the
// event hub, and the HTTP API into a single lifecycle with flock-based locking
// to prevent multiple instances against the same data directory. Stop cancels
// in-flight enrichment runs and waits for them to publish their final event
// before the lock is released.
//
// Keep orchestration logic here: reconciliation and enrichment live in their
// own packages while the daemon focuses on startup, shutdown, and status.
package daemon
