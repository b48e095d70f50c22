package api

import (
	"gamelib/internal/events"
	"gamelib/internal/ingest"
	"gamelib/internal/library"
)

// DaemonStatus aggregates runtime information for /api/status.
type DaemonStatus struct {
	Running           bool     `json:"running"`
	PID               int      `json:"pid"`
	DatabasePath      string   `json:"databasePath"`
	LockFilePath      string   `json:"lockFilePath,omitempty"`
	ActiveEnrichments []string `json:"activeEnrichments"`
	LastEventSequence uint64   `json:"lastEventSequence"`
}

// StatsResponse wraps library.Stats.
type StatsResponse struct {
	Stats library.Stats `json:"stats"`
}

// GamesResponse lists games with their listings.
type GamesResponse struct {
	Games []library.GameWithListings `json:"games"`
	Total int                        `json:"total"`
}

// SyncResponse reports a reconciled batch.
type SyncResponse struct {
	Result ingest.Result `json:"result"`
}

// EnrichResponse acknowledges an enrichment start or cancel request.
type EnrichResponse struct {
	Store     string `json:"store"`
	Started   bool   `json:"started,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

// EventsResponse is one long-poll page. Pass Next as since on the next call.
type EventsResponse struct {
	Events []events.Event `json:"events"`
	Next   uint64         `json:"next"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}
