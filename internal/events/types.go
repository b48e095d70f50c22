package events

import (
	"time"

	"gamelib/internal/canon"
)

// Type names an event variant on the wire.
type Type string

const (
	TypeEnrichmentStarted  Type = "enrichment-started"
	TypeItemHydrated       Type = "item-hydrated"
	TypeEnrichmentFinished Type = "enrichment-finished"
	TypeSyncCompleted      Type = "sync-complete"
)

// Message is implemented by every event payload.
type Message interface {
	EventType() Type
}

// Event is a published message with its hub sequence number.
type Event struct {
	Sequence  uint64    `json:"seq"`
	Timestamp time.Time `json:"ts"`
	Type      Type      `json:"type"`
	RunID     string    `json:"runId,omitempty"`
	Payload   Message   `json:"payload"`
}

// EnrichmentStarted is emitted once before the first metadata fetch of a run.
type EnrichmentStarted struct {
	Store string `json:"store"`
	Total int    `json:"total"`
}

func (EnrichmentStarted) EventType() Type { return TypeEnrichmentStarted }

// ItemHydrated is emitted once per processed listing. Err is set when the
// fetch or apply step failed; the field values are then empty.
type ItemHydrated struct {
	GameID        int64            `json:"gameId"`
	Store         string           `json:"store"`
	AppID         string           `json:"appId"`
	Title         string           `json:"title,omitempty"`
	FieldsChanged []string         `json:"fieldsChanged"`
	Category      string           `json:"category,omitempty"`
	ReleaseDate   string           `json:"releaseDate,omitempty"`
	OS            *canon.OSSupport `json:"os,omitempty"`
	Err           string           `json:"error,omitempty"`
}

func (ItemHydrated) EventType() Type { return TypeItemHydrated }

// Succeeded reports whether metadata was applied for the item.
func (e ItemHydrated) Succeeded() bool { return e.Err == "" }

// EnrichmentFinished is emitted once after the last item of a run.
type EnrichmentFinished struct {
	Store     string `json:"store"`
	Processed int    `json:"processed"`
	Hydrated  int    `json:"hydrated"`
	Failed    int    `json:"failed"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

func (EnrichmentFinished) EventType() Type { return TypeEnrichmentFinished }

// SyncCompleted is emitted after a storefront batch has been reconciled.
type SyncCompleted struct {
	Store   string `json:"store"`
	Added   int    `json:"added"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
	Total   int    `json:"total"`
}

func (SyncCompleted) EventType() Type { return TypeSyncCompleted }
