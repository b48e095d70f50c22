package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"gamelib/internal/events"
	"gamelib/internal/services"
)

func TestHubFetchAndSequence(t *testing.T) {
	hub := events.NewHub(3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		hub.Publish(ctx, events.SyncCompleted{Store: "GOG", Added: i})
	}

	evts, next, err := hub.Fetch(ctx, 0, 0, false)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(evts) != 3 {
		t.Fatalf("expected ring to hold 3 events, got %d", len(evts))
	}
	if evts[0].Sequence != 3 || next != 5 {
		t.Fatalf("unexpected sequences: first=%d next=%d", evts[0].Sequence, next)
	}

	limited, next, err := hub.Fetch(ctx, 3, 1, false)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(limited) != 1 || limited[0].Sequence != 4 || next != 4 {
		t.Fatalf("limited fetch should resume from the last returned event: %+v next=%d", limited, next)
	}

	none, next, err := hub.Fetch(ctx, 5, 10, false)
	if err != nil || len(none) != 0 || next != 5 {
		t.Fatalf("expected empty fetch at head, got %d events next=%d err=%v", len(none), next, err)
	}
	if hub.LastSequence() != 5 {
		t.Fatalf("unexpected last sequence %d", hub.LastSequence())
	}
}

func TestHubFetchWaitsForPublish(t *testing.T) {
	hub := events.NewHub(10)
	done := make(chan []events.Event, 1)
	go func() {
		evts, _, _ := hub.Fetch(context.Background(), 0, 10, true)
		done <- evts
	}()

	time.Sleep(20 * time.Millisecond)
	hub.Publish(context.Background(), events.EnrichmentStarted{Store: "Steam", Total: 2})

	select {
	case evts := <-done:
		if len(evts) != 1 || evts[0].Type != events.TypeEnrichmentStarted {
			t.Fatalf("unexpected events: %+v", evts)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Fetch did not wake on publish")
	}
}

func TestHubFetchHonoursCancellation(t *testing.T) {
	hub := events.NewHub(10)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, _, err := hub.Fetch(ctx, 0, 10, true)
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestHubSubscribe(t *testing.T) {
	hub := events.NewHub(10)
	ch, cancel := hub.Subscribe()

	ctx := services.WithRunID(context.Background(), "run-1")
	hub.Publish(ctx, events.ItemHydrated{GameID: 7, Store: "Steam", AppID: "620"})

	select {
	case evt := <-ch:
		if evt.Type != events.TypeItemHydrated || evt.RunID != "run-1" {
			t.Fatalf("unexpected event: %+v", evt)
		}
		item, ok := evt.Payload.(events.ItemHydrated)
		if !ok || item.GameID != 7 || !item.Succeeded() {
			t.Fatalf("unexpected payload: %#v", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive event")
	}

	cancel()
	cancel()
	if _, open := <-ch; open {
		t.Fatal("expected channel closed after cancel")
	}
	hub.Publish(context.Background(), events.EnrichmentFinished{Store: "Steam"})
}

func TestEventJSONShape(t *testing.T) {
	hub := events.NewHub(1)
	hub.Publish(context.Background(), events.EnrichmentFinished{Store: "Steam", Processed: 2, Hydrated: 1, Failed: 1})
	evts, _, _ := hub.Fetch(context.Background(), 0, 1, false)

	data, err := json.Marshal(evts[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["type"] != "enrichment-finished" {
		t.Fatalf("unexpected type field: %v", decoded["type"])
	}
	payload, ok := decoded["payload"].(map[string]any)
	if !ok || payload["hydrated"] != float64(1) {
		t.Fatalf("unexpected payload: %v", decoded["payload"])
	}
}

func TestItemHydratedUsesCamelCaseKeys(t *testing.T) {
	hub := events.NewHub(1)
	ctx := services.WithRunID(context.Background(), "run-1")
	hub.Publish(ctx, events.ItemHydrated{
		GameID:        7,
		Store:         "Steam",
		AppID:         "620",
		FieldsChanged: []string{"category", "releaseDate"},
		ReleaseDate:   "18 Apr, 2011",
	})
	evts, _, _ := hub.Fetch(context.Background(), 0, 1, false)

	data, err := json.Marshal(evts[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["runId"] != "run-1" {
		t.Fatalf("expected runId on envelope, got %v", decoded)
	}
	payload, ok := decoded["payload"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected payload: %v", decoded["payload"])
	}
	for _, key := range []string{"gameId", "appId", "fieldsChanged", "releaseDate"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("expected %q in payload %v", key, payload)
		}
	}
	for _, key := range []string{"game_id", "app_id", "fields_changed", "release_date"} {
		if _, ok := payload[key]; ok {
			t.Fatalf("unexpected snake_case key %q in payload %v", key, payload)
		}
	}
}
