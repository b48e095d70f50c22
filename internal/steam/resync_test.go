package steam_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gamelib/internal/canon"
	"gamelib/internal/enrichment"
	"gamelib/internal/ingest"
	"gamelib/internal/library"
	"gamelib/internal/logging"
	"gamelib/internal/steam"
	"gamelib/internal/testsupport"
)

func TestResyncKeepsEnrichedPlatforms(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/IPlayerService/GetOwnedGames/v1/":
			_, _ = w.Write([]byte(`{"response":{"game_count":1,"games":[{"appid":620,"name":"Portal 2"}]}}`))
		case "/api/appdetails":
			_, _ = w.Write([]byte(`{"620":{"success":true,"data":{"name":"Portal 2","type":"game",
				"genres":[{"id":"1","description":"Action"}],
				"release_date":{"coming_soon":false,"date":"18 Apr, 2011"},
				"platforms":{"windows":true,"mac":false,"linux":true}}}}`))
		default:
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	client, err := steam.New(server.URL, server.URL, steam.WithCredentials("key", "7656"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	source := steam.NewSource(client, "")
	proc := ingest.NewProcessor(store, logging.NewNop())
	pipeline := enrichment.NewPipeline(store, client, logging.NewNop(),
		enrichment.WithPacing(enrichment.Pacing{}),
		enrichment.WithSleep(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }),
	)
	ctx := context.Background()

	first, err := proc.Sync(ctx, source)
	if err != nil {
		t.Fatalf("first Sync failed: %v", err)
	}
	if first.Added != 1 {
		t.Fatalf("unexpected first sync result: %+v", first)
	}
	summary, err := pipeline.Run(ctx, library.StoreSteam)
	if err != nil {
		t.Fatalf("enrichment Run failed: %v", err)
	}
	if summary.Hydrated != 1 {
		t.Fatalf("expected one hydrated listing, got %+v", summary)
	}

	second, err := proc.Sync(ctx, source)
	if err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}
	if second.Added != 0 || second.Updated != 0 {
		t.Fatalf("re-sync should be a no-op, got %+v", second)
	}

	game, err := store.GameByNormalizedTitle(ctx, canon.Title("Portal 2"))
	if err != nil {
		t.Fatalf("GameByNormalizedTitle failed: %v", err)
	}
	listing, err := store.ListingFor(ctx, game.ID, library.StoreSteam)
	if err != nil {
		t.Fatalf("ListingFor failed: %v", err)
	}
	if listing.OS == nil || !listing.OS.Windows || !listing.OS.Linux || listing.OS.Mac {
		t.Fatalf("enriched platforms lost on re-sync: %+v", listing.OS)
	}

	again, err := pipeline.Run(ctx, library.StoreSteam)
	if err != nil {
		t.Fatalf("second enrichment Run failed: %v", err)
	}
	if again.Selected != 0 {
		t.Fatalf("expected nothing left to enrich, got %+v", again)
	}
}
