package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gamelib/internal/testsupport"
)

func newSteamServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/IPlayerService/GetOwnedGames/v1/":
			_, _ = w.Write([]byte(`{"response":{"game_count":2,"games":[{"appid":620,"name":"Portal 2"},{"appid":1145360,"name":"Hades"}]}}`))
		case "/api/appdetails":
			switch r.URL.Query().Get("appids") {
			case "620":
				_, _ = w.Write([]byte(`{"620":{"success":true,"data":{"name":"Portal 2","type":"game",
					"genres":[{"id":"25","description":"Adventure"}],
					"release_date":{"coming_soon":false,"date":"18 Apr, 2011"},
					"platforms":{"windows":true,"mac":true,"linux":true}}}}`))
			default:
				_, _ = w.Write([]byte(`{"1145360":{"success":false}}`))
			}
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSyncSteamRunsEnrichment(t *testing.T) {
	server := newSteamServer(t)
	env := setupCLITestEnv(t,
		testsupport.WithSteamCredentials("key", "7656"),
		testsupport.WithSteamEndpoints(server.URL, server.URL),
	)
	env.cfg.Enrichment.AutoStart = true
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, env.configPath, "sync", "steam")
	if err != nil {
		t.Fatalf("sync: %v\n%s", err, out)
	}
	requireContains(t, out, "Steam sync: 2 added")
	requireContains(t, out, "Enriching 2 Steam games")
	requireContains(t, out, "+ Portal 2: Adventure, 2011-04-18")
	requireContains(t, out, "Enrichment complete: 1 of 2 games hydrated, 1 failed")

	// Only the failed game is still awaiting enrichment.
	out, _, err = runCLI(t, env.configPath, "enrich")
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	requireContains(t, out, "Enrichment complete: 0 of 1 games hydrated, 1 failed")
}

func TestSyncSteamNoEnrich(t *testing.T) {
	server := newSteamServer(t)
	env := setupCLITestEnv(t,
		testsupport.WithSteamCredentials("key", "7656"),
		testsupport.WithSteamEndpoints(server.URL, server.URL),
	)
	env.cfg.Enrichment.AutoStart = true
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, env.configPath, "sync", "steam", "--no-enrich")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	requireContains(t, out, "Steam sync: 2 added")
	if strings.Contains(out, "Enrich") {
		t.Fatalf("expected no enrichment output, got %q", out)
	}
}

func TestEnrichRejectsUnknownStore(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env.configPath, "enrich", "--store", "epic")
	if err == nil {
		t.Fatal("expected error for unknown store")
	}
}

