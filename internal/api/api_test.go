package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"gamelib/internal/api"
	"gamelib/internal/enrichment"
	"gamelib/internal/events"
	"gamelib/internal/ingest"
	"gamelib/internal/library"
	"gamelib/internal/logging"
	"gamelib/internal/services"
	"gamelib/internal/testsupport"
)

type wireEvent struct {
	Sequence uint64          `json:"seq"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
}

type wireEvents struct {
	Events []wireEvent `json:"events"`
	Next   uint64      `json:"next"`
}

type staticSource struct {
	name     string
	listings []ingest.RawListing
	err      error
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) FetchListings(context.Context) ([]ingest.RawListing, error) {
	return s.listings, s.err
}

type enricherStub struct {
	startErr  error
	started   []string
	cancelled []string
	active    bool
}

func (e *enricherStub) Start(_ context.Context, store string) error {
	if e.startErr != nil {
		return e.startErr
	}
	e.started = append(e.started, store)
	return nil
}

func (e *enricherStub) Cancel(store string) bool {
	if !e.active {
		return false
	}
	e.cancelled = append(e.cancelled, store)
	return true
}

func (e *enricherStub) Active() []string {
	if e.active {
		return []string{library.StoreSteam}
	}
	return nil
}

type fixture struct {
	store    *library.Store
	hub      *events.Hub
	enricher *enricherStub
	router   *gin.Engine
}

func newFixture(t *testing.T, token string, sources api.SourceResolver) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	hub := events.NewHub(32)
	enr := &enricherStub{}
	proc := ingest.NewProcessor(store, logging.NewNop(), ingest.WithPublisher(hub))
	router := api.NewRouter(api.Deps{
		Store:    store,
		Syncer:   proc,
		Enricher: enr,
		Hub:      hub,
		Sources:  sources,
		Token:    token,
		Logger:   logging.NewNop(),
	})
	return &fixture{store: store, hub: hub, enricher: enr, router: router}
}

func (f *fixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestStatsAndGames(t *testing.T) {
	f := newFixture(t, "", nil)
	testsupport.AddListing(t, f.store, "Hades", "Action", library.StoreGOG, "1")
	testsupport.AddListing(t, f.store, "Hades ", "Action", library.StoreSteam, "1145360")
	testsupport.AddListing(t, f.store, "Celeste", "Platformer", library.StoreSteam, "504230")

	rec := f.do(t, http.MethodGet, "/api/stats", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status %d: %s", rec.Code, rec.Body.String())
	}
	var stats api.StatsResponse
	decode(t, rec, &stats)
	if stats.Stats.Total != 2 || stats.Stats.Duplicates != 1 || stats.Stats.PerStore[library.StoreSteam] != 2 {
		t.Fatalf("unexpected stats: %+v", stats.Stats)
	}

	rec = f.do(t, http.MethodGet, "/api/games", nil, nil)
	var games api.GamesResponse
	decode(t, rec, &games)
	if games.Total != 2 || len(games.Games) != 2 {
		t.Fatalf("expected 2 games, got %+v", games)
	}

	rec = f.do(t, http.MethodGet, "/api/games?duplicates=true", nil, nil)
	decode(t, rec, &games)
	if games.Total != 1 || games.Games[0].Title != "Hades" || len(games.Games[0].Listings) != 2 {
		t.Fatalf("unexpected duplicates: %+v", games)
	}
}

func TestStatusDefaults(t *testing.T) {
	f := newFixture(t, "", nil)
	f.enricher.active = true
	rec := f.do(t, http.MethodGet, "/api/status", nil, nil)
	var status api.DaemonStatus
	decode(t, rec, &status)
	if !status.Running || status.DatabasePath != f.store.Path() {
		t.Fatalf("unexpected status: %+v", status)
	}
	if len(status.ActiveEnrichments) != 1 || status.ActiveEnrichments[0] != library.StoreSteam {
		t.Fatalf("unexpected active enrichments: %+v", status.ActiveEnrichments)
	}
}

func TestAuthAndRequestID(t *testing.T) {
	f := newFixture(t, "secret", nil)

	rec := f.do(t, http.MethodGet, "/api/stats", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var errResp api.ErrorResponse
	decode(t, rec, &errResp)
	if errResp.RequestID == "" || rec.Header().Get("X-Request-ID") != errResp.RequestID {
		t.Fatalf("expected request id in body and header, got %+v / %q", errResp, rec.Header().Get("X-Request-ID"))
	}

	rec = f.do(t, http.MethodGet, "/api/stats", nil, map[string]string{"Authorization": "Bearer wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong token, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/stats", nil, map[string]string{
		"Authorization": "Bearer secret",
		"X-Request-ID":  "req-42",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") != "req-42" {
		t.Fatalf("expected caller request id echoed, got %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestBatchReconcilesListings(t *testing.T) {
	f := newFixture(t, "", nil)
	listings := []ingest.RawListing{
		{ID: "1", Title: "Hades", Category: "Action", IsGame: true, Platforms: map[string]any{"Windows": true}},
		{ID: "2", Title: "Soundtrack", IsGame: false},
	}
	rec := f.do(t, http.MethodPost, "/api/batch/gog", listings, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("batch status %d: %s", rec.Code, rec.Body.String())
	}
	var resp api.SyncResponse
	decode(t, rec, &resp)
	if resp.Result.Store != library.StoreGOG || resp.Result.Added != 1 || resp.Result.Skipped != 1 {
		t.Fatalf("unexpected result: %+v", resp.Result)
	}

	rec = f.do(t, http.MethodPost, "/api/batch/steam", []ingest.RawListing{{ID: "1145360", Title: "Hades ", IsGame: true}}, nil)
	decode(t, rec, &resp)
	if resp.Result.Added != 0 {
		t.Fatalf("expected existing game to be reused, got %+v", resp.Result)
	}
	if f.hub.LastSequence() != 2 {
		t.Fatalf("expected two sync events, got %d", f.hub.LastSequence())
	}
}

func TestBatchRejectsBadInput(t *testing.T) {
	f := newFixture(t, "", nil)
	if rec := f.do(t, http.MethodPost, "/api/batch/epic", []ingest.RawListing{}, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown store, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/batch/gog", strings.NewReader(`{"not":"an array"}`))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestSyncUsesResolvedSource(t *testing.T) {
	resolver := func(store string) (ingest.Source, error) {
		if store == library.StoreSteam {
			return nil, services.Wrap(services.ErrConfiguration, "test", "resolve", "steam credentials", nil)
		}
		return staticSource{name: store, listings: []ingest.RawListing{{ID: "7", Title: "Celeste", IsGame: true}}}, nil
	}
	f := newFixture(t, "", resolver)

	rec := f.do(t, http.MethodPost, "/api/sync/GOG", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sync status %d: %s", rec.Code, rec.Body.String())
	}
	var resp api.SyncResponse
	decode(t, rec, &resp)
	if resp.Result.Added != 1 {
		t.Fatalf("unexpected result: %+v", resp.Result)
	}

	rec = f.do(t, http.MethodPost, "/api/sync/steam", nil, nil)
	if rec.Code != http.StatusPreconditionFailed {
		t.Fatalf("expected 412 for missing credentials, got %d", rec.Code)
	}
}

func TestSyncReportsFetchFailure(t *testing.T) {
	resolver := func(store string) (ingest.Source, error) {
		return staticSource{name: store, err: errors.New("connection reset")}, nil
	}
	f := newFixture(t, "", resolver)
	rec := f.do(t, http.MethodPost, "/api/sync/gog", nil, nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for transport failure, got %d", rec.Code)
	}
}

func TestEnrichmentControl(t *testing.T) {
	f := newFixture(t, "", nil)

	rec := f.do(t, http.MethodPost, "/api/enrich/steam", nil, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(f.enricher.started) != 1 || f.enricher.started[0] != library.StoreSteam {
		t.Fatalf("unexpected starts: %+v", f.enricher.started)
	}

	f.enricher.startErr = fmt.Errorf("%w: Steam", enrichment.ErrRunInProgress)
	rec = f.do(t, http.MethodPost, "/api/enrich/steam", nil, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for running enrichment, got %d", rec.Code)
	}

	if rec := f.do(t, http.MethodDelete, "/api/enrich/steam", nil, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without active run, got %d", rec.Code)
	}
	f.enricher.active = true
	if rec := f.do(t, http.MethodDelete, "/api/enrich/steam", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 cancelling active run, got %d", rec.Code)
	}
}

func TestEventsLongPoll(t *testing.T) {
	f := newFixture(t, "", nil)
	f.hub.Publish(context.Background(), events.EnrichmentStarted{Store: library.StoreSteam, Total: 2})
	f.hub.Publish(context.Background(), events.EnrichmentFinished{Store: library.StoreSteam, Processed: 2, Hydrated: 2})

	rec := f.do(t, http.MethodGet, "/api/events?since=0&limit=1", nil, nil)
	var page wireEvents
	decode(t, rec, &page)
	if len(page.Events) != 1 || page.Events[0].Type != string(events.TypeEnrichmentStarted) || page.Next != 1 {
		t.Fatalf("unexpected first page: %+v", page)
	}

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/events?since=%d", page.Next), nil, nil)
	decode(t, rec, &page)
	if len(page.Events) != 1 || page.Events[0].Type != string(events.TypeEnrichmentFinished) || page.Next != 2 {
		t.Fatalf("unexpected second page: %+v", page)
	}

	done := make(chan wireEvents, 1)
	go func() {
		req := httptest.NewRequest(http.MethodGet, "/api/events?since=2&follow=true", nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		var followed wireEvents
		_ = json.Unmarshal(rec.Body.Bytes(), &followed)
		done <- followed
	}()
	time.Sleep(50 * time.Millisecond)
	f.hub.Publish(context.Background(), events.SyncCompleted{Store: library.StoreGOG, Added: 1})

	select {
	case followed := <-done:
		if len(followed.Events) != 1 || followed.Events[0].Sequence != 3 {
			t.Fatalf("unexpected followed page: %+v", followed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("long poll did not return after publish")
	}
}

func TestEventsWebsocket(t *testing.T) {
	f := newFixture(t, "", nil)
	f.hub.Publish(context.Background(), events.EnrichmentStarted{Store: library.StoreSteam, Total: 1})

	srv := httptest.NewServer(f.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events/ws?since=0"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first wireEvent
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read backlog: %v", err)
	}
	if first.Sequence != 1 || first.Type != string(events.TypeEnrichmentStarted) {
		t.Fatalf("unexpected backlog event: %+v", first)
	}

	f.hub.Publish(context.Background(), events.ItemHydrated{Store: library.StoreSteam, AppID: "1145360", Title: "Hades"})
	var second wireEvent
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read live event: %v", err)
	}
	if second.Sequence != 2 || second.Type != string(events.TypeItemHydrated) {
		t.Fatalf("unexpected live event: %+v", second)
	}
	var payload struct {
		AppID string `json:"appId"`
	}
	if err := json.Unmarshal(second.Payload, &payload); err != nil || payload.AppID != "1145360" {
		t.Fatalf("unexpected payload %s: %v", second.Payload, err)
	}
}
