package api

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"gamelib/internal/events"
	"gamelib/internal/ingest"
	"gamelib/internal/library"
	"gamelib/internal/logging"
)

// Syncer reconciles storefront listings into the library.
type Syncer interface {
	Sync(ctx context.Context, source ingest.Source) (ingest.Result, error)
	ProcessBatch(ctx context.Context, storeName string, listings []ingest.RawListing) (ingest.Result, error)
}

// Enricher controls detached enrichment runs.
type Enricher interface {
	Start(ctx context.Context, storeName string) error
	Cancel(storeName string) bool
	Active() []string
}

// SourceResolver returns the configured source for a storefront name.
type SourceResolver func(storeName string) (ingest.Source, error)

// Deps wires the router to the running services.
type Deps struct {
	Store    *library.Store
	Syncer   Syncer
	Enricher Enricher
	Hub      *events.Hub
	Sources  SourceResolver
	Status   func(ctx context.Context) DaemonStatus
	Token    string
	Logger   *slog.Logger
	// BaseContext parents detached enrichment runs so they outlive the request
	// that started them but stop with the daemon.
	BaseContext context.Context
}

type handler struct {
	deps   Deps
	logger *slog.Logger
}

// NewRouter builds the gin engine serving the /api routes.
func NewRouter(deps Deps) *gin.Engine {
	logger := logging.NewComponentLogger(deps.Logger, "api")
	if deps.BaseContext == nil {
		deps.BaseContext = context.Background()
	}
	h := &handler{deps: deps, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(requestLogger(logger))

	api := r.Group("/api")
	api.Use(authRequired(deps.Token))
	{
		api.GET("/status", h.status)
		api.GET("/stats", h.stats)
		api.GET("/games", h.games)
		api.POST("/sync/:store", h.sync)
		api.POST("/batch/:store", h.batch)
		api.POST("/enrich/:store", h.startEnrichment)
		api.DELETE("/enrich/:store", h.cancelEnrichment)
		api.GET("/events", h.events)
		api.GET("/events/ws", h.eventsWS)
	}
	return r
}
