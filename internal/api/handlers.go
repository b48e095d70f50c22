package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"gamelib/internal/enrichment"
	"gamelib/internal/ingest"
	"gamelib/internal/library"
	"gamelib/internal/logging"
	"gamelib/internal/services"
)

func (h *handler) status(c *gin.Context) {
	var status DaemonStatus
	if h.deps.Status != nil {
		status = h.deps.Status(c.Request.Context())
	} else {
		status = DaemonStatus{Running: true, PID: os.Getpid()}
		if h.deps.Store != nil {
			status.DatabasePath = h.deps.Store.Path()
		}
		if h.deps.Enricher != nil {
			status.ActiveEnrichments = h.deps.Enricher.Active()
		}
		status.LastEventSequence = h.deps.Hub.LastSequence()
	}
	if status.ActiveEnrichments == nil {
		status.ActiveEnrichments = []string{}
	}
	c.JSON(http.StatusOK, status)
}

func (h *handler) stats(c *gin.Context) {
	if h.deps.Store == nil {
		h.fail(c, unavailable("stats", "library store"))
		return
	}
	stats, err := h.deps.Store.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, StatsResponse{Stats: stats})
}

func (h *handler) games(c *gin.Context) {
	if h.deps.Store == nil {
		h.fail(c, unavailable("games", "library store"))
		return
	}
	onlyDuplicates, _ := strconv.ParseBool(c.DefaultQuery("duplicates", "false"))
	games, err := h.deps.Store.ListGames(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if onlyDuplicates {
		filtered := games[:0]
		for _, g := range games {
			if g.Duplicate {
				filtered = append(filtered, g)
			}
		}
		games = filtered
	}
	if games == nil {
		games = []library.GameWithListings{}
	}
	c.JSON(http.StatusOK, GamesResponse{Games: games, Total: len(games)})
}

func (h *handler) sync(c *gin.Context) {
	storeName, ok := h.storeParam(c)
	if !ok {
		return
	}
	if h.deps.Syncer == nil || h.deps.Sources == nil {
		h.fail(c, unavailable("sync", "sync processor"))
		return
	}
	source, err := h.deps.Sources(storeName)
	if err != nil {
		h.fail(c, err)
		return
	}
	result, err := h.deps.Syncer.Sync(c.Request.Context(), source)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, SyncResponse{Result: result})
}

func (h *handler) batch(c *gin.Context) {
	storeName, ok := h.storeParam(c)
	if !ok {
		return
	}
	if h.deps.Syncer == nil {
		h.fail(c, unavailable("batch", "sync processor"))
		return
	}
	var listings []ingest.RawListing
	if err := c.ShouldBindJSON(&listings); err != nil {
		h.fail(c, services.Wrap(services.ErrValidation, "api", "batch", "body must be a JSON array of listings", err))
		return
	}
	result, err := h.deps.Syncer.ProcessBatch(c.Request.Context(), storeName, listings)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, SyncResponse{Result: result})
}

func (h *handler) startEnrichment(c *gin.Context) {
	storeName, ok := h.storeParam(c)
	if !ok {
		return
	}
	if h.deps.Enricher == nil {
		h.fail(c, unavailable("enrich", "enrichment pipeline"))
		return
	}
	if err := h.deps.Enricher.Start(h.deps.BaseContext, storeName); err != nil {
		if errors.Is(err, enrichment.ErrRunInProgress) {
			err = services.Wrap(services.ErrConflict, "api", "enrich", storeName, err)
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, EnrichResponse{Store: storeName, Started: true})
}

func (h *handler) cancelEnrichment(c *gin.Context) {
	storeName, ok := h.storeParam(c)
	if !ok {
		return
	}
	if h.deps.Enricher == nil || !h.deps.Enricher.Cancel(storeName) {
		h.fail(c, services.Wrap(services.ErrNotFound, "api", "cancel enrichment", "no active run for "+storeName, nil))
		return
	}
	c.JSON(http.StatusOK, EnrichResponse{Store: storeName, Cancelled: true})
}

func (h *handler) storeParam(c *gin.Context) (string, bool) {
	raw := c.Param("store")
	name, ok := library.CanonicalStore(raw)
	if !ok {
		h.fail(c, services.Wrap(services.ErrValidation, "api", "store", "unknown store "+strconv.Quote(raw), nil))
		return "", false
	}
	return name, true
}

func (h *handler) fail(c *gin.Context, err error) {
	status := services.HTTPStatus(err)
	rid, _ := services.RequestIDFromContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(c.Request.Context(), h.logger), "api request failed", "api_request_failed",
			logging.String("path", c.Request.URL.Path),
			logging.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), RequestID: rid})
}

func unavailable(op, what string) error {
	return services.Wrap(services.ErrConfiguration, "api", op, what+" unavailable", nil)
}
