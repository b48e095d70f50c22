package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"gamelib/internal/events"
	"gamelib/internal/logging"
)

const (
	defaultEventLimit = 200
	longPollTimeout   = 25 * time.Second
	wsWriteTimeout    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool { return true },
}

func (h *handler) events(c *gin.Context) {
	since, _ := strconv.ParseUint(c.Query("since"), 10, 64)
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 {
		limit = defaultEventLimit
	}
	follow := c.Query("follow") == "1" || strings.EqualFold(c.Query("follow"), "true")

	ctx := c.Request.Context()
	if follow {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, longPollTimeout)
		defer cancel()
	}

	evts, next, err := h.deps.Hub.Fetch(ctx, since, limit, follow)
	if err != nil && len(evts) == 0 &&
		!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		h.fail(c, err)
		return
	}
	if evts == nil {
		evts = []events.Event{}
	}
	c.JSON(http.StatusOK, EventsResponse{Events: evts, Next: next})
}

// eventsWS streams hub events over a websocket. A since query parameter
// replays buffered events first. Incoming messages are read only to detect
// the client going away.
func (h *handler) eventsWS(c *gin.Context) {
	if h.deps.Hub == nil {
		h.fail(c, unavailable("events", "event hub"))
		return
	}
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	log := logging.WithContext(c.Request.Context(), h.logger)
	log.Debug("websocket client connected", logging.String(logging.FieldEventType, "ws_connect"))

	// Subscribe before replaying so nothing published in between is lost.
	live, unsubscribe := h.deps.Hub.Subscribe()
	defer unsubscribe()

	var last uint64
	if raw := c.Query("since"); raw != "" {
		since, _ := strconv.ParseUint(raw, 10, 64)
		backlog, _, _ := h.deps.Hub.Fetch(c.Request.Context(), since, 0, false)
		for _, evt := range backlog {
			if err := writeEvent(ws, evt); err != nil {
				return
			}
			last = evt.Sequence
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			log.Debug("websocket client disconnected", logging.String(logging.FieldEventType, "ws_disconnect"))
			return
		case <-h.deps.BaseContext.Done():
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(time.Second))
			return
		case evt, ok := <-live:
			if !ok {
				return
			}
			if evt.Sequence <= last {
				continue
			}
			if err := writeEvent(ws, evt); err != nil {
				return
			}
			last = evt.Sequence
		}
	}
}

func writeEvent(ws *websocket.Conn, evt events.Event) error {
	_ = ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return ws.WriteJSON(evt)
}
