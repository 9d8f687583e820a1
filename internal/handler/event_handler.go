package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/dance-board-api/internal/models"
)

const (
	eventWriteTimeout = 5 * time.Second
	eventPingEvery    = 30 * time.Second
)

type eventSource interface {
	Subscribe() (<-chan models.BoardEvent, func())
}

// EventHandler streams board refresh events over a websocket.
type EventHandler struct {
	events         eventSource
	originPatterns []string
	pingEvery      time.Duration
	logger         *zap.Logger
}

// NewEventHandler builds a new handler. allowedOrigins are full origins as
// configured for CORS; an empty list skips the origin check.
func NewEventHandler(events eventSource, allowedOrigins []string, logger *zap.Logger) *EventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHandler{
		events:         events,
		originPatterns: originHosts(allowedOrigins),
		pingEvery:      eventPingEvery,
		logger:         logger,
	}
}

// Stream godoc
// @Summary Board refresh events
// @Description Upgrades to a websocket that receives one JSON message per board change.
// @Tags Events
// @Router /events [get]
func (h *EventHandler) Stream(c *gin.Context) {
	if h.events == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns:     h.originPatterns,
		InsecureSkipVerify: len(h.originPatterns) == 0,
	})
	if err != nil {
		h.logger.Info("event stream upgrade failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	events, unsubscribe := h.events.Subscribe()
	defer unsubscribe()

	// viewers never send; CloseRead handles control frames and cancels on close
	ctx := conn.CloseRead(c.Request.Context())
	ticker := time.NewTicker(h.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(ctx, conn, event); err != nil {
				h.logger.Debug("event stream write failed", zap.Int("close_status", int(websocket.CloseStatus(err))), zap.Error(err))
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				h.logger.Debug("event stream ping failed", zap.Error(err))
				return
			}
		}
	}
}

func writeEvent(parent context.Context, conn *websocket.Conn, event models.BoardEvent) error {
	ctx, cancel := context.WithTimeout(parent, eventWriteTimeout)
	defer cancel()
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, payload)
}

// originHosts converts configured origins into websocket host patterns.
func originHosts(origins []string) []string {
	var hosts []string
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" || origin == "*" {
			return nil
		}
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
			continue
		}
		hosts = append(hosts, origin)
	}
	return hosts
}
