// Package transport glues the realtime core to its WebSocket and HTTP
// surfaces. The core never sees a raw socket; it gets a types.Conn.
package transport

import (
	"strings"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/shopfabric/realtime/config"
	"github.com/shopfabric/realtime/src/service"
)

// heartbeatFrame is the only inbound message shape the core cares
// about; anything readable counts as activity.
type heartbeatFrame struct {
	Type string `json:"type"`
}

// WSHandler upgrades HTTP requests to WebSocket connections and runs
// their read loop. Authentication happens upstream; the identity
// headers are trusted here.
type WSHandler struct {
	svc          *service.Service
	writeTimeout time.Duration
	upgrader     websocket.FastHTTPUpgrader
	logger       zerolog.Logger
}

// NewWSHandler creates the WebSocket upgrade handler.
func NewWSHandler(svc *service.Service, cfg *config.Config, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		svc:          svc,
		writeTimeout: cfg.WriteTimeout,
		upgrader: websocket.FastHTTPUpgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
		},
		logger: logger.With().Str("component", "ws-transport").Logger(),
	}
}

// Handler returns a raw fasthttp handler for WebSocket upgrades.
// Register this on the fasthttp server at the "/ws" path.
func (h *WSHandler) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		upgrade := string(ctx.Request.Header.Peek("Upgrade"))
		if !strings.EqualFold(upgrade, "websocket") {
			ctx.SetStatusCode(fasthttp.StatusUpgradeRequired)
			ctx.SetBodyString(`{"error":"upgrade_required","message":"WebSocket upgrade required"}`)
			return
		}

		userID := string(ctx.Request.Header.Peek("X-User-ID"))
		role := string(ctx.Request.Header.Peek("X-User-Role"))
		if userID == "" {
			ctx.SetStatusCode(fasthttp.StatusUnauthorized)
			ctx.SetBodyString(`{"error":"unauthorized","message":"missing identity"}`)
			return
		}
		if role == "" {
			role = "customer"
		}
		connID := uuid.New().String()

		err := h.upgrader.Upgrade(ctx, func(ws *websocket.Conn) {
			h.serve(connID, userID, role, ws)
		})
		if err != nil {
			h.logger.Error().Err(err).Msg("websocket upgrade failed")
		}
	}
}

// serve registers the connection, runs the write pump, and reads
// frames until the client goes away. Every readable frame counts as a
// heartbeat.
func (h *WSHandler) serve(connID, userID, role string, ws *websocket.Conn) {
	conn := &wsConn{conn: ws, writeTimeout: h.writeTimeout}
	c, err := h.svc.Register(connID, userID, role, conn)
	if err != nil {
		h.logger.Error().Err(err).Str("connection_id", connID).Msg("register failed")
		_ = ws.Close()
		return
	}
	defer h.svc.Unregister(connID)

	go c.WritePump()

	for {
		var frame heartbeatFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		h.svc.Touch(connID)
	}
}

// wsConn wraps fasthttp/websocket.Conn to satisfy types.Conn. Writes
// carry a deadline so a wedged peer shows up as a write error instead
// of a stuck pump.
type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (w *wsConn) WriteJSON(v any) error {
	if w.writeTimeout > 0 {
		_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	}
	return w.conn.WriteJSON(v)
}

func (w *wsConn) ReadJSON(v any) error { return w.conn.ReadJSON(v) }
func (w *wsConn) Close() error         { return w.conn.Close() }
