package handlers

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/supportdesk/ticket-dashboard/internal/hub"
)

// WsHandler upgrades dashboard clients onto the notification hub.
type WsHandler struct {
	hub    *hub.Hub
	logger *zap.Logger
}

// NewWsHandler constructs handler.
func NewWsHandler(h *hub.Hub, logger *zap.Logger) *WsHandler {
	return &WsHandler{hub: h, logger: logger}
}

// wsTransport adapts a websocket connection to the hub's writer interface.
type wsTransport struct {
	conn *websocket.Conn
}

func (t wsTransport) WriteMessage(data []byte) error {
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t wsTransport) Close() error {
	return t.conn.Close()
}

// clientMessage is the inbound control frame. Clients are joined to the
// update group on connect; they may leave and rejoin without reconnecting.
type clientMessage struct {
	Action string `json:"action"`
}

// Upgrade gates GET /ticketHub to websocket requests.
func (h *WsHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Serve runs one client session: register, consume control frames until the
// peer disconnects, then unregister.
func (h *WsHandler) Serve() fiber.Handler {
	return websocket.New(func(ws *websocket.Conn) {
		conn := h.hub.Register(wsTransport{conn: ws})
		defer h.hub.Unregister(conn)
		h.logger.Info("websocket client connected", zap.String("conn_id", conn.ID()))

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				h.logger.Info("websocket client disconnected", zap.String("conn_id", conn.ID()))
				return
			}
			var msg clientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			switch strings.ToLower(msg.Action) {
			case "join":
				h.hub.Join(conn)
			case "leave":
				h.hub.Leave(conn)
			}
		}
	})
}
