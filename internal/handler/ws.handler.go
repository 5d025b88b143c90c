package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/PerfZero/smsatlra/internal/middleware"
	"github.com/PerfZero/smsatlra/internal/notifier"
	"github.com/PerfZero/smsatlra/pkg/response"
)

type WSHandler struct {
	manager  *notifier.Manager
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewWSHandler(manager *notifier.Manager, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Subscribe upgrades the connection and keeps it registered until the client
// disconnects. The read loop exists only to detect the close.
func (h *WSHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	c := h.manager.Add(userID, conn)
	go h.readLoop(c)
}

func (h *WSHandler) readLoop(c *notifier.Connection) {
	defer h.manager.Remove(c)
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
