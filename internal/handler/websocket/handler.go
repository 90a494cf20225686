package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Tomato-onionn/GSS-Room-Service/internal/hub"
)

// WebSocketHandler upgrades signaling connections and hands them to the Hub.
// Room membership is established afterwards by the join-room event, not by
// the URL, so one connection can move between rooms without reconnecting.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
}

func NewWebSocketHandler(h *hub.Hub) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict to the configured CORS origin before exposing
				// the signaling endpoint publicly.
				return true
			},
		},
		hub: h,
	}
}

// HandleConnection serves GET /ws/signaling.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		logrus.WithError(err).Error("WS handler: failed to upgrade connection")
		return
	}

	connID := uuid.NewString()
	logCtx := logrus.WithField("connection_id", connID)
	logCtx.Info("WS handler: connection upgraded")

	client := hub.NewClient(h.hub, conn, connID)
	if !h.hub.QueueMessage(hub.HubMessage{Type: "register", Client: client}) {
		logCtx.Error("WS handler: hub channel full, dropping connection")
		client.CloseConn()
		return
	}

	client.Run()
}
