package ws

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMessage = 512
)

// Message is a control message exchanged with a subscriber
type Message struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// Handler upgrades HTTP requests into event subscriptions
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *logging.Logger
}

// NewHandler creates a WebSocket handler for hub
func NewHandler(hub *Hub, logger *logging.Logger) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			// read-only feed of public registry state
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.OrNop().Component("ws"),
	}
}

// HandleConnection streams publish events until the client goes away
func (h *Handler) HandleConnection(c *gin.Context) {
	sub, ok := h.hub.subscribe()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event feed closed"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.unsubscribe(sub)
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	control := make(chan Message, 4)
	done := make(chan struct{})
	go h.writeLoop(conn, sub, control, done)

	control <- Message{Type: "system", Message: "subscribed to publish events"}
	h.readLoop(conn, control, done)
	h.hub.unsubscribe(sub)
}

func (h *Handler) readLoop(conn *websocket.Conn, control chan<- Message, done <-chan struct{}) {
	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		reply := Message{Type: "pong"}
		if msg.Type != "ping" {
			reply = Message{Type: "error", Message: "unknown message type"}
		}
		select {
		case control <- reply:
		case <-done:
			return
		}
	}
}

func (h *Handler) writeLoop(conn *websocket.Conn, sub *subscriber, control <-chan Message, done chan<- struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(done)
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case msg := <-control:
			raw, err := sonic.Marshal(msg)
			if err != nil {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
