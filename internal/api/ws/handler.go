package ws

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxInbound = 4 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS middleware
	CheckOrigin: func(r *http.Request) bool { return true },
}

// inbound is a client request; only "ping" is understood
type inbound struct {
	Type string `json:"type"`
}

// Handler serves the event stream
type Handler struct {
	hub *Hub
}

// NewHandler creates a stream handler over hub
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// HandleConnection upgrades the request and streams events until the
// client goes away. The optional "frame" query parameter restricts the
// stream to one frame.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	cl := h.hub.subscribe(c.Query("frame"))
	h.hub.logger.Debug("Stream client connected",
		zap.String("client_ip", c.ClientIP()),
		zap.String("frame", cl.frame))

	h.hub.deliver(cl, Message{Type: TypeSystem, Frame: cl.frame, Message: "Connected to framenav event stream"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(conn, cl)
	}()

	h.readPump(conn, cl)
	h.hub.unsubscribe(cl)
	<-done

	h.hub.logger.Debug("Stream client disconnected", zap.String("client_ip", c.ClientIP()))
}

func (h *Handler) readPump(conn *websocket.Conn, cl *client) {
	conn.SetReadLimit(maxInbound)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.hub.logger.Debug("Stream read error", zap.Error(err))
			}
			return
		}

		var msg inbound
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.hub.deliver(cl, Message{Type: TypeError, Message: "invalid message"})
			continue
		}

		switch msg.Type {
		case "ping":
			h.hub.deliver(cl, Message{Type: TypePong})
		default:
			h.hub.deliver(cl, Message{Type: TypeError, Message: "unknown message type"})
		}
	}
}

// writePump owns all writes to conn. It returns when the client queue is
// closed or a write fails.
func (h *Handler) writePump(conn *websocket.Conn, cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-cl.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			data, err := sonic.Marshal(msg)
			if err != nil {
				h.hub.logger.Error("Encode stream message", zap.Error(err))
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				// unblocks readPump
				conn.Close()
				return
			}
			h.hub.metrics.RecordWSMessage(msg.Type)

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				conn.Close()
				return
			}
		}
	}
}
