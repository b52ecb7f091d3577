package live

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/datachat/internal/middleware"
	"github.com/zhouzirui/datachat/internal/service/surface"
	"github.com/zhouzirui/datachat/internal/view"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Handler 通过 WebSocket 推送重新渲染的页面片段
type Handler struct {
	svc      *surface.Service
	renderer *view.Renderer
	upgrader websocket.Upgrader
}

// New 创建实时推送处理器
func New(svc *surface.Service, renderer *view.Renderer) *Handler {
	return &Handler{
		svc:      svc,
		renderer: renderer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// ChatMessage is the payload of an inbound "chat" message.
type ChatMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// connection 只允许一个 goroutine 写入
type connection struct {
	sessionID string
	conn      *websocket.Conn
	out       chan outgoingMessage
}

func (c *connection) send(ctx context.Context, msg outgoingMessage) {
	msg.SessionID = c.sessionID
	msg.Timestamp = time.Now().Unix()
	select {
	case c.out <- msg:
	case <-ctx.Done():
	}
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r.Context())
	if sessionID == "" {
		http.Error(w, "session is required", http.StatusUnauthorized)
		return
	}

	updates, unsubscribe, err := h.svc.Watch(sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &connection{sessionID: sessionID, conn: conn, out: make(chan outgoingMessage, 8)}
	go h.writeLoop(ctx, cancel, c)
	go h.renderLoop(ctx, cancel, c, updates)

	h.pushRender(ctx, c)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && ctx.Err() == nil {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}
		h.handleMessage(ctx, c, &msg)
		conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *connection, msg *inboundMessage) {
	switch msg.Type {
	case "chat":
		var payload ChatMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			h.sendError(ctx, c, "invalid chat payload")
			return
		}
		// 成功时由 renderLoop 推送新的片段
		if _, err := h.svc.Chat(ctx, c.sessionID, payload.Text); err != nil {
			h.sendError(ctx, c, err.Error())
		}
	case "refresh":
		h.pushRender(ctx, c)
	default:
		h.sendError(ctx, c, "unsupported message type: "+msg.Type)
	}
}

// renderLoop re-renders whenever the session changes, from this or any
// other connection. A closed channel means the session expired.
func (h *Handler) renderLoop(ctx context.Context, cancel context.CancelFunc, c *connection, updates <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-updates:
			if !ok {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[websocket] session %s expired, closing", c.sessionID)
				cancel()
				return
			}
			h.pushRender(ctx, c)
		}
	}
}

func (h *Handler) pushRender(ctx context.Context, c *connection) {
	v, err := h.svc.Snapshot(ctx, c.sessionID)
	if err != nil {
		h.sendError(ctx, c, err.Error())
		return
	}
	html, err := h.renderer.Fragment(v)
	if err != nil {
		log.Printf("[websocket] render failed session=%s: %v", c.sessionID, err)
		h.sendError(ctx, c, "render failed")
		return
	}
	c.send(ctx, outgoingMessage{
		Type: "render",
		Data: map[string]any{"html": html, "chatEnabled": v.ChatEnabled},
	})
}

func (h *Handler) sendError(ctx context.Context, c *connection, message string) {
	c.send(ctx, outgoingMessage{
		Type: "error",
		Data: map[string]string{"message": message},
	})
}

// writeLoop owns every write to the socket, including keepalive pings.
func (h *Handler) writeLoop(ctx context.Context, cancel context.CancelFunc, c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Printf("[websocket] write failed: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
