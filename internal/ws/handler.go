package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"literary-character-ai/backend/internal/service"
	apperrors "literary-character-ai/backend/pkg/errors"
	"literary-character-ai/backend/pkg/logger"
	"literary-character-ai/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024

	// Chat frames waiting behind the one in progress
	inboxSize = 16
)

// Frame types
const (
	TypeChat  = "chat"
	TypePing  = "ping"
	TypePong  = "pong"
	TypeError = "error"
)

// Message is the envelope of every frame in both directions
type Message struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content,omitempty"`
}

// ErrorContent is the payload of an error frame
type ErrorContent struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Status int    `json:"status"`
}

// Chatter runs chat turns
type Chatter interface {
	Chat(ctx context.Context, userID uint, req service.ChatRequest) (*service.ChatResult, error)
}

// Client is one authenticated WebSocket connection
type Client struct {
	ID     string
	UserID uint
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub

	inbox  chan service.ChatRequest
	logger *logger.Logger
}

// ReadPump reads frames until the connection closes. Chat turns are handed
// to a single worker so they run one at a time, in order.
func (c *Client) ReadPump(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		close(c.inbox)
		c.Hub.unregister(c)
		_ = c.Conn.Close()
	}()

	go c.work(ctx)

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket closed unexpectedly", "error", err.Error())
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError(apperrors.NewBadRequestError("INVALID_FRAME", "Invalid message format"))
			continue
		}

		switch msg.Type {
		case TypePing:
			c.send(TypePong, gin.H{"timestamp": time.Now().Unix()})
		case TypeChat:
			var req service.ChatRequest
			if err := json.Unmarshal(msg.Content, &req); err != nil {
				c.sendError(apperrors.NewBadRequestError("INVALID_FRAME", "Invalid message format"))
				continue
			}
			select {
			case c.inbox <- req:
			default:
				c.sendError(apperrors.NewTooManyRequestsError("CHAT_BUSY", "Too many messages in flight. Wait for a reply before sending more."))
			}
		default:
			c.sendError(apperrors.NewBadRequestError("UNKNOWN_FRAME", "Unknown message type"))
		}
	}
}

func (c *Client) work(ctx context.Context) {
	for req := range c.inbox {
		result, err := c.Hub.chatter.Chat(ctx, c.UserID, req)
		if err != nil {
			c.sendError(err)
			continue
		}
		c.send(TypeChat, result)
	}
}

// WritePump writes queued frames and keeps the connection alive with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) send(messageType string, content any) {
	raw, err := json.Marshal(content)
	if err != nil {
		c.logger.LogError(err, "Failed to encode WebSocket content", "type", messageType)
		return
	}
	frame, err := json.Marshal(Message{Type: messageType, Content: raw})
	if err != nil {
		c.logger.LogError(err, "Failed to encode WebSocket frame", "type", messageType)
		return
	}

	if !c.Hub.deliver(c, frame) {
		c.logger.Warn("Dropping WebSocket frame", "type", messageType)
	}
}

func (c *Client) sendError(err error) {
	appErr := apperrors.FromError(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		c.logger.LogError(err, "Chat turn failed")
	}
	c.send(TypeError, ErrorContent{Error: appErr.Message, Code: appErr.Code, Status: appErr.StatusCode})
}

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// Handler upgrades authenticated requests to chat connections. The route
// must sit behind JWTAuthMiddleware; allowedOrigins follows the CORS setting.
func Handler(hub *Hub, allowedOrigins []string) gin.HandlerFunc {
	u := upgrader
	u.CheckOrigin = originChecker(allowedOrigins)

	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			_ = c.Error(apperrors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
			return
		}

		conn, err := u.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade has already written the HTTP error
			logger.FromContext(c).Warn("WebSocket upgrade failed", "error", err.Error())
			return
		}

		client := &Client{
			ID:     uuid.NewString(),
			UserID: userID,
			Conn:   conn,
			Send:   make(chan []byte, 256),
			Hub:    hub,
			inbox:  make(chan service.ChatRequest, inboxSize),
		}
		client.logger = logger.FromContext(c).With("client_id", client.ID, "user_id", userID)

		ctx, ok := hub.register(client)
		if !ok {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump(ctx)
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
