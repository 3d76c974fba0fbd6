package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/lingopal/conversation-service/internal/api/middleware"
	"github.com/lingopal/conversation-service/internal/domain/models"
	"github.com/lingopal/conversation-service/internal/services/conversation"
)

const (
	defaultWriteTimeout    = 10 * time.Second
	defaultMaxMessageBytes = 64 * 1024
)

// ConversationConfig tunes the WebSocket endpoint.
type ConversationConfig struct {
	WriteTimeout    time.Duration
	MaxMessageBytes int64
	CORS            middleware.CORSConfig
}

// ConversationHandler upgrades requests to WebSocket and hands them to the engine.
type ConversationHandler struct {
	engine          *conversation.Engine
	upgrader        websocket.Upgrader
	writeTimeout    time.Duration
	maxMessageBytes int64
}

// NewConversationHandler creates a new ConversationHandler.
func NewConversationHandler(engine *conversation.Engine, cfg ConversationConfig) *ConversationHandler {
	h := &ConversationHandler{
		engine:          engine,
		writeTimeout:    cfg.WriteTimeout,
		maxMessageBytes: cfg.MaxMessageBytes,
	}
	if h.writeTimeout <= 0 {
		h.writeTimeout = defaultWriteTimeout
	}
	if h.maxMessageBytes <= 0 {
		h.maxMessageBytes = defaultMaxMessageBytes
	}

	corsCfg := cfg.CORS
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || corsCfg.AllowsOrigin(origin)
		},
	}
	return h
}

// Connect handles GET /ws/conversation.
// @Summary Live conversation
// @Description Upgrades to a WebSocket running a scenario framed conversation. Authentication happens after the upgrade; failures close the socket with code 1008.
// @Tags Conversation
// @Param token query string true "Bearer token"
// @Param language query string false "Language code" default(en)
// @Param session_id query string false "Session to resume"
// @Param scenario_id query string false "Scenario id"
// @Param scenario_type query string false "Scenario type (predefined, past-meeting, custom)"
// @Success 101 "Switching Protocols"
// @Router /api/v1/ws/conversation [get]
func (h *ConversationHandler) Connect(c *gin.Context) {
	params := conversation.Params{
		Token:     c.Query("token"),
		Language:  c.Query("language"),
		SessionID: c.Query("session_id"),
		Scenario: models.ScenarioReference{
			ID:   c.Query("scenario_id"),
			Type: c.Query("scenario_type"),
		},
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		logger := middleware.GetRequestLogger(c)
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(h.maxMessageBytes)

	h.engine.Serve(c.Request.Context(), newWSTransport(conn, h.writeTimeout), params)
}

// wsTransport adapts a gorilla connection to conversation.Transport. Writes are
// serialized; Close sends a close frame once and releases the socket.
type wsTransport struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func newWSTransport(conn *websocket.Conn, writeTimeout time.Duration) *wsTransport {
	return &wsTransport{conn: conn, writeTimeout: writeTimeout}
}

func (t *wsTransport) ReadMessage() (int, []byte, error) {
	return t.conn.ReadMessage()
}

func (t *wsTransport) WriteJSON(v any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
		return err
	}
	return t.conn.WriteJSON(v)
}

func (t *wsTransport) Close(code int, reason string) error {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		_ = t.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			time.Now().Add(t.writeTimeout),
		)
		t.mu.Unlock()
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}
