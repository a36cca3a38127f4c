package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/escriba/minuta/internal/interfaces"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is the wire envelope for pushed events.
type WSMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

type wsClient struct {
	conn      *websocket.Conn
	mu        sync.Mutex
	sessionID string // Empty subscribes to all sessions
}

// WebSocketHandler pushes session events to connected clients so the chat UI
// tracks state without polling. Each client subscribes to one session via
// the ?session query parameter. Implements interfaces.EventPublisher.
type WebSocketHandler struct {
	logger           arbor.ILogger
	mu               sync.RWMutex
	clients          map[*wsClient]bool
	busyThrottler    *rate.Limiter // busy_changed fires on every operation boundary
	serverInstanceID string        // Unique ID generated on startup - clients use to detect server restart
}

func NewWebSocketHandler(logger arbor.ILogger) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*wsClient]bool),
		busyThrottler:    rate.NewLimiter(rate.Every(100*time.Millisecond), 5),
		serverInstanceID: uuid.New().String(),
	}

	logger.Info().Str("server_instance_id", h.serverInstanceID).Msg("WebSocket handler initialized")
	return h
}

// HandleWebSocket upgrades the connection and keeps it open until the client
// disconnects. Clients send nothing meaningful; the read loop only detects
// closure.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := &wsClient{
		conn:      conn,
		sessionID: r.URL.Query().Get("session"),
	}

	h.mu.Lock()
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().
		Str("session_id", client.sessionID).
		Msgf("WebSocket client connected (total: %d)", clientCount)

	h.sendTo(client, WSMessage{
		Type: "hello",
		Payload: map[string]string{
			"server_instance_id": h.serverInstanceID,
		},
	})

	defer func() {
		h.mu.Lock()
		delete(h.clients, client)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", remaining)
	}()

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
	}
}

// Publish broadcasts a session event to every client subscribed to that
// session. Busy flips are throttled; a dropped busy_changed is recovered by
// the next snapshot fetch.
func (h *WebSocketHandler) Publish(event interfaces.SessionEvent) {
	if event.Type == interfaces.EventBusyChanged && !h.busyThrottler.Allow() {
		return
	}

	msg := WSMessage{
		Type:      event.Type,
		SessionID: event.SessionID,
		Payload:   event.Payload,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", event.Type).Msg("Failed to marshal event message")
		return
	}

	h.mu.RLock()
	targets := make([]*wsClient, 0, len(h.clients))
	for client := range h.clients {
		if client.sessionID == "" || client.sessionID == event.SessionID {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		client.mu.Lock()
		err := client.conn.WriteMessage(websocket.TextMessage, data)
		client.mu.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Str("event_type", event.Type).Msg("Failed to send event to client")
		}
	}
}

func (h *WebSocketHandler) sendTo(client *wsClient, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal message")
		return
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to send message to client")
	}
}

// ClientCount reports connected clients.
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
