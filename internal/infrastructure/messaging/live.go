package messaging

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/multikonnect/cartwatch/internal/infrastructure/observability/logging"
)

// ActivityHub fans out tracking activity to ops dashboard WebSocket clients.
type ActivityHub struct {
	clients  map[*websocket.Conn]bool
	mu       sync.Mutex
	upgrader websocket.Upgrader
	logger   *logging.ChanneledLogger
}

// NewActivityHub creates the hub for the live activity feed.
func NewActivityHub(logger *logging.ChanneledLogger) *ActivityHub {
	return &ActivityHub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The sysop dashboard is served from a different origin; auth is
			// enforced by the JWT middleware before the upgrade.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// HandleConnection upgrades the request and keeps the socket registered until
// the client disconnects.
func (h *ActivityHub) HandleConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.SSE().Error("WebSocket upgrade failed", "error", err.Error())
		return err
	}

	h.mu.Lock()
	h.clients[conn] = true
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.SSE().Info("Activity feed client connected", "clients", clientCount)

	// Reader loop: the feed is one-way, but reading is required to observe
	// close frames and pong responses.
	go func() {
		defer h.removeClient(conn)
		conn.SetReadLimit(512)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}

// Publish sends a cart event to every connected dashboard client.
func (h *ActivityHub) Publish(event CartEvent) {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.SSE().Error("Failed to marshal activity event", "error", err.Error())
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.SSE().Warn("Activity feed write failed, dropping client", "error", err.Error())
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// ClientCount returns the number of connected dashboard clients.
func (h *ActivityHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *ActivityHub) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
		h.logger.SSE().Info("Activity feed client disconnected", "clients", len(h.clients))
	}
}
