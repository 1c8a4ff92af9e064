// Package messaging provides real-time fan-out of cart tracking events to
// SSE and WebSocket clients.
package messaging

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/multikonnect/cartwatch/internal/infrastructure/observability/logging"
)

// CartEvent is a single tracking lifecycle event pushed to live consumers.
type CartEvent struct {
	Type      string  `json:"type"` // cart_tracked, cart_recovered, cart_converted
	SessionID string  `json:"sessionId"`
	Token     string  `json:"recoveryToken,omitempty"`
	ItemCount int     `json:"itemCount,omitempty"`
	Total     float64 `json:"total,omitempty"`
	Timestamp string  `json:"timestamp"`
}

// SSEBroadcaster manages session-specific SSE connections.
type SSEBroadcaster struct {
	sessions map[string][]chan string // sessionId -> channels
	mu       sync.Mutex
	logger   *logging.ChanneledLogger
}

// NewSSEBroadcaster creates an SSEBroadcaster instance.
func NewSSEBroadcaster(logger *logging.ChanneledLogger) *SSEBroadcaster {
	return &SSEBroadcaster{
		sessions: make(map[string][]chan string),
		logger:   logger,
	}
}

// AddClient registers a new SSE client for a session.
func (b *SSEBroadcaster) AddClient(sessionID string) chan string {
	ch := make(chan string, 10)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.sessions[sessionID] = append(b.sessions[sessionID], ch)

	b.logger.SSE().Debug("SSE client registered", "sessionId", sessionID)
	return ch
}

// RemoveClient removes an SSE client for a session.
func (b *SSEBroadcaster) RemoveClient(ch chan string, sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, exists := b.sessions[sessionID]; exists {
		newClients := make([]chan string, 0, len(clients))
		for _, client := range clients {
			if client != ch {
				newClients = append(newClients, client)
			}
		}
		if len(newClients) == 0 {
			delete(b.sessions, sessionID)
		} else {
			b.sessions[sessionID] = newClients
		}
	}
	b.logger.SSE().Debug("SSE client unregistered", "sessionId", sessionID)
}

// SessionConnectionCount returns the connection count for a session.
func (b *SSEBroadcaster) SessionConnectionCount(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions[sessionID])
}

// BroadcastToSession sends a cart event to every client of a session.
func (b *SSEBroadcaster) BroadcastToSession(sessionID string, event CartEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.SSE().Error("Panic recovered in BroadcastToSession", "error", r, "sessionId", sessionID)
		}
	}()

	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.SSE().Error("Failed to marshal cart event", "error", err.Error(), "sessionId", sessionID)
		return
	}
	message := fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.sessions[sessionID] {
		select {
		case ch <- message:
		default:
			b.logger.SSE().Warn("SSE channel full, message dropped", "sessionId", sessionID)
		}
	}
}
