// Package ws fans incoming alerts out to connected websocket clients
package ws

import (
	"encoding/json"
	"log/slog"

	"github.com/canalwise/irrigation-platform/internal/model"
)

// Hub maintains the set of active clients and broadcasts alerts to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	logger     *slog.Logger
}

// NewHub creates an alert broadcast hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run processes registrations and broadcasts until the done channel
// closes. Intended to run as a goroutine owned by main.
func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("Websocket client connected",
				slog.String("remote", client.conn.RemoteAddr().String()),
				slog.Int("clients", len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Debug("Websocket client disconnected",
					slog.String("remote", client.conn.RemoteAddr().String()),
					slog.Int("clients", len(h.clients)))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer, drop it
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// BroadcastAlert sends an alert to every connected client
func (h *Hub) BroadcastAlert(alert *model.Alert) {
	message, err := json.Marshal(map[string]interface{}{
		"type":    "alert",
		"payload": alert,
	})
	if err != nil {
		h.logger.Error("Failed to marshal alert for broadcast",
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("Alert broadcast queue full, dropping alert",
			slog.String("alert_id", alert.ID))
	}
}
