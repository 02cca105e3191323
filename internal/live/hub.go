package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Event is what subscribers of a tournament room receive.
type Event struct {
	Type    string `json:"type"`
	RoomID  string `json:"room_id,omitempty"`
	Payload any    `json:"payload"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

type roomMessage struct {
	room string
	data []byte
}

// Hub fans events out to the websocket clients of each room. All room
// bookkeeping happens on the Run goroutine.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan roomMessage
	done       chan struct{}
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewHub builds a hub whose websocket upgrades only accept the given
// origins, the same list the CORS middleware uses. "*" allows any origin.
func NewHub(logger *slog.Logger, origins []string) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan roomMessage, 64),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
		logger: logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for room, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
				delete(h.rooms, room)
			}
			return

		case client := <-h.register:
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.logger.Debug("client registered", "room", client.room, "clients", len(h.rooms[client.room]))

		case client := <-h.unregister:
			clients, ok := h.rooms[client.room]
			if !ok || !clients[client] {
				continue
			}
			close(client.send)
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.rooms, client.room)
			}
			h.logger.Debug("client unregistered", "room", client.room, "clients", len(clients))

		case msg := <-h.broadcast:
			for client := range h.rooms[msg.room] {
				select {
				case client.send <- msg.data:
				default:
					h.logger.Warn("client send buffer full, dropping event", "room", msg.room)
				}
			}
		}
	}
}

// Publish queues an event for a room without blocking the caller.
func (h *Hub) Publish(room string, eventType string, payload any) {
	data, err := json.Marshal(Event{Type: eventType, RoomID: room, Payload: payload})
	if err != nil {
		h.logger.Error("failed to encode live event", "room", room, "type", eventType, "error", err)
		return
	}

	select {
	case h.broadcast <- roomMessage{room: room, data: data}:
	default:
		h.logger.Warn("live event queue full, dropping event", "room", room, "type", eventType)
	}
}

// ServeWS upgrades the request and subscribes the connection to room.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, room string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "room", room, "error", err)
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), room: room}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func originChecker(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range origins {
			if allowed == "*" || strings.EqualFold(allowed, origin) {
				return true
			}
		}
		return false
	}
}
