package websocket

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/dukerupert/hearth/internal/membership"
	"github.com/dukerupert/hearth/internal/metrics"
)

// Message is a change notification pushed to the members of one home.
type Message struct {
	Type   string `json:"type"`
	Entity string `json:"entity"`
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

// NewMessage builds a Message from an event type such as "chore_completed".
func NewMessage(eventType, id, userID string) Message {
	entity, action, _ := strings.Cut(eventType, "_")
	return Message{
		Type:   eventType,
		Entity: entity,
		Action: action,
		ID:     id,
		UserID: userID,
	}
}

// Hub tracks live clients per home and fans messages out to them.
type Hub struct {
	mu     sync.RWMutex
	homes  map[string]map[*Client]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		homes:  make(map[string]map[*Client]struct{}),
		logger: logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.homes[c.homeID]
	if !ok {
		clients = make(map[*Client]struct{})
		h.homes[c.homeID] = clients
	}
	clients[c] = struct{}{}
	metrics.LiveClients.Inc()
}

// Unregister removes a client and closes its send channel. It is safe to
// call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(c)
}

func (h *Hub) remove(c *Client) {
	clients, ok := h.homes[c.homeID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	metrics.LiveClients.Dec()
	if len(clients) == 0 {
		delete(h.homes, c.homeID)
	}
}

// Broadcast sends msg to every client subscribed to homeID.
func (h *Hub) Broadcast(homeID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.homes[homeID] {
		select {
		case c.send <- data:
		default:
			h.logger.Debug("dropping message for slow client", "home_id", homeID, "user_id", c.userID)
		}
	}
}

// Disconnect drops userID's connections to homeID. An empty userID drops
// every connection to the home.
func (h *Hub) Disconnect(homeID, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.homes[homeID] {
		if userID == "" || c.userID == userID {
			h.remove(c)
		}
	}
}

// Notify publishes a membership or content event to the home's clients.
// Members who lose access are disconnected after the broadcast.
func (h *Hub) Notify(homeID string, ev membership.Event) {
	id := ev.EntityID
	if id == "" {
		id = ev.UserID
	}
	h.Broadcast(homeID, NewMessage(ev.Type, id, ev.UserID))

	switch ev.Type {
	case membership.EventMemberLeft, membership.EventMemberRemoved:
		h.Disconnect(homeID, ev.UserID)
	case membership.EventHomeDeleted:
		h.Disconnect(homeID, "")
	}
}

// ClientCount returns the number of connected clients across all homes.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.homes {
		n += len(clients)
	}
	return n
}

// HomeClientCount returns the number of clients subscribed to homeID.
func (h *Hub) HomeClientCount(homeID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.homes[homeID])
}
