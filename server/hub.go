package server

import (
	"sync"
	"time"
)

// Event types pushed to /api/events subscribers.
const (
	EventCreated          = "created"
	EventUpdated          = "updated"
	EventDeleted          = "deleted"
	EventDataSourceActive = "datasource_active"
)

// Event describes a change to the directory or to the active data source.
type Event struct {
	Type       string    `json:"type"`
	Entity     string    `json:"entity,omitempty"`
	ID         string    `json:"id,omitempty"`
	DataSource string    `json:"datasource"`
	At         time.Time `json:"at"`
}

// hub fans events out to connected subscribers. A subscriber whose buffer
// is full misses the event rather than blocking the publisher.
type hub struct {
	mu      sync.RWMutex
	clients map[*eventClient]struct{}
	closed  bool
}

func newHub() *hub {
	return &hub{clients: make(map[*eventClient]struct{})}
}

func (h *hub) register(c *eventClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *hub) unregister(c *eventClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

// publish delivers ev to every subscriber and returns how many accepted it.
func (h *hub) publish(ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for c := range h.clients {
		select {
		case c.send <- ev:
			sent++
		default:
			// buffer full, skip
		}
	}
	return sent
}

// count returns the number of connected subscribers.
func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeAll disconnects every subscriber and refuses new ones.
func (h *hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*eventClient]struct{})
	h.closed = true
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
}
