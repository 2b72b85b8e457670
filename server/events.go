package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/teranos/pharmadex/logger"
)

// WebSocket timeouts, following the gorilla chat example
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4 * 1024
	sendBuffer     = 64
)

// eventClient is one /api/events subscriber.
type eventClient struct {
	hub       *hub
	conn      *websocket.Conn
	send      chan Event
	id        string
	closeOnce sync.Once
}

func (c *eventClient) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// readPump only services control frames; subscribers never send data.
func (c *eventClient) readPump(s *Server) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNoStatusReceived,
			) {
				s.logger.Warnw("Event stream read error", "client_id", c.id, logger.FieldError, err)
			}
			return
		}
	}
}

// writePump forwards events and keeps the connection alive with pings.
func (c *eventClient) writePump(s *Server) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				s.logger.Debugw("Event write error", "client_id", c.id, logger.FieldError, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// HandleEvents upgrades to a WebSocket and streams change events.
func (s *Server) HandleEvents(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// non-browser clients send no Origin
			return origin == "" || s.checkOrigin(origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		logger.FromContext(r.Context(), s.logger).Debugw("Event stream upgrade failed", logger.FieldError, err)
		return
	}

	c := &eventClient{
		hub:  s.hub,
		conn: conn,
		send: make(chan Event, sendBuffer),
		id:   uuid.NewString(),
	}
	if !s.hub.register(c) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}
	logger.FromContext(r.Context(), s.logger).Debugw("Event subscriber connected", "client_id", c.id)

	go c.writePump(s)
	go c.readPump(s)
}

// emit publishes a change event stamped with the active data source.
func (s *Server) emit(typ, entity, id string) {
	_, active := s.app.DataSources.Active()
	s.hub.publish(Event{Type: typ, Entity: entity, ID: id, DataSource: active, At: time.Now().UTC()})
}
