package live

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pattern-atlas-service/internal/models"
	"pattern-atlas-service/pkg/errors"
	"pattern-atlas-service/pkg/logging"
)

// Live message event names
const (
	EventHello           = "hello"
	EventCatalogReloaded = "catalog.reloaded"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub keeps the set of connected browsers and pushes catalog changes to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	dropped    atomic.Int64
	logger     *logging.StructuredLogger

	// patternCount reports the current catalog size for the hello message
	patternCount func() int
}

// Client is one websocket connection
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a new hub. patternCount may be nil.
func NewHub(logger *logging.StructuredLogger, patternCount func() int) *Hub {
	if logger == nil {
		logger = logging.NewStructuredLogger("live")
	}
	return &Hub{
		clients:      make(map[*Client]bool),
		broadcast:    make(chan []byte, 64),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		done:         make(chan struct{}),
		logger:       logger,
		patternCount: patternCount,
	}
}

// Run serves registrations and broadcasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.logger.WithContext("client_id", client.ID).Debug("Live client connected")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			h.logger.WithContext("client_id", client.ID).Debug("Live client disconnected")

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow consumer; it reconnects and refetches
					delete(h.clients, client)
					close(client.send)
					h.dropped.Add(1)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Broadcast queues a message for every connected client
func (h *Hub) Broadcast(message models.LiveMessage) error {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}
	data, err := json.Marshal(message)
	if err != nil {
		return errors.NewSystemError(errors.ErrCodeUnexpectedPanic, "failed to encode live message", err)
	}

	select {
	case h.broadcast <- data:
		return nil
	default:
		return errors.NewHTTPError(errors.ErrCodeServiceDegraded, "live broadcast queue is full", nil)
	}
}

// ServeWS upgrades the request and attaches the connection to the hub
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return errors.NewHTTPError(errors.ErrCodeUpgradeFailed, "failed to upgrade connection", err)
	}

	client := &Client{
		ID:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	hello := models.LiveMessage{Event: EventHello, Timestamp: time.Now()}
	if h.patternCount != nil {
		hello.Patterns = h.patternCount()
	}
	if data, err := json.Marshal(hello); err == nil {
		client.send <- data
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return errors.NewHTTPError(errors.ErrCodeServiceDegraded, "live updates are stopped", nil)
	}

	go client.writePump()
	go client.readPump()
	return nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Dropped returns the number of clients dropped for not keeping up
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// readPump drains the connection so pongs and close frames are processed.
// Clients do not send anything meaningful.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).WithContext("client_id", c.ID).Warn("Live connection closed unexpectedly")
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
