package notify

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/decred/slog"
	"github.com/gorilla/websocket"
	"github.com/puzpuzpuz/xsync/v3"
)

const (
	clientQueueLen = 16
	writeWait      = 10 * time.Second
)

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts notifications to websocket clients. Slow clients whose
// queue is full miss messages rather than stall the broadcaster.
type Hub struct {
	log      slog.Logger
	upgrader websocket.Upgrader
	nextID   atomic.Uint64
	clients  *xsync.MapOf[uint64, *hubClient]
}

// NewHub returns a hub accepting connections from any origin.
func NewHub(log slog.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: xsync.NewMapOf[uint64, *hubClient](),
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	return h.clients.Size()
}

// ServeHTTP upgrades the request and streams notifications until the client
// goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debugf("Websocket upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}

	id := h.nextID.Add(1)
	c := &hubClient{conn: conn, send: make(chan []byte, clientQueueLen)}
	h.clients.Store(id, c)
	h.log.Debugf("Websocket client %d connected from %s", id, r.RemoteAddr)

	done := make(chan struct{})
	go h.writeLoop(c, done)

	// Incoming messages are ignored; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.clients.Delete(id)
	close(done)
	conn.Close()
	h.log.Debugf("Websocket client %d disconnected", id)
}

func (h *Hub) writeLoop(c *hubClient, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

// Notify queues n for every connected client.
func (h *Hub) Notify(n Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		h.log.Errorf("Unable to encode notification: %v", err)
		return
	}
	h.clients.Range(func(id uint64, c *hubClient) bool {
		select {
		case c.send <- data:
		default:
			h.log.Warnf("Dropping notification for slow client %d", id)
		}
		return true
	})
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.clients.Range(func(id uint64, c *hubClient) bool {
		c.conn.Close()
		return true
	})
}
