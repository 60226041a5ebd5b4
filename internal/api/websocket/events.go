// Package websocket pushes notification events to connected browsers.
package websocket

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // same-origin enforcement happens at the proxy
	},
}

// Event is one message pushed to a client.
type Event struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Message    string `json:"message,omitempty"`
	TargetPath string `json:"target_path,omitempty"`
	Source     string `json:"source,omitempty"`
}

// client wraps one connection with a write lock. gorilla/websocket allows at
// most one concurrent writer per connection, and pushes arrive from whatever
// request goroutine triggered them.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (cl *client) write(ev Event) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.conn.WriteJSON(ev)
}

// EventHub tracks open connections per username and fans events out to them.
type EventHub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	log     *zap.Logger
}

func NewEventHub(log *zap.Logger) *EventHub {
	return &EventHub{
		clients: make(map[string]map[*client]struct{}),
		log:     log,
	}
}

// Serve upgrades the request and parks the connection until the client goes
// away. The auth middleware has already attached the username.
func (h *EventHub) Serve(c *gin.Context) {
	username := c.GetString("username")
	if username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{conn: conn}
	h.register(username, cl)
	defer h.unregister(username, cl)

	// Drain the read side; the stream is push-only.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Push sends an event to every open connection of one user. Dead
// connections are dropped on write failure.
func (h *EventHub) Push(username string, ev Event) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients[username]))
	for cl := range h.clients[username] {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	for _, cl := range clients {
		if err := cl.write(ev); err != nil {
			h.unregister(username, cl)
		}
	}
}

func (h *EventHub) register(username string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[username] == nil {
		h.clients[username] = make(map[*client]struct{})
	}
	h.clients[username][cl] = struct{}{}
}

func (h *EventHub) unregister(username string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[username]; ok {
		delete(set, cl)
		if len(set) == 0 {
			delete(h.clients, username)
		}
	}
	cl.conn.Close()
}
