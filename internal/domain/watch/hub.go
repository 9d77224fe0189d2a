package watch

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"filevault/internal/domain/files"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 64
)

const EventFileChanged = "file_changed"

// Event is pushed to every watcher of the tenant that owns the change.
type Event struct {
	Type   string    `json:"type"`
	Action string    `json:"action"`
	Path   string    `json:"path"`
	Size   int64     `json:"size,omitempty"`
	At     time.Time `json:"at"`
}

type client struct {
	tenant string
	conn   *websocket.Conn
	send   chan []byte

	// prefixes limits delivery to changes under these directories; empty
	// means the whole tenant tree.
	prefixes map[string]bool
}

// Hub fans file changes out to websocket watchers, grouped by tenant. A
// watcher only ever sees its own tenant's changes.
type Hub struct {
	mu      sync.RWMutex
	tenants map[string]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{tenants: make(map[string]map[*client]struct{})}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.tenants[c.tenant]
	if !ok {
		set = make(map[*client]struct{})
		h.tenants[c.tenant] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.tenants[c.tenant]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.tenants, c.tenant)
	}
}

// Watchers reports how many connections tenant currently has.
func (h *Hub) Watchers(tenant string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tenants[tenant])
}

// FileChanged implements files.Observer.
func (h *Hub) FileChanged(_ context.Context, c files.Change) {
	data, err := json.Marshal(Event{Type: EventFileChanged, Action: c.Action, Path: c.Path, Size: c.Size, At: c.At})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.tenants[c.Tenant] {
		if !cl.wants(c.Path) {
			continue
		}
		select {
		case cl.send <- data:
		default:
			log.Printf("watch_event_dropped tenant=%s path=%q", c.Tenant, c.Path)
		}
	}
}

func (c *client) wants(p string) bool {
	if len(c.prefixes) == 0 {
		return true
	}
	for dir := range c.prefixes {
		if dir == "" || p == dir || strings.HasPrefix(p, dir+"/") {
			return true
		}
	}
	return false
}

// ServeWS runs the connection until the peer goes away.
func (h *Hub) ServeWS(conn *websocket.Conn, tenant string) {
	c := &client{
		tenant:   tenant,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		prefixes: make(map[string]bool),
	}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

// readPump accepts {"type":"watch"|"unwatch","path":"dir"} control frames.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var ctl struct {
			Type string `json:"type"`
			Path string `json:"path"`
		}
		if err := json.Unmarshal(msg, &ctl); err != nil {
			continue
		}
		dir := strings.Trim(ctl.Path, "/")

		switch ctl.Type {
		case "watch":
			h.mu.Lock()
			c.prefixes[dir] = true
			h.mu.Unlock()
		case "unwatch":
			h.mu.Lock()
			delete(c.prefixes, dir)
			h.mu.Unlock()
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
