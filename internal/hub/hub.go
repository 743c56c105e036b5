// Package hub runs small in-memory WebSocket broadcast rooms.
package hub

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	appLog "github.com/sadopc/asap/internal/log"
)

// Message is the JSON frame exchanged with clients.
type Message struct {
	Type    string `json:"type"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
}

// Handler gives a hub its behaviour.
type Handler interface {
	// Join runs once a client is registered.
	Join(h *Hub, c *Client)
	// Receive runs for every well-formed frame a client sends.
	Receive(h *Hub, c *Client, msg Message)
}

type Client struct {
	conn net.Conn
	mu   sync.Mutex
}

// Send writes one frame to this client only.
func (c *Client) Send(msg Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.write(b)
}

func (c *Client) write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return wsutil.WriteServerText(c.conn, b)
}

type Hub struct {
	name    string
	handler Handler

	mu      sync.Mutex
	clients map[*Client]struct{}
}

func New(name string, handler Handler) *Hub {
	return &Hub{name: name, handler: handler, clients: make(map[*Client]struct{})}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		appLog.Error("websocket upgrade failed", err, "hub", h.name, "remote", r.RemoteAddr)
		return
	}
	c := &Client{conn: conn}
	h.add(c)
	defer h.remove(c)
	appLog.Info("client connected", "hub", h.name, "remote", r.RemoteAddr)

	h.handler.Join(h, c)

	for {
		data, op, err := wsutil.ReadClientData(conn)
		if err != nil {
			appLog.Debug("client gone", "hub", h.name, "remote", r.RemoteAddr, "reason", err.Error())
			return
		}
		if op != ws.OpText {
			continue
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			appLog.Error("bad frame", err, "hub", h.name)
			continue
		}
		h.handler.Receive(h, c, msg)
	}
}

// Broadcast sends msg to every client. Clients that fail the write are
// dropped.
func (h *Hub) Broadcast(msg Message) {
	b, err := json.Marshal(msg)
	if err != nil {
		appLog.Error("marshal broadcast", err, "hub", h.name)
		return
	}

	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.write(b); err != nil {
			appLog.Error("broadcast write failed", err, "hub", h.name)
			h.remove(c)
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
		delete(h.clients, c)
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.conn.Close()
	}
}
