package hub

import (
	"fmt"
	"sync"

	appLog "github.com/sadopc/asap/internal/log"
)

// Counter is a shared integer clients can increment and decrement. Every
// change is broadcast followed by a notification frame.
type Counter struct {
	mu    sync.Mutex
	count int
}

func NewCounter() *Hub {
	return New("counter", &Counter{})
}

// Join sends the current count under the counter lock, so a change racing
// the join reaches the new client after it.
func (c *Counter) Join(h *Hub, cl *Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.count
	if err := cl.Send(Message{Type: "counter", Count: &n}); err != nil {
		appLog.Error("send initial count", err)
	}
}

// Receive holds the counter lock through both broadcasts so every client
// sees changes in order.
func (c *Counter) Receive(h *Hub, _ *Client, msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var verb string
	switch msg.Type {
	case "increment":
		c.count++
		verb = "incremented"
	case "decrement":
		c.count--
		verb = "decremented"
	default:
		return
	}
	n := c.count
	h.Broadcast(Message{Type: "counter", Count: &n})
	h.Broadcast(Message{Type: "notification", Message: fmt.Sprintf("Counter %s to %d", verb, n)})
}

// Chat relays chat frames to everyone, the sender included.
type Chat struct{}

func NewChat() *Hub {
	return New("chat", Chat{})
}

func (Chat) Join(*Hub, *Client) {}

func (Chat) Receive(h *Hub, _ *Client, msg Message) {
	if msg.Type != "chat" {
		return
	}
	appLog.Info("chat message", "message", msg.Message)
	h.Broadcast(Message{Type: "chat", Message: msg.Message})
}
