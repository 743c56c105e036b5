package hub

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

type testConn struct {
	t    *testing.T
	conn net.Conn
	rw   io.ReadWriter
}

func dial(t *testing.T, srv *httptest.Server) *testConn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, br, _, err := ws.Dial(ctx, url)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	var r io.Reader = conn
	if br != nil {
		r = io.MultiReader(br, conn)
	}
	return &testConn{t: t, conn: conn, rw: struct {
		io.Reader
		io.Writer
	}{r, conn}}
}

func (c *testConn) send(msg Message) {
	c.t.Helper()
	b, _ := json.Marshal(msg)
	if err := wsutil.WriteClientText(c.conn, b); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

func (c *testConn) sendRaw(s string) {
	c.t.Helper()
	if err := wsutil.WriteClientText(c.conn, []byte(s)); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

func (c *testConn) read() Message {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	b, err := wsutil.ReadServerText(c.rw)
	if err != nil {
		c.t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(b, &msg); err != nil {
		c.t.Fatalf("decode %q: %v", b, err)
	}
	return msg
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Len() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", h.Len(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func count(t *testing.T, msg Message) int {
	t.Helper()
	if msg.Type != "counter" || msg.Count == nil {
		t.Fatalf("expected counter frame, got %+v", msg)
	}
	return *msg.Count
}

// ============================================================
// Counter
// ============================================================

func TestCounterInitialValue(t *testing.T) {
	h := NewCounter()
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	c := dial(t, srv)
	if n := count(t, c.read()); n != 0 {
		t.Fatalf("initial count = %d", n)
	}
}

func TestCounterBroadcastsToAll(t *testing.T) {
	h := NewCounter()
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	a := dial(t, srv)
	a.read()
	b := dial(t, srv)
	b.read()

	a.send(Message{Type: "increment"})
	for _, c := range []*testConn{a, b} {
		if n := count(t, c.read()); n != 1 {
			t.Fatalf("count = %d", n)
		}
		note := c.read()
		if note.Type != "notification" || note.Message != "Counter incremented to 1" {
			t.Fatalf("notification = %+v", note)
		}
	}

	b.send(Message{Type: "decrement"})
	b.send(Message{Type: "decrement"})
	a.read()
	a.read()
	if n := count(t, a.read()); n != -1 {
		t.Fatalf("count = %d", n)
	}
	if note := a.read(); note.Message != "Counter decremented to -1" {
		t.Fatalf("notification = %+v", note)
	}

	late := dial(t, srv)
	if n := count(t, late.read()); n != -1 {
		t.Fatalf("late joiner sees %d", n)
	}
}

func TestCounterJoinDuringIncrements(t *testing.T) {
	h := NewCounter()
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	a := dial(t, srv)
	a.read()

	const total = 50
	go func() {
		for i := 0; i < total; i++ {
			b, _ := json.Marshal(Message{Type: "increment"})
			if err := wsutil.WriteClientText(a.conn, b); err != nil {
				return
			}
		}
	}()

	b := dial(t, srv)
	last := -1
	for last != total {
		msg := b.read()
		if msg.Type != "counter" {
			continue
		}
		n := count(t, msg)
		if n < last {
			t.Fatalf("count went back from %d to %d", last, n)
		}
		last = n
	}
}

func TestCounterIgnoresJunk(t *testing.T) {
	h := NewCounter()
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	c := dial(t, srv)
	c.read()
	c.sendRaw("{not json")
	c.send(Message{Type: "reset"})
	c.send(Message{Type: "increment"})
	if n := count(t, c.read()); n != 1 {
		t.Fatalf("count = %d", n)
	}
}

// ============================================================
// Chat
// ============================================================

func TestChatRelaysToEveryone(t *testing.T) {
	h := NewChat()
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	a := dial(t, srv)
	b := dial(t, srv)
	waitClients(t, h, 2)

	a.send(Message{Type: "chat", Message: "hello"})
	for _, c := range []*testConn{a, b} {
		msg := c.read()
		if msg.Type != "chat" || msg.Message != "hello" {
			t.Fatalf("got %+v", msg)
		}
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	h := NewChat()
	srv := httptest.NewServer(h)
	defer srv.Close()

	a := dial(t, srv)
	waitClients(t, h, 1)
	a.conn.Close()
	waitClients(t, h, 0)
}

func TestBroadcastWithoutClients(t *testing.T) {
	h := NewChat()
	h.Broadcast(Message{Type: "chat", Message: "nobody home"})
	if h.Len() != 0 {
		t.Fatal("no clients expected")
	}
}
