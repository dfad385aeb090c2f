package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
)

// Conn wraps one client connection: the websocket itself, the outbound send
// queue, and the (roomId, username) binding set by the first completed join.
// A connection belongs to at most one room for its lifetime.
type Conn struct {
	id  string
	ws  *websocket.Conn // nil in tests
	out chan []byte

	mu       sync.Mutex
	roomID   string
	username string
	bound    bool
}

// Accept upgrades HTTP to websocket (allow all origins)
func Accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
}

func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{
		id:  uuid.NewString(),
		ws:  ws,
		out: make(chan []byte, 256),
	}
}

func (c *Conn) ID() string { return c.id }

// Bind records the room/name pair on the first join. Later attempts only
// succeed if they repeat the same pair (idempotent rejoin); room switching
// on a live connection is rejected.
func (c *Conn) Bind(roomID, username string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bound {
		return c.roomID == roomID && c.username == username
	}
	c.roomID, c.username, c.bound = roomID, username, true
	return true
}

// Binding returns the recorded pair; ok is false before the first join.
func (c *Conn) Binding() (roomID, username string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID, c.username, c.bound
}

// Unbind clears the pair after an explicit leave so the transport-level
// disconnect that follows is a no-op.
func (c *Conn) Unbind() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID, c.username, c.bound = "", "", false
}

// Send enqueues a frame without blocking; a full queue drops the frame
// (best-effort delivery, the peer is stalled or gone).
func (c *Conn) Send(b []byte) {
	select {
	case c.out <- b:
	default:
	}
}

// Read blocks until it receives a text/binary message
// Returns false if connection is closed
func (c *Conn) Read(ctx context.Context) ([]byte, bool) {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			return nil, false
		}
		if typ == websocket.MessageText || typ == websocket.MessageBinary {
			return data, true
		}
	}
}

// WriteLoop sends outbound messages + periodic pings
// Exits when ctx is cancelled
func (c *Conn) WriteLoop(ctx context.Context) {
	t := time.NewTicker(20 * time.Second)
	defer t.Stop()

	for {
		select {
		case b := <-c.out:
			_ = c.ws.Write(ctx, websocket.MessageText, b)
		case <-t.C:
			_ = c.ws.Ping(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Close closes the websocket normally; safe on test conns without one.
func (c *Conn) Close() error {
	if c.ws == nil {
		return nil
	}
	return c.ws.Close(websocket.StatusNormalClosure, "bye")
}
